package wa

import (
	"encoding/json"
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/pvictorino/zapgate/internal/store"
)

// ParseMessage normalizes a live whatsmeow message event into a
// persistable message.
func ParseMessage(evt *events.Message) *store.Message {
	key := store.MessageKey{
		ID:        evt.Info.ID,
		FromMe:    evt.Info.IsFromMe,
		RemoteJID: evt.Info.Chat.String(),
	}
	if evt.Info.IsGroup {
		key.Participant = evt.Info.Sender.ToNonAD().String()
	}

	return &store.Message{
		Key:              key,
		PushName:         evt.Info.PushName,
		MessageType:      detectMessageType(evt.Message),
		Content:          parseContent(evt.Message),
		MessageTimestamp: evt.Info.Timestamp.Unix(),
		Source:           messageSource(evt.Info.ID),
	}
}

// ParseHistoryMessage normalizes one history sync message. Returns nil
// for entries without a payload.
func ParseHistoryMessage(chatJID string, wmsg *waWeb.WebMessageInfo) *store.Message {
	payload := wmsg.GetMessage()
	if payload == nil {
		return nil
	}
	key := wmsg.GetKey()

	return &store.Message{
		Key: store.MessageKey{
			ID:          key.GetID(),
			FromMe:      key.GetFromMe(),
			RemoteJID:   chatJID,
			Participant: key.GetParticipant(),
		},
		PushName:         wmsg.GetPushName(),
		MessageType:      detectMessageType(payload),
		Content:          parseContent(payload),
		MessageTimestamp: int64(wmsg.GetMessageTimestamp()),
		Source:           messageSource(key.GetID()),
	}
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case msg.GetConversation() != "":
		return "conversation"
	case msg.GetExtendedTextMessage() != nil:
		return "extendedTextMessage"
	case msg.GetImageMessage() != nil:
		return "imageMessage"
	case msg.GetVideoMessage() != nil:
		return "videoMessage"
	case msg.GetPtvMessage() != nil:
		return "ptvMessage"
	case msg.GetAudioMessage() != nil:
		return "audioMessage"
	case msg.GetStickerMessage() != nil:
		return "stickerMessage"
	case msg.GetDocumentMessage() != nil:
		return "documentMessage"
	case msg.GetDocumentWithCaptionMessage() != nil:
		return "documentWithCaptionMessage"
	case msg.GetLocationMessage() != nil:
		return "locationMessage"
	case msg.GetContactMessage() != nil:
		return "contactMessage"
	case msg.GetReactionMessage() != nil:
		return "reactionMessage"
	default:
		return "unknown"
	}
}

func parseContent(msg *waE2E.Message) *store.MessageContent {
	if msg == nil {
		return nil
	}
	c := &store.MessageContent{}

	if v := msg.GetConversation(); v != "" {
		c.Conversation = v
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		c.ExtendedText = &store.ExtendedText{Text: ext.GetText()}
	}
	if img := msg.GetImageMessage(); img != nil {
		c.Image = &store.MediaContent{
			URL:           img.GetURL(),
			Mimetype:      img.GetMimetype(),
			Caption:       img.GetCaption(),
			FileLength:    img.GetFileLength(),
			JPEGThumbnail: img.GetJPEGThumbnail(),
		}
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		c.Video = &store.MediaContent{
			URL:           vid.GetURL(),
			Mimetype:      vid.GetMimetype(),
			Caption:       vid.GetCaption(),
			FileLength:    vid.GetFileLength(),
			JPEGThumbnail: vid.GetJPEGThumbnail(),
		}
	}
	if ptv := msg.GetPtvMessage(); ptv != nil {
		c.PTV = &store.MediaContent{
			URL:        ptv.GetURL(),
			Mimetype:   ptv.GetMimetype(),
			FileLength: ptv.GetFileLength(),
		}
	}
	if aud := msg.GetAudioMessage(); aud != nil {
		c.Audio = &store.AudioContent{
			URL:      aud.GetURL(),
			Mimetype: aud.GetMimetype(),
			Seconds:  aud.GetSeconds(),
			PTT:      aud.GetPTT(),
		}
	}
	if stk := msg.GetStickerMessage(); stk != nil {
		c.Sticker = &store.StickerContent{
			URL:      stk.GetURL(),
			Mimetype: stk.GetMimetype(),
		}
	}
	if doc := msg.GetDocumentMessage(); doc != nil {
		c.Document = &store.DocumentContent{
			URL:      doc.GetURL(),
			Mimetype: doc.GetMimetype(),
			Caption:  doc.GetCaption(),
			FileName: doc.GetFileName(),
		}
	}
	if dwc := msg.GetDocumentWithCaptionMessage(); dwc != nil {
		if doc := dwc.GetMessage().GetDocumentMessage(); doc != nil {
			c.DocumentWithCaption = &store.DocumentContent{
				URL:      doc.GetURL(),
				Mimetype: doc.GetMimetype(),
				Caption:  doc.GetCaption(),
				FileName: doc.GetFileName(),
			}
		}
	}
	if loc := msg.GetLocationMessage(); loc != nil {
		c.Location = mustJSON(map[string]any{
			"degreesLatitude":  loc.GetDegreesLatitude(),
			"degreesLongitude": loc.GetDegreesLongitude(),
			"name":             loc.GetName(),
		})
	}
	if ct := msg.GetContactMessage(); ct != nil {
		c.ContactCard = mustJSON(map[string]any{
			"displayName": ct.GetDisplayName(),
			"vcard":       ct.GetVcard(),
		})
	}
	if re := msg.GetReactionMessage(); re != nil {
		c.Reaction = mustJSON(map[string]any{
			"text": re.GetText(),
			"key":  re.GetKey().GetID(),
		})
	}
	return c
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// messageSource derives the originating client from the message id
// prefix convention.
func messageSource(id string) string {
	switch {
	case strings.HasPrefix(id, "3EB0"):
		return "web"
	case strings.HasPrefix(id, "BAE5"):
		return "android"
	case strings.HasPrefix(id, "3A"):
		return "ios"
	default:
		return "unknown"
	}
}
