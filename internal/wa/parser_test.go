package wa

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func TestMessageSource(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"3EB0AABBCCDD", "web"},
		{"BAE5AABBCCDD", "android"},
		{"3AAABBCCDD", "ios"},
		{"FFFF00000000", "unknown"},
		{"", "unknown"},
	}
	for _, c := range cases {
		if got := messageSource(c.id); got != c.want {
			t.Errorf("messageSource(%q) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestDetectMessageType(t *testing.T) {
	cases := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, "unknown"},
		{"conversation", &waE2E.Message{Conversation: proto.String("hi")}, "conversation"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hi")}}, "extendedTextMessage"},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, "imageMessage"},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, "audioMessage"},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, "documentMessage"},
		{"empty", &waE2E.Message{}, "unknown"},
	}
	for _, c := range cases {
		if got := detectMessageType(c.msg); got != c.want {
			t.Errorf("%s: type = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestParseContentImage(t *testing.T) {
	msg := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:        proto.String("https://mmg.whatsapp.net/x"),
			Mimetype:   proto.String("image/jpeg"),
			Caption:    proto.String("pic"),
			FileLength: proto.Uint64(1234),
		},
	}
	c := parseContent(msg)
	if c.Image == nil {
		t.Fatal("image content missing")
	}
	if c.Image.URL != "https://mmg.whatsapp.net/x" || c.Image.Caption != "pic" || c.Image.FileLength != 1234 {
		t.Errorf("image = %+v", c.Image)
	}
}

func TestParseContentAudio(t *testing.T) {
	msg := &waE2E.Message{
		AudioMessage: &waE2E.AudioMessage{
			URL:      proto.String("https://mmg.whatsapp.net/a"),
			Mimetype: proto.String("audio/ogg"),
			Seconds:  proto.Uint32(17),
			PTT:      proto.Bool(true),
		},
	}
	c := parseContent(msg)
	if c.Audio == nil || c.Audio.Seconds != 17 || !c.Audio.PTT {
		t.Errorf("audio = %+v", c.Audio)
	}
}

func TestParseContentDocumentWithCaption(t *testing.T) {
	msg := &waE2E.Message{
		DocumentWithCaptionMessage: &waE2E.FutureProofMessage{
			Message: &waE2E.Message{
				DocumentMessage: &waE2E.DocumentMessage{
					Caption:  proto.String("report"),
					FileName: proto.String("q3.pdf"),
				},
			},
		},
	}
	c := parseContent(msg)
	if c.DocumentWithCaption == nil {
		t.Fatal("document content missing")
	}
	if c.DocumentWithCaption.Caption != "report" || c.DocumentWithCaption.FileName != "q3.pdf" {
		t.Errorf("document = %+v", c.DocumentWithCaption)
	}
}

func TestReceiptStatus(t *testing.T) {
	cases := []struct {
		in   types.ReceiptType
		want string
	}{
		{types.ReceiptTypeDelivered, "DELIVERY_ACK"},
		{types.ReceiptTypeRead, "READ"},
		{types.ReceiptTypePlayed, "PLAYED"},
		{types.ReceiptTypeSender, ""},
		{types.ReceiptTypeRetry, ""},
	}
	for _, c := range cases {
		if got := receiptStatus(c.in); got != c.want {
			t.Errorf("receiptStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
