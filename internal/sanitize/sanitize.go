// Package sanitize strips heavy media payloads from messages before they
// cross the service boundary. Descriptive fields survive; inlined bytes
// and transport details do not.
package sanitize

import "github.com/pvictorino/zapgate/internal/store"

// CleanMessage returns a copy of m safe to serialize outward. The input
// is never mutated.
func CleanMessage(m *store.Message) *store.Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Content = CleanContent(m.Content)
	return &out
}

// CleanContent returns a reduced copy of a message payload:
//
//   - image and video keep only their caption
//   - audio keeps only its duration
//   - stickers keep an empty marker so the kind stays detectable
//   - documents keep caption and file name
//   - inlined base64 bytes are always dropped
//
// Text, location, contact, reaction and hosted media URLs pass through.
func CleanContent(c *store.MessageContent) *store.MessageContent {
	if c == nil {
		return nil
	}
	out := *c
	out.Base64 = ""

	if c.Image != nil {
		out.Image = &store.MediaContent{Caption: c.Image.Caption}
	}
	if c.Video != nil {
		out.Video = &store.MediaContent{Caption: c.Video.Caption}
	}
	if c.Audio != nil {
		out.Audio = &store.AudioContent{Seconds: c.Audio.Seconds}
	}
	if c.Sticker != nil {
		out.Sticker = &store.StickerContent{}
	}
	if c.Document != nil {
		out.Document = &store.DocumentContent{Caption: c.Document.Caption, FileName: c.Document.FileName}
	}
	if c.DocumentWithCaption != nil {
		out.DocumentWithCaption = &store.DocumentContent{Caption: c.DocumentWithCaption.Caption, FileName: c.DocumentWithCaption.FileName}
	}
	return &out
}

// HasMedia reports whether a payload carries a media kind with any
// content at all; a caption-only image still counts. A payload holding
// only protocol context info does not.
func HasMedia(c *store.MessageContent) bool {
	if c == nil {
		return false
	}
	return mediaSet(c.Image) || mediaSet(c.Video) || mediaSet(c.PTV) ||
		audioSet(c.Audio) || stickerSet(c.Sticker) ||
		documentSet(c.Document) || documentSet(c.DocumentWithCaption)
}

func mediaSet(m *store.MediaContent) bool {
	return m != nil && (m.URL != "" || m.Mimetype != "" || m.Caption != "" || m.FileLength > 0 || len(m.JPEGThumbnail) > 0)
}

func audioSet(a *store.AudioContent) bool {
	return a != nil && (a.URL != "" || a.Mimetype != "" || a.Seconds > 0 || a.PTT)
}

func stickerSet(s *store.StickerContent) bool {
	return s != nil && (s.URL != "" || s.Mimetype != "")
}

func documentSet(d *store.DocumentContent) bool {
	return d != nil && (d.URL != "" || d.Mimetype != "" || d.Caption != "" || d.FileName != "")
}
