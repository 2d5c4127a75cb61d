package sanitize

import (
	"testing"

	"github.com/pvictorino/zapgate/internal/store"
)

func TestCleanContentImageKeepsCaptionOnly(t *testing.T) {
	in := &store.MessageContent{
		Image: &store.MediaContent{
			URL:           "https://mmg.whatsapp.net/x",
			Mimetype:      "image/jpeg",
			Caption:       "look at this",
			FileLength:    123456,
			JPEGThumbnail: []byte{0xff, 0xd8},
		},
		Base64: "AAAA",
	}
	out := CleanContent(in)

	if out.Image.Caption != "look at this" {
		t.Errorf("caption = %q", out.Image.Caption)
	}
	if out.Image.URL != "" || out.Image.Mimetype != "" || out.Image.FileLength != 0 || out.Image.JPEGThumbnail != nil {
		t.Errorf("media fields survived: %+v", out.Image)
	}
	if out.Base64 != "" {
		t.Error("base64 survived")
	}
	// Input untouched.
	if in.Image.URL == "" || in.Base64 == "" {
		t.Error("input was mutated")
	}
}

func TestCleanContentAudioKeepsSeconds(t *testing.T) {
	in := &store.MessageContent{
		Audio: &store.AudioContent{URL: "https://mmg.whatsapp.net/a", Mimetype: "audio/ogg", Seconds: 42, PTT: true},
	}
	out := CleanContent(in)
	if out.Audio.Seconds != 42 {
		t.Errorf("seconds = %d", out.Audio.Seconds)
	}
	if out.Audio.URL != "" || out.Audio.Mimetype != "" || out.Audio.PTT {
		t.Errorf("audio fields survived: %+v", out.Audio)
	}
}

func TestCleanContentStickerKeepsMarker(t *testing.T) {
	in := &store.MessageContent{
		Sticker: &store.StickerContent{URL: "https://mmg.whatsapp.net/s", Mimetype: "image/webp"},
	}
	out := CleanContent(in)
	if out.Sticker == nil {
		t.Fatal("sticker marker dropped")
	}
	if out.Sticker.URL != "" || out.Sticker.Mimetype != "" {
		t.Errorf("sticker fields survived: %+v", out.Sticker)
	}
}

func TestCleanContentDocumentKeepsCaptionAndFileName(t *testing.T) {
	in := &store.MessageContent{
		Document: &store.DocumentContent{URL: "https://mmg.whatsapp.net/d", Mimetype: "application/pdf", Caption: "report", FileName: "q3.pdf"},
	}
	out := CleanContent(in)
	if out.Document.Caption != "report" || out.Document.FileName != "q3.pdf" {
		t.Errorf("document = %+v", out.Document)
	}
	if out.Document.URL != "" || out.Document.Mimetype != "" {
		t.Errorf("document fields survived: %+v", out.Document)
	}
}

func TestCleanContentTextPassesThrough(t *testing.T) {
	in := &store.MessageContent{Conversation: "hello", MediaURL: "https://media.example/1"}
	out := CleanContent(in)
	if out.Conversation != "hello" {
		t.Errorf("conversation = %q", out.Conversation)
	}
	if out.MediaURL != "https://media.example/1" {
		t.Error("hosted media url dropped")
	}
}

func TestCleanMessageNil(t *testing.T) {
	if CleanMessage(nil) != nil {
		t.Error("nil message must stay nil")
	}
	m := CleanMessage(&store.Message{Key: store.MessageKey{ID: "X"}})
	if m.Content != nil {
		t.Error("nil content must stay nil")
	}
}

func TestHasMedia(t *testing.T) {
	cases := []struct {
		name string
		c    *store.MessageContent
		want bool
	}{
		{"nil", nil, false},
		{"text", &store.MessageContent{Conversation: "hi"}, false},
		{"context info only", &store.MessageContent{ContextInfo: []byte(`{"deviceListMetadata":{}}`)}, false},
		{"image", &store.MessageContent{Image: &store.MediaContent{URL: "https://x"}}, true},
		{"image caption only", &store.MessageContent{Image: &store.MediaContent{Caption: "pic"}}, true},
		{"image empty", &store.MessageContent{Image: &store.MediaContent{}}, false},
		{"audio", &store.MessageContent{Audio: &store.AudioContent{Mimetype: "audio/ogg"}}, true},
		{"audio seconds only", &store.MessageContent{Audio: &store.AudioContent{Seconds: 7}}, true},
		{"document", &store.MessageContent{Document: &store.DocumentContent{Mimetype: "application/pdf"}}, true},
		{"document filename only", &store.MessageContent{Document: &store.DocumentContent{FileName: "q3.pdf"}}, true},
		{"sticker", &store.MessageContent{Sticker: &store.StickerContent{URL: "https://x"}}, true},
	}
	for _, c := range cases {
		if got := HasMedia(c.c); got != c.want {
			t.Errorf("%s: HasMedia = %v, want %v", c.name, got, c.want)
		}
	}
}
