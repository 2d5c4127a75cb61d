package store

import "encoding/json"

// MessageContent is the kind-tagged message payload. Exactly one of the
// kind fields is normally set; text messages use Conversation or ExtendedText.
type MessageContent struct {
	Conversation        string           `json:"conversation,omitempty"`
	ExtendedText        *ExtendedText    `json:"extendedTextMessage,omitempty"`
	Image               *MediaContent    `json:"imageMessage,omitempty"`
	Video               *MediaContent    `json:"videoMessage,omitempty"`
	PTV                 *MediaContent    `json:"ptvMessage,omitempty"`
	Audio               *AudioContent    `json:"audioMessage,omitempty"`
	Sticker             *StickerContent  `json:"stickerMessage,omitempty"`
	Document            *DocumentContent `json:"documentMessage,omitempty"`
	DocumentWithCaption *DocumentContent `json:"documentWithCaptionMessage,omitempty"`
	Location            json.RawMessage  `json:"locationMessage,omitempty"`
	ContactCard         json.RawMessage  `json:"contactMessage,omitempty"`
	Reaction            json.RawMessage  `json:"reactionMessage,omitempty"`
	ContextInfo         json.RawMessage  `json:"messageContextInfo,omitempty"`

	// Base64 carries inlined media bytes; stripped whenever the payload
	// crosses the service boundary. MediaURL points at separately hosted
	// media and survives sanitization.
	Base64   string `json:"base64,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
}

// ExtendedText is the payload of a text message with metadata.
type ExtendedText struct {
	Text string `json:"text,omitempty"`
}

// MediaContent is the payload of image, video and ptv messages.
type MediaContent struct {
	URL           string `json:"url,omitempty"`
	Mimetype      string `json:"mimetype,omitempty"`
	Caption       string `json:"caption,omitempty"`
	FileLength    uint64 `json:"fileLength,omitempty"`
	JPEGThumbnail []byte `json:"jpegThumbnail,omitempty"`
}

// AudioContent is the payload of an audio message.
type AudioContent struct {
	URL      string `json:"url,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	Seconds  uint32 `json:"seconds,omitempty"`
	PTT      bool   `json:"ptt,omitempty"`
}

// StickerContent is the payload of a sticker message.
type StickerContent struct {
	URL      string `json:"url,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
}

// DocumentContent is the payload of document and document-with-caption messages.
type DocumentContent struct {
	URL      string `json:"url,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	Caption  string `json:"caption,omitempty"`
	FileName string `json:"fileName,omitempty"`
}
