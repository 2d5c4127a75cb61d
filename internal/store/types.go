package store

import "encoding/json"

// Chat represents a synced chat. RemoteJID may be in either address form
// (phone or LID), depending on which protocol session produced it.
type Chat struct {
	ID             string `json:"id"`
	InstanceID     string `json:"instanceId"`
	RemoteJID      string `json:"remoteJid"`
	Name           string `json:"name,omitempty"`
	UnreadMessages int    `json:"unreadMessages"`
	CreatedAt      int64  `json:"createdAt"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// Contact represents a synced contact. RemoteJID is always the phone form.
type Contact struct {
	ID            string `json:"id"`
	InstanceID    string `json:"instanceId"`
	RemoteJID     string `json:"remoteJid"`
	PushName      string `json:"pushName,omitempty"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// MessageKey identifies a message within a chat.
type MessageKey struct {
	ID          string `json:"id"`
	FromMe      bool   `json:"fromMe"`
	RemoteJID   string `json:"remoteJid"`
	Participant string `json:"participant,omitempty"`
}

// Message represents a synced message. Append-only; only delivery status
// changes after insertion, via MessageUpdate rows.
type Message struct {
	ID               string          `json:"id"`
	InstanceID       string          `json:"instanceId"`
	Key              MessageKey      `json:"key"`
	PushName         string          `json:"pushName,omitempty"`
	MessageType      string          `json:"messageType"`
	Content          *MessageContent `json:"message,omitempty"`
	MessageTimestamp int64           `json:"messageTimestamp"` // unix seconds
	Source           string          `json:"source,omitempty"`
	ContextInfo      json.RawMessage `json:"contextInfo,omitempty"`
}

// MessageUpdate records a delivery status transition for a message.
type MessageUpdate struct {
	ID         string `json:"id"`
	InstanceID string `json:"instanceId"`
	MessageID  string `json:"messageId"`
	KeyID      string `json:"keyId"`
	RemoteJID  string `json:"remoteJid"`
	FromMe     bool   `json:"fromMe"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"`
}

// LastMessage is the most recent message row for one address, as returned
// by the latest-per-address query.
type LastMessage struct {
	RemoteJID        string          `json:"remoteJid"`
	MessageTimestamp int64           `json:"messageTimestamp"`
	Content          *MessageContent `json:"message,omitempty"`
}

// Settings holds per-instance behavior flags.
type Settings struct {
	InstanceID      string `json:"instanceId"`
	RejectCall      bool   `json:"rejectCall"`
	MsgCall         string `json:"msgCall,omitempty"`
	GroupsIgnore    bool   `json:"groupsIgnore"`
	AlwaysOnline    bool   `json:"alwaysOnline"`
	ReadMessages    bool   `json:"readMessages"`
	ReadStatus      bool   `json:"readStatus"`
	SyncFullHistory bool   `json:"syncFullHistory"`
}

// Proxy holds per-instance outbound proxy configuration.
type Proxy struct {
	InstanceID string `json:"instanceId"`
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host"`
	Port       string `json:"port"`
	Protocol   string `json:"protocol"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Webhook holds a per-instance webhook subscription.
type Webhook struct {
	InstanceID    string   `json:"instanceId"`
	URL           string   `json:"url"`
	Enabled       bool     `json:"enabled"`
	Events        []string `json:"events"`
	WebhookBase64 bool     `json:"webhookBase64"`
}

// WebhookJob is a queued webhook delivery.
type WebhookJob struct {
	ID         string
	InstanceID string
	Event      string
	Payload    json.RawMessage
	Status     string // queued, delivered, failed
	Attempts   int
	LastError  string
	CreatedAt  int64
}
