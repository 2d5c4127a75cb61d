package bus

import "github.com/pvictorino/zapgate/internal/store"

// HistorySync is the payload of a wa.history event: one batch of chats,
// contacts and messages from a protocol history sync.
type HistorySync struct {
	Chats    []store.Chat
	Contacts []store.Contact
	Messages []store.Message
}

// Receipt is the payload of a wa.receipt event: a delivery status
// transition for one or more message keys in a chat.
type Receipt struct {
	KeyIDs    []string `json:"keyIds"`
	RemoteJID string   `json:"remoteJid"`
	FromMe    bool     `json:"fromMe"`
	Status    string   `json:"status"`
}
