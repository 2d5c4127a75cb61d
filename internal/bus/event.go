package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Instance  string
	Timestamp time.Time
	Payload   any
}

// Raw protocol events published by the wa adapter and consumed by the
// sync engine. These never leave the process.
const (
	KindWAMessage   = "wa.message"
	KindWAHistory   = "wa.history"
	KindWAChat      = "wa.chat"
	KindWAContacts  = "wa.contacts"
	KindWAReceipt   = "wa.receipt"
	KindWAConnected = "wa.connected"
)

// Domain events. These are the kinds a webhook subscription can select.
const (
	KindApplicationStartup = "application.startup"
	KindQRCodeUpdated      = "qrcode.updated"
	KindConnectionUpdate   = "connection.update"
	KindMessagesUpsert     = "messages.upsert"
	KindMessagesUpdate     = "messages.update"
	KindChatsUpsert        = "chats.upsert"
	KindContactsUpsert     = "contacts.upsert"
	KindSendMessage        = "send.message"
)

// WebhookKinds lists every kind eligible for webhook delivery.
var WebhookKinds = []string{
	KindApplicationStartup,
	KindQRCodeUpdated,
	KindConnectionUpdate,
	KindMessagesUpsert,
	KindMessagesUpdate,
	KindChatsUpsert,
	KindContactsUpsert,
	KindSendMessage,
}
