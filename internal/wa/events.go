package wa

import (
	"context"
	"time"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/status"
	"github.com/pvictorino/zapgate/internal/store"
)

// ContactSource provides the device store contact list on connect.
type ContactSource interface {
	GetContacts(ctx context.Context) []store.Contact
}

// EventHandler processes whatsmeow events, drives the state machine,
// and publishes parsed protocol events on the bus. It never touches the
// store; the sync engine subscribes to the bus independently.
type EventHandler struct {
	bus      *bus.Bus
	machine  *status.Machine
	contacts ContactSource
	name     string
	log      *zap.Logger
}

// NewEventHandler creates a new event handler for the hosted account.
func NewEventHandler(b *bus.Bus, machine *status.Machine, contacts ContactSource, name string, log *zap.Logger) *EventHandler {
	return &EventHandler{
		bus:      b,
		machine:  machine,
		contacts: contacts,
		name:     name,
		log:      log,
	}
}

// Handle is the main whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.publish(bus.KindWAMessage, ParseMessage(evt))

	case *events.Receipt:
		h.handleReceipt(evt)

	case *events.HistorySync:
		h.handleHistorySync(evt)

	case *events.Connected:
		h.log.Info("connected")
		_ = h.machine.Transition(status.Open)
		h.publish(bus.KindWAConnected, nil)
		if h.contacts != nil {
			go h.publishContacts()
		}

	case *events.Disconnected:
		h.log.Warn("disconnected")
		_ = h.machine.Transition(status.Connecting)

	case *events.LoggedOut:
		h.log.Warn("logged out", zap.String("reason", evt.Reason.String()))
		_ = h.machine.Transition(status.Close)
	}
}

func (h *EventHandler) handleReceipt(evt *events.Receipt) {
	st := receiptStatus(evt.Type)
	if st == "" {
		return
	}
	keyIDs := make([]string, len(evt.MessageIDs))
	for i, id := range evt.MessageIDs {
		keyIDs[i] = string(id)
	}
	h.publish(bus.KindWAReceipt, &bus.Receipt{
		KeyIDs:    keyIDs,
		RemoteJID: evt.Chat.String(),
		FromMe:    evt.IsFromMe,
		Status:    st,
	})
}

func (h *EventHandler) handleHistorySync(evt *events.HistorySync) {
	data := evt.Data
	if data == nil {
		return
	}

	batch := &bus.HistorySync{}
	for _, conv := range data.GetConversations() {
		chatJID := conv.GetID()
		batch.Chats = append(batch.Chats, store.Chat{
			RemoteJID:      chatJID,
			Name:           conv.GetName(),
			UnreadMessages: int(conv.GetUnreadCount()),
		})
		for _, hm := range conv.GetMessages() {
			wmsg := hm.GetMessage()
			if wmsg == nil || wmsg.GetMessage() == nil {
				continue
			}
			if msg := ParseHistoryMessage(chatJID, wmsg); msg != nil {
				batch.Messages = append(batch.Messages, *msg)
			}
		}
	}

	if len(batch.Chats) > 0 || len(batch.Messages) > 0 {
		h.publish(bus.KindWAHistory, batch)
	}
}

func (h *EventHandler) publishContacts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if contacts := h.contacts.GetContacts(ctx); len(contacts) > 0 {
		h.publish(bus.KindWAContacts, contacts)
	}
}

func (h *EventHandler) publish(kind string, payload any) {
	h.bus.Emit(kind, h.name, payload)
}

// receiptStatus maps a protocol receipt type to a delivery status.
// Receipt types outside the delivery lifecycle map to "".
func receiptStatus(t types.ReceiptType) string {
	switch t {
	case types.ReceiptTypeDelivered:
		return "DELIVERY_ACK"
	case types.ReceiptTypeRead:
		return "READ"
	case types.ReceiptTypePlayed:
		return "PLAYED"
	default:
		return ""
	}
}
