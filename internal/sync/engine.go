// Package sync turns raw protocol events into store writes and domain
// events. It is the only writer of chats, contacts and messages during
// normal operation.
package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/sanitize"
	"github.com/pvictorino/zapgate/internal/store"
)

// Engine consumes wa.* events and persists them.
type Engine struct {
	db  *store.DB
	bus *bus.Bus
	log *zap.Logger
}

func NewEngine(db *store.DB, b *bus.Bus, log *zap.Logger) *Engine {
	return &Engine{db: db, bus: b, log: log}
}

// Run consumes raw protocol events until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	events, unsub := e.bus.Subscribe("wa.", 256)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			if err := e.handle(evt); err != nil {
				e.log.Error("sync failed", zap.String("kind", evt.Kind), zap.Error(err))
			}
		}
	}
}

func (e *Engine) handle(evt bus.Event) error {
	switch evt.Kind {
	case bus.KindWAMessage:
		msg, ok := evt.Payload.(*store.Message)
		if !ok {
			return errors.New("wa.message payload is not a message")
		}
		return e.handleMessage(evt.Instance, msg)

	case bus.KindWAHistory:
		batch, ok := evt.Payload.(*bus.HistorySync)
		if !ok {
			return errors.New("wa.history payload is not a history batch")
		}
		return e.handleHistory(evt.Instance, batch)

	case bus.KindWAReceipt:
		receipt, ok := evt.Payload.(*bus.Receipt)
		if !ok {
			return errors.New("wa.receipt payload is not a receipt")
		}
		return e.handleReceipt(evt.Instance, receipt)

	case bus.KindWAContacts:
		contacts, ok := evt.Payload.([]store.Contact)
		if !ok {
			return errors.New("wa.contacts payload is not a contact list")
		}
		return e.handleContacts(evt.Instance, contacts)

	case bus.KindWAChat:
		chat, ok := evt.Payload.(*store.Chat)
		if !ok {
			return errors.New("wa.chat payload is not a chat")
		}
		return e.handleChat(evt.Instance, chat)
	}
	return nil
}

func (e *Engine) handleMessage(instanceID string, msg *store.Message) error {
	msg.InstanceID = instanceID

	// Status broadcast posts are stored but never become a chat.
	if !identity.IsStatusBroadcast(msg.Key.RemoteJID) {
		if err := e.db.TouchChat(instanceID, msg.Key.RemoteJID, msg.Key.FromMe); err != nil {
			return err
		}
	}
	if err := e.db.UpsertMessage(msg); err != nil {
		return err
	}

	e.publish(bus.KindMessagesUpsert, instanceID, sanitize.CleanMessage(msg))
	return nil
}

func (e *Engine) handleHistory(instanceID string, batch *bus.HistorySync) error {
	for i := range batch.Chats {
		batch.Chats[i].InstanceID = instanceID
		if err := e.db.UpsertChat(&batch.Chats[i]); err != nil {
			return err
		}
	}
	for i := range batch.Contacts {
		batch.Contacts[i].InstanceID = instanceID
	}
	if len(batch.Contacts) > 0 {
		if err := e.db.BulkUpsertContacts(batch.Contacts); err != nil {
			return err
		}
	}
	for i := range batch.Messages {
		batch.Messages[i].InstanceID = instanceID
		if err := e.db.UpsertMessage(&batch.Messages[i]); err != nil {
			return err
		}
	}

	if len(batch.Chats) > 0 {
		e.publish(bus.KindChatsUpsert, instanceID, batch.Chats)
	}
	if len(batch.Contacts) > 0 {
		e.publish(bus.KindContactsUpsert, instanceID, batch.Contacts)
	}
	e.log.Info("history batch synced",
		zap.String("instance", instanceID),
		zap.Int("chats", len(batch.Chats)),
		zap.Int("contacts", len(batch.Contacts)),
		zap.Int("messages", len(batch.Messages)))
	return nil
}

func (e *Engine) handleReceipt(instanceID string, receipt *bus.Receipt) error {
	recorded := false
	for _, keyID := range receipt.KeyIDs {
		err := e.db.InsertMessageUpdateByKey(instanceID, keyID, receipt.RemoteJID, receipt.FromMe, receipt.Status)
		if errors.Is(err, store.ErrNotFound) {
			// Receipt for a message we never synced.
			continue
		}
		if err != nil {
			return err
		}
		recorded = true
	}
	if recorded {
		e.publish(bus.KindMessagesUpdate, instanceID, receipt)
	}
	return nil
}

func (e *Engine) handleContacts(instanceID string, contacts []store.Contact) error {
	for i := range contacts {
		contacts[i].InstanceID = instanceID
	}
	if err := e.db.BulkUpsertContacts(contacts); err != nil {
		return err
	}
	e.publish(bus.KindContactsUpsert, instanceID, contacts)
	return nil
}

func (e *Engine) handleChat(instanceID string, chat *store.Chat) error {
	chat.InstanceID = instanceID
	if err := e.db.UpsertChat(chat); err != nil {
		return err
	}
	e.publish(bus.KindChatsUpsert, instanceID, chat)
	return nil
}

func (e *Engine) publish(kind, instanceID string, payload any) {
	e.bus.Emit(kind, instanceID, payload)
}
