package api

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/query"
	"github.com/pvictorino/zapgate/internal/sanitize"
	"github.com/pvictorino/zapgate/internal/store"
)

// ErrNoSession is returned for operations that need a live protocol
// session when none is connected.
var ErrNoSession = errors.New("no active session")

// Sender pushes outbound messages through the protocol session.
type Sender interface {
	SendText(ctx context.Context, toJID, text string) (*store.Message, error)
}

// MessageService answers message reads and sends text messages.
type MessageService struct {
	db     *store.DB
	engine *query.Engine
	sender Sender
	bus    *bus.Bus
	log    *zap.Logger
}

func NewMessageService(db *store.DB, engine *query.Engine, sender Sender, b *bus.Bus, log *zap.Logger) *MessageService {
	return &MessageService{db: db, engine: engine, sender: sender, bus: b, log: log}
}

// FindMessages returns one page of messages matching the filter, with
// payloads sanitized for the wire.
func (s *MessageService) FindMessages(ctx context.Context, f query.MessageFilter, page query.Page) (*query.MessagePage, error) {
	if f.Key.RemoteJID != "" {
		f.Key.RemoteJID = identity.NormalizeJID(f.Key.RemoteJID)
	}
	result, err := s.engine.FindMessages(ctx, f, page)
	if err != nil {
		return nil, err
	}
	for i := range result.Records {
		result.Records[i].Content = sanitize.CleanContent(result.Records[i].Content)
	}
	return result, nil
}

// FindStatusMessages returns the raw delivery status transitions for an
// address, optionally narrowed to one message key id.
func (s *MessageService) FindStatusMessages(instanceID, remoteJID, keyID string, page query.Page) ([]store.MessageUpdate, error) {
	if remoteJID != "" {
		remoteJID = identity.NormalizeJID(remoteJID)
	}
	return s.db.ListMessageUpdates(instanceID, remoteJID, keyID, page.Limit(), page.Offset())
}

// SendText sends a text message, persists it and publishes the send
// event. The returned message is already sanitized.
func (s *MessageService) SendText(ctx context.Context, instanceID, to, text string) (*store.Message, error) {
	if s.sender == nil {
		return nil, ErrNoSession
	}
	toJID := identity.NormalizeJID(to)

	msg, err := s.sender.SendText(ctx, toJID, text)
	if err != nil {
		return nil, err
	}
	msg.InstanceID = instanceID

	if err := s.db.TouchChat(instanceID, toJID, true); err != nil {
		return nil, err
	}
	if err := s.db.UpsertMessage(msg); err != nil {
		return nil, err
	}

	clean := sanitize.CleanMessage(msg)
	s.bus.Emit(bus.KindSendMessage, instanceID, clean)
	return clean, nil
}
