package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/conversation"
	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/sanitize"
	"github.com/pvictorino/zapgate/internal/store"
)

// ChatService answers conversation and chat reads.
type ChatService struct {
	db  *store.DB
	agg *conversation.Aggregator
	log *zap.Logger
}

func NewChatService(db *store.DB, agg *conversation.Aggregator, log *zap.Logger) *ChatService {
	return &ChatService{db: db, agg: agg, log: log}
}

// FindConversations returns the aggregated conversation list with every
// last-message payload sanitized for the wire. The limit/offset window
// applies to the underlying chat fetch.
func (s *ChatService) FindConversations(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]conversation.Conversation, error) {
	if remoteJID != "" {
		remoteJID = identity.NormalizeJID(remoteJID)
	}
	convs, err := s.agg.Conversations(ctx, instanceID, remoteJID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if lm := convs[i].LastMessage; lm != nil {
			clean := *lm
			clean.Content = sanitize.CleanContent(lm.Content)
			convs[i].LastMessage = &clean
		}
	}
	return convs, nil
}

// FindChat returns the raw chat row for one address.
// Returns store.ErrNotFound when absent.
func (s *ChatService) FindChat(instanceID, remoteJID string) (*store.Chat, error) {
	return s.db.FindChatByRemoteJID(instanceID, identity.NormalizeJID(remoteJID))
}
