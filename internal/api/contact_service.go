package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/query"
)

// ContactService answers contact reads.
type ContactService struct {
	engine *query.Engine
	log    *zap.Logger
}

func NewContactService(engine *query.Engine, log *zap.Logger) *ContactService {
	return &ContactService{engine: engine, log: log}
}

// FindContacts returns one page of contacts matching the filter,
// classified as group, saved contact, or bare group member.
func (s *ContactService) FindContacts(ctx context.Context, f query.ContactFilter, page query.Page) ([]query.ContactView, error) {
	if f.RemoteJID != "" {
		f.RemoteJID = identity.NormalizeJID(f.RemoteJID)
	}
	return s.engine.FindContacts(ctx, f, page)
}
