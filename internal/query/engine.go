// Package query answers filtered, paginated reads over synced messages
// and contacts. Message address filters transparently match both address
// forms of the same account when the mapping is known; contact filters
// match the stored address exactly.
package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/store"
)

// Store is the subset of the database the engine reads from.
type Store interface {
	CountMessages(e store.Expr) (int64, error)
	ListMessages(e store.Expr, limit, offset int) ([]store.Message, error)
	MessageStatuses(instanceID string, messageIDs []string) (map[string][]string, error)
	ListContacts(e store.Expr, limit, offset int) ([]store.Contact, error)
}

// AddressResolver maps between the two address forms of an account.
type AddressResolver interface {
	ResolvePhoneToLinked(ctx context.Context, phoneJID string) string
	ResolveLinkedToPhone(ctx context.Context, linkedJID string) string
}

// Engine runs filtered reads against the store.
type Engine struct {
	store    Store
	resolver AddressResolver
	log      *zap.Logger
}

func NewEngine(st Store, resolver AddressResolver, log *zap.Logger) *Engine {
	return &Engine{store: st, resolver: resolver, log: log}
}

// KeyFilter narrows messages by fields of their protocol key.
type KeyFilter struct {
	ID        string `json:"id,omitempty"`
	FromMe    *bool  `json:"fromMe,omitempty"`
	RemoteJID string `json:"remoteJid,omitempty"`
}

// MessageFilter narrows a message query. Timestamp bounds apply only
// when both ends are set.
type MessageFilter struct {
	InstanceID    string
	Key           KeyFilter
	MessageType   string
	Source        string
	TimestampFrom *time.Time
	TimestampTo   *time.Time
}

// MessageRecord is one message row with its delivery status history.
type MessageRecord struct {
	store.Message
	Statuses []string `json:"statuses,omitempty"`
}

// MessagePage is one page of a message query, with the totals computed
// from the same filter that produced the rows.
type MessagePage struct {
	Total   int64           `json:"total"`
	Pages   int             `json:"pages"`
	Page    int             `json:"currentPage"`
	Records []MessageRecord `json:"records"`
}

// FindMessages returns one page of messages matching the filter, newest
// first, with the total count over the same filter.
func (e *Engine) FindMessages(ctx context.Context, f MessageFilter, page Page) (*MessagePage, error) {
	expr := e.messageExpr(ctx, f)

	total, err := e.store.CountMessages(expr)
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.ListMessages(expr, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	statuses, err := e.store.MessageStatuses(f.InstanceID, ids)
	if err != nil {
		return nil, err
	}

	records := make([]MessageRecord, len(msgs))
	for i, m := range msgs {
		records[i] = MessageRecord{Message: m, Statuses: statuses[m.ID]}
	}

	return &MessagePage{
		Total:   total,
		Pages:   PageCount(total, page.Limit()),
		Page:    page.normalized().Number,
		Records: records,
	}, nil
}

// messageExpr builds the single filter expression shared by the count
// and the row retrieval.
func (e *Engine) messageExpr(ctx context.Context, f MessageFilter) store.Expr {
	expr := store.And{store.Cond{Field: "instance_id", Op: store.OpEq, Value: f.InstanceID}}

	if f.Key.ID != "" {
		expr = append(expr, store.Cond{Field: "key.id", Op: store.OpEq, Value: f.Key.ID})
	}
	if f.Key.FromMe != nil {
		expr = append(expr, store.Cond{Field: "key.fromMe", Op: store.OpEq, Value: *f.Key.FromMe})
	}
	if f.Key.RemoteJID != "" {
		expr = append(expr, e.addressExpr(ctx, f.Key.RemoteJID))
	}
	if f.MessageType != "" {
		expr = append(expr, store.Cond{Field: "message_type", Op: store.OpEq, Value: f.MessageType})
	}
	if f.Source != "" {
		expr = append(expr, store.Cond{Field: "source", Op: store.OpEq, Value: f.Source})
	}
	if f.TimestampFrom != nil && f.TimestampTo != nil {
		expr = append(expr,
			store.Cond{Field: "message_timestamp", Op: store.OpGte, Value: f.TimestampFrom.Unix()},
			store.Cond{Field: "message_timestamp", Op: store.OpLte, Value: f.TimestampTo.Unix()},
		)
	}
	return expr
}

// addressExpr matches an address in either form. When the counterpart
// mapping is unknown the filter silently narrows to the given form.
func (e *Engine) addressExpr(ctx context.Context, remoteJID string) store.Expr {
	cond := store.Cond{Field: "key.remoteJid", Op: store.OpEq, Value: remoteJID}

	if identity.IsGroup(remoteJID) || e.resolver == nil {
		return cond
	}

	if identity.IsLID(remoteJID) {
		phone := e.resolver.ResolveLinkedToPhone(ctx, remoteJID)
		if phone == "" {
			return cond
		}
		return store.Or{
			cond,
			store.Cond{Field: "key.remoteJid", Op: store.OpEq, Value: phone + "@" + identity.ServerUser},
		}
	}

	linked := e.resolver.ResolvePhoneToLinked(ctx, remoteJID)
	if linked == "" {
		return cond
	}
	return store.Or{
		cond,
		store.Cond{Field: "key.remoteJid", Op: store.OpEq, Value: linked},
	}
}

// ContactFilter narrows a contact query.
type ContactFilter struct {
	InstanceID string
	RemoteJID  string
	PushName   string
}

// ContactView is a contact row classified for consumers.
type ContactView struct {
	store.Contact
	IsGroup bool   `json:"isGroup"`
	IsSaved bool   `json:"isSaved"`
	Type    string `json:"type"`
}

// FindContacts returns one page of contacts matching the filter, each
// classified as group, saved contact, or bare group member.
func (e *Engine) FindContacts(ctx context.Context, f ContactFilter, page Page) ([]ContactView, error) {
	expr := store.And{store.Cond{Field: "instance_id", Op: store.OpEq, Value: f.InstanceID}}
	if f.RemoteJID != "" {
		// Contact rows are keyed by the address they were synced under;
		// the filter matches it exactly, with no counterpart expansion.
		expr = append(expr, store.Cond{Field: "remote_jid", Op: store.OpEq, Value: f.RemoteJID})
	}
	if f.PushName != "" {
		expr = append(expr, store.Cond{Field: "push_name", Op: store.OpEq, Value: f.PushName})
	}

	contacts, err := e.store.ListContacts(expr, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	views := make([]ContactView, len(contacts))
	for i, c := range contacts {
		isGroup := identity.IsGroup(c.RemoteJID)
		isSaved := c.PushName != "" || c.ProfilePicURL != ""
		typ := "group_member"
		if isGroup {
			typ = "group"
		} else if isSaved {
			typ = "contact"
		}
		views[i] = ContactView{Contact: c, IsGroup: isGroup, IsSaved: isSaved, Type: typ}
	}
	return views, nil
}
