// Package conversation folds synced chats and contacts into a single
// deduplicated conversation list. A chat known under its linked address
// and the same account's phone address must surface exactly once.
package conversation

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/identity"
	"github.com/pvictorino/zapgate/internal/store"
)

// Store is the subset of the database the aggregator reads from.
type Store interface {
	ListChats(instanceID, remoteJID string, limit, offset int) ([]store.Chat, error)
	ListAllContacts(instanceID string) ([]store.Contact, error)
	LatestMessages(instanceID string, remoteJIDs []string) ([]store.LastMessage, error)
	LatestMessage(instanceID, remoteJID string) (*store.LastMessage, error)
}

// AddressResolver maps linked addresses back to phone numbers.
type AddressResolver interface {
	ResolveLinkedBatch(ctx context.Context, linkedJIDs []string) map[string]string
}

// Conversation is one entry of the aggregated list.
type Conversation struct {
	ID             string             `json:"id,omitempty"`
	RemoteJID      string             `json:"remoteJid"`
	PhoneNumber    string             `json:"phoneNumber,omitempty"`
	Name           string             `json:"name,omitempty"`
	ProfilePicURL  string             `json:"profilePicUrl,omitempty"`
	UnreadMessages int                `json:"unreadMessages"`
	IsGroup        bool               `json:"isGroup"`
	UpdatedAt      int64              `json:"updatedAt"`
	LastMessage    *store.LastMessage `json:"lastMessage,omitempty"`
}

// Aggregator builds the conversation list for an account.
type Aggregator struct {
	store    Store
	resolver AddressResolver
	log      *zap.Logger
}

func NewAggregator(st Store, resolver AddressResolver, log *zap.Logger) *Aggregator {
	return &Aggregator{store: st, resolver: resolver, log: log}
}

// Conversations returns the deduplicated conversation list, newest
// activity first. An empty remoteJID lists everything; limit and offset
// bound the chat window, with a non-positive limit defaulting to 100.
func (a *Aggregator) Conversations(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	chats, err := a.store.ListChats(instanceID, remoteJID, limit, offset)
	if err != nil {
		return nil, err
	}
	contacts, err := a.store.ListAllContacts(instanceID)
	if err != nil {
		return nil, err
	}

	// Contacts are addressable by full jid and by bare number.
	contactByKey := make(map[string]*store.Contact, len(contacts)*2)
	for i := range contacts {
		c := &contacts[i]
		contactByKey[c.RemoteJID] = c
		contactByKey[identity.User(c.RemoteJID)] = c
	}

	// Resolve all linked chat addresses in one concurrent batch.
	var linked []string
	for _, c := range chats {
		if identity.IsLID(c.RemoteJID) {
			linked = append(linked, c.RemoteJID)
		}
	}
	var linkedToPhone map[string]string
	if a.resolver != nil && len(linked) > 0 {
		linkedToPhone = a.resolver.ResolveLinkedBatch(ctx, linked)
	}

	// One query fetches the latest message per address, covering both
	// address forms of every chat.
	jidSet := make(map[string]struct{}, len(chats)*2)
	for _, c := range chats {
		jidSet[c.RemoteJID] = struct{}{}
		if phone, ok := linkedToPhone[c.RemoteJID]; ok {
			jidSet[phone+"@"+identity.ServerUser] = struct{}{}
		}
	}
	jids := make([]string, 0, len(jidSet))
	for jid := range jidSet {
		jids = append(jids, jid)
	}
	sort.Strings(jids)

	latestRows, err := a.store.LatestMessages(instanceID, jids)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]*store.LastMessage, len(latestRows))
	for i := range latestRows {
		latest[latestRows[i].RemoteJID] = &latestRows[i]
	}

	seenJIDs := make(map[string]struct{})
	seenPhones := make(map[string]struct{})
	var out []Conversation

	for _, chat := range chats {
		if identity.IsStatusBroadcast(chat.RemoteJID) {
			continue
		}
		if _, ok := seenJIDs[chat.RemoteJID]; ok {
			continue
		}

		var phone string
		if identity.IsLID(chat.RemoteJID) {
			phone = linkedToPhone[chat.RemoteJID]
		} else if !identity.IsGroup(chat.RemoteJID) {
			phone = identity.User(chat.RemoteJID)
		}
		if phone != "" {
			if _, ok := seenPhones[phone]; ok {
				continue
			}
		}

		// The latest message may live under either address form; the
		// larger timestamp wins.
		lm := latest[chat.RemoteJID]
		if phone != "" {
			if alt := latest[phone+"@"+identity.ServerUser]; alt != nil {
				if lm == nil || alt.MessageTimestamp > lm.MessageTimestamp {
					lm = alt
				}
			}
		}

		// A non-group chat without any message never surfaces; groups do.
		if lm == nil && !identity.IsGroup(chat.RemoteJID) {
			continue
		}

		name := chat.Name
		pic := ""
		if contact := lookupContact(contactByKey, chat.RemoteJID, phone); contact != nil {
			if name == "" {
				name = contact.PushName
			}
			pic = contact.ProfilePicURL
		}

		seenJIDs[chat.RemoteJID] = struct{}{}
		if phone != "" {
			seenPhones[phone] = struct{}{}
			seenJIDs[phone+"@"+identity.ServerUser] = struct{}{}
		}

		out = append(out, Conversation{
			ID:             chat.ID,
			RemoteJID:      chat.RemoteJID,
			PhoneNumber:    phone,
			Name:           name,
			ProfilePicURL:  pic,
			UnreadMessages: chat.UnreadMessages,
			IsGroup:        identity.IsGroup(chat.RemoteJID),
			UpdatedAt:      chat.UpdatedAt,
			LastMessage:    lm,
		})
	}

	// Contacts without a chat row still surface, so the list covers
	// everyone the account can talk to. Groups and nameless entries
	// are chat-driven only.
	if remoteJID == "" {
		for _, contact := range contacts {
			if identity.IsGroup(contact.RemoteJID) || contact.PushName == "" {
				continue
			}
			if _, ok := seenJIDs[contact.RemoteJID]; ok {
				continue
			}
			phone := identity.User(contact.RemoteJID)
			if !identity.IsLID(contact.RemoteJID) {
				if _, ok := seenPhones[phone]; ok {
					continue
				}
			}

			lm, err := a.store.LatestMessage(instanceID, contact.RemoteJID)
			if err != nil {
				return nil, err
			}

			seenJIDs[contact.RemoteJID] = struct{}{}
			if !identity.IsLID(contact.RemoteJID) {
				seenPhones[phone] = struct{}{}
			}

			conv := Conversation{
				RemoteJID:     contact.RemoteJID,
				Name:          contact.PushName,
				ProfilePicURL: contact.ProfilePicURL,
				UpdatedAt:     contact.UpdatedAt,
				LastMessage:   lm,
			}
			if !identity.IsLID(contact.RemoteJID) {
				conv.PhoneNumber = phone
			}
			out = append(out, conv)
		}
	}

	// Active conversations first, newest message first. Entries without
	// any message sink to the bottom, ordered by their own update time.
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].LastMessage, out[j].LastMessage
		switch {
		case li != nil && lj != nil:
			return li.MessageTimestamp > lj.MessageTimestamp
		case li != nil:
			return true
		case lj != nil:
			return false
		default:
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
	})

	return out, nil
}

func lookupContact(byKey map[string]*store.Contact, jid, phone string) *store.Contact {
	if c, ok := byKey[jid]; ok {
		return c
	}
	if phone != "" {
		if c, ok := byKey[phone+"@"+identity.ServerUser]; ok {
			return c
		}
		if c, ok := byKey[phone]; ok {
			return c
		}
	}
	return nil
}
