package identity

import (
	"context"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
)

// Resolver maps between the two address forms of the same account.
// Resolution is best effort: a failed lookup degrades the answer, it
// never fails the calling operation.
type Resolver struct {
	oracle  Oracle
	log     *zap.Logger
	timeout time.Duration
}

// NewResolver creates a resolver over an oracle. A nil oracle is valid
// and makes every resolution degrade immediately, which is the mode used
// for accounts without a live session.
func NewResolver(oracle Oracle, log *zap.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{oracle: oracle, log: log, timeout: timeout}
}

// ResolvePhoneToLinked returns the full linked address for a phone
// address, or "" when the mapping is unknown.
func (r *Resolver) ResolvePhoneToLinked(ctx context.Context, phoneJID string) string {
	if r.oracle == nil {
		return ""
	}
	pn, err := types.ParseJID(phoneJID)
	if err != nil {
		r.log.Warn("unparseable phone address", zap.String("jid", phoneJID), zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	lid, err := r.oracle.LIDForPN(ctx, pn)
	if err != nil || lid.IsEmpty() {
		if err != nil {
			r.log.Warn("linked address lookup failed", zap.String("jid", phoneJID), zap.Error(err))
		}
		return ""
	}
	return lid.String()
}

// ResolveLinkedToPhone returns the bare phone number behind a linked
// address, or "" when the mapping is unknown. Non-linked input
// short-circuits to "" without consulting the oracle, and so does any
// lookup failure.
func (r *Resolver) ResolveLinkedToPhone(ctx context.Context, linkedJID string) string {
	if !IsLID(linkedJID) {
		return ""
	}
	if r.oracle == nil {
		return ""
	}
	lid, err := types.ParseJID(linkedJID)
	if err != nil {
		r.log.Warn("unparseable linked address", zap.String("jid", linkedJID), zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pn, err := r.oracle.PNForLID(ctx, lid)
	if err != nil || pn.IsEmpty() {
		if err != nil {
			r.log.Warn("phone address lookup failed", zap.String("jid", linkedJID), zap.Error(err))
		}
		return ""
	}
	return pn.User
}

// ResolveLinkedBatch resolves many linked addresses concurrently. The
// result maps each input address to its bare phone number; addresses
// whose mapping could not be established are absent so callers can tell
// a degraded answer from a resolved one.
func (r *Resolver) ResolveLinkedBatch(ctx context.Context, linkedJIDs []string) map[string]string {
	if r.oracle == nil || len(linkedJIDs) == 0 {
		return map[string]string{}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	resolved := make(map[string]string, len(linkedJIDs))

	for _, jid := range linkedJIDs {
		if !IsLID(jid) {
			continue
		}
		wg.Add(1)
		go func(jid string) {
			defer wg.Done()
			lid, err := types.ParseJID(jid)
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			pn, err := r.oracle.PNForLID(ctx, lid)
			if err != nil || pn.IsEmpty() {
				if err != nil {
					r.log.Warn("phone address lookup failed", zap.String("jid", jid), zap.Error(err))
				}
				return
			}
			mu.Lock()
			resolved[jid] = pn.User
			mu.Unlock()
		}(jid)
	}
	wg.Wait()
	return resolved
}
