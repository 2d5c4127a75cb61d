package api

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/status"
	"github.com/pvictorino/zapgate/internal/store"
)

// ConnectionState is the externally visible connection state of an account.
type ConnectionState struct {
	Instance string       `json:"instance"`
	State    status.State `json:"state"`
}

// InstanceService manages per-account configuration and reports
// connection state. The daemon hosts a single live session; state
// queries for any other account answer closed.
type InstanceService struct {
	db      *store.DB
	machine *status.Machine
	hosted  string
	log     *zap.Logger
}

func NewInstanceService(db *store.DB, machine *status.Machine, hosted string, log *zap.Logger) *InstanceService {
	return &InstanceService{db: db, machine: machine, hosted: hosted, log: log}
}

// ConnectionState reports the connection state for an account.
func (s *InstanceService) ConnectionState(instanceID string) ConnectionState {
	st := status.Close
	if instanceID == s.hosted && s.machine != nil {
		st = s.machine.Current()
	}
	return ConnectionState{Instance: instanceID, State: st}
}

// SetSettings stores the behavior settings for an account.
func (s *InstanceService) SetSettings(settings *store.Settings) error {
	return s.db.SetSettings(settings)
}

// FindSettings returns the settings for an account, defaulted when unset.
func (s *InstanceService) FindSettings(instanceID string) (*store.Settings, error) {
	return s.db.FindSettings(instanceID)
}

// SetProxy stores the outbound proxy configuration for an account.
func (s *InstanceService) SetProxy(proxy *store.Proxy) error {
	return s.db.SetProxy(proxy)
}

// FindProxy returns the proxy configuration for an account.
// Returns store.ErrNotFound when none has been stored.
func (s *InstanceService) FindProxy(instanceID string) (*store.Proxy, error) {
	return s.db.FindProxy(instanceID)
}

// SetWebhook stores the webhook subscription for an account. Every
// subscribed event must be a known webhook kind.
func (s *InstanceService) SetWebhook(webhook *store.Webhook) error {
	for _, ev := range webhook.Events {
		if !slices.Contains(bus.WebhookKinds, ev) {
			return fmt.Errorf("unknown webhook event %q", ev)
		}
	}
	return s.db.SetWebhook(webhook)
}

// FindWebhook returns the webhook subscription for an account.
// Returns store.ErrNotFound when none has been stored.
func (s *InstanceService) FindWebhook(instanceID string) (*store.Webhook, error) {
	return s.db.FindWebhook(instanceID)
}
