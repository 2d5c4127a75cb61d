// Package webhook delivers domain events to per-account HTTP endpoints.
// Deliveries go through a persisted outbox, so a crash between the event
// and the POST loses nothing.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/store"
)

// Config carries the dispatcher's delivery settings.
type Config struct {
	ServerURL string
	APIKey    string
	Interval  time.Duration
	// Sender reports the connected account address, "" when offline.
	Sender func() string
}

// Dispatcher queues domain events for subscribed accounts and drains the
// outbox.
type Dispatcher struct {
	db     *store.DB
	bus    *bus.Bus
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

func New(db *store.DB, b *bus.Bus, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Dispatcher{
		db:     db,
		bus:    b,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Run consumes domain events and drains the outbox until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	events, unsub := d.bus.Subscribe("", 256)
	defer unsub()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			if !slices.Contains(bus.WebhookKinds, evt.Kind) {
				continue
			}
			if err := d.enqueue(evt); err != nil {
				d.log.Error("webhook enqueue failed", zap.String("kind", evt.Kind), zap.Error(err))
			}
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

type delivery struct {
	Event       string `json:"event"`
	Instance    string `json:"instance"`
	Data        any    `json:"data"`
	Destination string `json:"destination"`
	DateTime    string `json:"date_time"`
	Sender      string `json:"sender,omitempty"`
	ServerURL   string `json:"server_url,omitempty"`
	APIKey      string `json:"apikey,omitempty"`
}

// enqueue persists one delivery for an account that subscribed to the
// event kind. Accounts without an enabled matching webhook are skipped.
func (d *Dispatcher) enqueue(evt bus.Event) error {
	hook, err := d.db.FindWebhook(evt.Instance)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !hook.Enabled || hook.URL == "" {
		return nil
	}
	if len(hook.Events) > 0 && !slices.Contains(hook.Events, evt.Kind) {
		return nil
	}

	sender := ""
	if d.cfg.Sender != nil {
		sender = d.cfg.Sender()
	}
	body, err := json.Marshal(delivery{
		Event:       evt.Kind,
		Instance:    evt.Instance,
		Data:        evt.Payload,
		Destination: hook.URL,
		DateTime:    evt.Timestamp.Format(time.RFC3339),
		Sender:      sender,
		ServerURL:   d.cfg.ServerURL,
		APIKey:      d.cfg.APIKey,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	return d.db.EnqueueWebhookJob(evt.Instance, evt.Kind, body)
}

// drain attempts delivery for every queued job. The webhook row is
// re-read per job, so disabling a webhook stops deliveries already queued.
func (d *Dispatcher) drain(ctx context.Context) {
	jobs, err := d.db.PendingWebhookJobs(50)
	if err != nil {
		d.log.Error("outbox read failed", zap.Error(err))
		return
	}
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := d.deliver(ctx, job); err != nil {
			d.log.Warn("webhook delivery failed",
				zap.String("instance", job.InstanceID),
				zap.String("event", job.Event),
				zap.Int("attempts", job.Attempts+1),
				zap.Error(err))
			if err := d.db.MarkWebhookJobFailed(job.ID, err.Error()); err != nil {
				d.log.Error("outbox update failed", zap.Error(err))
			}
			continue
		}
		if err := d.db.MarkWebhookJobDelivered(job.ID); err != nil {
			d.log.Error("outbox update failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job store.WebhookJob) error {
	hook, err := d.db.FindWebhook(job.InstanceID)
	if err != nil {
		return err
	}
	if !hook.Enabled || hook.URL == "" {
		return errors.New("webhook disabled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(job.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
