package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxWebhookAttempts is the delivery attempt ceiling before a job is
// marked failed for good.
const maxWebhookAttempts = 5

// SetWebhook inserts or replaces the webhook subscription for an account.
func (db *DB) SetWebhook(w *Webhook) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO webhooks (instance_id, url, enabled, events, webhook_base64, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			url = excluded.url,
			enabled = excluded.enabled,
			events = excluded.events,
			webhook_base64 = excluded.webhook_base64,
			updated_at = excluded.updated_at`,
		w.InstanceID, w.URL, w.Enabled, string(events), w.WebhookBase64, now, now)
	return err
}

// FindWebhook returns the webhook subscription for an account.
// Returns ErrNotFound when none has been stored.
func (db *DB) FindWebhook(instanceID string) (*Webhook, error) {
	w := Webhook{InstanceID: instanceID}
	var events string
	err := db.QueryRow(`
		SELECT url, enabled, events, webhook_base64
		FROM webhooks
		WHERE instance_id = ?`, instanceID).
		Scan(&w.URL, &w.Enabled, &events, &w.WebhookBase64)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return &w, nil
}

// EnqueueWebhookJob queues a webhook delivery.
func (db *DB) EnqueueWebhookJob(instanceID, event string, payload json.RawMessage) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO webhook_outbox (id, instance_id, event, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'queued', ?, ?)`,
		uuid.NewString(), instanceID, event, string(payload), now, now)
	return err
}

// PendingWebhookJobs returns queued jobs, oldest first.
func (db *DB) PendingWebhookJobs(limit int) ([]WebhookJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, instance_id, event, payload, status, attempts, last_error, created_at
		FROM webhook_outbox
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []WebhookJob
	for rows.Next() {
		var j WebhookJob
		var payload string
		if err := rows.Scan(&j.ID, &j.InstanceID, &j.Event, &payload, &j.Status, &j.Attempts, &j.LastError, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Payload = json.RawMessage(payload)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// MarkWebhookJobDelivered finalizes a job after a successful delivery.
func (db *DB) MarkWebhookJobDelivered(id string) error {
	_, err := db.Exec(`
		UPDATE webhook_outbox
		SET status = 'delivered', attempts = attempts + 1, last_error = '', updated_at = ?
		WHERE id = ?`, time.Now().UnixMilli(), id)
	return err
}

// MarkWebhookJobFailed records a failed delivery attempt. The job stays
// queued for retry until the attempt ceiling, after which it is failed.
func (db *DB) MarkWebhookJobFailed(id, deliveryErr string) error {
	_, err := db.Exec(`
		UPDATE webhook_outbox
		SET attempts = attempts + 1,
			last_error = ?,
			status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'queued' END,
			updated_at = ?
		WHERE id = ?`, deliveryErr, maxWebhookAttempts, time.Now().UnixMilli(), id)
	return err
}
