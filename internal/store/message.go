package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertMessage inserts or updates a message (idempotent on instance + key id).
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	keyJSON, err := json.Marshal(m.Key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	var contentJSON any
	if m.Content != nil {
		data, err := json.Marshal(m.Content)
		if err != nil {
			return fmt.Errorf("marshal content: %w", err)
		}
		contentJSON = string(data)
	}
	var contextJSON any
	if len(m.ContextInfo) > 0 {
		contextJSON = string(m.ContextInfo)
	}

	_, err = db.Exec(`
		INSERT INTO messages (id, instance_id, key, push_name, message_type, message, message_timestamp, source, context_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, key_id) DO UPDATE SET
			push_name = excluded.push_name,
			message_type = excluded.message_type,
			message = excluded.message`,
		m.ID, m.InstanceID, string(keyJSON), m.PushName, m.MessageType, contentJSON, m.MessageTimestamp, m.Source, contextJSON, now)
	return err
}

// CountMessages counts messages matching a filter expression.
func (db *DB) CountMessages(e Expr) (int64, error) {
	where, args := SQL(e)
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM messages WHERE "+where, args...).Scan(&count)
	return count, err
}

// ListMessages returns messages matching a filter expression,
// newest timestamp first.
func (db *DB) ListMessages(e Expr, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where, args := SQL(e)
	q := fmt.Sprintf(`
		SELECT id, instance_id, key, push_name, message_type, message, message_timestamp, source, context_info
		FROM messages
		WHERE %s
		ORDER BY message_timestamp DESC
		LIMIT ? OFFSET ?`, where)
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func scanMessage(rows *sql.Rows) (*Message, error) {
	var m Message
	var keyJSON string
	var contentJSON, contextJSON sql.NullString
	if err := rows.Scan(&m.ID, &m.InstanceID, &keyJSON, &m.PushName, &m.MessageType, &contentJSON, &m.MessageTimestamp, &m.Source, &contextJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keyJSON), &m.Key); err != nil {
		return nil, fmt.Errorf("unmarshal key: %w", err)
	}
	if contentJSON.Valid {
		var content MessageContent
		if err := json.Unmarshal([]byte(contentJSON.String), &content); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
		}
		m.Content = &content
	}
	if contextJSON.Valid {
		m.ContextInfo = json.RawMessage(contextJSON.String)
	}
	return &m, nil
}

// LatestMessages returns, per distinct address in remoteJIDs, the single
// most recent message row ("latest per group" query).
func (db *DB) LatestMessages(instanceID string, remoteJIDs []string) ([]LastMessage, error) {
	if len(remoteJIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(remoteJIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(remoteJIDs)+1)
	args = append(args, instanceID)
	for _, jid := range remoteJIDs {
		args = append(args, jid)
	}

	q := fmt.Sprintf(`
		SELECT remote_jid, message_timestamp, message FROM (
			SELECT key_remote_jid AS remote_jid, message_timestamp, message,
				ROW_NUMBER() OVER (PARTITION BY key_remote_jid ORDER BY message_timestamp DESC) AS rn
			FROM messages
			WHERE instance_id = ? AND key_remote_jid IN (%s)
		) WHERE rn = 1`, placeholders)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []LastMessage
	for rows.Next() {
		lm, err := scanLastMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lm)
	}
	return result, rows.Err()
}

// LatestMessage returns the most recent message for a single address,
// or nil when the address has no messages.
func (db *DB) LatestMessage(instanceID, remoteJID string) (*LastMessage, error) {
	rows, err := db.Query(`
		SELECT key_remote_jid, message_timestamp, message
		FROM messages
		WHERE instance_id = ? AND key_remote_jid = ?
		ORDER BY message_timestamp DESC
		LIMIT 1`, instanceID, remoteJID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLastMessage(rows)
}

func scanLastMessage(rows *sql.Rows) (*LastMessage, error) {
	var lm LastMessage
	var contentJSON sql.NullString
	if err := rows.Scan(&lm.RemoteJID, &lm.MessageTimestamp, &contentJSON); err != nil {
		return nil, err
	}
	if contentJSON.Valid {
		var content MessageContent
		if err := json.Unmarshal([]byte(contentJSON.String), &content); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
		}
		lm.Content = &content
	}
	return &lm, nil
}

// InsertMessageUpdateByKey records a status transition for the message
// identified by its protocol key id. Returns ErrNotFound when no such
// message exists yet.
func (db *DB) InsertMessageUpdateByKey(instanceID, keyID, remoteJID string, fromMe bool, msgStatus string) error {
	var messageID string
	err := db.QueryRow(`SELECT id FROM messages WHERE instance_id = ? AND key_id = ?`, instanceID, keyID).Scan(&messageID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO message_updates (id, instance_id, message_id, key_id, remote_jid, from_me, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), instanceID, messageID, keyID, remoteJID, fromMe, msgStatus, time.Now().UnixMilli())
	return err
}

// MessageStatuses returns, per message id, the status transitions recorded
// for it, oldest first.
func (db *DB) MessageStatuses(instanceID string, messageIDs []string) (map[string][]string, error) {
	if len(messageIDs) == 0 {
		return map[string][]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(messageIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(messageIDs)+1)
	args = append(args, instanceID)
	for _, id := range messageIDs {
		args = append(args, id)
	}

	rows, err := db.Query(fmt.Sprintf(`
		SELECT message_id, status
		FROM message_updates
		WHERE instance_id = ? AND message_id IN (%s)
		ORDER BY created_at`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	statuses := make(map[string][]string)
	for rows.Next() {
		var id, st string
		if err := rows.Scan(&id, &st); err != nil {
			return nil, err
		}
		statuses[id] = append(statuses[id], st)
	}
	return statuses, rows.Err()
}

// ListMessageUpdates returns raw status transition rows for an address,
// optionally narrowed to one key id.
func (db *DB) ListMessageUpdates(instanceID, remoteJID, keyID string, limit, offset int) ([]MessageUpdate, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, instance_id, message_id, key_id, remote_jid, from_me, status, created_at
		FROM message_updates
		WHERE instance_id = ?`
	args := []any{instanceID}
	if remoteJID != "" {
		q += " AND remote_jid = ?"
		args = append(args, remoteJID)
	}
	if keyID != "" {
		q += " AND key_id = ?"
		args = append(args, keyID)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var updates []MessageUpdate
	for rows.Next() {
		var u MessageUpdate
		if err := rows.Scan(&u.ID, &u.InstanceID, &u.MessageID, &u.KeyID, &u.RemoteJID, &u.FromMe, &u.Status, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}
