package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UpsertChat inserts or updates a chat record. An empty name never
// overwrites an existing one.
func (db *DB) UpsertChat(c *Chat) error {
	now := time.Now().UnixMilli()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := db.Exec(`
		INSERT INTO chats (id, instance_id, remote_jid, name, unread_messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, remote_jid) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE chats.name END,
			unread_messages = excluded.unread_messages,
			updated_at = excluded.updated_at`,
		c.ID, c.InstanceID, c.RemoteJID, c.Name, c.UnreadMessages, now, now)
	return err
}

// TouchChat bumps a chat on message arrival, creating it if needed.
// Inbound messages increment the unread counter; own messages reset it.
func (db *DB) TouchChat(instanceID, remoteJID string, fromMe bool) error {
	now := time.Now().UnixMilli()
	unread := 1
	if fromMe {
		unread = 0
	}
	_, err := db.Exec(`
		INSERT INTO chats (id, instance_id, remote_jid, unread_messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, remote_jid) DO UPDATE SET
			unread_messages = CASE WHEN ? THEN 0 ELSE chats.unread_messages + 1 END,
			updated_at = excluded.updated_at`,
		uuid.NewString(), instanceID, remoteJID, unread, now, now, fromMe)
	return err
}

// ListChats returns chats for an account, newest updated first. An empty
// remoteJID lists all chats; a non-positive limit lists without bound.
func (db *DB) ListChats(instanceID, remoteJID string, limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, instance_id, remote_jid, name, unread_messages, created_at, updated_at
		FROM chats
		WHERE instance_id = ?`
	args := []any{instanceID}
	if remoteJID != "" {
		q += " AND remote_jid = ?"
		args = append(args, remoteJID)
	}
	q += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.InstanceID, &c.RemoteJID, &c.Name, &c.UnreadMessages, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// FindChatByRemoteJID returns a single chat by its address.
// Returns ErrNotFound when absent.
func (db *DB) FindChatByRemoteJID(instanceID, remoteJID string) (*Chat, error) {
	var c Chat
	err := db.QueryRow(`
		SELECT id, instance_id, remote_jid, name, unread_messages, created_at, updated_at
		FROM chats
		WHERE instance_id = ? AND remote_jid = ?`, instanceID, remoteJID).
		Scan(&c.ID, &c.InstanceID, &c.RemoteJID, &c.Name, &c.UnreadMessages, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
