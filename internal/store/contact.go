package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertContact inserts or updates a contact. Empty fields never
// overwrite existing values.
func (db *DB) UpsertContact(c *Contact) error {
	now := time.Now().UnixMilli()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := db.Exec(`
		INSERT INTO contacts (id, instance_id, remote_jid, push_name, profile_pic_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, remote_jid) DO UPDATE SET
			push_name = CASE WHEN excluded.push_name != '' THEN excluded.push_name ELSE contacts.push_name END,
			profile_pic_url = CASE WHEN excluded.profile_pic_url != '' THEN excluded.profile_pic_url ELSE contacts.profile_pic_url END,
			updated_at = excluded.updated_at`,
		c.ID, c.InstanceID, c.RemoteJID, c.PushName, c.ProfilePicURL, now, now)
	return err
}

// BulkUpsertContacts inserts or updates multiple contacts in a single transaction.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(`
			INSERT INTO contacts (id, instance_id, remote_jid, push_name, profile_pic_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(instance_id, remote_jid) DO UPDATE SET
				push_name = CASE WHEN excluded.push_name != '' THEN excluded.push_name ELSE contacts.push_name END,
				profile_pic_url = CASE WHEN excluded.profile_pic_url != '' THEN excluded.profile_pic_url ELSE contacts.profile_pic_url END,
				updated_at = excluded.updated_at`,
			id, c.InstanceID, c.RemoteJID, c.PushName, c.ProfilePicURL, now, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.RemoteJID, err)
		}
	}
	return tx.Commit()
}

// ListAllContacts returns every contact for an account. Contacts are the
// name/avatar source of truth for aggregation, so no pagination applies here.
func (db *DB) ListAllContacts(instanceID string) ([]Contact, error) {
	rows, err := db.Query(`
		SELECT id, instance_id, remote_jid, push_name, profile_pic_url, created_at, updated_at
		FROM contacts
		WHERE instance_id = ?
		ORDER BY remote_jid`, instanceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

// ListContacts returns contacts matching a filter expression.
func (db *DB) ListContacts(e Expr, limit, offset int) ([]Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where, args := SQL(e)
	q := fmt.Sprintf(`
		SELECT id, instance_id, remote_jid, push_name, profile_pic_url, created_at, updated_at
		FROM contacts
		WHERE %s
		ORDER BY remote_jid
		LIMIT ? OFFSET ?`, where)
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]Contact, error) {
	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.InstanceID, &c.RemoteJID, &c.PushName, &c.ProfilePicURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
