package store

import (
	"database/sql"
	"time"
)

// SetSettings inserts or replaces the behavior settings for an account.
func (db *DB) SetSettings(s *Settings) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO settings (instance_id, reject_call, msg_call, groups_ignore, always_online, read_messages, read_status, sync_full_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			reject_call = excluded.reject_call,
			msg_call = excluded.msg_call,
			groups_ignore = excluded.groups_ignore,
			always_online = excluded.always_online,
			read_messages = excluded.read_messages,
			read_status = excluded.read_status,
			sync_full_history = excluded.sync_full_history,
			updated_at = excluded.updated_at`,
		s.InstanceID, s.RejectCall, s.MsgCall, s.GroupsIgnore, s.AlwaysOnline, s.ReadMessages, s.ReadStatus, s.SyncFullHistory, now, now)
	return err
}

// FindSettings returns the settings for an account, or defaults when none
// have been stored yet.
func (db *DB) FindSettings(instanceID string) (*Settings, error) {
	s := Settings{InstanceID: instanceID}
	err := db.QueryRow(`
		SELECT reject_call, msg_call, groups_ignore, always_online, read_messages, read_status, sync_full_history
		FROM settings
		WHERE instance_id = ?`, instanceID).
		Scan(&s.RejectCall, &s.MsgCall, &s.GroupsIgnore, &s.AlwaysOnline, &s.ReadMessages, &s.ReadStatus, &s.SyncFullHistory)
	if err == sql.ErrNoRows {
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
