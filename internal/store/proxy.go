package store

import (
	"database/sql"
	"time"
)

// SetProxy inserts or replaces the outbound proxy configuration for an account.
func (db *DB) SetProxy(p *Proxy) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO proxies (instance_id, enabled, host, port, protocol, username, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			enabled = excluded.enabled,
			host = excluded.host,
			port = excluded.port,
			protocol = excluded.protocol,
			username = excluded.username,
			password = excluded.password,
			updated_at = excluded.updated_at`,
		p.InstanceID, p.Enabled, p.Host, p.Port, p.Protocol, p.Username, p.Password, now, now)
	return err
}

// FindProxy returns the proxy configuration for an account.
// Returns ErrNotFound when none has been stored.
func (db *DB) FindProxy(instanceID string) (*Proxy, error) {
	p := Proxy{InstanceID: instanceID}
	err := db.QueryRow(`
		SELECT enabled, host, port, protocol, username, password
		FROM proxies
		WHERE instance_id = ?`, instanceID).
		Scan(&p.Enabled, &p.Host, &p.Port, &p.Protocol, &p.Username, &p.Password)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
