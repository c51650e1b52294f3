package storage

import (
	"database/sql"
	"errors"
	"time"

	"finsec/internal/apperr"
)

// SessionInfo holds a stored session row.
type SessionInfo struct {
	Token        string
	AccountID    string
	State        []byte
	LastActivity time.Time
	ExpiresAt    time.Time
}

// CreateSession stores a new session. An empty accountID stores an
// anonymous session.
func (db *DB) CreateSession(token, accountID string, state []byte, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, account_id, state, expires_at, last_activity) VALUES (?, ?, ?, ?, ?)",
		token, nullable(accountID), string(state), expiresAt.UTC(), now,
	)
	return apperr.Storage("create session", err)
}

// GetSession returns an unexpired session by token.
func (db *DB) GetSession(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT token, account_id, state, last_activity, expires_at
		FROM sessions
		WHERE token = ? AND expires_at > ?
	`, token, time.Now().UTC())

	var info SessionInfo
	var accountID sql.NullString
	var state string
	if err := row.Scan(&info.Token, &accountID, &state, &info.LastActivity, &info.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get session", err)
	}
	info.AccountID = accountID.String
	info.State = []byte(state)
	return &info, nil
}

// SaveSession stores the current state of a session.
func (db *DB) SaveSession(token, accountID string, state []byte) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET account_id = ?, state = ?, last_activity = ? WHERE token = ?",
		nullable(accountID), string(state), time.Now().UTC(), token,
	)
	return apperr.Storage("save session", err)
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UTC(), newExpiresAt.UTC(), token,
	)
	return apperr.Storage("renew session", err)
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return apperr.Storage("delete session", err)
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	return apperr.Storage("clean sessions", err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
