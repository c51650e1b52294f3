package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"finsec/internal/apperr"
	"finsec/internal/models"

	"github.com/google/uuid"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers on file databases.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_digest TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'client',
			plan TEXT NOT NULL DEFAULT 'free',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			account_id TEXT PRIMARY KEY,
			email_alerts BOOLEAN NOT NULL DEFAULT 0,
			live_access BOOLEAN NOT NULL DEFAULT 0,
			webhook_url TEXT NOT NULL DEFAULT '',
			api_key TEXT UNIQUE NOT NULL,
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			total_transactions INTEGER NOT NULL,
			high_risk_count INTEGER NOT NULL,
			medium_risk_count INTEGER NOT NULL,
			low_risk_count INTEGER NOT NULL,
			scan_date DATETIME NOT NULL,
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_account_date ON scans(account_id, scan_date)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			account_id TEXT,
			state TEXT NOT NULL DEFAULT '{}',
			expires_at DATETIME NOT NULL,
			last_activity DATETIME NOT NULL,
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateAccount inserts the account and its settings row in one transaction.
// It returns apperr.ErrDuplicateAccount if the email is already registered.
func (db *DB) CreateAccount(a *models.Account, s *models.AccountSettings) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return apperr.Storage("begin create account", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM accounts WHERE email = ?", a.Email).Scan(&exists); err != nil {
		return apperr.Storage("check email", err)
	}
	if exists > 0 {
		return apperr.ErrDuplicateAccount
	}

	if _, err := tx.Exec(
		"INSERT INTO accounts (id, email, password_digest, role, plan, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.Email, a.PasswordDigest, string(a.Role), string(a.Plan), a.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrDuplicateAccount
		}
		return apperr.Storage("insert account", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO settings (account_id, email_alerts, live_access, webhook_url, api_key) VALUES (?, ?, ?, ?, ?)",
		a.ID, s.EmailAlerts, s.LiveAccess, s.WebhookURL, s.APIKey,
	); err != nil {
		return apperr.Storage("insert settings", err)
	}

	return apperr.Storage("commit create account", tx.Commit())
}

const accountColumns = "a.id, a.email, a.password_digest, a.role, a.plan, a.created_at"

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var role, plan string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordDigest, &role, &plan, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("scan account", err)
	}
	a.Role = models.Role(role)
	a.Plan = models.Plan(plan)
	return &a, nil
}

// GetAccountByID retrieves an account by ID.
func (db *DB) GetAccountByID(id string) (*models.Account, error) {
	return scanAccount(db.conn.QueryRow("SELECT "+accountColumns+" FROM accounts a WHERE a.id = ?", id))
}

// GetAccountByEmail retrieves an account by its exact email.
func (db *DB) GetAccountByEmail(email string) (*models.Account, error) {
	return scanAccount(db.conn.QueryRow("SELECT "+accountColumns+" FROM accounts a WHERE a.email = ?", email))
}

// GetAccountByAPIKey retrieves the account owning an API key.
func (db *DB) GetAccountByAPIKey(key string) (*models.Account, error) {
	return scanAccount(db.conn.QueryRow(`
		SELECT `+accountColumns+`
		FROM settings s
		JOIN accounts a ON s.account_id = a.id
		WHERE s.api_key = ?
	`, key))
}

// AccountCount returns the number of accounts in the database.
func (db *DB) AccountCount() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, apperr.Storage("count accounts", err)
	}
	return count, nil
}

// GetSettings retrieves the settings row of an account.
func (db *DB) GetSettings(accountID string) (*models.AccountSettings, error) {
	row := db.conn.QueryRow(
		"SELECT email_alerts, live_access, webhook_url, api_key FROM settings WHERE account_id = ?",
		accountID,
	)

	var s models.AccountSettings
	if err := row.Scan(&s.EmailAlerts, &s.LiveAccess, &s.WebhookURL, &s.APIKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get settings", err)
	}
	return &s, nil
}

// UpdateSettings overwrites the mutable settings fields. The API key is left
// untouched.
func (db *DB) UpdateSettings(accountID string, emailAlerts, liveAccess bool, webhookURL string) error {
	_, err := db.conn.Exec(
		"UPDATE settings SET email_alerts = ?, live_access = ?, webhook_url = ? WHERE account_id = ?",
		emailAlerts, liveAccess, webhookURL, accountID,
	)
	return apperr.Storage("update settings", err)
}

// RecordScan inserts one scan row and returns its ID. Counts are stored as
// given.
func (db *DB) RecordScan(accountID, filename string, total, high, medium, low int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		`INSERT INTO scans (id, account_id, filename, total_transactions, high_risk_count, medium_risk_count, low_risk_count, scan_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, accountID, filename, total, high, medium, low, time.Now().UTC(),
	)
	if err != nil {
		return "", apperr.Storage("record scan", err)
	}
	return id, nil
}

// ListScans retrieves the scans of an account, most recent first.
func (db *DB) ListScans(accountID string) ([]models.ScanRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, account_id, filename, total_transactions, high_risk_count, medium_risk_count, low_risk_count, scan_date
		FROM scans
		WHERE account_id = ?
		ORDER BY scan_date DESC, rowid DESC
	`, accountID)
	if err != nil {
		return nil, apperr.Storage("list scans", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var s models.ScanRecord
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Filename, &s.Total, &s.HighRisk, &s.MediumRisk, &s.LowRisk, &s.ScanDate); err != nil {
			return nil, apperr.Storage("scan scan row", err)
		}
		scans = append(scans, s)
	}

	return scans, apperr.Storage("iterate scans", rows.Err())
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
