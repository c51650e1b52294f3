// Package accounts implements account creation, authentication and the
// per-account settings on top of the storage layer.
package accounts

import (
	"errors"
	"fmt"
	"time"

	"finsec/internal/apperr"
	"finsec/internal/auth"
	"finsec/internal/models"
	"finsec/internal/storage"

	"github.com/google/uuid"
)

// Store is the credential store.
type Store struct {
	db *storage.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Create registers a new account with default settings and a freshly issued
// API key. Empty role and plan default to client and free.
func (s *Store) Create(email, password string, role models.Role, plan models.Plan) (string, error) {
	if email == "" || password == "" {
		return "", apperr.Validation("Please fill in all fields")
	}
	if role == "" {
		role = models.RoleClient
	}
	if plan == "" {
		plan = models.PlanFree
	}

	digest, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperr.Validation("Password is too long")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}

	account := &models.Account{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordDigest: digest,
		Role:           role,
		Plan:           plan,
		CreatedAt:      time.Now().UTC(),
	}
	settings := &models.AccountSettings{APIKey: apiKey}

	if err := s.db.CreateAccount(account, settings); err != nil {
		return "", err
	}
	return account.ID, nil
}

// Authenticate returns the account view when password matches the stored
// digest. Unknown emails and wrong passwords both yield
// apperr.ErrAuthenticationFailed.
func (s *Store) Authenticate(email, password string) (*models.AccountView, error) {
	account, err := s.db.GetAccountByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, account.PasswordDigest) {
		return nil, apperr.ErrAuthenticationFailed
	}

	view := account.View()
	return &view, nil
}

// Account returns the current view of an account by ID.
func (s *Store) Account(accountID string) (*models.AccountView, error) {
	account, err := s.db.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	view := account.View()
	return &view, nil
}

// AccountByAPIKey resolves the owner of a detection API key.
func (s *Store) AccountByAPIKey(key string) (*models.AccountView, error) {
	if key == "" {
		return nil, apperr.ErrAuthenticationFailed
	}
	account, err := s.db.GetAccountByAPIKey(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, err
	}
	view := account.View()
	return &view, nil
}

// Settings returns the settings of an account, or the defaults when the
// account has no settings row.
func (s *Store) Settings(accountID string) (models.AccountSettings, error) {
	settings, err := s.db.GetSettings(accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.AccountSettings{}, nil
	}
	if err != nil {
		return models.AccountSettings{}, err
	}
	return *settings, nil
}

// UpdateSettings overwrites the mutable settings. The API key is read-only.
func (s *Store) UpdateSettings(accountID string, emailAlerts, liveAccess bool, webhookURL string) error {
	return s.db.UpdateSettings(accountID, emailAlerts, liveAccess, webhookURL)
}

// LiveAccess reports whether the single-transaction flow is open to the
// account: it needs the premium plan and live access enabled in settings.
func LiveAccess(account models.AccountView, settings models.AccountSettings) bool {
	return account.IsPremium() && settings.LiveAccess
}
