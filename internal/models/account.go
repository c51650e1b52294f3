package models

import "time"

// Role is the access role of an account.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Plan is the subscription plan of an account. It gates live monitoring.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Account represents a user account.
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	Role           Role      `json:"role"`
	Plan           Plan      `json:"plan"`
	CreatedAt      time.Time `json:"created_at"`
}

// View strips the password digest from the account.
func (a Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		Plan:      a.Plan,
		CreatedAt: a.CreatedAt,
	}
}

// AccountView is the authenticated account as held by a session.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// IsPremium reports whether the account is on the premium plan.
func (a AccountView) IsPremium() bool {
	return a.Plan == PlanPremium
}

// AccountSettings holds the per-account preferences. APIKey is issued once
// at account creation and never changes.
type AccountSettings struct {
	EmailAlerts bool   `json:"email_alerts"`
	LiveAccess  bool   `json:"live_access"`
	WebhookURL  string `json:"webhook_url"`
	APIKey      string `json:"api_key"`
}
