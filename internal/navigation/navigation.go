// Package navigation implements the session page state machine.
//
// Every transition takes a State and returns a new one. The input State is
// never modified, so a State can be persisted, compared or replayed freely.
package navigation

import (
	"errors"

	"finsec/internal/apperr"
	"finsec/internal/models"
	"finsec/internal/validate"
)

// Page is one page of the application.
type Page string

const (
	PageLogin     Page = "login"
	PageSignup    Page = "signup"
	PageDashboard Page = "dashboard"
	PageHistory   Page = "history"
	PageSettings  Page = "settings"
	PagePrivacy   Page = "privacy"
)

var pages = map[Page]bool{
	PageLogin:     false,
	PageSignup:    false,
	PageDashboard: true,
	PageHistory:   true,
	PageSettings:  true,
	PagePrivacy:   false,
}

// ParsePage returns the page named s.
func ParsePage(s string) (Page, bool) {
	p := Page(s)
	_, ok := pages[p]
	return p, ok
}

// Guarded reports whether the page needs an authenticated account.
func (p Page) Guarded() bool {
	return pages[p]
}

// SignupNotice acknowledges a successful signup.
const SignupNotice = "Account created successfully! Please login."

// ChatMessage is one entry of the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the navigation state of one session.
type State struct {
	Page    Page                `json:"page"`
	Account *models.AccountView `json:"account,omitempty"`

	// LoginFailed stays set until the next login attempt.
	LoginFailed bool `json:"login_failed,omitempty"`
	// LoginMessage reports an incomplete login form or a storage failure.
	LoginMessage string `json:"login_message,omitempty"`
	// SignupError and Notice are shown once and dropped on the next
	// navigation.
	SignupError string `json:"signup_error,omitempty"`
	Notice      string `json:"notice,omitempty"`

	LogoutPending    bool          `json:"logout_pending,omitempty"`
	AssistantVisible bool          `json:"assistant_visible,omitempty"`
	Chat             []ChatMessage `json:"chat,omitempty"`

	Analysis *models.Analysis `json:"analysis,omitempty"`
}

// Authenticated reports whether the state holds an account.
func (s State) Authenticated() bool {
	return s.Account != nil
}

// Pristine reports whether s is still the anonymous starting state.
func (s State) Pristine() bool {
	return s.Page == PageLogin && s.Account == nil && !s.LoginFailed &&
		s.LoginMessage == "" && s.SignupError == "" && s.Notice == "" &&
		!s.LogoutPending && !s.AssistantVisible && len(s.Chat) == 0 && s.Analysis == nil
}

// Accounts is the part of the credential store the controller needs.
type Accounts interface {
	Authenticate(email, password string) (*models.AccountView, error)
	Create(email, password string, role models.Role, plan models.Plan) (string, error)
}

// Controller drives page transitions.
type Controller struct {
	accounts Accounts
}

// NewController creates a Controller.
func NewController(accounts Accounts) *Controller {
	return &Controller{accounts: accounts}
}

// Initial returns the starting state: login without an account, the
// dashboard with one.
func Initial(account *models.AccountView) State {
	if account == nil {
		return State{Page: PageLogin}
	}
	return State{Page: PageDashboard, Account: account}
}

// Navigate moves to page. Guarded pages fall back to login when the state
// holds no account.
func (c *Controller) Navigate(s State, page Page) State {
	next := s
	next.SignupError = ""
	next.Notice = ""
	if page.Guarded() && !s.Authenticated() {
		next.Page = PageLogin
		return next
	}
	next.Page = page
	return next
}

// Login attempts to authenticate. On success the state moves to the
// dashboard; on failure it stays on login with the failure recorded. The
// returned error is for logging only, the state already reflects it.
func (c *Controller) Login(s State, email, password string) (State, error) {
	next := s
	next.Page = PageLogin
	next.LoginFailed = false
	next.LoginMessage = ""
	next.Notice = ""

	if err := (validate.LoginForm{Email: email, Password: password}).Check(); err != nil {
		next.LoginMessage = apperr.Message(err)
		return next, err
	}

	account, err := c.accounts.Authenticate(email, password)
	switch {
	case errors.Is(err, apperr.ErrAuthenticationFailed):
		next.LoginFailed = true
		return next, err
	case err != nil:
		next.LoginMessage = apperr.Message(err)
		return next, err
	}

	next.Page = PageDashboard
	next.Account = account
	next.LogoutPending = false
	if s.Account == nil || s.Account.ID != account.ID {
		next.Analysis = nil
	}
	return next, nil
}

// Signup registers a new client account on the free plan. Success moves to
// login with an acknowledgement notice; any failure stays on signup with the
// error recorded.
func (c *Controller) Signup(s State, email, password, confirm string) (State, error) {
	next := s
	next.Page = PageSignup
	next.SignupError = ""
	next.Notice = ""

	form := validate.SignupForm{Email: email, Password: password, Confirm: confirm}
	if err := form.Check(); err != nil {
		next.SignupError = apperr.Message(err)
		return next, err
	}

	if _, err := c.accounts.Create(email, password, models.RoleClient, models.PlanFree); err != nil {
		next.SignupError = apperr.Message(err)
		return next, err
	}

	next.Page = PageLogin
	next.Notice = SignupNotice
	next.LoginFailed = false
	next.LoginMessage = ""
	return next, nil
}

// RequestLogout asks for logout confirmation.
func (c *Controller) RequestLogout(s State) State {
	next := s
	next.LogoutPending = s.Authenticated()
	return next
}

// ConfirmLogout drops the account and everything tied to it and returns to
// login.
func (c *Controller) ConfirmLogout(s State) State {
	next := Initial(nil)
	next.AssistantVisible = s.AssistantVisible
	return next
}

// CancelLogout clears the pending confirmation only.
func (c *Controller) CancelLogout(s State) State {
	next := s
	next.LogoutPending = false
	return next
}

// Refresh replaces the held account with a current view of it. A nil view
// means the account is gone and logs the session out.
func (c *Controller) Refresh(s State, account *models.AccountView) State {
	if account == nil {
		return c.ConfirmLogout(s)
	}
	next := s
	next.Account = account
	return next
}

// ToggleAssistant shows or hides the assistant panel.
func (c *Controller) ToggleAssistant(s State, visible bool) State {
	next := s
	next.AssistantVisible = visible
	return next
}

// AppendChat records one assistant exchange.
func (c *Controller) AppendChat(s State, query, response string) State {
	next := s
	next.Chat = make([]ChatMessage, 0, len(s.Chat)+2)
	next.Chat = append(next.Chat, s.Chat...)
	next.Chat = append(next.Chat,
		ChatMessage{Role: "user", Content: query},
		ChatMessage{Role: "assistant", Content: response},
	)
	return next
}

// WithAnalysis keeps the latest batch analysis on the state.
func (c *Controller) WithAnalysis(s State, a *models.Analysis) State {
	next := s
	next.Analysis = a
	return next
}

// ClearAnalysis drops the batch analysis.
func (c *Controller) ClearAnalysis(s State) State {
	next := s
	next.Analysis = nil
	return next
}
