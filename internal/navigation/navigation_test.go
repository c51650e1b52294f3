package navigation

import (
	"errors"
	"testing"

	"finsec/internal/apperr"
	"finsec/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccounts is an in-memory credential store.
type fakeAccounts struct {
	passwords map[string]string
	views     map[string]*models.AccountView
	err       error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{passwords: map[string]string{}, views: map[string]*models.AccountView{}}
}

func (f *fakeAccounts) Authenticate(email, password string) (*models.AccountView, error) {
	if f.err != nil {
		return nil, f.err
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, apperr.ErrAuthenticationFailed
	}
	return f.views[email], nil
}

func (f *fakeAccounts) Create(email, password string, role models.Role, plan models.Plan) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, ok := f.passwords[email]; ok {
		return "", apperr.ErrDuplicateAccount
	}
	id := "id-" + email
	f.passwords[email] = password
	f.views[email] = &models.AccountView{ID: id, Email: email, Role: role, Plan: plan}
	return id, nil
}

func loggedIn(t *testing.T) (*Controller, *fakeAccounts, State) {
	accounts := newFakeAccounts()
	_, err := accounts.Create("a@x.com", "pw123", models.RoleClient, models.PlanFree)
	require.NoError(t, err)

	c := NewController(accounts)
	s, err := c.Login(Initial(nil), "a@x.com", "pw123")
	require.NoError(t, err)
	require.True(t, s.Authenticated())
	return c, accounts, s
}

func TestInitial(t *testing.T) {
	assert.Equal(t, PageLogin, Initial(nil).Page)

	s := Initial(&models.AccountView{ID: "1"})
	assert.Equal(t, PageDashboard, s.Page)
	assert.True(t, s.Authenticated())
}

func TestParsePage(t *testing.T) {
	p, ok := ParsePage("history")
	assert.True(t, ok)
	assert.Equal(t, PageHistory, p)

	_, ok = ParsePage("admin")
	assert.False(t, ok)
}

func TestNavigateGuard(t *testing.T) {
	c := NewController(newFakeAccounts())
	anon := Initial(nil)

	for _, page := range []Page{PageDashboard, PageHistory, PageSettings} {
		assert.Equal(t, PageLogin, c.Navigate(anon, page).Page, "unauthenticated %s", page)
	}
	for _, page := range []Page{PageLogin, PageSignup, PagePrivacy} {
		assert.Equal(t, page, c.Navigate(anon, page).Page, "public %s", page)
	}
}

func TestNavigateFreeWhenAuthenticated(t *testing.T) {
	c, _, s := loggedIn(t)

	for _, page := range []Page{PageHistory, PageSettings, PagePrivacy, PageDashboard, PageLogin} {
		s = c.Navigate(s, page)
		assert.Equal(t, page, s.Page)
		assert.True(t, s.Authenticated())
	}
}

func TestLoginSuccess(t *testing.T) {
	_, _, s := loggedIn(t)

	assert.Equal(t, PageDashboard, s.Page)
	assert.Equal(t, models.RoleClient, s.Account.Role)
	assert.Equal(t, models.PlanFree, s.Account.Plan)
	assert.False(t, s.LoginFailed)
}

func TestLoginFailureThenRetry(t *testing.T) {
	accounts := newFakeAccounts()
	_, err := accounts.Create("a@x.com", "pw123", models.RoleClient, models.PlanFree)
	require.NoError(t, err)
	c := NewController(accounts)

	failed, err := c.Login(Initial(nil), "a@x.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailed)
	assert.Equal(t, PageLogin, failed.Page)
	assert.True(t, failed.LoginFailed)
	assert.False(t, failed.Authenticated())

	// The flag survives navigation until the next attempt
	assert.True(t, c.Navigate(failed, PagePrivacy).LoginFailed)

	ok, err := c.Login(failed, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.False(t, ok.LoginFailed)
	assert.Equal(t, PageDashboard, ok.Page)
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	c := NewController(newFakeAccounts())

	s, err := c.Login(Initial(nil), "ghost@x.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailed)
	assert.True(t, s.LoginFailed)
}

func TestLoginEmptyFields(t *testing.T) {
	c := NewController(newFakeAccounts())

	s, err := c.Login(Initial(nil), "", "")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t, PageLogin, s.Page)
	assert.False(t, s.LoginFailed)
	assert.Equal(t, "Please enter both email and password", s.LoginMessage)
}

func TestLoginStorageFailure(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.err = apperr.Storage("get account", errors.New("database is locked"))
	c := NewController(accounts)

	s, err := c.Login(Initial(nil), "a@x.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.Equal(t, PageLogin, s.Page)
	assert.False(t, s.LoginFailed)
	assert.NotEmpty(t, s.LoginMessage)
}

func TestLoginDoesNotMutateInput(t *testing.T) {
	c := NewController(newFakeAccounts())
	in := Initial(nil)

	_, _ = c.Login(in, "a@x.com", "wrong")
	assert.Equal(t, Initial(nil), in)
}

func TestSignupSuccess(t *testing.T) {
	accounts := newFakeAccounts()
	c := NewController(accounts)

	s, err := c.Signup(c.Navigate(Initial(nil), PageSignup), "a@x.com", "pw123", "pw123")
	require.NoError(t, err)
	assert.Equal(t, PageLogin, s.Page)
	assert.Equal(t, SignupNotice, s.Notice)
	assert.Empty(t, s.SignupError)
	assert.False(t, s.Authenticated(), "signup does not log in")

	// Notice is shown once
	assert.Empty(t, c.Navigate(s, PageLogin).Notice)

	in, err := c.Login(s, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, in.Account.Role)
	assert.Equal(t, models.PlanFree, in.Account.Plan)
}

func TestSignupFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		wantKind error
		wantMsg  string
	}{
		{"mismatch", "a@x.com", "pw123", "pw321", apperr.ErrValidationFailed, "Passwords do not match"},
		{"empty", "", "pw123", "pw123", apperr.ErrValidationFailed, "Please fill in all fields"},
		{"duplicate", "taken@x.com", "pw123", "pw123", apperr.ErrDuplicateAccount, "User with this email already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newFakeAccounts()
			_, err := accounts.Create("taken@x.com", "old", models.RoleClient, models.PlanFree)
			require.NoError(t, err)
			c := NewController(accounts)

			s, err := c.Signup(c.Navigate(Initial(nil), PageSignup), tt.email, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, PageSignup, s.Page)
			assert.Equal(t, tt.wantMsg, s.SignupError)
			assert.Len(t, accounts.passwords, 1, "no account created")
			assert.Equal(t, "old", accounts.passwords["taken@x.com"])
		})
	}
}

func TestLogoutConfirmation(t *testing.T) {
	c, _, s := loggedIn(t)
	s = c.ToggleAssistant(s, true)
	s = c.WithAnalysis(s, &models.Analysis{Filename: "x.csv"})
	s = c.AppendChat(s, "hi", "hello")

	pending := c.RequestLogout(s)
	assert.True(t, pending.LogoutPending)
	assert.Equal(t, s.Page, pending.Page)

	cancelled := c.CancelLogout(pending)
	assert.False(t, cancelled.LogoutPending)
	assert.True(t, cancelled.Authenticated())
	assert.NotNil(t, cancelled.Analysis)

	out := c.ConfirmLogout(c.RequestLogout(cancelled))
	assert.Equal(t, PageLogin, out.Page)
	assert.False(t, out.Authenticated())
	assert.False(t, out.LogoutPending)
	assert.Nil(t, out.Analysis)
	assert.Empty(t, out.Chat)
	assert.True(t, out.AssistantVisible)

	// Back behind the guard
	assert.Equal(t, PageLogin, c.Navigate(out, PageDashboard).Page)
}

func TestRequestLogoutWithoutAccount(t *testing.T) {
	c := NewController(newFakeAccounts())
	assert.False(t, c.RequestLogout(Initial(nil)).LogoutPending)
}

func TestAppendChatCopies(t *testing.T) {
	c := NewController(newFakeAccounts())
	first := c.AppendChat(Initial(nil), "q1", "a1")
	second := c.AppendChat(first, "q2", "a2")

	assert.Len(t, first.Chat, 2)
	assert.Len(t, second.Chat, 4)
	assert.Equal(t, ChatMessage{Role: "assistant", Content: "a2"}, second.Chat[3])
}

func TestRefresh(t *testing.T) {
	c, _, s := loggedIn(t)

	upgraded := *s.Account
	upgraded.Plan = models.PlanPremium
	r := c.Refresh(s, &upgraded)
	assert.Equal(t, models.PlanPremium, r.Account.Plan)
	assert.Equal(t, models.PlanFree, s.Account.Plan, "input untouched")

	gone := c.Refresh(s, nil)
	assert.False(t, gone.Authenticated())
	assert.Equal(t, PageLogin, gone.Page)
}

func TestPristine(t *testing.T) {
	assert.True(t, Initial(nil).Pristine())
	assert.False(t, Initial(&models.AccountView{ID: "a1"}).Pristine())

	c := NewController(newFakeAccounts())
	assert.True(t, c.Navigate(Initial(nil), PageDashboard).Pristine(), "guard keeps the starting state")
	assert.False(t, c.Navigate(Initial(nil), PageSignup).Pristine())
	assert.False(t, c.ToggleAssistant(Initial(nil), true).Pristine())

	failed, err := c.Login(Initial(nil), "a@x.com", "wrong")
	assert.Error(t, err)
	assert.False(t, failed.Pristine())
}
