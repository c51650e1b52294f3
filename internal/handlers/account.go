package handlers

import (
	"errors"
	"net/http"
	"strings"

	"finsec/internal/apperr"
	"finsec/internal/logging"
	"finsec/internal/navigation"

	"github.com/sirupsen/logrus"
)

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Layout
	Email   string
	Failed  bool
	Message string
}

// SignupViewModel holds data for the signup page.
type SignupViewModel struct {
	Layout
	Email           string
	Error           string
	Created         bool
	RedirectSeconds int
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go to the dashboard
	if sessionFrom(r).state.Authenticated() {
		h.save(w, r, h.nav.Navigate(sessionFrom(r).state, navigation.PageDashboard))
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	state, notice, ok := h.enter(w, r, navigation.PageLogin)
	if !ok {
		return
	}
	h.render(w, r, "login.html", LoginViewModel{
		Layout:  layoutFor(state, notice),
		Failed:  state.LoginFailed,
		Message: state.LoginMessage,
	})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", LoginViewModel{
			Layout:  layoutFor(sessionFrom(r).state, ""),
			Message: "Invalid form submission",
		})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	prev := sessionFrom(r).state
	state, err := h.nav.Login(prev, email, password)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAuthenticationFailed), errors.Is(err, apperr.ErrValidationFailed):
			h.log.WithField("func", "Login").Info("login rejected")
		default:
			logging.LogError(h.log, "handlers", "Login", nil, err)
		}
		h.save(w, r, state)
		h.render(w, r, "login.html", LoginViewModel{
			Layout:  layoutFor(state, ""),
			Email:   email,
			Failed:  state.LoginFailed,
			Message: state.LoginMessage,
		})
		return
	}

	h.rotate(w, r, state)
	h.log.WithFields(logrus.Fields{"func": "Login", "account": state.Account.ID}).Info("signed in")
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// SignupForm renders the signup page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).state.Authenticated() {
		h.save(w, r, h.nav.Navigate(sessionFrom(r).state, navigation.PageDashboard))
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	state, _, ok := h.enter(w, r, navigation.PageSignup)
	if !ok {
		return
	}
	h.render(w, r, "signup.html", SignupViewModel{Layout: layoutFor(state, "")})
}

// Signup handles the signup form submission. On success the page shows the
// acknowledgement and then follows to login on its own.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "signup.html", SignupViewModel{
			Layout: layoutFor(sessionFrom(r).state, ""),
			Error:  "Invalid form submission",
		})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	state, err := h.nav.Signup(sessionFrom(r).state, email, r.FormValue("password"), r.FormValue("confirm"))
	h.save(w, r, state)
	if err != nil {
		if !errors.Is(err, apperr.ErrValidationFailed) && !errors.Is(err, apperr.ErrDuplicateAccount) {
			logging.LogError(h.log, "handlers", "Signup", nil, err)
		}
		h.render(w, r, "signup.html", SignupViewModel{
			Layout: layoutFor(state, ""),
			Email:  email,
			Error:  state.SignupError,
		})
		return
	}

	h.log.WithField("func", "Signup").Info("account created")
	view := SignupViewModel{
		Layout:          layoutFor(state, state.Notice),
		Created:         true,
		RedirectSeconds: int(h.signupAckDelay.Seconds()),
	}
	view.Page = navigation.PageSignup
	h.render(w, r, "signup.html", view)
}

// Logout asks the signed-in user to confirm.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.nav.RequestLogout(sessionFrom(r).state))
	h.back(w, r)
}

// ConfirmLogout ends the signed-in session.
func (h *Handlers) ConfirmLogout(w http.ResponseWriter, r *http.Request) {
	state := h.nav.ConfirmLogout(sessionFrom(r).state)
	h.rotate(w, r, state)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// CancelLogout dismisses the logout confirmation.
func (h *Handlers) CancelLogout(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.nav.CancelLogout(sessionFrom(r).state))
	h.back(w, r)
}
