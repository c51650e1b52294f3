package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"finsec/internal/accounts"
	"finsec/internal/assistant"
	"finsec/internal/auth"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/navigation"
	"finsec/internal/scoring"
	"finsec/internal/storage"

	"github.com/sirupsen/logrus"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// SessionContextKey is the context key for the current session.
	SessionContextKey contextKey = "session"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
)

// Config holds the dependencies and settings of the HTTP handlers.
type Config struct {
	DB                *storage.DB
	Accounts          *accounts.Store
	Engine            *scoring.Engine
	Assistant         *assistant.Assistant
	Logger            logrus.FieldLogger
	TemplateDir       string
	PrivacyPolicyPath string
	SecureCookie      bool
	SignupAckDelay    time.Duration
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db             *storage.DB
	accounts       *accounts.Store
	nav            *navigation.Controller
	engine         *scoring.Engine
	assistant      *assistant.Assistant
	log            logrus.FieldLogger
	templateDir    string
	privacyPath    string
	secureCookie   bool
	signupAckDelay time.Duration
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = scoring.New()
	}
	asst := cfg.Assistant
	if asst == nil {
		asst = assistant.New("", "")
	}
	return &Handlers{
		db:             cfg.DB,
		accounts:       cfg.Accounts,
		nav:            navigation.NewController(cfg.Accounts),
		engine:         engine,
		assistant:      asst,
		log:            logger.WithField("module", "handlers"),
		templateDir:    cfg.TemplateDir,
		privacyPath:    cfg.PrivacyPolicyPath,
		secureCookie:   cfg.SecureCookie,
		signupAckDelay: cfg.SignupAckDelay,
	}
}

// session is the navigation state bound to one session cookie.
type session struct {
	token string
	state navigation.State
}

func sessionFrom(r *http.Request) *session {
	if s, ok := r.Context().Value(SessionContextKey).(*session); ok {
		return s
	}
	return &session{state: navigation.Initial(nil)}
}

// SessionMiddleware loads the session for the request. A missing or stale
// cookie yields an unsaved anonymous session that is stored on its first
// change, see save. It also implements
// rolling sessions: if a session is past the halfway point of its lifetime,
// it automatically renews the session.
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.loadSession(w, r)
		if err != nil {
			logging.LogError(h.log, "handlers", "SessionMiddleware", nil, err)
			http.Error(w, "The service is temporarily unavailable. Please try again.", http.StatusServiceUnavailable)
			return
		}
		ctx := context.WithValue(r.Context(), SessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) loadSession(w http.ResponseWriter, r *http.Request) (*session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return &session{state: navigation.Initial(nil)}, nil
	}

	info, err := h.db.GetSession(cookie.Value)
	if errors.Is(err, storage.ErrNotFound) {
		return &session{state: navigation.Initial(nil)}, nil
	}
	if err != nil {
		return nil, err
	}

	var state navigation.State
	if err := json.Unmarshal(info.State, &state); err != nil {
		h.log.WithField("func", "loadSession").Warnf("discarding unreadable session state: %v", err)
		state = navigation.Initial(nil)
	}

	// Rolling session: renew if past halfway point
	now := time.Now()
	if info.ExpiresAt.Sub(now) < SessionDuration/2 {
		if err := h.db.RenewSession(info.Token, now.Add(SessionDuration)); err == nil {
			h.setSessionCookie(w, info.Token)
		}
		// If renewal fails, just continue with the current session
	}

	sess := &session{token: info.Token, state: state}
	if state.Account != nil {
		h.refreshAccount(sess)
	}
	return sess, nil
}

// refreshAccount replaces the account held by the session with its current
// stored view. A vanished account logs the session out.
func (h *Handlers) refreshAccount(sess *session) {
	account, err := h.accounts.Account(sess.state.Account.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sess.state = h.nav.Refresh(sess.state, nil)
	case err != nil:
		logging.LogError(h.log, "handlers", "refreshAccount", sess.state.Account.ID, err)
	default:
		sess.state = h.nav.Refresh(sess.state, account)
	}
}

// startSession issues a new session token holding state.
func (h *Handlers) startSession(w http.ResponseWriter, state navigation.State) (*session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	if err := h.db.CreateSession(token, accountID(state), data, time.Now().Add(SessionDuration)); err != nil {
		return nil, err
	}
	h.setSessionCookie(w, token)
	return &session{token: token, state: state}, nil
}

// save persists state as the current state of the request's session. An
// anonymous session gets its row and cookie only once state differs from
// the initial one.
func (h *Handlers) save(w http.ResponseWriter, r *http.Request, state navigation.State) {
	sess := sessionFrom(r)
	sess.state = state
	if sess.token == "" {
		if state.Pristine() {
			return
		}
		next, err := h.startSession(w, state)
		if err != nil {
			logging.LogError(h.log, "handlers", "save", accountID(state), err)
			return
		}
		sess.token = next.token
		return
	}
	data, err := json.Marshal(state)
	if err == nil {
		err = h.db.SaveSession(sess.token, accountID(state), data)
	}
	if err != nil {
		logging.LogError(h.log, "handlers", "save", accountID(state), err)
	}
}

// rotate replaces the request's session with a new token holding state. It
// is used whenever the signed-in account changes.
func (h *Handlers) rotate(w http.ResponseWriter, r *http.Request, state navigation.State) {
	sess := sessionFrom(r)
	if sess.token != "" {
		if err := h.db.DeleteSession(sess.token); err != nil {
			logging.LogError(h.log, "handlers", "rotate", nil, err)
		}
	}
	next, err := h.startSession(w, state)
	if err != nil {
		logging.LogError(h.log, "handlers", "rotate", accountID(state), err)
		h.clearSessionCookie(w)
		sess.token = ""
		sess.state = state
		return
	}
	*sess = *next
}

func accountID(state navigation.State) string {
	if state.Account == nil {
		return ""
	}
	return state.Account.ID
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests logs method, path, status and duration of every request.
func (h *Handlers) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// Layout is the part of every view model the base template reads.
type Layout struct {
	Page             navigation.Page
	Account          *models.AccountView
	Notice           string
	LogoutPending    bool
	AssistantVisible bool
	Chat             []navigation.ChatMessage
}

func layoutFor(state navigation.State, notice string) Layout {
	return Layout{
		Page:             state.Page,
		Account:          state.Account,
		Notice:           notice,
		LogoutPending:    state.LogoutPending,
		AssistantVisible: state.AssistantVisible,
		Chat:             state.Chat,
	}
}

// Index sends the visitor to the page their session is on.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pagePath(sessionFrom(r).state.Page), http.StatusFound)
}

func pagePath(p navigation.Page) string {
	if p == "" {
		return "/login"
	}
	return "/" + string(p)
}

// enter navigates the session to page and reports whether the page may be
// shown. When the guard sends the session elsewhere a redirect is written.
// The returned notice is the one pending before the navigation dropped it.
func (h *Handlers) enter(w http.ResponseWriter, r *http.Request, page navigation.Page) (navigation.State, string, bool) {
	prev := sessionFrom(r).state
	state := h.nav.Navigate(prev, page)
	h.save(w, r, state)
	if state.Page != page {
		http.Redirect(w, r, pagePath(state.Page), http.StatusFound)
		return state, "", false
	}
	return state, prev.Notice, true
}

// back redirects to the page the session is currently on.
func (h *Handlers) back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pagePath(sessionFrom(r).state.Page), http.StatusSeeOther)
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"title": capitalize,
	"score": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
}

func capitalize(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	h.renderStatus(w, r, http.StatusOK, viewName, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		h.log.WithField("func", "render").Errorf("template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.log.WithField("func", "render").Errorf("template execution error: %v", err)
	}
}
