package handlers

import (
	"html/template"
	"net/http"
	"os"
	"strings"

	"finsec/internal/apperr"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/navigation"
	"finsec/internal/validate"

	"github.com/russross/blackfriday/v2"
)

// Confirmation messages of the settings page.
const (
	GeneralSavedMessage   = "Settings saved successfully!"
	APISavedMessage       = "API settings saved successfully!"
	PasswordChangedNotice = "Password changed successfully!"
)

var settingsTabs = map[string]bool{"general": true, "api": true, "account": true}

// SettingsViewModel is the data passed to the settings template.
type SettingsViewModel struct {
	Layout
	Tab      string
	Settings models.AccountSettings
	Message  string
	Error    string
}

func (h *Handlers) settingsView(state navigation.State, tab string) SettingsViewModel {
	if !settingsTabs[tab] {
		tab = "general"
	}
	return SettingsViewModel{
		Layout:   layoutFor(state, ""),
		Tab:      tab,
		Settings: h.settingsFor(state),
	}
}

// Settings renders the settings page.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	state, notice, ok := h.enter(w, r, navigation.PageSettings)
	if !ok {
		return
	}
	view := h.settingsView(state, r.URL.Query().Get("tab"))
	view.Notice = notice
	h.render(w, r, "settings.html", view)
}

// SaveGeneralSettings stores the email alert preference.
func (h *Handlers) SaveGeneralSettings(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageSettings)
	if !ok {
		return
	}
	current := h.settingsFor(state)
	emailAlerts := r.FormValue("email_alerts") == "on"

	h.saveSettings(w, r, state, "general", GeneralSavedMessage,
		emailAlerts, current.LiveAccess, current.WebhookURL)
}

// SaveAPISettings stores the live access switch and the webhook URL. The API
// key is shown but never changed.
func (h *Handlers) SaveAPISettings(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageSettings)
	if !ok {
		return
	}
	form := validate.APISettingsForm{
		LiveAccess: r.FormValue("live_access") == "on",
		WebhookURL: strings.TrimSpace(r.FormValue("webhook_url")),
	}
	if err := form.Check(); err != nil {
		view := h.settingsView(state, "api")
		view.Error = apperr.Message(err)
		h.renderStatus(w, r, http.StatusBadRequest, "settings.html", view)
		return
	}
	current := h.settingsFor(state)

	h.saveSettings(w, r, state, "api", APISavedMessage,
		current.EmailAlerts, form.LiveAccess, form.WebhookURL)
}

func (h *Handlers) saveSettings(w http.ResponseWriter, r *http.Request, state navigation.State, tab, message string,
	emailAlerts, liveAccess bool, webhookURL string) {
	if err := h.accounts.UpdateSettings(state.Account.ID, emailAlerts, liveAccess, webhookURL); err != nil {
		logging.LogError(h.log, "handlers", "saveSettings", state.Account.ID, err)
		view := h.settingsView(state, tab)
		view.Error = apperr.Message(err)
		h.renderStatus(w, r, http.StatusServiceUnavailable, "settings.html", view)
		return
	}
	view := h.settingsView(state, tab)
	view.Message = message
	h.render(w, r, "settings.html", view)
}

// ChangePassword validates the change-password form. Stored passwords are
// not changed.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	state, _, ok := h.enter(w, r, navigation.PageSettings)
	if !ok {
		return
	}
	form := validate.PasswordChangeForm{
		Current: r.FormValue("current_password"),
		New:     r.FormValue("new_password"),
		Confirm: r.FormValue("confirm_password"),
	}
	view := h.settingsView(state, "account")
	if err := form.Check(); err != nil {
		view.Error = apperr.Message(err)
		h.renderStatus(w, r, http.StatusBadRequest, "settings.html", view)
		return
	}
	view.Message = PasswordChangedNotice
	h.render(w, r, "settings.html", view)
}

// PrivacyViewModel is the data passed to the privacy template.
type PrivacyViewModel struct {
	Layout
	Policy template.HTML
}

// Privacy renders the privacy policy.
func (h *Handlers) Privacy(w http.ResponseWriter, r *http.Request) {
	state, notice, ok := h.enter(w, r, navigation.PagePrivacy)
	if !ok {
		return
	}
	view := PrivacyViewModel{Layout: layoutFor(state, notice)}

	data, err := os.ReadFile(h.privacyPath)
	if err != nil {
		logging.LogError(h.log, "handlers", "Privacy", h.privacyPath, err)
		view.Policy = "<p>The privacy policy is currently unavailable.</p>"
	} else {
		view.Policy = template.HTML(blackfriday.Run(data))
	}
	h.render(w, r, "privacy.html", view)
}

// ToggleAssistant shows or hides the assistant panel.
func (h *Handlers) ToggleAssistant(w http.ResponseWriter, r *http.Request) {
	state := sessionFrom(r).state
	if !state.Authenticated() {
		http.Redirect(w, r, pagePath(navigation.PageLogin), http.StatusSeeOther)
		return
	}
	visible := !state.AssistantVisible
	if v := r.FormValue("visible"); v != "" {
		visible = v == "true"
	}
	h.save(w, r, h.nav.ToggleAssistant(state, visible))
	h.back(w, r)
}

// AskAssistant sends a question to the assistant and records the exchange.
// Only signed-in accounts may reach the model.
func (h *Handlers) AskAssistant(w http.ResponseWriter, r *http.Request) {
	state := sessionFrom(r).state
	if !state.Authenticated() {
		http.Redirect(w, r, pagePath(navigation.PageLogin), http.StatusSeeOther)
		return
	}
	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		h.back(w, r)
		return
	}
	answer := h.assistant.Ask(r.Context(), query)

	next := h.nav.AppendChat(h.nav.ToggleAssistant(state, true), query, answer)
	h.save(w, r, next)
	h.back(w, r)
}
