package main

import (
	"net/http"
	"time"

	"finsec/internal/accounts"
	"finsec/internal/assistant"
	"finsec/internal/config"
	"finsec/internal/handlers"
	"finsec/internal/logging"
	"finsec/internal/models"
	"finsec/internal/scoring"
	"finsec/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	env := config.Load()
	logger := logging.New(env.LogLevel)

	db, err := storage.NewDB(env.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := accounts.NewStore(db)
	if err := bootstrapAdmin(db, store, env, logger); err != nil {
		logger.Fatalf("Failed to create admin account: %v", err)
	}
	if err := db.CleanExpiredSessions(); err != nil {
		logger.Warnf("Failed to clean expired sessions: %v", err)
	}

	h := handlers.NewHandlers(handlers.Config{
		DB:                db,
		Accounts:          store,
		Engine:            scoring.New(scoring.WithLatency(env.ScoreLatency)),
		Assistant:         assistant.New(env.OpenAIKey, env.OpenAIModel),
		Logger:            logger,
		TemplateDir:       env.TemplateDir,
		PrivacyPolicyPath: env.PrivacyPolicyPath,
		SecureCookie:      env.SecureCookie,
		SignupAckDelay:    env.SignupAckDelay,
	})

	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           setupRouter(h, env.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("Server starting on :%s", env.Port)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal(err)
	}
}

// bootstrapAdmin creates the configured admin account when the database has
// no accounts yet.
func bootstrapAdmin(db *storage.DB, store *accounts.Store, env config.Env, logger logrus.FieldLogger) error {
	if env.AdminEmail == "" || env.AdminPassword == "" {
		return nil
	}
	count, err := db.AccountCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	id, err := store.Create(env.AdminEmail, env.AdminPassword, models.RoleAdmin, models.PlanPremium)
	if err != nil {
		return err
	}
	logger.WithField("account", id).Info("Created admin account")
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) http.Handler {
	app := http.NewServeMux()

	app.HandleFunc("GET /{$}", h.Index)

	app.HandleFunc("GET /login", h.LoginForm)
	app.HandleFunc("POST /login", h.Login)
	app.HandleFunc("GET /signup", h.SignupForm)
	app.HandleFunc("POST /signup", h.Signup)

	app.HandleFunc("POST /logout", h.Logout)
	app.HandleFunc("POST /logout/confirm", h.ConfirmLogout)
	app.HandleFunc("POST /logout/cancel", h.CancelLogout)

	app.HandleFunc("GET /dashboard", h.Dashboard)
	app.HandleFunc("POST /dashboard/analyze", h.Analyze)
	app.HandleFunc("POST /dashboard/clear", h.ClearAnalysis)
	app.HandleFunc("GET /dashboard/report.csv", h.ReportCSV)
	app.HandleFunc("GET /dashboard/report.xlsx", h.ReportXLSX)
	app.HandleFunc("POST /dashboard/live", h.LiveScore)

	app.HandleFunc("GET /history", h.History)
	app.HandleFunc("GET /history.csv", h.HistoryCSV)

	app.HandleFunc("GET /settings", h.Settings)
	app.HandleFunc("POST /settings/general", h.SaveGeneralSettings)
	app.HandleFunc("POST /settings/api", h.SaveAPISettings)
	app.HandleFunc("POST /settings/password", h.ChangePassword)

	app.HandleFunc("GET /privacy", h.Privacy)

	app.HandleFunc("POST /assistant/toggle", h.ToggleAssistant)
	app.HandleFunc("POST /assistant", h.AskAssistant)

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("POST /api/detect", h.Detect)
	mux.HandleFunc("POST /api/batch-detect", h.BatchDetect)
	mux.Handle("/", h.SessionMiddleware(app))

	return h.LogRequests(mux)
}
