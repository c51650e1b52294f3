// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Env holds the configuration values for the application.
type Env struct {
	Port              string
	DBPath            string
	TemplateDir       string
	StaticDir         string
	PrivacyPolicyPath string
	SecureCookie      bool
	LogLevel          string

	OpenAIKey   string
	OpenAIModel string

	ScoreLatency   time.Duration
	SignupAckDelay time.Duration

	AdminEmail    string
	AdminPassword string
}

// Load reads an optional .env file and then the environment.
func Load() Env {
	// A missing .env is fine, the environment still applies
	_ = godotenv.Load()

	return Env{
		Port:              get("PORT", "8080"),
		DBPath:            get("DB_PATH", "finsec.db"),
		TemplateDir:       get("TEMPLATE_DIR", "web/templates"),
		StaticDir:         get("STATIC_DIR", "web/static"),
		PrivacyPolicyPath: get("PRIVACY_POLICY_PATH", "web/privacy_policy.md"),
		SecureCookie:      get("SECURE_COOKIE", "") == "true",
		LogLevel:          get("LOG_LEVEL", "info"),
		OpenAIKey:         get("OPENAI_API_KEY", ""),
		OpenAIModel:       get("OPENAI_MODEL", "gpt-3.5-turbo"),
		ScoreLatency:      time.Duration(getInt("SCORE_LATENCY_MS", 1000)) * time.Millisecond,
		SignupAckDelay:    time.Duration(getInt("SIGNUP_ACK_SECONDS", 2)) * time.Second,
		AdminEmail:        get("ADMIN_EMAIL", ""),
		AdminPassword:     get("ADMIN_PASSWORD", ""),
	}
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getInt returns the integer value of k, or def if unset or malformed.
func getInt(k string, def int) int {
	n, err := strconv.Atoi(get(k, ""))
	if err != nil || n < 0 {
		return def
	}
	return n
}
