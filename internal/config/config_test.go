package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "SECURE_COOKIE", "SCORE_LATENCY_MS", "SIGNUP_ACK_SECONDS", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}

	env := Load()
	assert.Equal(t, "8080", env.Port)
	assert.Equal(t, "finsec.db", env.DBPath)
	assert.False(t, env.SecureCookie)
	assert.Equal(t, time.Second, env.ScoreLatency)
	assert.Equal(t, 2*time.Second, env.SignupAckDelay)
	assert.Equal(t, "gpt-3.5-turbo", env.OpenAIModel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("SECURE_COOKIE", "true")
	t.Setenv("SCORE_LATENCY_MS", "0")
	t.Setenv("SIGNUP_ACK_SECONDS", "bogus")
	t.Setenv("ADMIN_EMAIL", "admin@x.com")

	env := Load()
	assert.Equal(t, "9090", env.Port)
	assert.Equal(t, "/tmp/x.db", env.DBPath)
	assert.True(t, env.SecureCookie)
	assert.Equal(t, time.Duration(0), env.ScoreLatency)
	assert.Equal(t, 2*time.Second, env.SignupAckDelay, "malformed value falls back")
	assert.Equal(t, "admin@x.com", env.AdminEmail)
}
