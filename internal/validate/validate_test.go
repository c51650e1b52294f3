package validate

import (
	"testing"

	"finsec/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestSignupForm(t *testing.T) {
	tests := []struct {
		name    string
		form    SignupForm
		wantMsg string
	}{
		{"valid", SignupForm{"a@x.com", "pw123", "pw123"}, ""},
		{"missing email", SignupForm{"", "pw123", "pw123"}, "Please fill in all fields"},
		{"missing confirm", SignupForm{"a@x.com", "pw123", ""}, "Please fill in all fields"},
		{"mismatch", SignupForm{"a@x.com", "pw123", "pw124"}, "Passwords do not match"},
		{"bad email", SignupForm{"not-an-email", "pw123", "pw123"}, "Please enter a valid email address"},
		{"mismatch wins over bad email", SignupForm{"nope", "a", "b"}, "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Check()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidationFailed)
			assert.Equal(t, tt.wantMsg, apperr.Message(err))
		})
	}
}

func TestLoginForm(t *testing.T) {
	assert.NoError(t, LoginForm{"a@x.com", "pw"}.Check())

	err := LoginForm{"a@x.com", ""}.Check()
	assert.Equal(t, "Please enter both email and password", apperr.Message(err))
}

func TestAPISettingsForm(t *testing.T) {
	assert.NoError(t, APISettingsForm{WebhookURL: ""}.Check())
	assert.NoError(t, APISettingsForm{WebhookURL: "https://hooks.example.com/x"}.Check())

	err := APISettingsForm{WebhookURL: "not a url"}.Check()
	assert.Equal(t, "Webhook URL must be a valid URL", apperr.Message(err))
}

func TestPasswordChangeForm(t *testing.T) {
	assert.NoError(t, PasswordChangeForm{"old", "new", "new"}.Check())
	assert.Equal(t, "Please fill in all password fields",
		apperr.Message(PasswordChangeForm{"", "new", "new"}.Check()))
	assert.Equal(t, "New passwords do not match",
		apperr.Message(PasswordChangeForm{"old", "new", "neu"}.Check()))
}

func TestFieldErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(LoginForm{"a", "b"}))
	assert.Equal(t, map[string]string{"Password": "required"}, FieldErrors(LoginForm{"a", ""}))
}
