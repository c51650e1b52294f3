package validate

// LoginForm is the login page submission.
type LoginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Check validates the login form.
func (f LoginForm) Check() error {
	return Check(f, Rule{"required", "Please enter both email and password"})
}

// SignupForm is the signup page submission.
type SignupForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// Check validates the signup form.
func (f SignupForm) Check() error {
	return Check(f,
		Rule{"required", "Please fill in all fields"},
		Rule{"eqfield", "Passwords do not match"},
		Rule{"email", "Please enter a valid email address"},
	)
}

// APISettingsForm is the API & integration settings submission.
type APISettingsForm struct {
	LiveAccess bool
	WebhookURL string `validate:"omitempty,url"`
}

// Check validates the API settings form.
func (f APISettingsForm) Check() error {
	return Check(f, Rule{"url", "Webhook URL must be a valid URL"})
}

// PasswordChangeForm is the change-password submission on the settings page.
type PasswordChangeForm struct {
	Current string `validate:"required"`
	New     string `validate:"required"`
	Confirm string `validate:"required,eqfield=New"`
}

// Check validates the password change form.
func (f PasswordChangeForm) Check() error {
	return Check(f,
		Rule{"required", "Please fill in all password fields"},
		Rule{"eqfield", "New passwords do not match"},
	)
}
