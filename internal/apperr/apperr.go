// Package apperr defines the error kinds surfaced to users.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAccount is returned when signing up with a registered email.
	ErrDuplicateAccount = errors.New("user with this email already exists")
	// ErrAuthenticationFailed covers both unknown emails and wrong passwords.
	ErrAuthenticationFailed = errors.New("invalid email or password")
	// ErrValidationFailed wraps missing fields, mismatched confirmations and
	// malformed uploads.
	ErrValidationFailed = errors.New("validation failed")
	// ErrStorageUnavailable wraps any failure of the underlying database.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Validation returns an ErrValidationFailed carrying a user-facing message.
func Validation(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidationFailed }

// Storage wraps err as ErrStorageUnavailable. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// Message returns the inline message shown to the user for err.
func Message(err error) string {
	var ve *validationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.msg
	case errors.Is(err, ErrDuplicateAccount):
		return "User with this email already exists"
	case errors.Is(err, ErrAuthenticationFailed):
		return "Invalid email or password"
	case errors.Is(err, ErrStorageUnavailable):
		return "The service is temporarily unavailable. Please try again."
	default:
		return "Error: " + err.Error()
	}
}
