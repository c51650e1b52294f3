// Package validate checks submitted forms and request bodies.
package validate

import (
	"errors"

	"finsec/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Rule maps a failing validation tag to the message shown to the user.
type Rule struct {
	Tag     string
	Message string
}

// Check validates s against its `validate` tags. Rules are tried in order and
// the first one whose tag failed decides the message, so earlier rules take
// precedence. The returned error wraps apperr.ErrValidationFailed.
func Check(s any, rules ...Rule) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("%s", err.Error())
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Tag()] = true
	}
	for _, r := range rules {
		if failed[r.Tag] {
			return apperr.Validation("%s", r.Message)
		}
	}

	fe := fieldErrs[0]
	return apperr.Validation("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// FieldErrors returns the failing tag per field for a JSON error response.
func FieldErrors(s any) map[string]string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
