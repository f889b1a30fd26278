// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/actiongate/internal/errors"
)

var (
	// actionKeyRegex constrains action keys to the "domain.verb" convention:
	// alphanumerics, dots, underscores and hyphens only.
	actionKeyRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// ActionKeyMaxLength is the maximum accepted length for an action key.
const ActionKeyMaxLength = 100

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// ActionKey validates that a string is a well-formed action key
// (alphanumerics, dots, underscores and hyphens).
var ActionKey = validation.NewStringRuleWithError(
	func(s string) bool {
		return actionKeyRegex.MatchString(s)
	},
	validation.NewError(
		"validation_action_key",
		"must contain only letters, digits, dots, underscores and hyphens",
	),
)

// IsValidActionKey reports whether key satisfies the action key grammar,
// including the length bound. Used outside of struct validation contexts.
func IsValidActionKey(key string) bool {
	if key == "" || len(key) > ActionKeyMaxLength {
		return false
	}
	return actionKeyRegex.MatchString(key)
}

// Permission validates a single permission string: non-blank, bounded length,
// no surrounding whitespace.
var Permission = validation.NewStringRuleWithError(
	func(s string) bool {
		return s != "" && s == strings.TrimSpace(s) && len(s) <= 255
	},
	validation.NewError("validation_permission", "must be a non-blank string of at most 255 characters"),
)
