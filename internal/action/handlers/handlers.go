// Package handlers implements the builtin actions registered at startup.
package handlers

import (
	"fmt"

	"github.com/allisson/actiongate/internal/action"
	authUsecase "github.com/allisson/actiongate/internal/auth/usecase"
	apperrors "github.com/allisson/actiongate/internal/errors"
)

// Deps carries the dependencies shared by the builtin action handlers.
type Deps struct {
	Registry        *action.Registry
	IdentityUseCase authUsecase.IdentityUseCase
	TokenUseCase    authUsecase.TokenUseCase
}

// Discover registers every builtin action on the registry. Idempotent:
// calling it again re-registers the same keys with the same factories.
func Discover(registry *action.Registry, deps Deps) error {
	builtins := map[string]action.Factory{
		"system.ping":      func() action.Handler { return &pingHandler{} },
		"system.info":      func() action.Handler { return &infoHandler{registry: deps.Registry} },
		"action.list":      func() action.Handler { return &listHandler{registry: deps.Registry} },
		"echo.message":     func() action.Handler { return &echoHandler{} },
		"identity.create":  func() action.Handler { return &identityCreateHandler{identities: deps.IdentityUseCase} },
		"token.issue":      func() action.Handler { return &tokenIssueHandler{tokens: deps.TokenUseCase} },
		"token.revoke":     func() action.Handler { return &tokenRevokeHandler{tokens: deps.TokenUseCase} },
		"token.revoke_all": func() action.Handler { return &tokenRevokeAllHandler{tokens: deps.TokenUseCase} },
	}

	for key, factory := range builtins {
		if err := registry.Register(key, factory); err != nil {
			return fmt.Errorf("failed to register builtin action %s: %w", key, err)
		}
	}
	return nil
}

// stringField extracts a required string field from the payload.
func stringField(payload map[string]any, field string) (string, error) {
	value, ok := payload[field]
	if !ok {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("missing field: %s", field))
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("field %s must be a non-empty string", field))
	}
	return s, nil
}

// optionalStringSliceField extracts an optional string list field from the
// payload. Absent fields return nil; JSON arrays arrive as []any.
func optionalStringSliceField(payload map[string]any, field string) ([]string, error) {
	value, ok := payload[field]
	if !ok || value == nil {
		return nil, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("field %s must be a list of strings", field))
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, apperrors.Wrap(
				apperrors.ErrInvalidInput,
				fmt.Sprintf("field %s must be a list of strings", field),
			)
		}
		result = append(result, s)
	}
	return result, nil
}

// optionalBoolField extracts an optional bool field with a default.
func optionalBoolField(payload map[string]any, field string, fallback bool) (bool, error) {
	value, ok := payload[field]
	if !ok || value == nil {
		return fallback, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("field %s must be a boolean", field))
	}
	return b, nil
}

// optionalNumberField extracts an optional numeric field. JSON numbers
// arrive as float64.
func optionalNumberField(payload map[string]any, field string) (float64, bool, error) {
	value, ok := payload[field]
	if !ok || value == nil {
		return 0, false, nil
	}
	f, ok := value.(float64)
	if !ok {
		return 0, false, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("field %s must be a number", field))
	}
	return f, true, nil
}
