// Package dto defines the request and response envelopes of the action
// endpoint.
package dto

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/actiongate/internal/errors"
	appvalidation "github.com/allisson/actiongate/internal/validation"
)

// Error kinds of the error envelope. These are the only values ever written
// to the error_code field.
const (
	ErrorKindMethodNotAllowed        = "method_not_allowed"
	ErrorKindValidationError         = "validation_error"
	ErrorKindUnauthorized            = "unauthorized"
	ErrorKindActionNotFound          = "action_not_found"
	ErrorKindInsufficientPermissions = "insufficient_permissions"
	ErrorKindInternalError           = "internal_error"
)

// Caller-facing messages. Deliberately generic: the unauthorized message
// never distinguishes "expired" from "unknown", and the not-found message
// never distinguishes "disabled" from "unregistered".
const (
	MessageMethodNotAllowed        = "Method not allowed"
	MessageUnauthorized            = "Authentication required"
	MessageActionNotFound          = "Action not found"
	MessageInsufficientPermissions = "You don't have permission to execute this action"
	MessageInternalError           = "An internal error occurred"
)

// ActionRequest is the parsed request envelope: the action key plus every
// other top-level field as the action payload.
type ActionRequest struct {
	ActionType string
	Payload    map[string]any
}

// ParseActionRequest decodes a request body into an ActionRequest. Returns
// ErrInvalidInput when the body is not a JSON object or action_type is not
// a string.
func ParseActionRequest(body []byte) (*ActionRequest, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "request body must be a JSON object")
	}

	actionType := ""
	if value, ok := raw["action_type"]; ok && value != nil {
		s, ok := value.(string)
		if !ok {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "action_type must be a string")
		}
		actionType = s
	}

	payload := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "action_type" {
			continue
		}
		payload[key] = value
	}

	return &ActionRequest{ActionType: actionType, Payload: payload}, nil
}

// Validate checks the envelope shape: action_type present, non-blank,
// bounded and matching the action key grammar.
func (r *ActionRequest) Validate() error {
	err := validation.Validate(r.ActionType,
		validation.Required,
		appvalidation.NotBlank,
		validation.Length(1, appvalidation.ActionKeyMaxLength),
		appvalidation.ActionKey,
	)
	if err != nil {
		return appvalidation.WrapValidationError(err)
	}
	return nil
}

// SuccessEnvelope is the normalized success response.
type SuccessEnvelope struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// ErrorEnvelope is the normalized error response.
type ErrorEnvelope struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	ErrorCode string         `json:"error_code"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"request_id"`
}

// NewSuccessEnvelope builds a success envelope with the current timestamp.
func NewSuccessEnvelope(message string, data map[string]any) *SuccessEnvelope {
	if data == nil {
		data = map[string]any{}
	}
	return &SuccessEnvelope{
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorEnvelope builds an error envelope with the current timestamp.
func NewErrorEnvelope(errorCode, message string, details map[string]any, requestID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Status:    "error",
		Message:   message,
		ErrorCode: errorCode,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// StatusCodeForKind maps an error kind to its HTTP status code.
func StatusCodeForKind(errorCode string) int {
	switch errorCode {
	case ErrorKindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorKindValidationError:
		return http.StatusBadRequest
	case ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case ErrorKindActionNotFound:
		return http.StatusNotFound
	case ErrorKindInsufficientPermissions:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
