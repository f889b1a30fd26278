// Package dispatch implements the unified entry point: a per-request state
// machine that validates, authenticates, authorizes and executes actions,
// and normalizes every outcome into a response envelope.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/actiongate/internal/action"
	"github.com/allisson/actiongate/internal/audit"
	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authUsecase "github.com/allisson/actiongate/internal/auth/usecase"
	"github.com/allisson/actiongate/internal/dispatch/dto"
	apperrors "github.com/allisson/actiongate/internal/errors"
	"github.com/allisson/actiongate/internal/metrics"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
	permissionUsecase "github.com/allisson/actiongate/internal/permission/usecase"
)

// Input is one inbound request as seen by the dispatcher, decoupled from the
// HTTP framework.
type Input struct {
	Method        string
	Authorization string
	Body          []byte
	RequestID     string
}

// Dispatcher drives the request state machine. Terminal at the first failing
// state; every terminal state is audited with its outcome and elapsed time.
type Dispatcher struct {
	tokens   authUsecase.TokenUseCase
	checker  permissionUsecase.Checker
	registry *action.Registry
	auditor  audit.Auditor
	metrics  metrics.BusinessMetrics
	logger   *slog.Logger
}

// Dispatch runs one request through the pipeline and returns the HTTP status
// code and the response envelope body.
func (d *Dispatcher) Dispatch(ctx context.Context, input *Input) (int, any) {
	start := time.Now()
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV7()).String()
	}

	// MethodCheck. The router already rejects other methods; this guard keeps
	// the pipeline self-contained for non-HTTP entry points and tests.
	if input.Method != http.MethodPost {
		return d.fail(ctx, start, requestID, "", nil, dto.ErrorKindMethodNotAllowed,
			dto.MessageMethodNotAllowed, nil)
	}

	// ShapeValidate.
	request, err := dto.ParseActionRequest(input.Body)
	if err != nil {
		return d.fail(ctx, start, requestID, "", nil, dto.ErrorKindValidationError,
			"Invalid request envelope", map[string]any{"body": "must be a JSON object with a string action_type"})
	}
	if err := request.Validate(); err != nil {
		return d.fail(ctx, start, requestID, request.ActionType, nil, dto.ErrorKindValidationError,
			"Invalid request envelope", map[string]any{"action_type": validationDetail(err)})
	}
	actionKey := request.ActionType

	// Authenticate.
	plainToken, ok := bearerToken(input.Authorization)
	if !ok {
		return d.fail(ctx, start, requestID, actionKey, nil, dto.ErrorKindUnauthorized,
			dto.MessageUnauthorized, nil)
	}
	caller, err := d.tokens.Validate(ctx, plainToken)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrInvalidCredentials) {
			return d.fail(ctx, start, requestID, actionKey, nil, dto.ErrorKindUnauthorized,
				dto.MessageUnauthorized, nil)
		}
		return d.internalError(ctx, start, requestID, actionKey, nil, "authenticate", err)
	}

	// Resolve. A disabled action is deliberately indistinguishable from an
	// unknown one, so callers cannot probe which disabled actions exist.
	handler, descriptor, err := d.registry.Resolve(actionKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindActionNotFound,
				dto.MessageActionNotFound, nil)
		}
		return d.internalError(ctx, start, requestID, actionKey, caller, "resolve", err)
	}
	if !descriptor.Enabled {
		return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindActionNotFound,
			dto.MessageActionNotFound, nil)
	}

	// Authorize. Denial details go to the audit sink inside the checker; the
	// response body stays generic.
	if err := d.checker.Check(ctx, caller, actionKey, descriptor.RequiredPermissions); err != nil {
		if apperrors.Is(err, permissionDomain.ErrInsufficientPermissions) {
			return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindInsufficientPermissions,
				dto.MessageInsufficientPermissions, nil)
		}
		return d.internalError(ctx, start, requestID, actionKey, caller, "authorize", err)
	}

	// Execute.
	data, err := handler.Execute(ctx, &action.Request{
		Key:       actionKey,
		Payload:   request.Payload,
		Caller:    caller,
		RequestID: requestID,
	})
	if err != nil {
		return d.executionError(ctx, start, requestID, actionKey, caller, err)
	}

	// Format.
	d.observe(ctx, start, requestID, actionKey, caller, audit.OutcomeSuccess, "")
	return http.StatusOK, dto.NewSuccessEnvelope("Action executed successfully", data)
}

// executionError maps a handler failure to an error envelope. Domain
// validation errors surface their message (it is the handler's own input
// diagnostics); everything else is normalized so storage or runtime error
// text never reaches the response body.
func (d *Dispatcher) executionError(
	ctx context.Context,
	start time.Time,
	requestID, actionKey string,
	caller *authDomain.Caller,
	err error,
) (int, any) {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindValidationError,
			"Invalid action payload", map[string]any{"payload": validationDetail(err)})
	case apperrors.Is(err, apperrors.ErrNotFound):
		return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindValidationError,
			"Invalid action payload", map[string]any{"payload": "referenced resource does not exist"})
	case apperrors.Is(err, apperrors.ErrForbidden):
		return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindInsufficientPermissions,
			dto.MessageInsufficientPermissions, nil)
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindUnauthorized,
			dto.MessageUnauthorized, nil)
	default:
		return d.internalError(ctx, start, requestID, actionKey, caller, "execute", err)
	}
}

// internalError logs the underlying error and returns the generic internal
// envelope. The error text never reaches the caller.
func (d *Dispatcher) internalError(
	ctx context.Context,
	start time.Time,
	requestID, actionKey string,
	caller *authDomain.Caller,
	stage string,
	err error,
) (int, any) {
	d.logger.ErrorContext(ctx, "dispatch failed",
		slog.String("request_id", requestID),
		slog.String("action_key", actionKey),
		slog.String("stage", stage),
		slog.Any("error", err),
	)
	return d.fail(ctx, start, requestID, actionKey, caller, dto.ErrorKindInternalError,
		dto.MessageInternalError, nil)
}

// fail audits the terminal state and builds the error response.
func (d *Dispatcher) fail(
	ctx context.Context,
	start time.Time,
	requestID, actionKey string,
	caller *authDomain.Caller,
	errorCode, message string,
	details map[string]any,
) (int, any) {
	outcome := audit.OutcomeError
	if errorCode == dto.ErrorKindInsufficientPermissions {
		outcome = audit.OutcomeDenied
	}
	d.observe(ctx, start, requestID, actionKey, caller, outcome, errorCode)
	return dto.StatusCodeForKind(errorCode), dto.NewErrorEnvelope(errorCode, message, details, requestID)
}

// observe emits the audit event and operation metrics for a terminal state.
func (d *Dispatcher) observe(
	ctx context.Context,
	start time.Time,
	requestID, actionKey string,
	caller *authDomain.Caller,
	outcome audit.Outcome,
	errorCode string,
) {
	latency := time.Since(start)

	event := audit.Event{
		RequestID: requestID,
		ActionKey: actionKey,
		Outcome:   outcome,
		ErrorKind: errorCode,
		Latency:   latency,
	}
	if caller != nil {
		event.IdentityID = caller.IdentityID
	}
	d.auditor.Record(ctx, event)

	if d.metrics != nil {
		status := string(outcome)
		d.metrics.RecordOperation(ctx, "dispatch", "action_execute", status)
		d.metrics.RecordDuration(ctx, "dispatch", "action_execute", latency, status)
	}
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// validationDetail strips the sentinel prefix from a wrapped validation
// error so the details field carries only the field-level message.
func validationDetail(err error) string {
	message := err.Error()
	if idx := strings.LastIndex(message, ": "); idx >= 0 {
		return message[:idx]
	}
	return message
}

// NewDispatcher creates a Dispatcher. The metrics recorder is optional.
func NewDispatcher(
	tokens authUsecase.TokenUseCase,
	checker permissionUsecase.Checker,
	registry *action.Registry,
	auditor audit.Auditor,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		tokens:   tokens,
		checker:  checker,
		registry: registry,
		auditor:  auditor,
		metrics:  businessMetrics,
		logger:   logger,
	}
}
