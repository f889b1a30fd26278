// Package audit records authorization and dispatch outcomes.
//
// The audit sink is the only place where denial details (such as the
// missing permissions of a rejected call) are recorded. Response bodies
// stay generic.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies the terminal state of a dispatched request.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Event is a single audit record.
type Event struct {
	RequestID  string
	IdentityID uuid.UUID
	ActionKey  string
	Outcome    Outcome
	ErrorKind  string
	Latency    time.Duration
	Missing    []string
	Metadata   map[string]any
}

// Auditor receives audit events. Implementations must not block the
// request path for longer than a log write.
type Auditor interface {
	Record(ctx context.Context, event Event)
}

// sensitiveKeys are metadata keys whose values are never written out.
var sensitiveKeys = []string{"token", "secret", "authorization", "password"}

// SlogAuditor writes audit events as structured log records.
type SlogAuditor struct {
	logger *slog.Logger
}

// Record writes the event at info level. Metadata entries with sensitive
// keys are redacted.
func (s *SlogAuditor) Record(ctx context.Context, event Event) {
	attrs := []any{
		slog.String("request_id", event.RequestID),
		slog.String("action_key", event.ActionKey),
		slog.String("outcome", string(event.Outcome)),
		slog.Duration("latency", event.Latency),
	}

	if event.IdentityID != uuid.Nil {
		attrs = append(attrs, slog.String("identity_id", event.IdentityID.String()))
	}
	if event.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", event.ErrorKind))
	}
	if len(event.Missing) > 0 {
		attrs = append(attrs, slog.Any("missing_permissions", event.Missing))
	}
	for key, value := range event.Metadata {
		if isSensitiveKey(key) {
			attrs = append(attrs, slog.String(key, "[REDACTED]"))
			continue
		}
		attrs = append(attrs, slog.Any(key, value))
	}

	s.logger.InfoContext(ctx, "audit", attrs...)
}

func isSensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowered, sensitive) {
			return true
		}
	}
	return false
}

// NewSlogAuditor creates an Auditor backed by the given logger.
func NewSlogAuditor(logger *slog.Logger) *SlogAuditor {
	return &SlogAuditor{logger: logger}
}

// NoOpAuditor discards all events. Useful in tests.
type NoOpAuditor struct{}

// Record discards the event.
func (n *NoOpAuditor) Record(_ context.Context, _ Event) {}

// NewNoOpAuditor creates an Auditor that discards all events.
func NewNoOpAuditor() *NoOpAuditor {
	return &NoOpAuditor{}
}
