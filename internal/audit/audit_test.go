package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAuditor_Record(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	auditor := NewSlogAuditor(logger)
	identityID := uuid.Must(uuid.NewV7())

	auditor.Record(context.Background(), Event{
		RequestID:  "req-1",
		IdentityID: identityID,
		ActionKey:  "user.delete",
		Outcome:    OutcomeDenied,
		ErrorKind:  "insufficient_permissions",
		Latency:    5 * time.Millisecond,
		Missing:    []string{"admin.write"},
		Metadata:   map[string]any{"client_ip": "10.0.0.1"},
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "audit", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, identityID.String(), record["identity_id"])
	assert.Equal(t, "user.delete", record["action_key"])
	assert.Equal(t, "denied", record["outcome"])
	assert.Equal(t, "insufficient_permissions", record["error_kind"])
	assert.Equal(t, []any{"admin.write"}, record["missing_permissions"])
	assert.Equal(t, "10.0.0.1", record["client_ip"])
}

func TestSlogAuditor_RedactsSensitiveMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	auditor := NewSlogAuditor(logger)

	auditor.Record(context.Background(), Event{
		RequestID: "req-2",
		ActionKey: "token.issue",
		Outcome:   OutcomeSuccess,
		Metadata: map[string]any{
			"authorization": "Bearer abc123",
			"api_token":     "abc123",
			"client_ip":     "10.0.0.1",
		},
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "[REDACTED]", record["authorization"])
	assert.Equal(t, "[REDACTED]", record["api_token"])
	assert.Equal(t, "10.0.0.1", record["client_ip"])
	assert.NotContains(t, buf.String(), "abc123")
	assert.NotContains(t, record, "identity_id")
	assert.NotContains(t, record, "missing_permissions")
}
