package handlers

import (
	"context"

	"github.com/allisson/actiongate/internal/action"
)

// echoHandler returns the message it was given.
type echoHandler struct{}

func (h *echoHandler) Execute(_ context.Context, request *action.Request) (map[string]any, error) {
	message, err := stringField(request.Payload, "message")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message": message,
		"caller":  request.Caller.Name,
	}, nil
}

func (h *echoHandler) RequiredPermissions() []string {
	return nil
}

func (h *echoHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Echo message",
		Description: "Echoes the given message back to the caller.",
		Parameters: map[string]string{
			"message": "required string to echo back",
		},
		Example: map[string]any{
			"action_type": "echo.message",
			"message":     "hello",
		},
	}
}

func (h *echoHandler) Version() string {
	return "1.0.0"
}
