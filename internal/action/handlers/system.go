package handlers

import (
	"context"
	"time"

	"github.com/allisson/actiongate/internal/action"
)

// pingHandler answers liveness probes through the action pipeline.
type pingHandler struct{}

func (h *pingHandler) Execute(_ context.Context, _ *action.Request) (map[string]any, error) {
	return map[string]any{
		"message": "pong",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *pingHandler) RequiredPermissions() []string {
	return nil
}

func (h *pingHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Ping",
		Description: "Answers with pong. Useful for verifying credentials and connectivity.",
		Example:     map[string]any{"action_type": "system.ping"},
	}
}

func (h *pingHandler) Version() string {
	return "1.0.0"
}

// infoHandler reports aggregate registry statistics.
type infoHandler struct {
	registry *action.Registry
}

func (h *infoHandler) Execute(_ context.Context, _ *action.Request) (map[string]any, error) {
	stats := h.registry.Statistics()
	return map[string]any{
		"actions": map[string]any{
			"total":    stats.Total,
			"enabled":  stats.Enabled,
			"disabled": stats.Disabled,
			"versions": stats.Versions,
		},
	}, nil
}

func (h *infoHandler) RequiredPermissions() []string {
	return []string{"system.read"}
}

func (h *infoHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "System info",
		Description: "Returns aggregate statistics about the registered actions.",
		Example:     map[string]any{"action_type": "system.info"},
	}
}

func (h *infoHandler) Version() string {
	return "1.0.0"
}

// listHandler exposes the registered action descriptors.
type listHandler struct {
	registry *action.Registry
}

func (h *listHandler) Execute(_ context.Context, _ *action.Request) (map[string]any, error) {
	descriptors := h.registry.All()

	actions := make([]map[string]any, 0, len(descriptors))
	for _, descriptor := range descriptors {
		actions = append(actions, map[string]any{
			"key":                  descriptor.Key,
			"enabled":              descriptor.Enabled,
			"version":              descriptor.Version,
			"required_permissions": descriptor.RequiredPermissions,
			"documentation":        descriptor.Documentation,
		})
	}

	return map[string]any{"actions": actions}, nil
}

func (h *listHandler) RequiredPermissions() []string {
	return []string{"system.read"}
}

func (h *listHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "List actions",
		Description: "Returns every registered action with its documentation.",
		Example:     map[string]any{"action_type": "action.list"},
	}
}

func (h *listHandler) Version() string {
	return "1.0.0"
}
