// Package action provides the action registry: named, permission-guarded
// units of work dispatched through the single action endpoint.
package action

import (
	"context"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
)

// Request carries everything a handler needs to execute: the action key it
// was invoked under, the raw payload, the authenticated caller and the
// request id for correlation.
type Request struct {
	Key       string
	Payload   map[string]any
	Caller    *authDomain.Caller
	RequestID string
}

// Documentation describes an action for introspection purposes.
type Documentation struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Example     map[string]any    `json:"example,omitempty"`
}

// Handler is a single executable action. Implementations must be safe for
// concurrent use: one memoized instance serves all requests for its key.
type Handler interface {
	// Execute runs the action and returns its result data.
	Execute(ctx context.Context, request *Request) (map[string]any, error)

	// RequiredPermissions returns the action's default permission
	// requirement. An active override supersedes it at check time.
	RequiredPermissions() []string

	// Documentation returns the action's introspection metadata.
	Documentation() Documentation

	// Version returns the action's semantic version.
	Version() string
}

// Factory constructs a Handler instance. Called at most once per key while
// the instance cache is warm; ClearCache forces reconstruction.
type Factory func() Handler

// Descriptor is the registry's view of a registered action.
type Descriptor struct {
	Key                 string        `json:"key"`
	Enabled             bool          `json:"enabled"`
	Version             string        `json:"version"`
	RequiredPermissions []string      `json:"required_permissions"`
	Documentation       Documentation `json:"documentation"`
}

// Statistics summarizes the registry contents.
type Statistics struct {
	Total    int            `json:"total"`
	Enabled  int            `json:"enabled"`
	Disabled int            `json:"disabled"`
	Versions map[string]int `json:"versions"`
}
