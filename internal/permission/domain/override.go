package domain

import (
	"time"

	"github.com/google/uuid"
)

// Override is a dynamically configured permission requirement for a specific
// action. When active, its permission list supersedes the action descriptor's
// declared default for authorization purposes. It never supersedes the
// identity/credential ceiling.
type Override struct {
	ID          uuid.UUID // Unique identifier (UUIDv7)
	ActionKey   string    // Action the override applies to
	Permissions []string  // Required permissions while the override is active
	IsActive    bool      // Inactive overrides are ignored at check time
	Description string    // Operator-facing note on why the override exists
	CreatedAt   time.Time
}

// SetOverrideInput represents the input for creating or replacing an
// Override.
type SetOverrideInput struct {
	ActionKey   string
	Permissions []string
	IsActive    bool
	Description string
}
