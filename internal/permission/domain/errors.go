package domain

import (
	"github.com/allisson/actiongate/internal/errors"
)

// Authorization errors.
var (
	// ErrOverrideNotFound indicates no override is configured for the action key.
	ErrOverrideNotFound = errors.Wrap(errors.ErrNotFound, "permission override not found")

	// ErrInsufficientPermissions indicates the caller's effective permission set
	// does not satisfy the action's requirement. The caller-facing message stays
	// generic; the missing permissions go to the audit sink only.
	ErrInsufficientPermissions = errors.Wrap(errors.ErrForbidden, "insufficient permissions")
)
