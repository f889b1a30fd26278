// Package domain defines authentication domain models and business logic.
//
// It provides identity-based authentication with bearer credentials. Identities
// own a base permission set that acts as a least-privilege ceiling for every
// credential they own: a credential can narrow its identity's permissions via a
// scope list, but can never widen them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents an account that owns zero or more credentials.
// Its base permission set is the maximum grant obtainable by any credential it owns.
type Identity struct {
	ID              uuid.UUID // Unique identifier (UUIDv7)
	Name            string    // Human-readable identity name
	BasePermissions []string  // Maximum permission set for all owned credentials
	IsActive        bool      // Whether the identity can authenticate
	CreatedAt       time.Time
}

// Caller is an authenticated identity with its effective permission set already
// narrowed by the validating credential's scope. This is what the authorization
// layer operates on after authentication.
type Caller struct {
	IdentityID   uuid.UUID
	CredentialID uuid.UUID
	Name         string
	Permissions  []string // Effective permissions: scope ∩ base, or base when unscoped
}

// HasPermission reports whether the caller's effective permission set contains
// the given permission. Possession is plain set membership, no hierarchy.
func (c *Caller) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CreateIdentityInput contains the parameters for creating a new identity.
type CreateIdentityInput struct {
	Name            string   // Human-readable name for identifying the identity
	BasePermissions []string // Permission ceiling for all credentials owned by the identity
	IsActive        bool     // Whether the identity can authenticate immediately
}
