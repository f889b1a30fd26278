package domain

import (
	"github.com/allisson/actiongate/internal/errors"
)

// Authentication errors.
var (
	// ErrIdentityNotFound indicates an identity with the specified ID was not found.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")

	// ErrCredentialNotFound indicates a credential with the specified hash was not found.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrIdentityInactive indicates the identity exists but is deactivated.
	// Surfaced at issuance only; validation reports the uniform
	// ErrInvalidCredentials instead.
	ErrIdentityInactive = errors.Wrap(errors.ErrInvalidInput, "identity is not active")

	// ErrInvalidCredentials indicates a missing, unknown, revoked or expired
	// credential. The message is deliberately uniform so callers cannot
	// distinguish "wrong token" from "expired token".
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
)
