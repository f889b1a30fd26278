// Package usecase defines business logic interfaces for identity and
// credential lifecycle operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
)

// IdentityRepository defines persistence operations for identities.
// Implementations must support transaction-aware operations via context propagation.
type IdentityRepository interface {
	// Create stores a new identity in the repository.
	Create(ctx context.Context, identity *authDomain.Identity) error

	// Get retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	Get(ctx context.Context, identityID uuid.UUID) (*authDomain.Identity, error)

	// Update modifies an existing identity in the repository.
	Update(ctx context.Context, identity *authDomain.Identity) error
}

// CredentialRepository defines persistence operations for credentials.
// Implementations must support transaction-aware operations via context propagation.
type CredentialRepository interface {
	// Create stores a new credential in the repository.
	Create(ctx context.Context, credential *authDomain.Credential) error

	// GetByTokenHash retrieves a credential by its token hash over an indexed
	// column. Returns ErrCredentialNotFound if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Credential, error)

	// Touch updates the credential's last-used instant.
	Touch(ctx context.Context, credentialID uuid.UUID, usedAt time.Time) error

	// Revoke marks the credential with the given token hash inactive. Idempotent.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllByIdentity marks every active credential owned by the identity
	// inactive and returns the number of credentials revoked.
	RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) (int64, error)

	// SweepExpired deactivates every credential whose expiration has passed and
	// returns the number of credentials swept.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdentityUseCase defines business logic operations for managing identities.
type IdentityUseCase interface {
	// Create stores a new identity with a normalized base permission set.
	Create(ctx context.Context, input *authDomain.CreateIdentityInput) (*authDomain.Identity, error)

	// Get retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	Get(ctx context.Context, identityID uuid.UUID) (*authDomain.Identity, error)
}

// TokenUseCase defines business logic operations for the credential lifecycle.
type TokenUseCase interface {
	// Issue creates a new credential for an active identity and returns the
	// plain token exactly once. Only the token's hash is persisted.
	Issue(ctx context.Context, input *authDomain.IssueTokenInput) (*authDomain.IssueTokenOutput, error)

	// Validate authenticates a plain token and returns the Caller with its
	// effective permission set. Returns the uniform ErrInvalidCredentials for
	// unknown, inactive, expired and revoked credentials alike.
	Validate(ctx context.Context, plainToken string) (*authDomain.Caller, error)

	// Revoke deactivates the credential matching the plain token. Idempotent.
	Revoke(ctx context.Context, plainToken string) error

	// RevokeAll deactivates every active credential owned by the identity and
	// returns the number of credentials revoked.
	RevokeAll(ctx context.Context, identityID uuid.UUID) (int64, error)

	// SweepExpired deactivates expired credentials out-of-band and returns the
	// number swept. Safe to run concurrently with Validate.
	SweepExpired(ctx context.Context) (int64, error)
}
