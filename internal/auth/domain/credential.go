package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential represents a bearer credential owned by an identity. Only the
// SHA-256 hash of the secret is persisted; the raw secret is shown exactly once
// at issuance and is unrecoverable thereafter.
type Credential struct {
	ID         uuid.UUID  // Unique identifier (UUIDv7)
	TokenHash  string     // SHA-256 hex digest of the secret (never the secret itself)
	IdentityID uuid.UUID  // Owning identity
	Label      string     // Human-readable label (e.g., "ci-deploy")
	Scope      []string   // Permission scope; nil means "inherit the identity's base permissions"
	ExpiresAt  *time.Time // Expiration instant; nil means the credential never expires
	IsActive   bool       // False after revocation
	LastUsedAt *time.Time // Updated best-effort on every successful validation
	CreatedAt  time.Time
}

// IsExpired reports whether the credential's expiration instant has passed.
// Credentials without an expiration never expire.
func (c *Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// IsUsable reports whether the credential can authenticate at the given instant.
// Expired-but-still-active records are treated as unusable; expiration is
// enforced lazily at validation time, not by a background sweep.
func (c *Credential) IsUsable(now time.Time) bool {
	return c.IsActive && !c.IsExpired(now)
}

// IssueTokenInput contains the parameters for issuing a new credential.
type IssueTokenInput struct {
	IdentityID uuid.UUID  // Owning identity (must exist and be active)
	Label      string     // Human-readable label
	Scope      []string   // Optional permission scope; nil inherits the identity's base set
	ExpiresAt  *time.Time // Optional expiration; nil falls back to the configured default
}

// IssueTokenOutput contains the result of issuing a credential.
// SECURITY: the PlainToken is only returned once and must be securely
// transmitted to the caller. It is never retrievable again.
type IssueTokenOutput struct {
	CredentialID uuid.UUID  // Identifier of the created credential
	PlainToken   string     // Plain text secret (transmit securely, never log)
	ExpiresAt    *time.Time // Effective expiration; nil means never
}
