package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authService "github.com/allisson/actiongate/internal/auth/service"
	"github.com/allisson/actiongate/internal/config"
	"github.com/allisson/actiongate/internal/database"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
	appvalidation "github.com/allisson/actiongate/internal/validation"
)

// tokenUseCase implements TokenUseCase for the bearer credential lifecycle.
type tokenUseCase struct {
	config         *config.Config
	identityRepo   IdentityRepository
	credentialRepo CredentialRepository
	tokenService   authService.TokenService
	txManager      database.TxManager
	logger         *slog.Logger
}

// Issue creates a new credential for an identity and returns the plain token.
//
// Security Notes:
//   - The plain token is returned exactly once and never persisted; only its
//     SHA-256 hash is stored.
//   - A scope wider than the identity's base set is accepted as-is here; the
//     ceiling is enforced at validation time by intersecting scope with base,
//     so a stale scope can never grant beyond the identity's current base set.
func (t *tokenUseCase) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	err := validation.ValidateStruct(input,
		validation.Field(&input.IdentityID, validation.Required),
		validation.Field(&input.Label, validation.Required, appvalidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&input.Scope, validation.Each(appvalidation.Permission)),
	)
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	identity, err := t.identityRepo.Get(ctx, input.IdentityID)
	if err != nil {
		return nil, err
	}
	if !identity.IsActive {
		return nil, authDomain.ErrIdentityInactive
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := input.ExpiresAt
	if expiresAt == nil && t.config.TokenDefaultExpiration > 0 {
		exp := now.Add(t.config.TokenDefaultExpiration)
		expiresAt = &exp
	}

	credential := &authDomain.Credential{
		ID:         uuid.Must(uuid.NewV7()),
		TokenHash:  tokenHash,
		IdentityID: identity.ID,
		Label:      input.Label,
		Scope:      permissionDomain.Normalize(input.Scope),
		ExpiresAt:  expiresAt,
		IsActive:   true,
		CreatedAt:  now,
	}

	if err := t.credentialRepo.Create(ctx, credential); err != nil {
		return nil, err
	}

	return &authDomain.IssueTokenOutput{
		CredentialID: credential.ID,
		PlainToken:   plainToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Validate authenticates a plain token and returns the Caller.
//
// This method:
// 1. Hashes the token and looks the credential up by hash (indexed, O(1))
// 2. Checks the credential is active and not expired
// 3. Checks the owning identity exists and is active
// 4. Narrows the identity's base permissions by the credential's scope
// 5. Touches the credential's last-used instant (best-effort)
//
// Security Notes:
//   - Returns the uniform ErrInvalidCredentials for every failure mode
//     (unknown hash, revoked, expired, inactive identity) so responses give
//     no oracle about which credentials exist.
//   - The effective permission set is Intersect(scope, base): a credential
//     can never grant a permission its identity does not currently hold.
//   - Expiration is enforced lazily here; the sweep is an optimization only.
func (t *tokenUseCase) Validate(ctx context.Context, plainToken string) (*authDomain.Caller, error) {
	tokenHash := t.tokenService.HashToken(plainToken)

	credential, err := t.credentialRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrCredentialNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Defense in depth: the lookup already matched on the hash, but the final
	// equality check is constant-time anyway.
	if !t.tokenService.CompareHash(tokenHash, credential.TokenHash) {
		return nil, authDomain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if !credential.IsUsable(now) {
		return nil, authDomain.ErrInvalidCredentials
	}

	identity, err := t.identityRepo.Get(ctx, credential.IdentityID)
	if err != nil {
		if errors.Is(err, authDomain.ErrIdentityNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !identity.IsActive {
		return nil, authDomain.ErrInvalidCredentials
	}

	effective := identity.BasePermissions
	if credential.Scope != nil {
		effective = permissionDomain.Intersect(credential.Scope, identity.BasePermissions)
	}

	// Best-effort: a failed touch never fails authentication.
	if err := t.credentialRepo.Touch(ctx, credential.ID, now); err != nil {
		t.logger.DebugContext(ctx, "failed to touch credential last-used instant",
			slog.String("credential_id", credential.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return &authDomain.Caller{
		IdentityID:   identity.ID,
		CredentialID: credential.ID,
		Name:         identity.Name,
		Permissions:  effective,
	}, nil
}

// Revoke deactivates the credential matching the plain token. Idempotent:
// revoking an unknown or already-revoked token succeeds silently, so the
// operation gives no oracle about which credentials exist.
func (t *tokenUseCase) Revoke(ctx context.Context, plainToken string) error {
	tokenHash := t.tokenService.HashToken(plainToken)
	return t.credentialRepo.Revoke(ctx, tokenHash)
}

// RevokeAll deactivates every active credential owned by the identity inside
// a single transaction and returns the number of credentials revoked.
// Returns ErrIdentityNotFound if the identity does not exist.
func (t *tokenUseCase) RevokeAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	var count int64

	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := t.identityRepo.Get(ctx, identityID); err != nil {
			return err
		}

		revoked, err := t.credentialRepo.RevokeAllByIdentity(ctx, identityID)
		if err != nil {
			return err
		}
		count = revoked
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// SweepExpired deactivates every expired credential and returns the number
// swept. Validation rejects expired credentials regardless of the sweep, so
// running it concurrently with Validate is safe.
func (t *tokenUseCase) SweepExpired(ctx context.Context) (int64, error) {
	count, err := t.credentialRepo.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		t.logger.InfoContext(ctx, "swept expired credentials", slog.Int64("count", count))
	}
	return count, nil
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config *config.Config,
	identityRepo IdentityRepository,
	credentialRepo CredentialRepository,
	tokenService authService.TokenService,
	txManager database.TxManager,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		config:         config,
		identityRepo:   identityRepo,
		credentialRepo: credentialRepo,
		tokenService:   tokenService,
		txManager:      txManager,
		logger:         logger,
	}
}
