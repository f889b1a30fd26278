package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	"github.com/allisson/actiongate/internal/metrics"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Issue records metrics for credential issuance operations.
func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	start := time.Now()
	output, err := t.next.Issue(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", "token_issue", status)
	t.metrics.RecordDuration(ctx, "auth", "token_issue", time.Since(start), status)

	return output, err
}

// Validate records metrics for credential validation operations.
func (t *tokenUseCaseWithMetrics) Validate(
	ctx context.Context,
	plainToken string,
) (*authDomain.Caller, error) {
	start := time.Now()
	caller, err := t.next.Validate(ctx, plainToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", "token_validate", status)
	t.metrics.RecordDuration(ctx, "auth", "token_validate", time.Since(start), status)

	return caller, err
}

// Revoke records metrics for credential revocation operations.
func (t *tokenUseCaseWithMetrics) Revoke(ctx context.Context, plainToken string) error {
	start := time.Now()
	err := t.next.Revoke(ctx, plainToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", "token_revoke", status)
	t.metrics.RecordDuration(ctx, "auth", "token_revoke", time.Since(start), status)

	return err
}

// RevokeAll records metrics for identity-wide revocation operations.
func (t *tokenUseCaseWithMetrics) RevokeAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	start := time.Now()
	count, err := t.next.RevokeAll(ctx, identityID)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", "token_revoke_all", status)
	t.metrics.RecordDuration(ctx, "auth", "token_revoke_all", time.Since(start), status)

	return count, err
}

// SweepExpired records metrics for expired credential sweep operations.
func (t *tokenUseCaseWithMetrics) SweepExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := t.next.SweepExpired(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", "token_sweep_expired", status)
	t.metrics.RecordDuration(ctx, "auth", "token_sweep_expired", time.Since(start), status)

	return count, err
}

// identityUseCaseWithMetrics decorates IdentityUseCase with metrics instrumentation.
type identityUseCaseWithMetrics struct {
	next    IdentityUseCase
	metrics metrics.BusinessMetrics
}

// NewIdentityUseCaseWithMetrics wraps an IdentityUseCase with metrics recording.
func NewIdentityUseCaseWithMetrics(useCase IdentityUseCase, m metrics.BusinessMetrics) IdentityUseCase {
	return &identityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for identity creation operations.
func (i *identityUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateIdentityInput,
) (*authDomain.Identity, error) {
	start := time.Now()
	identity, err := i.next.Create(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "auth", "identity_create", status)
	i.metrics.RecordDuration(ctx, "auth", "identity_create", time.Since(start), status)

	return identity, err
}

// Get records metrics for identity retrieval operations.
func (i *identityUseCaseWithMetrics) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*authDomain.Identity, error) {
	start := time.Now()
	identity, err := i.next.Get(ctx, identityID)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "auth", "identity_get", status)
	i.metrics.RecordDuration(ctx, "auth", "identity_get", time.Since(start), status)

	return identity, err
}
