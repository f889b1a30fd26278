package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	authUseCase "github.com/allisson/actiongate/internal/auth/usecase"
)

// RunRevokeToken revokes the single credential matching the given plain token.
// Revocation is idempotent: revoking an already-revoked token succeeds.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeToken(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	plainToken string,
	io IOTuple,
) error {
	if plainToken == "" {
		return fmt.Errorf("token is required")
	}

	if err := tokenUseCase.Revoke(ctx, plainToken); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	_, _ = fmt.Fprintln(io.Writer, "Token revoked.")
	logger.Info("token revoked")

	return nil
}

// RunRevokeAllTokens revokes every active credential owned by an identity and
// reports how many were revoked.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeAllTokens(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	identityID string,
	io IOTuple,
) error {
	parsedIdentityID, err := uuid.Parse(identityID)
	if err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}

	count, err := tokenUseCase.RevokeAll(ctx, parsedIdentityID)
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	_, _ = fmt.Fprintf(io.Writer, "Revoked %d token(s).\n", count)
	logger.Info("tokens revoked",
		slog.String("identity_id", parsedIdentityID.String()),
		slog.Int64("count", count),
	)

	return nil
}
