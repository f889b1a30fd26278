package commands

import (
	"context"
	"fmt"
	"log/slog"

	authUseCase "github.com/allisson/actiongate/internal/auth/usecase"
)

// RunSweepTokens deactivates every credential whose expiration has passed.
// Expiration is already enforced lazily at validation time; the sweep keeps the
// credentials table tidy when run periodically (e.g., from cron).
//
// Requirements: Database must be migrated and accessible.
func RunSweepTokens(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	io IOTuple,
) error {
	count, err := tokenUseCase.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep expired tokens: %w", err)
	}

	_, _ = fmt.Fprintf(io.Writer, "Swept %d expired token(s).\n", count)
	logger.Info("expired tokens swept", slog.Int64("count", count))

	return nil
}
