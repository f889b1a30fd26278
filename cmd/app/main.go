// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/actiongate/cmd/app/commands"
	"github.com/allisson/actiongate/internal/app"
	"github.com/allisson/actiongate/internal/config"
)

const version = "1.0.0"

// withContainer builds a DI container for a single command invocation and
// guarantees its shutdown after the command returns.
func withContainer(fn func(ctx context.Context, container *app.Container, logger *slog.Logger) error) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		cfg := config.Load()
		container := app.NewContainer(cfg)
		logger := container.Logger()

		defer func() {
			if err := container.Shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown container", slog.Any("error", err))
			}
		}()

		return fn(ctx, container, logger)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "actiongate",
		Usage:   "Single-endpoint action dispatch service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-identity",
				Usage: "Create a new identity with a base permission set",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Human-readable identity name",
					},
					&cli.BoolFlag{
						Name:    "active",
						Aliases: []string{"a"},
						Value:   true,
						Usage:   "Whether the identity can authenticate immediately",
					},
					&cli.StringFlag{
						Name:     "permissions",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Comma-separated base permissions (e.g., 'user.read,user.write')",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.String("name")
					active := cmd.Bool("active")
					permissions := cmd.String("permissions")
					format := cmd.String("format")
					return withContainer(func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						identityUseCase, err := container.IdentityUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize identity use case: %w", err)
						}
						return commands.RunCreateIdentity(
							ctx,
							identityUseCase,
							logger,
							name,
							active,
							permissions,
							format,
							commands.DefaultIO(),
						)
					})(ctx, cmd)
				},
			},
			{
				Name:  "issue-token",
				Usage: "Issue a new bearer token for an identity",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "identity-id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Identity ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "label",
						Aliases:  []string{"l"},
						Required: true,
						Usage:    "Human-readable credential label (e.g., 'ci-deploy')",
					},
					&cli.StringFlag{
						Name:    "scope",
						Aliases: []string{"s"},
						Usage:   "Comma-separated scope (omit to inherit the identity's base permissions)",
					},
					&cli.DurationFlag{
						Name:    "expires-in",
						Aliases: []string{"e"},
						Usage:   "Expiration interval (e.g., '720h'; omit for the configured default)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					identityID := cmd.String("identity-id")
					label := cmd.String("label")
					scope := cmd.String("scope")
					expiresIn := cmd.Duration("expires-in")
					format := cmd.String("format")
					return withContainer(func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						tokenUseCase, err := container.TokenUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize token use case: %w", err)
						}
						return commands.RunIssueToken(
							ctx,
							tokenUseCase,
							logger,
							identityID,
							label,
							scope,
							expiresIn,
							format,
							commands.DefaultIO(),
						)
					})(ctx, cmd)
				},
			},
			{
				Name:  "revoke-token",
				Usage: "Revoke the credential matching a plain token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "The plain token to revoke",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					token := cmd.String("token")
					return withContainer(func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						tokenUseCase, err := container.TokenUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize token use case: %w", err)
						}
						return commands.RunRevokeToken(ctx, tokenUseCase, logger, token, commands.DefaultIO())
					})(ctx, cmd)
				},
			},
			{
				Name:  "revoke-all-tokens",
				Usage: "Revoke every active credential owned by an identity",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "identity-id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Identity ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					identityID := cmd.String("identity-id")
					return withContainer(func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						tokenUseCase, err := container.TokenUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize token use case: %w", err)
						}
						return commands.RunRevokeAllTokens(ctx, tokenUseCase, logger, identityID, commands.DefaultIO())
					})(ctx, cmd)
				},
			},
			{
				Name:  "sweep-tokens",
				Usage: "Deactivate expired credentials",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						tokenUseCase, err := container.TokenUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize token use case: %w", err)
						}
						return commands.RunSweepTokens(ctx, tokenUseCase, logger, commands.DefaultIO())
					})(ctx, cmd)
				},
			},
			{
				Name:  "list-actions",
				Usage: "List registered actions with their required permissions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format := cmd.String("format")
					return withContainer(func(_ context.Context, container *app.Container, _ *slog.Logger) error {
						registry, err := container.ActionRegistry()
						if err != nil {
							return fmt.Errorf("failed to initialize action registry: %w", err)
						}
						return commands.RunListActions(registry, format, commands.DefaultIO())
					})(ctx, cmd)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
