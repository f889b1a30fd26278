package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authUseCase "github.com/allisson/actiongate/internal/auth/usecase"
)

// RunCreateIdentity creates a new identity with a base permission set.
// Permissions are given as a comma-separated list and define the ceiling for
// every credential the identity will own. Outputs the identity ID in either
// text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateIdentity(
	ctx context.Context,
	identityUseCase authUseCase.IdentityUseCase,
	logger *slog.Logger,
	name string,
	isActive bool,
	permissionsCSV string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new identity", slog.String("name", name))

	permissions := parsePermissions(permissionsCSV)
	if len(permissions) == 0 {
		return fmt.Errorf("at least one permission is required")
	}

	input := &authDomain.CreateIdentityInput{
		Name:            name,
		BasePermissions: permissions,
		IsActive:        isActive,
	}

	identity, err := identityUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCreateIdentityJSON(identity, io.Writer)
	} else {
		outputCreateIdentityText(identity, io.Writer)
	}

	logger.Info("identity created successfully",
		slog.String("identity_id", identity.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// outputCreateIdentityText outputs the result in human-readable text format.
func outputCreateIdentityText(identity *authDomain.Identity, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nIdentity created successfully!")
	_, _ = fmt.Fprintf(writer, "Identity ID: %s\n", identity.ID.String())
	_, _ = fmt.Fprintf(writer, "Name: %s\n", identity.Name)
	_, _ = fmt.Fprintf(writer, "Base permissions: %v\n", identity.BasePermissions)
}

// outputCreateIdentityJSON outputs the result in JSON format for machine consumption.
func outputCreateIdentityJSON(identity *authDomain.Identity, writer io.Writer) {
	result := map[string]any{
		"identity_id":      identity.ID.String(),
		"name":             identity.Name,
		"base_permissions": identity.BasePermissions,
		"is_active":        identity.IsActive,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
