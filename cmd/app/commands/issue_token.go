package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authUseCase "github.com/allisson/actiongate/internal/auth/usecase"
)

// RunIssueToken issues a new bearer credential for an identity.
// The scope is given as a comma-separated list; an empty scope inherits the
// identity's base permissions. The plain token is printed exactly once and is
// unrecoverable afterwards.
//
// Requirements: Database must be migrated and accessible.
func RunIssueToken(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	identityID string,
	label string,
	scopeCSV string,
	expiresIn time.Duration,
	format string,
	io IOTuple,
) error {
	parsedIdentityID, err := uuid.Parse(identityID)
	if err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}

	logger.Info("issuing token",
		slog.String("identity_id", parsedIdentityID.String()),
		slog.String("label", label),
	)

	input := &authDomain.IssueTokenInput{
		IdentityID: parsedIdentityID,
		Label:      label,
		Scope:      parsePermissions(scopeCSV),
	}
	if expiresIn > 0 {
		expiresAt := time.Now().Add(expiresIn)
		input.ExpiresAt = &expiresAt
	}

	output, err := tokenUseCase.Issue(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputIssueTokenJSON(output, io.Writer)
	} else {
		outputIssueTokenText(output, io.Writer)
	}

	logger.Info("token issued successfully",
		slog.String("credential_id", output.CredentialID.String()),
		slog.String("identity_id", parsedIdentityID.String()),
	)

	return nil
}

// outputIssueTokenText outputs the result in human-readable text format.
func outputIssueTokenText(output *authDomain.IssueTokenOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nToken issued successfully!")
	_, _ = fmt.Fprintf(writer, "Credential ID: %s\n", output.CredentialID.String())
	_, _ = fmt.Fprintf(writer, "Token: %s\n", output.PlainToken)
	if output.ExpiresAt != nil {
		_, _ = fmt.Fprintf(writer, "Expires at: %s\n", output.ExpiresAt.Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintln(writer, "Expires at: never")
	}
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The token is shown only once. Store it securely.")
}

// outputIssueTokenJSON outputs the result in JSON format for machine consumption.
func outputIssueTokenJSON(output *authDomain.IssueTokenOutput, writer io.Writer) {
	result := map[string]any{
		"credential_id": output.CredentialID.String(),
		"token":         output.PlainToken,
	}
	if output.ExpiresAt != nil {
		result["expires_at"] = output.ExpiresAt.Format(time.RFC3339)
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
