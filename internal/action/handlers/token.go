package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/actiongate/internal/action"
	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authUsecase "github.com/allisson/actiongate/internal/auth/usecase"
	apperrors "github.com/allisson/actiongate/internal/errors"
)

// uuidField extracts a required UUID field from the payload.
func uuidField(payload map[string]any, field string) (uuid.UUID, error) {
	raw, err := stringField(payload, field)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrInvalidInput, "field "+field+" must be a valid UUID")
	}
	return id, nil
}

// tokenIssueHandler issues credentials through the action pipeline.
// The plain token appears in the response exactly once and is never stored.
type tokenIssueHandler struct {
	tokens authUsecase.TokenUseCase
}

func (h *tokenIssueHandler) Execute(
	ctx context.Context,
	request *action.Request,
) (map[string]any, error) {
	identityID, err := uuidField(request.Payload, "identity_id")
	if err != nil {
		return nil, err
	}
	label, err := stringField(request.Payload, "label")
	if err != nil {
		return nil, err
	}
	scope, err := optionalStringSliceField(request.Payload, "scope")
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	seconds, hasExpiry, err := optionalNumberField(request.Payload, "expires_in_seconds")
	if err != nil {
		return nil, err
	}
	if hasExpiry {
		if seconds <= 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "field expires_in_seconds must be positive")
		}
		exp := time.Now().UTC().Add(time.Duration(seconds) * time.Second)
		expiresAt = &exp
	}

	output, err := h.tokens.Issue(ctx, &authDomain.IssueTokenInput{
		IdentityID: identityID,
		Label:      label,
		Scope:      scope,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"credential_id": output.CredentialID.String(),
		"token":         output.PlainToken,
	}
	if output.ExpiresAt != nil {
		result["expires_at"] = output.ExpiresAt.Format(time.RFC3339)
	}
	return result, nil
}

func (h *tokenIssueHandler) RequiredPermissions() []string {
	return []string{"token.write"}
}

func (h *tokenIssueHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Issue token",
		Description: "Issues a new bearer credential for an identity. The token is shown once.",
		Parameters: map[string]string{
			"identity_id":        "required identity UUID",
			"label":              "required credential label",
			"scope":              "optional permission scope; omitted means inherit the identity's base set",
			"expires_in_seconds": "optional lifetime; omitted falls back to the configured default",
		},
		Example: map[string]any{
			"action_type": "token.issue",
			"identity_id": "0191d3a7-1111-7222-8333-444455556666",
			"label":       "ci-deploy",
		},
	}
}

func (h *tokenIssueHandler) Version() string {
	return "1.0.0"
}

// tokenRevokeHandler revokes a single credential by its plain token.
type tokenRevokeHandler struct {
	tokens authUsecase.TokenUseCase
}

func (h *tokenRevokeHandler) Execute(
	ctx context.Context,
	request *action.Request,
) (map[string]any, error) {
	token, err := stringField(request.Payload, "token")
	if err != nil {
		return nil, err
	}

	if err := h.tokens.Revoke(ctx, token); err != nil {
		return nil, err
	}
	return map[string]any{"revoked": true}, nil
}

func (h *tokenRevokeHandler) RequiredPermissions() []string {
	return []string{"token.write"}
}

func (h *tokenRevokeHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Revoke token",
		Description: "Revokes the credential matching the given token. Idempotent.",
		Parameters: map[string]string{
			"token": "required plain token to revoke",
		},
		Example: map[string]any{
			"action_type": "token.revoke",
			"token":       "<plain token>",
		},
	}
}

func (h *tokenRevokeHandler) Version() string {
	return "1.0.0"
}

// tokenRevokeAllHandler revokes every credential owned by an identity.
type tokenRevokeAllHandler struct {
	tokens authUsecase.TokenUseCase
}

func (h *tokenRevokeAllHandler) Execute(
	ctx context.Context,
	request *action.Request,
) (map[string]any, error) {
	identityID, err := uuidField(request.Payload, "identity_id")
	if err != nil {
		return nil, err
	}

	count, err := h.tokens.RevokeAll(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"revoked_count": count}, nil
}

func (h *tokenRevokeAllHandler) RequiredPermissions() []string {
	return []string{"token.write"}
}

func (h *tokenRevokeAllHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Revoke all tokens",
		Description: "Revokes every active credential owned by an identity.",
		Parameters: map[string]string{
			"identity_id": "required identity UUID",
		},
		Example: map[string]any{
			"action_type": "token.revoke_all",
			"identity_id": "0191d3a7-1111-7222-8333-444455556666",
		},
	}
}

func (h *tokenRevokeAllHandler) Version() string {
	return "1.0.0"
}
