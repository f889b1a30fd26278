package handlers

import (
	"context"

	"github.com/allisson/actiongate/internal/action"
	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authUsecase "github.com/allisson/actiongate/internal/auth/usecase"
)

// identityCreateHandler creates identities through the action pipeline.
type identityCreateHandler struct {
	identities authUsecase.IdentityUseCase
}

func (h *identityCreateHandler) Execute(
	ctx context.Context,
	request *action.Request,
) (map[string]any, error) {
	name, err := stringField(request.Payload, "name")
	if err != nil {
		return nil, err
	}
	basePermissions, err := optionalStringSliceField(request.Payload, "base_permissions")
	if err != nil {
		return nil, err
	}
	isActive, err := optionalBoolField(request.Payload, "is_active", true)
	if err != nil {
		return nil, err
	}

	identity, err := h.identities.Create(ctx, &authDomain.CreateIdentityInput{
		Name:            name,
		BasePermissions: basePermissions,
		IsActive:        isActive,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"identity_id":      identity.ID.String(),
		"name":             identity.Name,
		"base_permissions": identity.BasePermissions,
		"is_active":        identity.IsActive,
	}, nil
}

func (h *identityCreateHandler) RequiredPermissions() []string {
	return []string{"identity.write"}
}

func (h *identityCreateHandler) Documentation() action.Documentation {
	return action.Documentation{
		Name:        "Create identity",
		Description: "Creates a new identity with a base permission set.",
		Parameters: map[string]string{
			"name":             "required identity name",
			"base_permissions": "optional list of permissions (ceiling for all credentials)",
			"is_active":        "optional boolean, defaults to true",
		},
		Example: map[string]any{
			"action_type":      "identity.create",
			"name":             "ci-bot",
			"base_permissions": []string{"user.read"},
		},
	}
}

func (h *identityCreateHandler) Version() string {
	return "1.0.0"
}
