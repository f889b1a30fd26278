package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
	appvalidation "github.com/allisson/actiongate/internal/validation"
)

// identityUseCase implements IdentityUseCase for managing identities.
type identityUseCase struct {
	identityRepo IdentityRepository
}

// Create stores a new identity. The base permission set is deduplicated
// before persisting; order is preserved.
func (i *identityUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateIdentityInput,
) (*authDomain.Identity, error) {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name, validation.Required, appvalidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&input.BasePermissions, validation.Each(appvalidation.Permission)),
	)
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	identity := &authDomain.Identity{
		ID:              uuid.Must(uuid.NewV7()),
		Name:            input.Name,
		BasePermissions: permissionDomain.Normalize(input.BasePermissions),
		IsActive:        input.IsActive,
		CreatedAt:       time.Now().UTC(),
	}

	if err := i.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Get retrieves an identity by ID.
func (i *identityUseCase) Get(ctx context.Context, identityID uuid.UUID) (*authDomain.Identity, error) {
	return i.identityRepo.Get(ctx, identityID)
}

// NewIdentityUseCase creates a new IdentityUseCase with the provided dependencies.
func NewIdentityUseCase(identityRepo IdentityRepository) IdentityUseCase {
	return &identityUseCase{identityRepo: identityRepo}
}
