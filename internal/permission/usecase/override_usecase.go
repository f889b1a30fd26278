package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/actiongate/internal/errors"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
	appvalidation "github.com/allisson/actiongate/internal/validation"
)

// Override implements OverrideUseCase on top of an OverrideRepository.
type Override struct {
	overrideRepo OverrideRepository
}

// Set creates or replaces the Override for an action key.
func (o *Override) Set(
	ctx context.Context,
	input permissionDomain.SetOverrideInput,
) (*permissionDomain.Override, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.ActionKey,
			validation.Required,
			appvalidation.ActionKey,
			validation.Length(1, appvalidation.ActionKeyMaxLength),
		),
		validation.Field(&input.Permissions,
			validation.Each(appvalidation.Permission),
		),
	)
	if err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	override := &permissionDomain.Override{
		ID:          uuid.Must(uuid.NewV7()),
		ActionKey:   input.ActionKey,
		Permissions: permissionDomain.Normalize(input.Permissions),
		IsActive:    input.IsActive,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := o.overrideRepo.Upsert(ctx, override); err != nil {
		return nil, apperrors.Wrap(err, "failed to set permission override")
	}
	return override, nil
}

// Get retrieves the Override for an action key.
func (o *Override) Get(ctx context.Context, actionKey string) (*permissionDomain.Override, error) {
	return o.overrideRepo.GetByActionKey(ctx, actionKey)
}

// Remove deletes the Override for an action key.
func (o *Override) Remove(ctx context.Context, actionKey string) error {
	return o.overrideRepo.Delete(ctx, actionKey)
}

// NewOverride creates a new Override use case.
func NewOverride(overrideRepo OverrideRepository) *Override {
	return &Override{overrideRepo: overrideRepo}
}
