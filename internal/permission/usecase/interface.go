// Package usecase implements authorization checks against permission
// overrides and the caller's effective permission set.
package usecase

import (
	"context"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
)

// OverrideRepository defines the interface for Override persistence.
type OverrideRepository interface {
	Upsert(ctx context.Context, override *permissionDomain.Override) error
	GetByActionKey(ctx context.Context, actionKey string) (*permissionDomain.Override, error)
	Delete(ctx context.Context, actionKey string) error
}

// Checker authorizes a caller to execute an action.
type Checker interface {
	// Check returns nil when the caller holds every required permission,
	// ErrInsufficientPermissions otherwise. The declared permissions are
	// the action's defaults; an active override supersedes them.
	Check(ctx context.Context, caller *authDomain.Caller, actionKey string, declared []string) error
}

// OverrideUseCase manages permission override records.
type OverrideUseCase interface {
	Set(ctx context.Context, input permissionDomain.SetOverrideInput) (*permissionDomain.Override, error)
	Get(ctx context.Context, actionKey string) (*permissionDomain.Override, error)
	Remove(ctx context.Context, actionKey string) error
}
