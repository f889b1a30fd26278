package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/allisson/actiongate/internal/audit"
	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	apperrors "github.com/allisson/actiongate/internal/errors"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
)

// PermissionChecker authorizes callers against the effective permission
// requirement of an action: the active override when one exists, the
// action's declared defaults otherwise.
type PermissionChecker struct {
	overrideRepo OverrideRepository
	auditor      audit.Auditor
	logger       *slog.Logger
}

// Check returns nil when the caller holds every required permission and
// ErrInsufficientPermissions otherwise. The override is fetched per call,
// so deactivating one takes effect on the next check. Denial details go
// to the audit sink only.
func (c *PermissionChecker) Check(
	ctx context.Context,
	caller *authDomain.Caller,
	actionKey string,
	declared []string,
) error {
	required, err := c.effectiveRequirement(ctx, actionKey, declared)
	if err != nil {
		return err
	}

	// An empty requirement means any authenticated caller may execute.
	if len(required) == 0 {
		return nil
	}

	missing := permissionDomain.Missing(caller.Permissions, required)
	if missing == nil {
		return nil
	}

	c.auditor.Record(ctx, audit.Event{
		IdentityID: caller.IdentityID,
		ActionKey:  actionKey,
		Outcome:    audit.OutcomeDenied,
		ErrorKind:  "insufficient_permissions",
		Missing:    missing,
		Metadata: map[string]any{
			"required_permissions": required,
		},
	})

	return permissionDomain.ErrInsufficientPermissions
}

// effectiveRequirement resolves the permission list to enforce. An active
// override supersedes the declared defaults; a missing or inactive override
// leaves the defaults in force.
func (c *PermissionChecker) effectiveRequirement(
	ctx context.Context,
	actionKey string,
	declared []string,
) ([]string, error) {
	override, err := c.overrideRepo.GetByActionKey(ctx, actionKey)
	if err != nil {
		if errors.Is(err, permissionDomain.ErrOverrideNotFound) {
			return declared, nil
		}
		c.logger.ErrorContext(ctx, "failed to load permission override",
			slog.String("action_key", actionKey),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Wrap(err, "failed to load permission override")
	}

	if !override.IsActive {
		return declared, nil
	}
	return override.Permissions, nil
}

// NewPermissionChecker creates a new PermissionChecker.
func NewPermissionChecker(
	overrideRepo OverrideRepository,
	auditor audit.Auditor,
	logger *slog.Logger,
) *PermissionChecker {
	return &PermissionChecker{
		overrideRepo: overrideRepo,
		auditor:      auditor,
		logger:       logger,
	}
}
