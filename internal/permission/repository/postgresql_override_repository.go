// Package repository provides SQL persistence for permission overrides.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/allisson/actiongate/internal/database"
	apperrors "github.com/allisson/actiongate/internal/errors"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
)

// PostgreSQLOverrideRepository implements Override persistence for PostgreSQL.
// Overrides are keyed by action key and fetched per authorization check, so
// deactivating one takes effect on the next check with no cache staleness.
type PostgreSQLOverrideRepository struct {
	db *sql.DB
}

// Upsert inserts or replaces the Override for its action key.
func (p *PostgreSQLOverrideRepository) Upsert(ctx context.Context, override *permissionDomain.Override) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(override.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal override permissions")
	}

	query := `INSERT INTO permission_overrides (id, action_key, permissions, is_active, description, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (action_key) DO UPDATE
			  SET permissions = EXCLUDED.permissions,
				  is_active = EXCLUDED.is_active,
				  description = EXCLUDED.description`

	_, err = querier.ExecContext(
		ctx,
		query,
		override.ID,
		override.ActionKey,
		permissionsJSON,
		override.IsActive,
		override.Description,
		override.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert permission override")
	}
	return nil
}

// GetByActionKey retrieves the Override for an action key.
// Returns ErrOverrideNotFound if no override is configured.
func (p *PostgreSQLOverrideRepository) GetByActionKey(
	ctx context.Context,
	actionKey string,
) (*permissionDomain.Override, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, action_key, permissions, is_active, description, created_at
			  FROM permission_overrides WHERE action_key = $1`

	var override permissionDomain.Override
	var permissionsJSON []byte

	err := querier.QueryRowContext(ctx, query, actionKey).Scan(
		&override.ID,
		&override.ActionKey,
		&permissionsJSON,
		&override.IsActive,
		&override.Description,
		&override.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, permissionDomain.ErrOverrideNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get permission override")
	}

	if err := json.Unmarshal(permissionsJSON, &override.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal override permissions")
	}

	return &override, nil
}

// Delete removes the Override for an action key.
// Returns ErrOverrideNotFound if no override is configured.
func (p *PostgreSQLOverrideRepository) Delete(ctx context.Context, actionKey string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM permission_overrides WHERE action_key = $1`

	result, err := querier.ExecContext(ctx, query, actionKey)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete permission override")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return permissionDomain.ErrOverrideNotFound
	}

	return nil
}

// NewPostgreSQLOverrideRepository creates a new PostgreSQL Override repository.
func NewPostgreSQLOverrideRepository(db *sql.DB) *PostgreSQLOverrideRepository {
	return &PostgreSQLOverrideRepository{db: db}
}
