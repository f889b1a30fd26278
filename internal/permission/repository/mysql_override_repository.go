package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/actiongate/internal/database"
	apperrors "github.com/allisson/actiongate/internal/errors"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
)

// MySQLOverrideRepository implements Override persistence for MySQL.
// UUIDs are stored as CHAR(36) strings.
type MySQLOverrideRepository struct {
	db *sql.DB
}

// Upsert inserts or replaces the Override for its action key.
func (m *MySQLOverrideRepository) Upsert(ctx context.Context, override *permissionDomain.Override) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(override.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal override permissions")
	}

	query := `INSERT INTO permission_overrides (id, action_key, permissions, is_active, description, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  permissions = VALUES(permissions),
			  is_active = VALUES(is_active),
			  description = VALUES(description)`

	_, err = querier.ExecContext(
		ctx,
		query,
		override.ID.String(),
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
func (m *MySQLOverrideRepository) GetByActionKey(
	ctx context.Context,
	actionKey string,
) (*permissionDomain.Override, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, action_key, permissions, is_active, description, created_at
			  FROM permission_overrides WHERE action_key = ?`

	var override permissionDomain.Override
	var idStr string
	var permissionsJSON []byte

	err := querier.QueryRowContext(ctx, query, actionKey).Scan(
		&idStr,
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

	if override.ID, err = uuid.Parse(idStr); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse override id")
	}

	if err := json.Unmarshal(permissionsJSON, &override.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal override permissions")
	}

	return &override, nil
}

// Delete removes the Override for an action key.
// Returns ErrOverrideNotFound if no override is configured.
func (m *MySQLOverrideRepository) Delete(ctx context.Context, actionKey string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM permission_overrides WHERE action_key = ?`

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

// NewMySQLOverrideRepository creates a new MySQL Override repository.
func NewMySQLOverrideRepository(db *sql.DB) *MySQLOverrideRepository {
	return &MySQLOverrideRepository{db: db}
}
