package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	"github.com/allisson/actiongate/internal/database"
	apperrors "github.com/allisson/actiongate/internal/errors"
)

// MySQLIdentityRepository implements Identity persistence for MySQL.
// UUIDs are stored as CHAR(36) strings.
type MySQLIdentityRepository struct {
	db *sql.DB
}

// Create inserts a new Identity into the MySQL database.
func (m *MySQLIdentityRepository) Create(ctx context.Context, identity *authDomain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(identity.BasePermissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal base permissions")
	}

	query := `INSERT INTO identities (id, name, base_permissions, is_active, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		identity.ID.String(),
		identity.Name,
		permissionsJSON,
		identity.IsActive,
		identity.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// Get retrieves an Identity by ID from the MySQL database.
// Returns ErrIdentityNotFound if the identity doesn't exist.
func (m *MySQLIdentityRepository) Get(ctx context.Context, identityID uuid.UUID) (*authDomain.Identity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, base_permissions, is_active, created_at
			  FROM identities WHERE id = ?`

	var identity authDomain.Identity
	var idStr string
	var permissionsJSON []byte

	err := querier.QueryRowContext(ctx, query, identityID.String()).Scan(
		&idStr,
		&identity.Name,
		&permissionsJSON,
		&identity.IsActive,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity")
	}

	identity.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse identity id")
	}

	if err := json.Unmarshal(permissionsJSON, &identity.BasePermissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal base permissions")
	}

	return &identity, nil
}

// Update modifies an existing Identity in the MySQL database.
func (m *MySQLIdentityRepository) Update(ctx context.Context, identity *authDomain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(identity.BasePermissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal base permissions")
	}

	query := `UPDATE identities
			  SET name = ?,
				  base_permissions = ?,
				  is_active = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		identity.Name,
		permissionsJSON,
		identity.IsActive,
		identity.ID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return authDomain.ErrIdentityNotFound
	}

	return nil
}

// NewMySQLIdentityRepository creates a new MySQL Identity repository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}
