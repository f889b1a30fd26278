// Package repository provides SQL persistence for authentication domain models.
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

// PostgreSQLIdentityRepository implements Identity persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// Create inserts a new Identity into the PostgreSQL database.
func (p *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *authDomain.Identity) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(identity.BasePermissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal base permissions")
	}

	query := `INSERT INTO identities (id, name, base_permissions, is_active, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err = querier.ExecContext(
		ctx,
		query,
		identity.ID,
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

// Get retrieves an Identity by ID from the PostgreSQL database.
// Returns ErrIdentityNotFound if the identity doesn't exist.
func (p *PostgreSQLIdentityRepository) Get(ctx context.Context, identityID uuid.UUID) (*authDomain.Identity, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, base_permissions, is_active, created_at
			  FROM identities WHERE id = $1`

	var identity authDomain.Identity
	var permissionsJSON []byte

	err := querier.QueryRowContext(ctx, query, identityID).Scan(
		&identity.ID,
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

	if err := json.Unmarshal(permissionsJSON, &identity.BasePermissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal base permissions")
	}

	return &identity, nil
}

// Update modifies an existing Identity in the PostgreSQL database.
func (p *PostgreSQLIdentityRepository) Update(ctx context.Context, identity *authDomain.Identity) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(identity.BasePermissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal base permissions")
	}

	query := `UPDATE identities
			  SET name = $1,
				  base_permissions = $2,
				  is_active = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		identity.Name,
		permissionsJSON,
		identity.IsActive,
		identity.ID,
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

// NewPostgreSQLIdentityRepository creates a new PostgreSQL Identity repository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}
