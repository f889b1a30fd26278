package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	"github.com/allisson/actiongate/internal/database"
	apperrors "github.com/allisson/actiongate/internal/errors"
)

// MySQLCredentialRepository implements Credential persistence for MySQL.
// Lookups are by the indexed token_hash column; raw secrets are never stored
// or scanned.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// Create inserts a new Credential into the MySQL database.
func (m *MySQLCredentialRepository) Create(ctx context.Context, credential *authDomain.Credential) error {
	querier := database.GetTx(ctx, m.db)

	scopeJSON, err := marshalScope(credential.Scope)
	if err != nil {
		return err
	}

	query := `INSERT INTO credentials
			  (id, token_hash, identity_id, label, scope, expires_at, is_active, last_used_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		credential.ID.String(),
		credential.TokenHash,
		credential.IdentityID.String(),
		credential.Label,
		scopeJSON,
		credential.ExpiresAt,
		credential.IsActive,
		credential.LastUsedAt,
		credential.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByTokenHash retrieves a Credential by its token hash.
// Returns ErrCredentialNotFound if no matching record exists.
func (m *MySQLCredentialRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, identity_id, label, scope, expires_at, is_active, last_used_at, created_at
			  FROM credentials WHERE token_hash = ?`

	var credential authDomain.Credential
	var idStr, identityIDStr string
	var scopeJSON []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&idStr,
		&credential.TokenHash,
		&identityIDStr,
		&credential.Label,
		&scopeJSON,
		&credential.ExpiresAt,
		&credential.IsActive,
		&credential.LastUsedAt,
		&credential.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}

	if credential.ID, err = uuid.Parse(idStr); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse credential id")
	}
	if credential.IdentityID, err = uuid.Parse(identityIDStr); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse identity id")
	}

	if scopeJSON != nil {
		if err := json.Unmarshal(scopeJSON, &credential.Scope); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal credential scope")
		}
	}

	return &credential, nil
}

// Touch updates the credential's last-used instant. Best-effort by contract.
func (m *MySQLCredentialRepository) Touch(ctx context.Context, credentialID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE credentials SET last_used_at = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, usedAt, credentialID.String()); err != nil {
		return apperrors.Wrap(err, "failed to touch credential")
	}
	return nil
}

// Revoke marks the credential with the given token hash inactive. Idempotent.
func (m *MySQLCredentialRepository) Revoke(ctx context.Context, tokenHash string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE credentials SET is_active = false WHERE token_hash = ?`

	if _, err := querier.ExecContext(ctx, query, tokenHash); err != nil {
		return apperrors.Wrap(err, "failed to revoke credential")
	}
	return nil
}

// RevokeAllByIdentity marks every active credential owned by the identity
// inactive and returns the number of credentials revoked.
func (m *MySQLCredentialRepository) RevokeAllByIdentity(
	ctx context.Context,
	identityID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE credentials SET is_active = false WHERE identity_id = ? AND is_active = true`

	result, err := querier.ExecContext(ctx, query, identityID.String())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke credentials")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}

// SweepExpired deactivates every credential whose expiration has passed and
// returns the number of credentials swept.
func (m *MySQLCredentialRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE credentials SET is_active = false
			  WHERE is_active = true AND expires_at IS NOT NULL AND expires_at < ?`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to sweep expired credentials")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}

// NewMySQLCredentialRepository creates a new MySQL Credential repository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}
