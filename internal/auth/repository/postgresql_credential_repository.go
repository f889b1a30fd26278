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

// PostgreSQLCredentialRepository implements Credential persistence for PostgreSQL.
// Lookups are by the indexed token_hash column; raw secrets are never stored
// or scanned.
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// Create inserts a new Credential into the PostgreSQL database.
func (p *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *authDomain.Credential) error {
	querier := database.GetTx(ctx, p.db)

	scopeJSON, err := marshalScope(credential.Scope)
	if err != nil {
		return err
	}

	query := `INSERT INTO credentials
			  (id, token_hash, identity_id, label, scope, expires_at, is_active, last_used_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.TokenHash,
		credential.IdentityID,
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
func (p *PostgreSQLCredentialRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, identity_id, label, scope, expires_at, is_active, last_used_at, created_at
			  FROM credentials WHERE token_hash = $1`

	return scanCredential(querier.QueryRowContext(ctx, query, tokenHash))
}

// Touch updates the credential's last-used instant. Best-effort by contract:
// callers treat failures as non-fatal and a lost update under concurrent
// validation is acceptable.
func (p *PostgreSQLCredentialRepository) Touch(ctx context.Context, credentialID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials SET last_used_at = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, usedAt, credentialID); err != nil {
		return apperrors.Wrap(err, "failed to touch credential")
	}
	return nil
}

// Revoke marks the credential with the given token hash inactive. Idempotent:
// revoking an unknown or already-revoked credential is not an error.
func (p *PostgreSQLCredentialRepository) Revoke(ctx context.Context, tokenHash string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials SET is_active = false WHERE token_hash = $1`

	if _, err := querier.ExecContext(ctx, query, tokenHash); err != nil {
		return apperrors.Wrap(err, "failed to revoke credential")
	}
	return nil
}

// RevokeAllByIdentity marks every active credential owned by the identity
// inactive and returns the number of credentials revoked.
func (p *PostgreSQLCredentialRepository) RevokeAllByIdentity(
	ctx context.Context,
	identityID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials SET is_active = false WHERE identity_id = $1 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, identityID)
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
// returns the number of credentials swept. Safe to run concurrently with
// validation, which already treats expired-but-active records as invalid.
func (p *PostgreSQLCredentialRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials SET is_active = false
			  WHERE is_active = true AND expires_at IS NOT NULL AND expires_at < $1`

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

// NewPostgreSQLCredentialRepository creates a new PostgreSQL Credential repository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// marshalScope serializes a credential scope, preserving the nil = "inherit"
// distinction as SQL NULL.
func marshalScope(scope []string) (any, error) {
	if scope == nil {
		return nil, nil
	}
	scopeJSON, err := json.Marshal(scope)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal credential scope")
	}
	return scopeJSON, nil
}

// scanCredential scans a credential row, mapping sql.ErrNoRows to
// ErrCredentialNotFound and SQL NULL scope back to nil.
func scanCredential(row *sql.Row) (*authDomain.Credential, error) {
	var credential authDomain.Credential
	var scopeJSON []byte

	err := row.Scan(
		&credential.ID,
		&credential.TokenHash,
		&credential.IdentityID,
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

	if scopeJSON != nil {
		if err := json.Unmarshal(scopeJSON, &credential.Scope); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal credential scope")
		}
	}

	return &credential, nil
}
