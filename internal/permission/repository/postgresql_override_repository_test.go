package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
)

var overrideColumns = []string{"id", "action_key", "permissions", "is_active", "description", "created_at"}

func TestPostgreSQLOverrideRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOverrideRepository(db)

	override := &permissionDomain.Override{
		ID:          uuid.Must(uuid.NewV7()),
		ActionKey:   "user.delete",
		Permissions: []string{"admin.write"},
		IsActive:    true,
		Description: "tightened during incident review",
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO permission_overrides")).
		WithArgs(
			override.ID,
			override.ActionKey,
			[]byte(`["admin.write"]`),
			override.IsActive,
			override.Description,
			override.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Upsert(context.Background(), override)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOverrideRepository_GetByActionKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOverrideRepository(db)
	overrideID := uuid.Must(uuid.NewV7())

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(overrideColumns).
			AddRow(overrideID, "user.delete", []byte(`["admin.write"]`), true, "locked down", time.Now().UTC())

		mock.ExpectQuery(regexp.QuoteMeta("FROM permission_overrides WHERE action_key = $1")).
			WithArgs("user.delete").
			WillReturnRows(rows)

		override, err := repo.GetByActionKey(context.Background(), "user.delete")
		require.NoError(t, err)
		assert.Equal(t, overrideID, override.ID)
		assert.Equal(t, []string{"admin.write"}, override.Permissions)
		assert.True(t, override.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM permission_overrides WHERE action_key = $1")).
			WithArgs("no.such.action").
			WillReturnRows(sqlmock.NewRows(overrideColumns))

		override, err := repo.GetByActionKey(context.Background(), "no.such.action")
		assert.Nil(t, override)
		assert.ErrorIs(t, err, permissionDomain.ErrOverrideNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOverrideRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOverrideRepository(db)

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM permission_overrides WHERE action_key = $1")).
			WithArgs("user.delete").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "user.delete"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM permission_overrides WHERE action_key = $1")).
			WithArgs("no.such.action").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "no.such.action"), permissionDomain.ErrOverrideNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
