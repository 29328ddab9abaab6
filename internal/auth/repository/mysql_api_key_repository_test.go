package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
)

func mustBinaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestNewMySQLAPIKeyRepository(t *testing.T) {
	db, _ := newMockDB(t)

	repo := NewMySQLAPIKeyRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLAPIKeyRepository{}, repo)
}

func TestMySQLAPIKeyRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	apiKey := newTestAPIKey()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO api_keys")).
		WithArgs(
			mustBinaryID(t, apiKey.ID),
			apiKey.OwnerID,
			apiKey.Name,
			apiKey.KeyHash,
			apiKey.KeyPrefix,
			[]byte(`["tasks.read","tasks.write"]`),
			true,
			nil,
			nil,
			apiKey.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), apiKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAPIKeyRepository_Create_NilScopesStoredAsEmptyArray(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	apiKey := newTestAPIKey()
	apiKey.Scopes = nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO api_keys")).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			[]byte(`[]`),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), apiKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAPIKeyRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLAPIKeyRepository(db)
		apiKey := newTestAPIKey()
		lastUsed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(apiKeyColumnNames).AddRow(
			mustBinaryID(t, apiKey.ID),
			apiKey.OwnerID,
			apiKey.Name,
			apiKey.KeyHash,
			apiKey.KeyPrefix,
			[]byte(`["tasks.read","tasks.write"]`),
			true,
			nil,
			lastUsed,
			apiKey.CreatedAt,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE id = ?")).
			WithArgs(mustBinaryID(t, apiKey.ID)).
			WillReturnRows(rows)

		got, err := repo.Get(context.Background(), apiKey.ID)

		require.NoError(t, err)
		assert.Equal(t, apiKey.ID, got.ID)
		assert.Equal(t, apiKey.Scopes, got.Scopes)
		assert.Nil(t, got.ExpiresAt)
		require.NotNil(t, got.LastUsedAt)
		assert.Equal(t, lastUsed, *got.LastUsedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLAPIKeyRepository(db)
		apiKeyID := uuid.Must(uuid.NewV7())

		mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE id = ?")).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), apiKeyID)

		assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	})
}

func TestMySQLAPIKeyRepository_GetByKeyHash_InvalidScopesJSON(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	apiKey := newTestAPIKey()

	rows := sqlmock.NewRows(apiKeyColumnNames).AddRow(
		mustBinaryID(t, apiKey.ID), apiKey.OwnerID, apiKey.Name, apiKey.KeyHash, apiKey.KeyPrefix,
		[]byte(`not-json`), true, nil, nil, apiKey.CreatedAt,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM api_keys WHERE key_hash = ?")).WillReturnRows(rows)

	_, err := repo.GetByKeyHash(context.Background(), apiKey.KeyHash)

	require.Error(t, err)
	assert.NotErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
}

func TestMySQLAPIKeyRepository_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	apiKey := newTestAPIKey()

	rows := sqlmock.NewRows(apiKeyColumnNames).AddRow(
		mustBinaryID(t, apiKey.ID), apiKey.OwnerID, apiKey.Name, apiKey.KeyHash, apiKey.KeyPrefix,
		[]byte(`["api_keys.read"]`), true, nil, nil, apiKey.CreatedAt,
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = ?")).
		WithArgs("user-123", 50, 5).
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "user-123", 5, 50)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{authDomain.ScopeAPIKeysRead}, got[0].Scopes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAPIKeyRepository_Deactivate(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		expected     bool
	}{
		{name: "Deactivated", rowsAffected: 1, expected: true},
		{name: "AlreadyInactiveOrMissing", rowsAffected: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewMySQLAPIKeyRepository(db)
			apiKeyID := uuid.Must(uuid.NewV7())

			mock.ExpectExec(regexp.QuoteMeta("SET is_active = false WHERE id = ? AND is_active = true")).
				WithArgs(mustBinaryID(t, apiKeyID)).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			deactivated, err := repo.Deactivate(context.Background(), apiKeyID)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, deactivated)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMySQLAPIKeyRepository_TouchLastUsed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	apiKeyID := uuid.Must(uuid.NewV7())
	usedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET last_used_at = ?")).
		WithArgs(usedAt, mustBinaryID(t, apiKeyID), usedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastUsed(context.Background(), apiKeyID, usedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
