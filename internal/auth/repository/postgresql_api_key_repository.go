// Package repository implements data persistence for API key records.
//
// Provides PostgreSQL and MySQL implementations with transaction support via database.GetTx().
// PostgreSQL uses native UUID and TEXT[] types, MySQL uses BINARY(16) and JSON columns.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

const postgresAPIKeyColumns = `id, owner_id, name, key_hash, key_prefix, scopes, is_active, expires_at, last_used_at, created_at`

// PostgreSQLAPIKeyRepository implements APIKey persistence for PostgreSQL.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new APIKey into the PostgreSQL database.
func (p *PostgreSQLAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO api_keys (` + postgresAPIKeyColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		apiKey.ID,
		apiKey.OwnerID,
		apiKey.Name,
		apiKey.KeyHash,
		apiKey.KeyPrefix,
		pq.Array(apiKey.Scopes),
		apiKey.IsActive,
		apiKey.ExpiresAt,
		apiKey.LastUsedAt,
		apiKey.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Deactivate sets is_active to false if the key is still active.
func (p *PostgreSQLAPIKeyRepository) Deactivate(ctx context.Context, apiKeyID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE api_keys SET is_active = false WHERE id = $1 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, apiKeyID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to deactivate api key")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read deactivated rows")
	}
	return rows == 1, nil
}

// Get retrieves an APIKey by ID.
func (p *PostgreSQLAPIKeyRepository) Get(ctx context.Context, apiKeyID uuid.UUID) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAPIKeyColumns + ` FROM api_keys WHERE id = $1`

	apiKey, err := scanPostgresAPIKey(querier.QueryRowContext(ctx, query, apiKeyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return apiKey, nil
}

// GetByKeyHash retrieves an APIKey by the hash of its raw value.
func (p *PostgreSQLAPIKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAPIKeyColumns + ` FROM api_keys WHERE key_hash = $1`

	apiKey, err := scanPostgresAPIKey(querier.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key by hash")
	}
	return apiKey, nil
}

// ListByOwner retrieves the owner's API keys, newest first.
func (p *PostgreSQLAPIKeyRepository) ListByOwner(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAPIKeyColumns + ` FROM api_keys
			  WHERE owner_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	apiKeys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		apiKey, err := scanPostgresAPIKey(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}
		apiKeys = append(apiKeys, apiKey)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	return apiKeys, nil
}

// TouchLastUsed moves last_used_at forward. Older timestamps never overwrite newer ones.
func (p *PostgreSQLAPIKeyRepository) TouchLastUsed(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE api_keys
			  SET last_used_at = $1
			  WHERE id = $2 AND (last_used_at IS NULL OR last_used_at < $1)`

	if _, err := querier.ExecContext(ctx, query, usedAt, apiKeyID); err != nil {
		return apperrors.Wrap(err, "failed to touch api key")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var apiKey authDomain.APIKey
	var scopes []string

	err := row.Scan(
		&apiKey.ID,
		&apiKey.OwnerID,
		&apiKey.Name,
		&apiKey.KeyHash,
		&apiKey.KeyPrefix,
		pq.Array(&scopes),
		&apiKey.IsActive,
		&apiKey.ExpiresAt,
		&apiKey.LastUsedAt,
		&apiKey.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	apiKey.Scopes = scopes
	return &apiKey, nil
}

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL APIKey repository.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}
