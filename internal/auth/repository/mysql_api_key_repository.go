package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/database"
	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

const mysqlAPIKeyColumns = `id, owner_id, name, key_hash, key_prefix, scopes, is_active, expires_at, last_used_at, created_at`

// MySQLAPIKeyRepository implements APIKey persistence for MySQL.
// Uses BINARY(16) for UUID storage and a JSON column for scopes.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new APIKey into the MySQL database.
func (m *MySQLAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	id, err := apiKey.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key id")
	}

	scopesJSON, err := marshalScopes(apiKey.Scopes)
	if err != nil {
		return err
	}

	query := `INSERT INTO api_keys (` + mysqlAPIKeyColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		apiKey.OwnerID,
		apiKey.Name,
		apiKey.KeyHash,
		apiKey.KeyPrefix,
		scopesJSON,
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
func (m *MySQLAPIKeyRepository) Deactivate(ctx context.Context, apiKeyID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := apiKeyID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal api key id")
	}

	query := `UPDATE api_keys SET is_active = false WHERE id = ? AND is_active = true`

	result, err := querier.ExecContext(ctx, query, id)
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
func (m *MySQLAPIKeyRepository) Get(ctx context.Context, apiKeyID uuid.UUID) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := apiKeyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal api key id")
	}

	query := `SELECT ` + mysqlAPIKeyColumns + ` FROM api_keys WHERE id = ?`

	apiKey, err := scanMySQLAPIKey(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return apiKey, nil
}

// GetByKeyHash retrieves an APIKey by the hash of its raw value.
func (m *MySQLAPIKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlAPIKeyColumns + ` FROM api_keys WHERE key_hash = ?`

	apiKey, err := scanMySQLAPIKey(querier.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key by hash")
	}
	return apiKey, nil
}

// ListByOwner retrieves the owner's API keys, newest first.
func (m *MySQLAPIKeyRepository) ListByOwner(
	ctx context.Context,
	ownerID string,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlAPIKeyColumns + ` FROM api_keys
			  WHERE owner_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	apiKeys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		apiKey, err := scanMySQLAPIKey(rows)
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
func (m *MySQLAPIKeyRepository) TouchLastUsed(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := apiKeyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key id")
	}

	query := `UPDATE api_keys
			  SET last_used_at = ?
			  WHERE id = ? AND (last_used_at IS NULL OR last_used_at < ?)`

	if _, err := querier.ExecContext(ctx, query, usedAt, id, usedAt); err != nil {
		return apperrors.Wrap(err, "failed to touch api key")
	}
	return nil
}

func marshalScopes(scopes []string) ([]byte, error) {
	if scopes == nil {
		scopes = []string{}
	}
	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal api key scopes")
	}
	return scopesJSON, nil
}

func scanMySQLAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var apiKey authDomain.APIKey
	var idBytes []byte
	var scopesJSON []byte

	err := row.Scan(
		&idBytes,
		&apiKey.OwnerID,
		&apiKey.Name,
		&apiKey.KeyHash,
		&apiKey.KeyPrefix,
		&scopesJSON,
		&apiKey.IsActive,
		&apiKey.ExpiresAt,
		&apiKey.LastUsedAt,
		&apiKey.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := apiKey.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal api key id")
	}
	if err := json.Unmarshal(scopesJSON, &apiKey.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal api key scopes")
	}

	return &apiKey, nil
}

// NewMySQLAPIKeyRepository creates a new MySQL APIKey repository.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}
