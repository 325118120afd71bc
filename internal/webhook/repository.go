// Package webhook provides the inbound CRM webhook bounded context.
// It handles API key management and Propstack push notifications.
package webhook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"areabutler_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("webhook API key not found")

// APIKey represents a webhook API key stored in the database. The key acts on
// behalf of UserID; UserEmail selects the status rule table.
type APIKey struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	UserEmail string
	Name      string
	KeyHash   string
	KeyPrefix string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides data access for webhook API keys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key and its hash.
// The plaintext key is returned only once; only the hash is stored.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "abw_" + hex.EncodeToString(bytes)
	prefix = plaintext[:12]
	return plaintext, HashKey(plaintext), prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

const keyColumns = `id, user_id, user_email, name, key_hash, key_prefix, is_active, created_at, updated_at`

func scanKey(row pgx.Row) (APIKey, error) {
	var key APIKey
	err := row.Scan(
		&key.ID, &key.UserID, &key.UserEmail, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	return key, err
}

// Create creates a new API key record.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, userEmail, name, keyHash, keyPrefix string) (APIKey, error) {
	key, err := scanKey(r.pool.QueryRow(ctx, `
		INSERT INTO webhook_api_keys (user_id, user_email, name, key_hash, key_prefix)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+keyColumns,
		userID, userEmail, name, keyHash, keyPrefix))
	if err != nil {
		return APIKey{}, fmt.Errorf("create webhook key: %w", err)
	}
	return key, nil
}

// GetByHash retrieves an active API key by its hash.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	key, err := scanKey(r.pool.QueryRow(ctx, `
		SELECT `+keyColumns+`
		FROM webhook_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

// ListByUser returns all API keys issued for a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+keyColumns+`
		FROM webhook_api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list webhook keys: %w", err)
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates an API key.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1
	`, keyID)
	if err != nil {
		return fmt.Errorf("revoke webhook key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("API key not found")
	}
	return nil
}
