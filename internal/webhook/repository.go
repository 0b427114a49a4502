// Package webhook provides the ingestion bounded context. It manages the API
// keys external integrations authenticate with and translates inbound social
// and form events into interaction records.
package webhook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"venue_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const apiKeyNotFoundMessage = "webhook API key not found"

// APIKey represents a webhook API key stored in the database. Only the hash
// is persisted; the plaintext is shown once at creation.
type APIKey struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	KeyHash        string
	KeyPrefix      string
	AllowedDomains []string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository provides data access for webhook API keys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key
// and its hash. The plaintext key is returned only once.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "whk_" + hex.EncodeToString(bytes)
	hash = HashKey(plaintext)
	prefix = plaintext[:12]
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

const apiKeyColumns = `
	id, organization_id, name, key_hash, key_prefix, allowed_domains,
	is_active, created_at, updated_at`

// Create creates a new API key record.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, name string, keyHash string, keyPrefix string, allowedDomains []string) (APIKey, error) {
	query := `
		INSERT INTO webhook_api_keys (organization_id, name, key_hash, key_prefix, allowed_domains)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING` + apiKeyColumns

	key, err := scanAPIKey(r.pool.QueryRow(ctx, query, orgID, name, keyHash, keyPrefix, allowedDomains))
	if err != nil {
		return APIKey{}, fmt.Errorf("create webhook api key: %w", err)
	}
	return key, nil
}

// GetByHash retrieves an active API key by its hash.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	query := `SELECT` + apiKeyColumns + `
		FROM webhook_api_keys
		WHERE key_hash = $1 AND is_active`

	key, err := scanAPIKey(r.pool.QueryRow(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, apperr.Unauthorized(apiKeyNotFoundMessage)
		}
		return APIKey{}, fmt.Errorf("get webhook api key: %w", err)
	}
	return key, nil
}

// List returns the organization's API keys (hashes included, plaintext never).
func (r *Repository) List(ctx context.Context, orgID uuid.UUID) ([]APIKey, error) {
	query := `SELECT` + apiKeyColumns + `
		FROM webhook_api_keys
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list webhook api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates an API key.
func (r *Repository) Revoke(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	if err != nil {
		return fmt.Errorf("revoke webhook api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apiKeyNotFoundMessage)
	}
	return nil
}

type apiKeyRowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(s apiKeyRowScanner) (APIKey, error) {
	var key APIKey
	err := s.Scan(
		&key.ID, &key.OrganizationID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.AllowedDomains, &key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	return key, err
}
