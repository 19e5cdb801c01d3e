package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/engagement-tracker/internal/auth"
)

// APIKeyRepo implements auth.KeyStore against PostgreSQL. Keys are stored
// as SHA-256 hex digests, never in the clear.
type APIKeyRepo struct{ db *sql.DB }

// NewAPIKeyRepo creates a Postgres-backed API key store.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo { return &APIKeyRepo{db: db} }

// OrgForKeyHash returns the organization owning an active API key.
func (p *APIKeyRepo) OrgForKeyHash(ctx context.Context, keyHash string) (string, error) {
	var orgID string
	err := p.db.QueryRowContext(ctx, `
		SELECT organization_id
		FROM tracking_api_keys
		WHERE key_hash = $1 AND active
	`, keyHash).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", auth.ErrUnknownKey
	}
	if err != nil {
		return "", fmt.Errorf("lookup api key: %w", err)
	}
	return orgID, nil
}
