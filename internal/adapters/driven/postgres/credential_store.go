package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements driven.CredentialStore using PostgreSQL.
// One row per provider in oauth_tokens.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a new PostgreSQL-backed credential store.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Get retrieves the credential for a provider.
func (s *CredentialStore) Get(ctx context.Context, provider domain.Provider) (*domain.Credential, error) {
	query := `
		SELECT provider, refresh_token, access_token, access_expires_at, updated_at
		FROM oauth_tokens
		WHERE provider = $1
	`

	var cred domain.Credential
	var refreshToken, accessToken sql.NullString
	var accessExpiry sql.NullTime

	err := s.db.QueryRowContext(ctx, query, provider).Scan(
		&cred.Provider,
		&refreshToken,
		&accessToken,
		&accessExpiry,
		&cred.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	cred.RefreshToken = StringPtr(refreshToken)
	cred.AccessToken = StringPtr(accessToken)
	cred.AccessExpiry = TimePtr(accessExpiry)

	return &cred, nil
}

// Put inserts or merges a credential in a single atomic upsert. COALESCE on
// the conflict branch keeps existing values for any field the caller left
// nil, so a refresh response that omits the refresh token never erases the
// stored one. updated_at is stamped on every write.
func (s *CredentialStore) Put(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO oauth_tokens (provider, refresh_token, access_token, access_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (provider) DO UPDATE SET
			refresh_token = COALESCE(EXCLUDED.refresh_token, oauth_tokens.refresh_token),
			access_token = COALESCE(EXCLUDED.access_token, oauth_tokens.access_token),
			access_expires_at = COALESCE(EXCLUDED.access_expires_at, oauth_tokens.access_expires_at),
			updated_at = now()
	`

	_, err := s.db.ExecContext(ctx, query,
		cred.Provider,
		NullString(cred.RefreshToken),
		NullString(cred.AccessToken),
		NullTime(cred.AccessExpiry),
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}

	return nil
}

// Reset replaces the stored refresh token and clears the cached access token
// so the next use forces a refresh. An empty token deletes the row.
func (s *CredentialStore) Reset(ctx context.Context, provider domain.Provider, newRefreshToken string) error {
	if newRefreshToken == "" {
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM oauth_tokens WHERE provider = $1", provider)
		if err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO oauth_tokens (provider, refresh_token, access_token, access_expires_at, updated_at)
		VALUES ($1, $2, NULL, NULL, now())
		ON CONFLICT (provider) DO UPDATE SET
			refresh_token = EXCLUDED.refresh_token,
			access_token = NULL,
			access_expires_at = NULL,
			updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, provider, newRefreshToken); err != nil {
		return fmt.Errorf("reset credential: %w", err)
	}

	return nil
}
