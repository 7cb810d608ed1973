package driven

import (
	"context"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// CredentialStore is the durable record of OAuth2 credentials, one row per
// provider. It is the only component allowed to mutate credential rows.
type CredentialStore interface {
	// Get returns the stored credential for a provider, or
	// domain.ErrNotFound when none exists.
	Get(ctx context.Context, provider domain.Provider) (*domain.Credential, error)

	// Put inserts or merges the credential keyed by provider. Nil fields
	// on the incoming credential must not null out stored values; the
	// write is a single atomic upsert, and updated_at is always stamped.
	Put(ctx context.Context, cred *domain.Credential) error

	// Reset replaces the stored refresh token and clears the access
	// token and expiry so the next use forces a refresh. An empty
	// newRefreshToken deletes the credential row entirely.
	Reset(ctx context.Context, provider domain.Provider, newRefreshToken string) error
}
