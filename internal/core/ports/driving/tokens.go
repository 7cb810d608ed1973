package driving

import (
	"context"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// TokenService manages the OAuth2 credential lifecycle per provider:
// authorization URL construction, code exchange, refresh-or-reuse, and
// operator resets.
type TokenService interface {
	// AuthorizeURL builds the provider authorization URL for the setup
	// flow.
	AuthorizeURL(provider domain.Provider, redirectURI, state string) (string, error)

	// ExchangeCode trades an authorization code for tokens and persists
	// them before returning.
	ExchangeCode(ctx context.Context, provider domain.Provider, code, redirectURI string) (*domain.TokenPayload, error)

	// EnsureAccessToken returns a currently valid access token, reusing
	// the cached one when possible and refreshing otherwise.
	EnsureAccessToken(ctx context.Context, provider domain.Provider) (string, error)

	// Reset replaces or deletes the stored credential (empty token
	// deletes).
	Reset(ctx context.Context, provider domain.Provider, newRefreshToken string) error

	// Summaries returns the safe status view of every stored credential.
	Summaries(ctx context.Context) ([]*domain.CredentialSummary, error)
}
