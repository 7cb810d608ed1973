package driven

import (
	"context"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// OAuthClient speaks one provider's OAuth2 endpoints. Client id and secret
// are bound at construction from configuration.
type OAuthClient interface {
	// BuildAuthURL constructs the provider authorization URL for the
	// setup flow (response_type=code).
	BuildAuthURL(redirectURI, state string) string

	// ExchangeCode exchanges an authorization code for tokens
	// (authorization_code grant). Returns *domain.CredentialError when
	// the provider rejects the request.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenPayload, error)

	// Refresh obtains a new access token (refresh_token grant).
	// Returns *domain.CredentialError when the provider rejects the
	// request; the caller must not mutate stored state in that case.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPayload, error)
}
