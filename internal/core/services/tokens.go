package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driving"
)

// Ensure tokenService implements TokenService
var _ driving.TokenService = (*tokenService)(nil)

// TokenServiceConfig holds dependencies for the token service.
type TokenServiceConfig struct {
	// Store is the durable credential record.
	Store driven.CredentialStore

	// Clients maps each provider to its OAuth2 client.
	Clients map[domain.Provider]driven.OAuthClient

	// FallbackRefreshTokens are environment-supplied refresh tokens used
	// when the store holds none for a provider.
	FallbackRefreshTokens map[domain.Provider]string

	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// tokenService implements the credential lifecycle: refresh-vs-reuse
// decisions, refresh-token rotation, authorization-code exchange, and
// operator resets.
type tokenService struct {
	store     driven.CredentialStore
	clients   map[domain.Provider]driven.OAuthClient
	fallbacks map[domain.Provider]string
	logger    *slog.Logger
	now       func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(cfg TokenServiceConfig) driving.TokenService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &tokenService{
		store:     cfg.Store,
		clients:   cfg.Clients,
		fallbacks: cfg.FallbackRefreshTokens,
		logger:    logger,
		now:       now,
	}
}

// EnsureAccessToken returns a currently valid access token for a provider,
// hiding the refresh-vs-reuse decision from callers.
//
// The cached access token is reused when its expiry is in the future or
// unknown; a nil expiry trusts the cache because some providers omit expiry
// from refresh responses. Otherwise a refresh is performed and the result
// persisted - rotated refresh token included - before the token is handed
// back, since losing a rotated token invalidates all future refreshes.
func (s *tokenService) EnsureAccessToken(ctx context.Context, provider domain.Provider) (string, error) {
	cred, err := s.store.Get(ctx, provider)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("load credential: %w", err)
	}

	if cred.HasUsableAccessToken(s.now()) {
		s.logger.Debug("reusing cached access token", "provider", provider)
		return *cred.AccessToken, nil
	}

	refreshToken := ""
	if cred.HasRefreshToken() {
		refreshToken = *cred.RefreshToken
	} else if fallback := s.fallbacks[provider]; fallback != "" {
		refreshToken = fallback
	}
	if refreshToken == "" {
		return "", fmt.Errorf("%s: %w", provider, domain.ErrMissingCredential)
	}

	client, ok := s.clients[provider]
	if !ok {
		return "", fmt.Errorf("%w: no oauth client for %s", domain.ErrInvalidInput, provider)
	}

	payload, err := client.Refresh(ctx, refreshToken)
	if err != nil {
		// Stored state is left untouched on refresh failure.
		return "", err
	}

	if err := s.persist(ctx, provider, refreshToken, payload); err != nil {
		return "", err
	}

	s.logger.Info("access token refreshed",
		"provider", provider,
		"rotated", payload.RefreshToken != "" && payload.RefreshToken != refreshToken,
	)

	return payload.AccessToken, nil
}

// ExchangeCode trades an authorization code for tokens. Invoked only from
// the setup flow; persistence follows the same rotation rule as refresh.
func (s *tokenService) ExchangeCode(ctx context.Context, provider domain.Provider, code, redirectURI string) (*domain.TokenPayload, error) {
	client, ok := s.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no oauth client for %s", domain.ErrInvalidInput, provider)
	}

	payload, err := client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, provider, "", payload); err != nil {
		return nil, err
	}

	s.logger.Info("authorization code exchanged", "provider", provider)
	return payload, nil
}

// AuthorizeURL builds the provider authorization URL for the setup flow.
func (s *tokenService) AuthorizeURL(provider domain.Provider, redirectURI, state string) (string, error) {
	client, ok := s.clients[provider]
	if !ok {
		return "", fmt.Errorf("%w: no oauth client for %s", domain.ErrInvalidInput, provider)
	}
	return client.BuildAuthURL(redirectURI, state), nil
}

// Reset replaces or deletes the stored credential.
func (s *tokenService) Reset(ctx context.Context, provider domain.Provider, newRefreshToken string) error {
	if err := s.store.Reset(ctx, provider, newRefreshToken); err != nil {
		return fmt.Errorf("reset credential: %w", err)
	}
	if newRefreshToken == "" {
		s.logger.Info("credential deleted", "provider", provider)
	} else {
		s.logger.Info("refresh token replaced", "provider", provider)
	}
	return nil
}

// Summaries returns the status view of every stored credential.
func (s *tokenService) Summaries(ctx context.Context) ([]*domain.CredentialSummary, error) {
	var out []*domain.CredentialSummary
	for _, provider := range domain.AllProviders() {
		cred, err := s.store.Get(ctx, provider)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		out = append(out, cred.Summary())
	}
	return out, nil
}

// persist writes a token payload back to the store. The refresh token is
// replaced only when the provider returned a new one; nil fields are left
// for the store's merge to preserve.
func (s *tokenService) persist(ctx context.Context, provider domain.Provider, usedRefreshToken string, payload *domain.TokenPayload) error {
	cred := &domain.Credential{
		Provider:     provider,
		AccessToken:  domain.String(payload.AccessToken),
		AccessExpiry: payload.Expiry(s.now()),
	}
	switch {
	case payload.RefreshToken != "":
		cred.RefreshToken = domain.String(payload.RefreshToken)
	case usedRefreshToken != "":
		// The provider kept the old token; persist it so a fallback
		// token from the environment ends up stored too.
		cred.RefreshToken = domain.String(usedRefreshToken)
	}

	if err := s.store.Put(ctx, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}
