// Package ticktick implements the TickTick OAuth client and task fetcher.
//
// TickTick authenticates token requests with HTTP Basic client credentials
// and reports token expiry as a relative duration (expires_in).
package ticktick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

const (
	defaultAuthURL  = "https://ticktick.com/oauth/authorize"
	defaultTokenURL = "https://ticktick.com/oauth/token"

	// defaultScope is sent on every token request; TickTick expects the
	// scope repeated on refresh, not just on the initial grant.
	defaultScope = "tasks:read tasks:write"
)

// Ensure OAuthClient implements the interface.
var _ driven.OAuthClient = (*OAuthClient)(nil)

// OAuthClient speaks TickTick's OAuth2 endpoints.
type OAuthClient struct {
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	httpClient   *http.Client
}

// OAuthClientConfig holds configuration for the TickTick OAuth client.
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string

	// AuthURL and TokenURL override the TickTick endpoints in tests.
	AuthURL  string
	TokenURL string

	HTTPClient *http.Client
}

// NewOAuthClient creates a new TickTick OAuth client.
func NewOAuthClient(cfg OAuthClientConfig) *OAuthClient {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuthClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authURL:      authURL,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
}

// BuildAuthURL constructs the TickTick authorization URL.
func (c *OAuthClient) BuildAuthURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {c.clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {defaultScope},
		"state":         {state},
	}
	return c.authURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenPayload, error) {
	params := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
		"scope":        {defaultScope},
	}
	return c.tokenRequest(ctx, params)
}

// Refresh obtains a new access token from a refresh token.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPayload, error) {
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {defaultScope},
	}
	return c.tokenRequest(ctx, params)
}

func (c *OAuthClient) tokenRequest(ctx context.Context, params url.Values) (*domain.TokenPayload, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Client credentials go in the Authorization header, not the body.
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &domain.CredentialError{
			Provider:   domain.ProviderTickTick,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var payload domain.TokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token", domain.ErrInvalidInput)
	}

	return &payload, nil
}
