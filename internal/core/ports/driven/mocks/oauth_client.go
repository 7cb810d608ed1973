package mocks

import (
	"context"
	"sync"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// MockOAuthClient is a scriptable OAuthClient for testing. It counts every
// network-shaped call so token cache tests can assert zero or one refresh.
type MockOAuthClient struct {
	mu sync.Mutex

	RefreshPayload  *domain.TokenPayload
	RefreshErr      error
	ExchangePayload *domain.TokenPayload
	ExchangeErr     error
	AuthURL         string

	RefreshCalls   int
	ExchangeCalls  int
	LastRefreshTok string
}

// NewMockOAuthClient creates a new MockOAuthClient.
func NewMockOAuthClient() *MockOAuthClient {
	return &MockOAuthClient{AuthURL: "https://example.test/authorize"}
}

func (m *MockOAuthClient) BuildAuthURL(redirectURI, state string) string {
	return m.AuthURL
}

func (m *MockOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExchangeCalls++
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.ExchangePayload, nil
}

func (m *MockOAuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	m.LastRefreshTok = refreshToken
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.RefreshPayload, nil
}
