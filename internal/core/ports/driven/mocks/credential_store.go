package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// MockCredentialStore is an in-memory CredentialStore for testing.
// It mirrors the merge-on-conflict semantics of the real store: nil fields
// on Put never null out what is already stored.
type MockCredentialStore struct {
	mu    sync.RWMutex
	creds map[domain.Provider]*domain.Credential

	PutErr error
	GetErr error
}

// NewMockCredentialStore creates a new MockCredentialStore.
func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{
		creds: make(map[domain.Provider]*domain.Credential),
	}
}

func (m *MockCredentialStore) Get(ctx context.Context, provider domain.Provider) (*domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cred, ok := m.creds[provider]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cred
	return &cp, nil
}

func (m *MockCredentialStore) Put(ctx context.Context, cred *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}

	merged := *cred
	if existing, ok := m.creds[cred.Provider]; ok {
		if merged.RefreshToken == nil {
			merged.RefreshToken = existing.RefreshToken
		}
		if merged.AccessToken == nil {
			merged.AccessToken = existing.AccessToken
		}
		if merged.AccessExpiry == nil {
			merged.AccessExpiry = existing.AccessExpiry
		}
	}
	merged.UpdatedAt = time.Now()
	m.creds[cred.Provider] = &merged
	return nil
}

func (m *MockCredentialStore) Reset(ctx context.Context, provider domain.Provider, newRefreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if newRefreshToken == "" {
		delete(m.creds, provider)
		return nil
	}
	m.creds[provider] = &domain.Credential{
		Provider:     provider,
		RefreshToken: domain.String(newRefreshToken),
		UpdatedAt:    time.Now(),
	}
	return nil
}

// Seed stores a credential directly, bypassing merge semantics.
func (m *MockCredentialStore) Seed(cred *domain.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.Provider] = cred
}

// Stored returns the credential currently held for a provider, or nil.
func (m *MockCredentialStore) Stored(provider domain.Provider) *domain.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds[provider]
}
