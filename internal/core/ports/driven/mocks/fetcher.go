package mocks

import (
	"context"
	"sync"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

// MockFetcher is a scriptable ResourceFetcher yielding fixed pages.
type MockFetcher struct {
	mu sync.Mutex

	Pages    [][]domain.RawRecord
	FetchErr error

	// PageErr, when non-nil, is returned instead of page PageErrAt.
	PageErr   error
	PageErrAt int

	FetchCalls int
	LastToken  string
	LastFilter domain.FetchFilter
}

// NewMockFetcher creates a new MockFetcher.
func NewMockFetcher(pages ...[]domain.RawRecord) *MockFetcher {
	return &MockFetcher{Pages: pages}
}

func (m *MockFetcher) Fetch(ctx context.Context, accessToken string, filter domain.FetchFilter) (driven.RecordStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	m.LastToken = accessToken
	m.LastFilter = filter
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return &mockStream{fetcher: m}, nil
}

type mockStream struct {
	fetcher *MockFetcher
	next    int
}

func (s *mockStream) Next(ctx context.Context) ([]domain.RawRecord, error) {
	m := s.fetcher
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PageErr != nil && s.next == m.PageErrAt {
		return nil, m.PageErr
	}
	if s.next >= len(m.Pages) {
		return nil, domain.ErrEndOfStream
	}
	page := m.Pages[s.next]
	s.next++
	return page, nil
}
