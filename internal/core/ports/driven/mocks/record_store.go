package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// MockActivityStore records upserted activity batches in memory.
type MockActivityStore struct {
	mu        sync.Mutex
	Batches   [][]domain.RawRecord
	UpsertErr error
}

// NewMockActivityStore creates a new MockActivityStore.
func NewMockActivityStore() *MockActivityStore {
	return &MockActivityStore{}
}

func (m *MockActivityStore) UpsertActivities(ctx context.Context, records []domain.RawRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return 0, m.UpsertErr
	}
	m.Batches = append(m.Batches, records)
	return len(records), nil
}

// Total returns the total number of records upserted across batches.
func (m *MockActivityStore) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.Batches {
		n += len(b)
	}
	return n
}

// MockTaskStore records upserted task batches in memory.
type MockTaskStore struct {
	mu        sync.Mutex
	Batches   [][]domain.RawRecord
	UpsertErr error
}

// NewMockTaskStore creates a new MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{}
}

func (m *MockTaskStore) UpsertTasks(ctx context.Context, records []domain.RawRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return 0, m.UpsertErr
	}
	m.Batches = append(m.Batches, records)
	return len(records), nil
}

// Total returns the total number of records upserted across batches.
func (m *MockTaskStore) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.Batches {
		n += len(b)
	}
	return n
}

// MockMetricsStore is an in-memory MetricsStore keyed by day.
type MockMetricsStore struct {
	mu      sync.RWMutex
	metrics map[string]*domain.DailyMetric
}

// NewMockMetricsStore creates a new MockMetricsStore.
func NewMockMetricsStore() *MockMetricsStore {
	return &MockMetricsStore{metrics: make(map[string]*domain.DailyMetric)}
}

func (m *MockMetricsStore) Upsert(ctx context.Context, in *domain.DailyMetric) (*domain.DailyMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := in.Day.Format("2006-01-02")
	merged := *in
	if existing, ok := m.metrics[key]; ok {
		if merged.CalorieIn == nil {
			merged.CalorieIn = existing.CalorieIn
		}
		if merged.CalorieOut == nil {
			merged.CalorieOut = existing.CalorieOut
		}
		if merged.ProteinG == nil {
			merged.ProteinG = existing.ProteinG
		}
		if merged.WeightKg == nil {
			merged.WeightKg = existing.WeightKg
		}
		if merged.Notes == nil {
			merged.Notes = existing.Notes
		}
		merged.CreatedAt = existing.CreatedAt
	} else {
		merged.CreatedAt = time.Now()
	}
	merged.UpdatedAt = time.Now()
	m.metrics[key] = &merged
	cp := merged
	return &cp, nil
}

func (m *MockMetricsStore) List(ctx context.Context, start, end *time.Time, limit int) ([]*domain.DailyMetric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.DailyMetric
	for _, v := range m.metrics {
		if start != nil && v.Day.Before(*start) {
			continue
		}
		if end != nil && v.Day.After(*end) {
			continue
		}
		cp := *v
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
