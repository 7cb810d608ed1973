package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// stubSyncService counts RunSync invocations.
type stubSyncService struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSyncService) RunSync(ctx context.Context, cfg domain.SyncConfig) (*domain.OverallResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.OverallResult{RunID: "run", Status: domain.OverallSuccess}, nil
}

func (s *stubSyncService) LastResult() *domain.OverallResult { return nil }

func (s *stubSyncService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSchedulerRunsPeriodically(t *testing.T) {
	syncer := &stubSyncService{}
	s := NewScheduler(SchedulerConfig{
		Syncer:   syncer,
		Interval: 10 * time.Millisecond,
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for syncer.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ticked twice")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Stop()
	after := syncer.count()
	time.Sleep(30 * time.Millisecond)
	if syncer.count() != after {
		t.Error("scheduler kept ticking after Stop")
	}
}

func TestSchedulerSkipsWhenRunInFlight(t *testing.T) {
	syncer := &stubSyncService{err: domain.ErrSyncInProgress}
	s := NewScheduler(SchedulerConfig{
		Syncer:   syncer,
		Interval: 10 * time.Millisecond,
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	// A busy orchestrator must not crash or stall the loop.
	deadline := time.After(2 * time.Second)
	for syncer.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("scheduler stalled on in-flight run")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	syncer := &stubSyncService{}
	s := NewScheduler(SchedulerConfig{
		Syncer:   syncer,
		Interval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler loop did not exit on context cancel")
	}
}
