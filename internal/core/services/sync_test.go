package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven/mocks"
)

// stubTokenService hands out fixed access tokens per provider.
type stubTokenService struct {
	tokens map[domain.Provider]string
	errs   map[domain.Provider]error

	mu      sync.Mutex
	release chan struct{} // when set, EnsureAccessToken blocks until closed
}

func (s *stubTokenService) EnsureAccessToken(ctx context.Context, p domain.Provider) (string, error) {
	s.mu.Lock()
	release := s.release
	s.mu.Unlock()
	if release != nil {
		<-release
	}
	if err := s.errs[p]; err != nil {
		return "", err
	}
	return s.tokens[p], nil
}

func (s *stubTokenService) AuthorizeURL(domain.Provider, string, string) (string, error) {
	return "", nil
}

func (s *stubTokenService) ExchangeCode(context.Context, domain.Provider, string, string) (*domain.TokenPayload, error) {
	return nil, nil
}

func (s *stubTokenService) Reset(context.Context, domain.Provider, string) error {
	return nil
}

func (s *stubTokenService) Summaries(context.Context) ([]*domain.CredentialSummary, error) {
	return nil, nil
}

func record(id string) domain.RawRecord {
	return domain.RawRecord(`{"id": "` + id + `"}`)
}

func newOrchestrator(tokens *stubTokenService, stravaFetch, ticktickFetch driven.ResourceFetcher, activities *mocks.MockActivityStore, tasks *mocks.MockTaskStore) *SyncOrchestrator {
	return NewSyncOrchestrator(SyncOrchestratorConfig{
		Tokens: tokens,
		Fetchers: map[domain.Provider]driven.ResourceFetcher{
			domain.ProviderStrava:   stravaFetch,
			domain.ProviderTickTick: ticktickFetch,
		},
		Activities: activities,
		Tasks:      tasks,
		Now:        func() time.Time { return testNow },
	})
}

func TestRunSyncSuccess(t *testing.T) {
	tokens := &stubTokenService{tokens: map[domain.Provider]string{
		domain.ProviderStrava:   "s-tok",
		domain.ProviderTickTick: "t-tok",
	}}
	stravaFetch := mocks.NewMockFetcher(
		[]domain.RawRecord{record("a1"), record("a2")},
		[]domain.RawRecord{record("a3")},
	)
	ticktickFetch := mocks.NewMockFetcher([]domain.RawRecord{record("t1")})
	activities := mocks.NewMockActivityStore()
	tasks := mocks.NewMockTaskStore()

	o := newOrchestrator(tokens, stravaFetch, ticktickFetch, activities, tasks)

	result, err := o.RunSync(context.Background(), domain.SyncConfig{})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}

	if result.Status != domain.OverallSuccess {
		t.Errorf("status = %v, want success", result.Status)
	}
	if got := result.Results[domain.ProviderStrava].ItemsSynced; got != 3 {
		t.Errorf("strava items = %d, want 3", got)
	}
	if got := result.Results[domain.ProviderTickTick].ItemsSynced; got != 1 {
		t.Errorf("ticktick items = %d, want 1", got)
	}
	if result.RunID == "" {
		t.Error("run id missing")
	}

	// All pages land in one merge batch.
	if len(activities.Batches) != 1 || activities.Total() != 3 {
		t.Errorf("activity batches = %d (total %d), want 1 batch of 3", len(activities.Batches), activities.Total())
	}
	if stravaFetch.LastToken != "s-tok" {
		t.Errorf("strava fetch token = %q", stravaFetch.LastToken)
	}
	if stravaFetch.LastFilter.After == nil {
		t.Error("strava fetch filter missing lookback window")
	}
}

func TestRunSyncProviderIsolation(t *testing.T) {
	tokens := &stubTokenService{
		tokens: map[domain.Provider]string{domain.ProviderTickTick: "t-tok"},
		errs: map[domain.Provider]error{
			domain.ProviderStrava: &domain.CredentialError{Provider: domain.ProviderStrava, StatusCode: 401, Body: "nope"},
		},
	}
	stravaFetch := mocks.NewMockFetcher()
	ticktickFetch := mocks.NewMockFetcher([]domain.RawRecord{record("t1")})
	activities := mocks.NewMockActivityStore()
	tasks := mocks.NewMockTaskStore()

	o := newOrchestrator(tokens, stravaFetch, ticktickFetch, activities, tasks)

	result, err := o.RunSync(context.Background(), domain.SyncConfig{})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}

	if result.Status != domain.OverallPartialFailure {
		t.Errorf("status = %v, want partial_failure", result.Status)
	}
	if !result.Results[domain.ProviderStrava].Failed() {
		t.Error("strava result should be failed")
	}
	if len(result.Results[domain.ProviderStrava].Errors) == 0 {
		t.Error("strava errors missing")
	}
	if result.Results[domain.ProviderTickTick].ItemsSynced != 1 {
		t.Error("ticktick should still have synced")
	}
	if stravaFetch.FetchCalls != 0 {
		t.Error("strava fetch attempted despite credential failure")
	}
}

func TestRunSyncFetchFailureDiscardsPartialPages(t *testing.T) {
	tokens := &stubTokenService{tokens: map[domain.Provider]string{
		domain.ProviderStrava:   "s-tok",
		domain.ProviderTickTick: "t-tok",
	}}
	stravaFetch := mocks.NewMockFetcher(
		[]domain.RawRecord{record("a1")},
		[]domain.RawRecord{record("a2")},
	)
	stravaFetch.PageErr = &domain.FetchError{Provider: domain.ProviderStrava, StatusCode: 500, Body: "boom"}
	stravaFetch.PageErrAt = 1
	ticktickFetch := mocks.NewMockFetcher()
	activities := mocks.NewMockActivityStore()
	tasks := mocks.NewMockTaskStore()

	o := newOrchestrator(tokens, stravaFetch, ticktickFetch, activities, tasks)

	result, err := o.RunSync(context.Background(), domain.SyncConfig{})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}

	if !result.Results[domain.ProviderStrava].Failed() {
		t.Error("strava result should be failed")
	}
	if activities.Total() != 0 {
		t.Errorf("activities merged = %d, want 0 (partial fetch discarded)", activities.Total())
	}
}

func TestRunSyncAllFail(t *testing.T) {
	tokens := &stubTokenService{errs: map[domain.Provider]error{
		domain.ProviderStrava:   domain.ErrMissingCredential,
		domain.ProviderTickTick: domain.ErrMissingCredential,
	}}
	o := newOrchestrator(tokens, mocks.NewMockFetcher(), mocks.NewMockFetcher(),
		mocks.NewMockActivityStore(), mocks.NewMockTaskStore())

	result, err := o.RunSync(context.Background(), domain.SyncConfig{})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}
	if result.Status != domain.OverallFailure {
		t.Errorf("status = %v, want failure", result.Status)
	}
}

func TestRunSyncSkipSemantics(t *testing.T) {
	tokens := &stubTokenService{errs: map[domain.Provider]error{
		domain.ProviderTickTick: domain.ErrMissingCredential,
	}}
	o := newOrchestrator(tokens, mocks.NewMockFetcher(), mocks.NewMockFetcher(),
		mocks.NewMockActivityStore(), mocks.NewMockTaskStore())

	// Strava skipped, TickTick fails: a skip is not a failure, so the run
	// is partial, not total.
	result, err := o.RunSync(context.Background(), domain.SyncConfig{SkipStrava: true})
	if err != nil {
		t.Fatalf("RunSync() error = %v", err)
	}
	if result.Status != domain.OverallPartialFailure {
		t.Errorf("status = %v, want partial_failure", result.Status)
	}
	if _, ok := result.Results[domain.ProviderStrava]; ok {
		t.Error("skipped provider should not appear in results")
	}
}

func TestRunSyncSingleFlight(t *testing.T) {
	release := make(chan struct{})
	tokens := &stubTokenService{
		tokens:  map[domain.Provider]string{domain.ProviderStrava: "s-tok", domain.ProviderTickTick: "t-tok"},
		release: release,
	}
	o := newOrchestrator(tokens, mocks.NewMockFetcher(), mocks.NewMockFetcher(),
		mocks.NewMockActivityStore(), mocks.NewMockTaskStore())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := o.RunSync(context.Background(), domain.SyncConfig{}); err != nil {
			t.Errorf("first RunSync() error = %v", err)
		}
	}()

	// Wait until the first run holds the lock.
	deadline := time.After(2 * time.Second)
	for o.inFlight.TryLock() {
		o.inFlight.Unlock()
		select {
		case <-deadline:
			t.Fatal("first run never started")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := o.RunSync(context.Background(), domain.SyncConfig{})
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("second RunSync() error = %v, want ErrSyncInProgress", err)
	}

	close(release)
	<-done

	if o.LastResult() == nil {
		t.Error("LastResult() nil after completed run")
	}
}
