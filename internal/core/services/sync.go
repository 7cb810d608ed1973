package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driving"
)

// Ensure SyncOrchestrator implements SyncService
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// defaultLookbackDays bounds the Strava window when the caller gives none.
const defaultLookbackDays = 30

// SyncOrchestrator coordinates one sync cycle per provider:
// ensure access token -> fetch all pages -> merge into storage.
// One provider's failure never blocks the other's attempt; every error
// raised below is converted into that provider's SyncResult.
type SyncOrchestrator struct {
	tokens     driving.TokenService
	fetchers   map[domain.Provider]driven.ResourceFetcher
	activities driven.ActivityStore
	tasks      driven.TaskStore
	logger     *slog.Logger
	now        func() time.Time

	// inFlight enforces cooperative single-flight: a run must not start
	// while a prior run is still going.
	inFlight sync.Mutex

	mu   sync.RWMutex
	last *domain.OverallResult
}

// SyncOrchestratorConfig holds dependencies for SyncOrchestrator.
type SyncOrchestratorConfig struct {
	Tokens     driving.TokenService
	Fetchers   map[domain.Provider]driven.ResourceFetcher
	Activities driven.ActivityStore
	Tasks      driven.TaskStore
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(cfg SyncOrchestratorConfig) *SyncOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SyncOrchestrator{
		tokens:     cfg.Tokens,
		fetchers:   cfg.Fetchers,
		activities: cfg.Activities,
		tasks:      cfg.Tasks,
		logger:     logger,
		now:        now,
	}
}

// RunSync executes one sync cycle over every enabled provider.
// Returns domain.ErrSyncInProgress when a prior run is still in flight.
func (o *SyncOrchestrator) RunSync(ctx context.Context, cfg domain.SyncConfig) (*domain.OverallResult, error) {
	if !o.inFlight.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer o.inFlight.Unlock()

	runID := uuid.NewString()
	started := o.now()
	o.logger.Info("sync run starting", "run_id", runID)

	results := make(map[domain.Provider]*domain.SyncResult)
	skipped := 0
	for _, provider := range domain.AllProviders() {
		if !cfg.Enabled(provider) {
			o.logger.Info("provider skipped", "run_id", runID, "provider", provider)
			skipped++
			continue
		}
		results[provider] = o.syncProvider(ctx, runID, provider, cfg)
	}

	overall := &domain.OverallResult{
		RunID:      runID,
		Status:     domain.Aggregate(results, skipped),
		Results:    results,
		StartedAt:  started,
		FinishedAt: o.now(),
	}

	o.mu.Lock()
	o.last = overall
	o.mu.Unlock()

	o.logger.Info("sync run finished",
		"run_id", runID,
		"status", overall.Status,
		"duration_seconds", overall.FinishedAt.Sub(started).Seconds(),
	)

	return overall, nil
}

// LastResult returns the most recent run outcome, or nil before any run.
func (o *SyncOrchestrator) LastResult() *domain.OverallResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// syncProvider runs the strictly sequential refresh -> fetch -> merge
// pipeline for one provider. This is the isolation boundary: every error
// becomes a SyncResult instead of propagating.
func (o *SyncOrchestrator) syncProvider(ctx context.Context, runID string, provider domain.Provider, cfg domain.SyncConfig) *domain.SyncResult {
	result := &domain.SyncResult{
		Provider: provider,
		Status:   domain.SyncStatusSuccess,
		Errors:   []string{},
	}

	fail := func(err error) *domain.SyncResult {
		o.logger.Error("provider sync failed", "run_id", runID, "provider", provider, "error", err)
		result.Status = domain.SyncStatusError
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	o.logger.Info("provider sync starting", "run_id", runID, "provider", provider)

	token, err := o.tokens.EnsureAccessToken(ctx, provider)
	if err != nil {
		return fail(err)
	}

	fetcher, ok := o.fetchers[provider]
	if !ok {
		return fail(errors.New("no fetcher configured"))
	}

	stream, err := fetcher.Fetch(ctx, token, o.filter(provider, cfg))
	if err != nil {
		return fail(err)
	}

	// Merge happens only after the stream is fully consumed, so a fetch
	// failure discards the partial result rather than committing it.
	var records []domain.RawRecord
	for {
		page, err := stream.Next(ctx)
		if errors.Is(err, domain.ErrEndOfStream) {
			break
		}
		if err != nil {
			return fail(err)
		}
		records = append(records, page...)
	}

	count, err := o.merge(ctx, provider, records)
	if err != nil {
		return fail(&domain.MergeError{Provider: provider, Err: err})
	}
	result.ItemsSynced = count

	o.logger.Info("provider sync completed",
		"run_id", runID,
		"provider", provider,
		"items_synced", count,
	)

	return result
}

// filter builds the provider fetch window from the run configuration.
func (o *SyncOrchestrator) filter(provider domain.Provider, cfg domain.SyncConfig) domain.FetchFilter {
	switch provider {
	case domain.ProviderStrava:
		days := cfg.LookbackDays
		if days <= 0 {
			days = defaultLookbackDays
		}
		after := o.now().AddDate(0, 0, -days)
		return domain.FetchFilter{After: &after}
	case domain.ProviderTickTick:
		return domain.FetchFilter{ProjectIDs: cfg.ProjectIDs}
	}
	return domain.FetchFilter{}
}

func (o *SyncOrchestrator) merge(ctx context.Context, provider domain.Provider, records []domain.RawRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	switch provider {
	case domain.ProviderStrava:
		return o.activities.UpsertActivities(ctx, records)
	case domain.ProviderTickTick:
		return o.tasks.UpsertTasks(ctx, records)
	}
	return 0, nil
}
