package driving

import (
	"context"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// SyncService drives sync runs. All outer surfaces (CLI, HTTP, scheduler)
// go through this interface; errors below it never escape as panics or
// process exits, only as structured results.
type SyncService interface {
	// RunSync executes one sync cycle over every enabled provider and
	// returns the aggregated outcome. Per-provider failures are
	// contained in the result, never returned as an error; the error is
	// non-nil only when a run is refused outright (already in flight).
	RunSync(ctx context.Context, cfg domain.SyncConfig) (*domain.OverallResult, error)

	// LastResult returns the most recent run outcome, or nil before the
	// first run.
	LastResult() *domain.OverallResult
}
