package domain

import "time"

// SyncStatus is the outcome of one provider's sync.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// OverallStatus aggregates per-provider outcomes for a whole run.
type OverallStatus string

const (
	OverallSuccess        OverallStatus = "success"
	OverallPartialFailure OverallStatus = "partial_failure"
	OverallFailure        OverallStatus = "failure"
)

// ExitCode maps the overall status to the CLI exit code contract:
// 0 success, 2 partial_failure, 1 failure.
func (s OverallStatus) ExitCode() int {
	switch s {
	case OverallFailure:
		return 1
	case OverallPartialFailure:
		return 2
	default:
		return 0
	}
}

// SyncConfig selects what one sync run covers.
type SyncConfig struct {
	// LookbackDays bounds the Strava fetch window. Zero means the
	// default window.
	LookbackDays int

	// ProjectIDs limits the TickTick sync to specific projects.
	ProjectIDs []string

	SkipStrava   bool
	SkipTickTick bool
}

// Enabled reports whether the given provider participates in the run.
func (c SyncConfig) Enabled(p Provider) bool {
	switch p {
	case ProviderStrava:
		return !c.SkipStrava
	case ProviderTickTick:
		return !c.SkipTickTick
	}
	return false
}

// SyncResult is one provider's outcome for a single run.
type SyncResult struct {
	Provider    Provider   `json:"provider"`
	Status      SyncStatus `json:"status"`
	ItemsSynced int        `json:"items_synced"`
	Errors      []string   `json:"errors"`
}

// Failed reports whether this provider's sync errored.
func (r *SyncResult) Failed() bool {
	return r.Status == SyncStatusError
}

// OverallResult is the aggregated outcome of one sync run across all
// enabled providers. Skipped providers do not appear in Results.
type OverallResult struct {
	RunID      string                   `json:"run_id"`
	Status     OverallStatus            `json:"status"`
	Results    map[Provider]*SyncResult `json:"results"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Aggregate computes the overall status. Failure means every enabled
// provider failed; a provider skipped by configuration counts as a
// successful absence, so one failure alongside a skip is only partial.
func Aggregate(results map[Provider]*SyncResult, skipped int) OverallStatus {
	attempted, failed := 0, 0
	for _, r := range results {
		attempted++
		if r.Failed() {
			failed++
		}
	}
	switch {
	case attempted > 0 && failed == attempted && skipped == 0:
		return OverallFailure
	case failed > 0:
		return OverallPartialFailure
	default:
		return OverallSuccess
	}
}
