package driven

import (
	"context"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// ActivityStore upserts fetched Strava activities. Re-running the same
// batch produces no duplicate rows; mutable fields are last-write-wins.
type ActivityStore interface {
	// UpsertActivities writes a batch of raw activity records and
	// returns the count of records processed.
	UpsertActivities(ctx context.Context, records []domain.RawRecord) (int, error)
}

// TaskStore upserts fetched TickTick tasks with the same idempotence and
// conflict rules as ActivityStore.
type TaskStore interface {
	UpsertTasks(ctx context.Context, records []domain.RawRecord) (int, error)
}

// MetricsStore persists manually tracked daily metrics. The upsert is a
// single static statement: absent optional fields are passed as NULL and
// merged with COALESCE, never assembled into dynamic SQL.
type MetricsStore interface {
	Upsert(ctx context.Context, m *domain.DailyMetric) (*domain.DailyMetric, error)
	List(ctx context.Context, start, end *time.Time, limit int) ([]*domain.DailyMetric, error)
}
