package driven

import (
	"context"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// RecordStream is a lazy, finite, one-shot sequence of record pages.
// Each page is fetched when Next is called, so a caller that stops early
// issues no further requests. Next returns domain.ErrEndOfStream once the
// sequence is exhausted, or *domain.FetchError when the provider rejects a
// page request. A stream is not restartable.
type RecordStream interface {
	Next(ctx context.Context) ([]domain.RawRecord, error)
}

// ResourceFetcher retrieves the full set of a provider's resources matching
// a filter window, hiding the provider's pagination scheme.
type ResourceFetcher interface {
	Fetch(ctx context.Context, accessToken string, filter domain.FetchFilter) (RecordStream, error)
}
