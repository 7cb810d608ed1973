package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

const (
	defaultActivitiesURL = "https://www.strava.com/api/v3/athlete/activities"

	// maxPerPage is Strava's hard cap on page size.
	maxPerPage = 200

	// pageDelay is the pause between page requests, staying polite to the
	// rate limiter.
	pageDelay = 100 * time.Millisecond
)

// Ensure Fetcher implements the interface.
var _ driven.ResourceFetcher = (*Fetcher)(nil)

// Fetcher retrieves Strava activities through page-cursor pagination:
// fixed-size pages with an incrementing page number, terminated by the
// first empty page.
type Fetcher struct {
	activitiesURL string
	perPage       int
	httpClient    *http.Client
}

// FetcherConfig holds configuration for the Strava activity fetcher.
type FetcherConfig struct {
	// ActivitiesURL overrides the Strava endpoint in tests.
	ActivitiesURL string

	// PerPage is the page size, clamped to Strava's maximum of 200.
	PerPage int

	HTTPClient *http.Client
}

// NewFetcher creates a new Strava activity fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	activitiesURL := cfg.ActivitiesURL
	if activitiesURL == "" {
		activitiesURL = defaultActivitiesURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{
		activitiesURL: activitiesURL,
		perPage:       perPage,
		httpClient:    httpClient,
	}
}

// Fetch returns a lazy stream over the athlete's activities. No request is
// issued until the first Next call.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string, filter domain.FetchFilter) (driven.RecordStream, error) {
	return &activityStream{
		fetcher: f,
		token:   accessToken,
		after:   filter.After,
		page:    1,
	}, nil
}

// activityStream walks Strava's pages one Next call at a time. One-shot:
// once done it keeps reporting end of stream.
type activityStream struct {
	fetcher *Fetcher
	token   string
	after   *time.Time
	page    int
	done    bool
}

func (s *activityStream) Next(ctx context.Context) ([]domain.RawRecord, error) {
	if s.done {
		return nil, domain.ErrEndOfStream
	}

	if s.page > 1 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pageDelay):
		}
	}

	batch, err := s.fetcher.fetchPage(ctx, s.token, s.after, s.page)
	if err != nil {
		s.done = true
		return nil, err
	}
	if len(batch) == 0 {
		s.done = true
		return nil, domain.ErrEndOfStream
	}

	s.page++
	return batch, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, token string, after *time.Time, page int) ([]domain.RawRecord, error) {
	params := url.Values{
		"per_page": {strconv.Itoa(f.perPage)},
		"page":     {strconv.Itoa(page)},
	}
	if after != nil {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		f.activitiesURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &domain.FetchError{
			Provider:   domain.ProviderStrava,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var batch []domain.RawRecord
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("decode activities page %d: %w", page, err)
	}

	return batch, nil
}
