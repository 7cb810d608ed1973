package ticktick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
)

const (
	defaultBaseURL = "https://api.ticktick.com/open/v1"

	// projectDelay is the pause between per-project requests.
	projectDelay = 100 * time.Millisecond
)

// Ensure Fetcher implements the interface.
var _ driven.ResourceFetcher = (*Fetcher)(nil)

// Fetcher retrieves TickTick tasks. TickTick has no task pagination; instead
// the project roster is enumerated and each project's tasks are fetched in
// one request, so each stream page is one project's tasks.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// FetcherConfig holds configuration for the TickTick task fetcher.
type FetcherConfig struct {
	// BaseURL overrides the TickTick API base in tests.
	BaseURL string

	HTTPClient *http.Client
}

// NewFetcher creates a new TickTick task fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Fetch returns a lazy stream over the user's tasks, one project per page.
// When the filter names specific project ids the roster request is skipped
// and only those projects are visited.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string, filter domain.FetchFilter) (driven.RecordStream, error) {
	return &taskStream{
		fetcher:  f,
		token:    accessToken,
		projects: filter.ProjectIDs,
		started:  len(filter.ProjectIDs) > 0,
	}, nil
}

// taskStream visits one project per Next call. The roster is resolved
// lazily on the first call; one-shot like every record stream.
type taskStream struct {
	fetcher  *Fetcher
	token    string
	projects []string
	started  bool
	index    int
}

func (s *taskStream) Next(ctx context.Context) ([]domain.RawRecord, error) {
	if !s.started {
		ids, err := s.fetcher.listProjectIDs(ctx, s.token)
		if err != nil {
			return nil, err
		}
		s.projects = ids
		s.started = true
	}

	if s.index >= len(s.projects) {
		return nil, domain.ErrEndOfStream
	}

	if s.index > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(projectDelay):
		}
	}

	projectID := s.projects[s.index]
	s.index++

	tasks, err := s.fetcher.fetchProjectTasks(ctx, s.token, projectID)
	if err != nil {
		s.index = len(s.projects)
		return nil, err
	}

	return tasks, nil
}

// listProjectIDs fetches the project roster.
func (f *Fetcher) listProjectIDs(ctx context.Context, token string) ([]string, error) {
	body, err := f.get(ctx, token, f.baseURL+"/project")
	if err != nil {
		return nil, err
	}

	var projects []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("decode project list: %w", err)
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// fetchProjectTasks fetches one project's tasks, unwrapping whichever of
// the three response shapes TickTick returns: a bare task array, an object
// with a tasks field, or an object nesting tasks under syncTaskBean.
// Anything else means zero tasks, not an error.
func (f *Fetcher) fetchProjectTasks(ctx context.Context, token, projectID string) ([]domain.RawRecord, error) {
	body, err := f.get(ctx, token, f.baseURL+"/project/"+projectID+"/data")
	if err != nil {
		return nil, err
	}

	var bare []domain.RawRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Tasks        []domain.RawRecord `json:"tasks"`
		SyncTaskBean struct {
			Tasks []domain.RawRecord `json:"tasks"`
		} `json:"syncTaskBean"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode project %s data: %w", projectID, err)
	}
	if wrapped.Tasks != nil {
		return wrapped.Tasks, nil
	}
	return wrapped.SyncTaskBean.Tasks, nil
}

func (f *Fetcher) get(ctx context.Context, token, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
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
			Provider:   domain.ProviderTickTick,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}
