package ticktick

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

func collect(t *testing.T, f *Fetcher, token string, filter domain.FetchFilter) []domain.RawRecord {
	t.Helper()
	stream, err := f.Fetch(context.Background(), token, filter)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	var out []domain.RawRecord
	for {
		page, err := stream.Next(context.Background())
		if errors.Is(err, domain.ErrEndOfStream) {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, page...)
	}
}

func TestFetchEnumeratesProjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project":
			fmt.Fprint(w, `[{"id": "p1", "name": "Inbox"}, {"id": "p2", "name": "Work"}]`)
		case "/project/p1/data":
			fmt.Fprint(w, `{"tasks": [{"id": "t1"}, {"id": "t2"}]}`)
		case "/project/p2/data":
			fmt.Fprint(w, `{"tasks": [{"id": "t3"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	records := collect(t, f, "tok", domain.FetchFilter{})
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}
}

func TestFetchProjectRosterOverrideSkipsEnumeration(t *testing.T) {
	rosterCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project":
			rosterCalls++
			fmt.Fprint(w, `[]`)
		case "/project/only/data":
			fmt.Fprint(w, `{"tasks": [{"id": "t1"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	records := collect(t, f, "tok", domain.FetchFilter{ProjectIDs: []string{"only"}})
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
	if rosterCalls != 0 {
		t.Errorf("roster requests = %d, want 0", rosterCalls)
	}
}

func TestFetchUnwrapsResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id": "t1"}, {"id": "t2"}]`, 2},
		{"tasks field", `{"tasks": [{"id": "t1"}]}`, 1},
		{"syncTaskBean", `{"syncTaskBean": {"tasks": [{"id": "t1"}, {"id": "t2"}, {"id": "t3"}]}}`, 3},
		{"unknown shape", `{"something": "else"}`, 0},
		{"empty object", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			f := NewFetcher(FetcherConfig{BaseURL: srv.URL})
			records := collect(t, f, "tok", domain.FetchFilter{ProjectIDs: []string{"p1"}})
			if len(records) != tt.want {
				t.Errorf("records = %d, want %d", len(records), tt.want)
			}
		})
	}
}

func TestFetchRejectionYieldsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})

	stream, err := f.Fetch(context.Background(), "tok", domain.FetchFilter{ProjectIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	_, err = stream.Next(context.Background())
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if fetchErr.Provider != domain.ProviderTickTick || fetchErr.StatusCode != http.StatusForbidden {
		t.Errorf("fetchErr = %+v", fetchErr)
	}

	if _, err := stream.Next(context.Background()); !errors.Is(err, domain.ErrEndOfStream) {
		t.Errorf("Next() after failure = %v, want ErrEndOfStream", err)
	}
}
