package ticktick

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

func TestBuildAuthURL(t *testing.T) {
	c := NewOAuthClient(OAuthClientConfig{ClientID: "cid"})

	raw := c.BuildAuthURL("http://localhost:8080/cb", "state1")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}

	q := u.Query()
	if q.Get("scope") != "tasks:read tasks:write" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
}

func TestRefreshUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		// Credentials must not leak into the body.
		if r.PostForm.Get("client_id") != "" || r.PostForm.Get("client_secret") != "" {
			t.Error("client credentials found in form body")
		}
		if r.PostForm.Get("scope") != "tasks:read tasks:write" {
			t.Errorf("scope = %q", r.PostForm.Get("scope"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at1",
			"expires_in":   15552000,
		})
	}))
	defer srv.Close()

	c := NewOAuthClient(OAuthClientConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
	})

	payload, err := c.Refresh(context.Background(), "rt1")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if payload.AccessToken != "at1" || payload.ExpiresIn != 15552000 {
		t.Errorf("payload = %+v", payload)
	}
	// TickTick reports relative expiry only.
	if payload.ExpiresAt != 0 {
		t.Errorf("ExpiresAt = %d, want 0", payload.ExpiresAt)
	}
}

func TestRefreshRejectionYieldsCredentialError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOAuthClient(OAuthClientConfig{TokenURL: srv.URL})

	_, err := c.Refresh(context.Background(), "rt1")
	var credErr *domain.CredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("error = %v, want CredentialError", err)
	}
	if credErr.Provider != domain.ProviderTickTick || credErr.StatusCode != 401 {
		t.Errorf("credErr = %+v", credErr)
	}
}
