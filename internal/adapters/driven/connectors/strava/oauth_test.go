package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
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
	if q.Get("client_id") != "cid" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("approval_prompt") != "force" {
		t.Errorf("approval_prompt = %q, want force", q.Get("approval_prompt"))
	}
	if q.Get("scope") != "read,activity:read_all" {
		t.Errorf("scope = %q, want comma-joined", q.Get("scope"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
}

func TestRefreshSendsFormCredentials(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at1",
			"refresh_token": "rt2",
			"expires_at":    1767225600,
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

	if gotForm.Get("client_id") != "cid" || gotForm.Get("client_secret") != "secret" {
		t.Error("client credentials missing from form body")
	}
	if gotForm.Get("grant_type") != "refresh_token" || gotForm.Get("refresh_token") != "rt1" {
		t.Errorf("form = %v", gotForm)
	}

	if payload.AccessToken != "at1" || payload.RefreshToken != "rt2" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.ExpiresAt != 1767225600 {
		t.Errorf("ExpiresAt = %d", payload.ExpiresAt)
	}
}

func TestRefreshRejectionYieldsCredentialError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOAuthClient(OAuthClientConfig{TokenURL: srv.URL})

	_, err := c.Refresh(context.Background(), "rt1")
	var credErr *domain.CredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("error = %v, want CredentialError", err)
	}
	if credErr.Provider != domain.ProviderStrava || credErr.StatusCode != 400 {
		t.Errorf("credErr = %+v", credErr)
	}
	if !strings.Contains(credErr.Body, "Bad Request") {
		t.Errorf("body = %q", credErr.Body)
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code") != "code1" {
			t.Errorf("code = %q", r.PostForm.Get("code"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at1",
			"refresh_token": "rt1",
		})
	}))
	defer srv.Close()

	c := NewOAuthClient(OAuthClientConfig{TokenURL: srv.URL})

	payload, err := c.ExchangeCode(context.Background(), "code1", "http://localhost/cb")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if payload.AccessToken != "at1" {
		t.Errorf("payload = %+v", payload)
	}
}
