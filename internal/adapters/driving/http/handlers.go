package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness, including database reachability.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// OAuth setup flow

// handleAuthorizeURL returns the provider authorization URL to open in a
// browser. redirect_uri defaults to this server's callback route.
func (s *Server) handleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	provider, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = s.callbackURI(provider)
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "setup1"
	}

	authURL, err := s.tokenService.AuthorizeURL(provider, redirectURI, state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build authorize url")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"authorize_url": authURL,
		"redirect_uri":  redirectURI,
	})
}

// handleOAuthCallback receives the provider redirect and completes the code
// exchange. The redirect URI sent during exchange must match the one used
// to build the authorization URL.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, "authorization denied: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	if _, err := s.tokenService.ExchangeCode(r.Context(), provider, code, s.callbackURI(provider)); err != nil {
		var credErr *domain.CredentialError
		if errors.As(err, &credErr) {
			writeError(w, http.StatusBadGateway, credErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "code exchange failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "authorized",
		"provider": string(provider),
	})
}

type exchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// handleExchangeCode exchanges a manually pasted authorization code, for
// setups where the provider redirect cannot reach this server.
func (s *Server) handleExchangeCode(w http.ResponseWriter, r *http.Request) {
	provider, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.RedirectURI == "" {
		req.RedirectURI = s.callbackURI(provider)
	}

	if _, err := s.tokenService.ExchangeCode(r.Context(), provider, req.Code, req.RedirectURI); err != nil {
		var credErr *domain.CredentialError
		if errors.As(err, &credErr) {
			writeError(w, http.StatusBadGateway, credErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "code exchange failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "authorized",
		"provider": string(provider),
	})
}

type resetRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleResetCredential replaces the stored refresh token, or deletes the
// credential when no token is supplied.
func (s *Server) handleResetCredential(w http.ResponseWriter, r *http.Request) {
	provider, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	var req resetRequest
	if r.Body != nil {
		// An empty body means delete.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.tokenService.Reset(r.Context(), provider, req.RefreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	status := "deleted"
	if req.RefreshToken != "" {
		status = "replaced"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"provider": string(provider),
	})
}

// Sync endpoints

type syncRequest struct {
	LookbackDays int      `json:"lookback_days"`
	ProjectIDs   []string `json:"project_ids"`
	SkipStrava   bool     `json:"skip_strava"`
	SkipTickTick bool     `json:"skip_ticktick"`
}

// handleTriggerSync runs one sync cycle inline and returns the aggregated
// result. A run already in flight yields 409.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.Body != nil {
		// An empty body means default configuration.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := s.syncService.RunSync(r.Context(), domain.SyncConfig{
		LookbackDays: req.LookbackDays,
		ProjectIDs:   req.ProjectIDs,
		SkipStrava:   req.SkipStrava,
		SkipTickTick: req.SkipTickTick,
	})
	if errors.Is(err, domain.ErrSyncInProgress) {
		writeError(w, http.StatusConflict, "sync already in progress")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sync failed to start")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// statusResponse is the operator status view.
type statusResponse struct {
	LastSync    *domain.OverallResult       `json:"last_sync"`
	Credentials []*domain.CredentialSummary `json:"credentials"`
}

// handleStatus reports the last sync outcome and credential state. Reading
// status never mutates credentials.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.tokenService.Summaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load credentials")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		LastSync:    s.syncService.LastResult(),
		Credentials: summaries,
	})
}

// Daily metrics endpoints

type metricRequest struct {
	Day        string   `json:"day"`
	CalorieIn  *int64   `json:"calorie_in"`
	CalorieOut *int64   `json:"calorie_out"`
	ProteinG   *int64   `json:"protein_g"`
	WeightKg   *float64 `json:"weight_kg"`
	Notes      *string  `json:"notes"`
}

// handleUpsertMetric merges one day's manually tracked metrics. Omitted
// fields leave stored values untouched.
func (s *Server) handleUpsertMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := domain.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	merged, err := s.metrics.Upsert(r.Context(), &domain.DailyMetric{
		Day:        day,
		CalorieIn:  req.CalorieIn,
		CalorieOut: req.CalorieOut,
		ProteinG:   req.ProteinG,
		WeightKg:   req.WeightKg,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save metrics")
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

// handleListMetrics lists metrics within an optional day range.
func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = &d
	}
	if v := r.URL.Query().Get("end"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		end = &d
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	metrics, err := s.metrics.List(r.Context(), start, end, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list metrics")
		return
	}
	if metrics == nil {
		metrics = []*domain.DailyMetric{}
	}

	writeJSON(w, http.StatusOK, metrics)
}

// callbackURI builds the default OAuth redirect URI for a provider.
func (s *Server) callbackURI(provider domain.Provider) string {
	return s.baseURL + "/oauth/" + string(provider) + "/callback"
}

// Response helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
