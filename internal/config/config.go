package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
)

// OAuthApp holds one provider's OAuth2 application credentials plus an
// optional refresh token used when none is stored yet.
type OAuthApp struct {
	ClientID             string
	ClientSecret         string
	FallbackRefreshToken string
}

// Configured reports whether the app credentials are present.
func (a OAuthApp) Configured() bool {
	return a.ClientID != "" && a.ClientSecret != ""
}

// Config is the process-wide configuration, loaded once at startup and
// passed explicitly into constructors. Nothing reads the environment after
// Load returns, so tests can build their own values.
type Config struct {
	DatabaseURL string

	Strava   OAuthApp
	TickTick OAuthApp

	// SyncInterval enables the periodic background sync when positive.
	SyncInterval time.Duration

	// Port is the setup/ops HTTP server listen port.
	Port int

	// BaseURL is the externally visible base URL used to build OAuth
	// redirect URIs when the caller does not supply one.
	BaseURL string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("missing env: DATABASE_URL")
	}

	cfg := &Config{
		DatabaseURL: databaseURL,
		Strava: OAuthApp{
			ClientID:             os.Getenv("STRAVA_CLIENT_ID"),
			ClientSecret:         os.Getenv("STRAVA_CLIENT_SECRET"),
			FallbackRefreshToken: os.Getenv("STRAVA_REFRESH_TOKEN"),
		},
		TickTick: OAuthApp{
			ClientID:             os.Getenv("TICKTICK_CLIENT_ID"),
			ClientSecret:         os.Getenv("TICKTICK_CLIENT_SECRET"),
			FallbackRefreshToken: os.Getenv("TICKTICK_REFRESH_TOKEN"),
		},
		Port:    envInt("PORT", 8080),
		BaseURL: envString("BASE_URL", "http://localhost:8080"),
	}

	if minutes := envInt("SYNC_INTERVAL_MINUTES", 0); minutes > 0 {
		cfg.SyncInterval = time.Duration(minutes) * time.Minute
	}

	return cfg, nil
}

// OAuth returns the app credentials for a provider.
func (c *Config) OAuth(p domain.Provider) OAuthApp {
	switch p {
	case domain.ProviderStrava:
		return c.Strava
	case domain.ProviderTickTick:
		return c.TickTick
	}
	return OAuthApp{}
}

func envString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
