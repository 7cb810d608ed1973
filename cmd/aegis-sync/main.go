package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aegis-labs/aegis-sync/internal/adapters/driven/connectors/strava"
	"github.com/aegis-labs/aegis-sync/internal/adapters/driven/connectors/ticktick"
	"github.com/aegis-labs/aegis-sync/internal/adapters/driven/postgres"
	"github.com/aegis-labs/aegis-sync/internal/adapters/driving/http"
	"github.com/aegis-labs/aegis-sync/internal/config"
	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
	"github.com/aegis-labs/aegis-sync/internal/core/services"
)

var version = "dev"

func main() {
	var (
		stravaDays       = flag.Int("strava-days", 0, "Strava lookback window in days (0 = default)")
		ticktickProjects = flag.String("ticktick-projects", "", "comma-separated TickTick project ids (empty = all)")
		skipStrava       = flag.Bool("skip-strava", false, "skip the Strava sync")
		skipTickTick     = flag.Bool("skip-ticktick", false, "skip the TickTick sync")
		statusFile       = flag.String("status-file", "", "write the run result as JSON to this path")
		initDB           = flag.Bool("init-db", false, "initialize the schema and exit")
		verbose          = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// Mode is the first positional argument: "sync" (default) runs one
	// cycle and exits with the status code contract; "serve" runs the
	// setup/ops HTTP server plus the optional periodic sync.
	mode := flag.Arg(0)
	if mode == "" {
		mode = "sync"
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger.Info("aegis-sync starting", "version", version, "mode", mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if *initDB {
		logger.Info("schema initialized")
		return
	}

	// ===== PostgreSQL stores =====
	credentialStore := postgres.NewCredentialStore(db)
	activityStore := postgres.NewActivityStore(db)
	taskStore := postgres.NewTaskStore(db)
	metricsStore := postgres.NewMetricsStore(db)

	// ===== Provider connectors =====
	stravaOAuth := strava.NewOAuthClient(strava.OAuthClientConfig{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	})
	ticktickOAuth := ticktick.NewOAuthClient(ticktick.OAuthClientConfig{
		ClientID:     cfg.TickTick.ClientID,
		ClientSecret: cfg.TickTick.ClientSecret,
	})

	// ===== Services =====
	tokenService := services.NewTokenService(services.TokenServiceConfig{
		Store: credentialStore,
		Clients: map[domain.Provider]driven.OAuthClient{
			domain.ProviderStrava:   stravaOAuth,
			domain.ProviderTickTick: ticktickOAuth,
		},
		FallbackRefreshTokens: map[domain.Provider]string{
			domain.ProviderStrava:   cfg.Strava.FallbackRefreshToken,
			domain.ProviderTickTick: cfg.TickTick.FallbackRefreshToken,
		},
		Logger: logger,
	})

	orchestrator := services.NewSyncOrchestrator(services.SyncOrchestratorConfig{
		Tokens: tokenService,
		Fetchers: map[domain.Provider]driven.ResourceFetcher{
			domain.ProviderStrava:   strava.NewFetcher(strava.FetcherConfig{}),
			domain.ProviderTickTick: ticktick.NewFetcher(ticktick.FetcherConfig{}),
		},
		Activities: activityStore,
		Tasks:      taskStore,
		Logger:     logger,
	})

	syncCfg := domain.SyncConfig{
		LookbackDays: *stravaDays,
		ProjectIDs:   splitList(*ticktickProjects),
		SkipStrava:   *skipStrava,
		SkipTickTick: *skipTickTick,
	}

	switch mode {
	case "sync":
		result, err := orchestrator.RunSync(ctx, syncCfg)
		if err != nil {
			log.Fatalf("Sync failed to start: %v", err)
		}
		if *statusFile != "" {
			if err := writeStatusFile(*statusFile, result); err != nil {
				logger.Error("failed to write status file", "path", *statusFile, "error", err)
			}
		}
		os.Exit(result.Status.ExitCode())

	case "serve":
		var scheduler *services.Scheduler
		if cfg.SyncInterval > 0 {
			scheduler = services.NewScheduler(services.SchedulerConfig{
				Syncer:   orchestrator,
				SyncCfg:  syncCfg,
				Interval: cfg.SyncInterval,
				Logger:   logger,
			})
			if err := scheduler.Start(ctx); err != nil {
				log.Fatalf("Failed to start scheduler: %v", err)
			}
			defer scheduler.Stop()
		} else {
			logger.Info("periodic sync disabled, set SYNC_INTERVAL_MINUTES to enable")
		}

		server := http.NewServer(http.Config{
			Host:    "0.0.0.0",
			Port:    cfg.Port,
			BaseURL: cfg.BaseURL,
		}, tokenService, orchestrator, metricsStore, db)

		if err := server.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}

	default:
		log.Fatalf("Unknown mode: %s (use: sync or serve)", mode)
	}
}

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeStatusFile records the run outcome as a machine-readable artifact.
func writeStatusFile(path string, result *domain.OverallResult) error {
	data, err := json.MarshalIndent(map[string]any{
		"run_id":    result.RunID,
		"status":    result.Status,
		"last_sync": result.FinishedAt,
		"results":   result.Results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
