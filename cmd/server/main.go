/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the quota engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment configuration
  2. Configure structured logging
  3. Open the SQLite store (with JSON file fallback for failed saves)
  4. Load persisted state into the in-memory dataset
  5. Wire the persistence hook and optional advisor
  6. Start the HTTP server with graceful shutdown

PERSISTENCE MODEL:
  The in-memory dataset is authoritative. Every successful mutation fires a
  full-state save; a failed save is logged and written to a fallback JSON
  file, but never rolls back the mutation.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete
  3. Close database connection
  4. Exit

ENVIRONMENT:
  ADDR, DB_PATH, FALLBACK_PATH, LOG_LEVEL, LOG_FORMAT, CORS_ORIGINS,
  OPENAI_API_KEY, OPENAI_MODEL. See config/config.go for defaults.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/quotaflow/quota-engine/advisor"
	"github.com/quotaflow/quota-engine/api"
	"github.com/quotaflow/quota-engine/config"
	"github.com/quotaflow/quota-engine/core"
	"github.com/quotaflow/quota-engine/store"
	"github.com/quotaflow/quota-engine/store/sqlite"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg)

	// Initialize persistence
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	persist := store.NewFallback(db, cfg.FallbackPath, log)

	// Load persisted state into the dataset
	state, found, err := persist.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load state")
	}
	var data *core.Dataset
	if found {
		data = core.FromState(state)
		log.Info().
			Str("quarter", string(data.CurrentQuarter())).
			Int("stores", len(state.Stores)).
			Int("suppliers", len(state.Suppliers)).
			Msg("state loaded")
	} else {
		data = core.NewDataset(core.CurrentQuarterByClock())
		log.Info().Str("quarter", string(data.CurrentQuarter())).Msg("starting with empty dataset")
	}

	// Replicate every successful mutation
	data.OnChange(func(s core.State) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := persist.Save(ctx, s); err != nil {
			log.Error().Err(err).Msg("state save degraded")
		}
	})

	// Optional advisor
	var adv *advisor.Advisor
	if cfg.OpenAIKey != "" {
		adv = advisor.New(openai.NewClient(cfg.OpenAIKey), cfg.OpenAIModel, log)
		log.Info().Str("model", cfg.OpenAIModel).Msg("advisor enabled")
	}

	handler := api.NewHandler(data, adv, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "pretty" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
