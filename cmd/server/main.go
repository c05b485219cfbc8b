/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment over defaults)
  2. Configure zerolog
  3. Initialize SQLite store
  4. Pick the locker (Redis when REDIS_ADDR is set, in-process otherwise)
  5. Build leave.Service on a clock in TIMEZONE
  6. Optionally seed the demo roster
  7. Configure HTTP router and start serving

ENVIRONMENT:
  SERVER_PORT        HTTP port (default: 8080)
  DB_PATH            SQLite path (default: leave.db, ":memory:" allowed)
  APP_ENV            development|production (console vs JSON logs)
  TIMEZONE           Wall clock for lead-time rules (America/Mexico_City)
  REDIS_ADDR         Redis for per-employee locks across replicas
  LOCK_TTL           Redis lock expiry (default: 10s)
  CORS_ORIGINS       Comma-separated allowed origins
  SUBMIT_RATE_LIMIT  Submissions per employee per minute (default: 30)
  SEED_DEMO          Load the demo roster at startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close Redis and database connections
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
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

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/santamargarita/leave-engine/api"
	"github.com/santamargarita/leave-engine/config"
	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
	"github.com/santamargarita/leave-engine/lock"
	"github.com/santamargarita/leave-engine/logger"
	"github.com/santamargarita/leave-engine/store/sqlite"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev())

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}
	clock := generic.SystemClock{Location: loc}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to initialize database")
	}
	defer store.Close()

	// Initialize locker
	var locker leave.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable")
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}()
		locker = lock.NewRedisLocker(client, cfg.LockTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis locks")
	}

	svc := leave.NewService(store, locker, clock, log.Logger)

	if cfg.SeedDemo {
		res, err := api.SeedDemo(context.Background(), svc, generic.Today(clock))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo roster")
		}
		log.Info().
			Int("employees", len(res.Employees)).
			Int("requests", len(res.Requests)).
			Msg("Demo roster seeded")
	}

	// Create router
	router := api.NewRouter(api.NewHandler(svc, store), api.Options{
		CORSOrigins:     cfg.CORSOrigins,
		SubmitRateLimit: cfg.SubmitRateLimit,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("timezone", loc.String()).Msg("Leave engine starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
