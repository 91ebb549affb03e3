// Package main is the entry point for the RV park reservation API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/rv-park/backend/internal/config"
	"github.com/pkordes/rv-park/backend/internal/handler"
	"github.com/pkordes/rv-park/backend/internal/lock"
	"github.com/pkordes/rv-park/backend/internal/middleware"
	"github.com/pkordes/rv-park/backend/internal/notify"
	"github.com/pkordes/rv-park/backend/internal/repo"
	"github.com/pkordes/rv-park/backend/internal/service"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Business rules ---------------------------------------------------
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		slog.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	policy, err := rules.Policy()
	if err != nil {
		slog.Error("invalid rules", "error", err)
		os.Exit(1)
	}

	// --- Store ------------------------------------------------------------
	var store repo.Store
	switch cfg.Store {
	case config.StoreMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		store = repo.NewMemoryStore()
	default:
		// pgxpool manages a pool of Postgres connections.
		// New() does not open connections immediately; the first query does.
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Verify the DB is reachable before accepting traffic.
		if err := pool.Ping(context.Background()); err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		slog.Info("database connection established")
		store = repo.NewPgStore(pool)
	}

	// --- Admission lock ---------------------------------------------------
	// Redis lets several API instances serialise bookings per campsite.
	// Without it the lock only covers this process.
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := lock.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		locker = lock.NewRedisLocker(rdb, logger)
		slog.Info("redis admission lock enabled", "addr", cfg.RedisAddr)
	}

	// --- Notifications ----------------------------------------------------
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer closeQuietly(kn)
		notifier = kn
		slog.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	engine := service.NewEngine(store, locker, notifier, policy, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		r.Use(middleware.NewMetricsHandler())
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Mount("/", handler.NewServer(engine, logger).Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	// Let confirmation events already handed off reach the notifier before
	// the deferred Kafka close flushes its queue.
	if err := engine.Drain(ctx); err != nil {
		slog.Warn("notifications still in flight at shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "error", err)
	}
}
