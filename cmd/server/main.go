// Roundtable - multi-persona conversation server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/roundtable/internal/api"
	"github.com/ashureev/roundtable/internal/config"
	"github.com/ashureev/roundtable/internal/generator"
	"github.com/ashureev/roundtable/internal/identity"
	"github.com/ashureev/roundtable/internal/middleware"
	"github.com/ashureev/roundtable/internal/orchestrator"
	"github.com/ashureev/roundtable/internal/persona"
	"github.com/ashureev/roundtable/internal/session"
	"github.com/ashureev/roundtable/internal/store"
	"github.com/ashureev/roundtable/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const retentionSweepInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "backend", cfg.Generator.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roster := persona.DefaultRoster()
	tables := persona.DefaultTables()
	if cfg.RosterFile != "" {
		roster, tables, err = persona.LoadFile(cfg.RosterFile)
		if err != nil {
			slog.Error("Failed to load roster file", "path", cfg.RosterFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Roster loaded", "path", cfg.RosterFile, "personas", roster.Len())
	}

	backend, err := generator.FromConfig(ctx, cfg.Generator, logger)
	if err != nil {
		// Degraded personas are skipped; turns still get an apology.
		slog.Warn("Generator unavailable, personas will be degraded", "backend", cfg.Generator.Backend, "error", err)
	} else {
		defer generator.Close(backend)
		roster = roster.BindGenerator(backend)
		slog.Info("Generator ready", "backend", backend.Name())
	}

	var archive store.Archive
	if cfg.Archive.Enabled {
		archive, err = store.NewSQLite(cfg.Archive.DBPath)
		if err != nil {
			slog.Error("Failed to initialize archive", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := archive.Close(); closeErr != nil {
				slog.Error("Failed to close archive", "error", closeErr)
			}
		}()

		if err := archive.Ping(ctx); err != nil {
			slog.Error("Archive health check failed", "error", err)
			os.Exit(1)
		}
		store.StartRetentionWorker(ctx, archive, cfg.Archive.Retention, retentionSweepInterval)
		slog.Info("Archive connected", "path", cfg.Archive.DBPath, "retention", cfg.Archive.Retention)
	}

	var handler *api.Handler
	sessions := session.NewStore(session.Options{
		IdleTTL:       cfg.Session.IdleTTL,
		MaxSessions:   cfg.Session.MaxSessions,
		SweepInterval: cfg.Session.SweepInterval,
		OnEvict: func(id string) {
			if handler != nil {
				go handler.Connections().CloseSession(id)
			}
		},
	})

	opts := orchestrator.Options{
		TurnTimeout: cfg.TurnTimeout,
		Tables:      &tables,
	}
	opts.Retry = orchestrator.DefaultRetryPolicy()
	opts.Retry.MaxAttempts = cfg.GenerationAttempts
	if archive != nil {
		opts.Archive = archive
	}
	orch := orchestrator.New(roster, sessions, opts)

	var status api.Backend
	if backend != nil {
		status = backend
	}
	handler = api.NewHandler(orch, archive, status, cfg)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware)

	handler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: turns may run up to TURN_TIMEOUT and sockets are long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	sessions.StartSweeper(ctx)
	slog.Info("Session sweeper started", "idle_ttl", cfg.Session.IdleTTL, "max_sessions", cfg.Session.MaxSessions)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TurnTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
