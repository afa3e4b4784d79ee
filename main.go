package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/tasks-web-GO/internal/config"
	"github.com/s1natex/tasks-web-GO/internal/flash"
	"github.com/s1natex/tasks-web-GO/internal/middleware"
	"github.com/s1natex/tasks-web-GO/internal/tasks"
	"github.com/s1natex/tasks-web-GO/internal/telemetry"
)

const serviceName = "tasks-web"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger) // for third-party packages that use slog

	exitCode, err := run(cfg, logger)
	if err != nil {
		logger.Error("run_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// run serves until a shutdown signal and returns the process exit code.
func run(cfg config.Config, logger *slog.Logger) (int, error) {
	ctx := context.Background()

	if cfg.DevSecret {
		logger.Warn("dev_secret_in_use", slog.String("hint", "set SECRET_KEY"))
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: serviceName,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return 0, err
	}

	repo, err := tasks.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = shutdownTracing(ctx)
		return 0, fmt.Errorf("open store: %w", err)
	}

	flashes, err := flash.New(flash.Config{Secret: cfg.SecretKey, Secure: cfg.CookieSecure})
	if err != nil {
		_ = repo.Close()
		_ = shutdownTracing(ctx)
		return 0, err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, tasks.Instrument(repo), flashes, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// a failed listener triggers the same teardown as a signal
	trigger, stop := context.WithCancel(ctx)
	defer stop()
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_listen", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	// one operation so teardown runs in order: stop accepting requests,
	// then release the store, then flush spans
	wait := gfshutdown.GracefulShutdown(trigger, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		serviceName: func(ctx context.Context) error {
			logger.Info("shutdown_started")
			return errors.Join(
				srv.Shutdown(ctx),
				repo.Close(),
				shutdownTracing(ctx),
			)
		},
	})

	exitCode := <-wait
	logger.Info("shutdown_complete", slog.Int("exit_code", exitCode))
	select {
	case err := <-serveErr:
		return 1, fmt.Errorf("serve: %w", err)
	default:
		return exitCode, nil
	}
}

// newRouter wires the health endpoint, task routes, and middleware stack
func newRouter(cfg config.Config, repo tasks.Repository, flashes *flash.Store, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RateLimitMiddleware(middleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))

	// ---- Routes ----
	r.Get("/health", healthHandler(repo))
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	tasks.RegisterRoutes(r, tasks.Deps{
		Repo:   repo,
		Flash:  flashes,
		Logger: logger,
	})

	return r
}

func healthHandler(repo tasks.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := repo.Ping(r.Context()); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
