// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-me"

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	SecretKey   string
	// DevSecret is set when SecretKey fell back to the built-in value.
	DevSecret bool

	LogLevel slog.Level

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
	CookieSecure       bool

	TracingExporter string
	OTLPEndpoint    string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the environment through os.LookupEnv.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Env:             strings.ToLower(get("APP_ENV", "development")),
		HTTPAddr:        get("HTTP_ADDR", ":8080"),
		DatabaseURL:     get("DATABASE_URL", "sqlite:///tasks.db"),
		SecretKey:       get("SECRET_KEY", ""),
		LogLevel:        ParseLogLevel(get("LOG_LEVEL", "info")),
		TracingExporter: strings.ToLower(get("TRACING_EXPORTER", "none")),
		OTLPEndpoint:    get("OTLP_ENDPOINT", ""),
	}

	var errs []error
	var err error

	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "0"), 64); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "20")); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
	}
	if cfg.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", "false")); err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
	}
	if cfg.RequestTimeout, err = time.ParseDuration(get("REQUEST_TIMEOUT", "15s")); err != nil {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(get("SHUTDOWN_TIMEOUT", "15s")); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}

	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	switch cfg.TracingExporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("TRACING_EXPORTER: unknown exporter %q", cfg.TracingExporter))
	}

	if cfg.SecretKey == "" {
		if cfg.Env == "production" {
			errs = append(errs, errors.New("SECRET_KEY: required when APP_ENV=production"))
		} else {
			cfg.SecretKey = devSecret
			cfg.DevSecret = true
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels; unknown values mean
// info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
