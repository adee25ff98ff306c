// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Generator backends.
const (
	BackendGRPC   = "grpc"
	BackendGemini = "gemini"
	BackendEcho   = "echo"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	AllowedOrigins []string
	TurnTimeout    time.Duration
	// GenerationAttempts bounds generation calls per persona per turn.
	GenerationAttempts int
	RosterFile         string
	Session            SessionConfig
	Generator          GeneratorConfig
	Archive            ArchiveConfig
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

// GeneratorConfig selects and configures the text generation backend.
type GeneratorConfig struct {
	Backend      string
	Addr         string
	GeminiAPIKey string
	GeminiModel  string
}

// ArchiveConfig controls the SQLite turn archive.
type ArchiveConfig struct {
	Enabled   bool
	DBPath    string
	Retention time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		TurnTimeout:        getEnvDuration("TURN_TIMEOUT", 45*time.Second),
		GenerationAttempts: getEnvInt("GENERATION_ATTEMPTS", 2),
		RosterFile:         getEnv("ROSTER_FILE", ""),
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			MaxSessions:   getEnvInt("SESSION_MAX", 10000),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Generator: GeneratorConfig{
			Backend:      strings.ToLower(getEnv("GENERATOR_BACKEND", BackendEcho)),
			Addr:         getEnv("GENERATOR_ADDR", "localhost:50051"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", ""),
		},
		Archive: ArchiveConfig{
			Enabled:   getEnvBool("ARCHIVE_ENABLED", false),
			DBPath:    getEnv("ARCHIVE_DB_PATH", "./data/roundtable.db"),
			Retention: getEnvDuration("ARCHIVE_RETENTION", 30*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if c.TurnTimeout <= 0 {
		errs = append(errs, errors.New("TURN_TIMEOUT must be > 0"))
	}
	if c.GenerationAttempts <= 0 {
		errs = append(errs, errors.New("GENERATION_ATTEMPTS must be > 0"))
	}
	if c.Session.IdleTTL <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL must be > 0"))
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, errors.New("SESSION_MAX must be > 0"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be > 0"))
	}

	switch c.Generator.Backend {
	case BackendGRPC:
		if c.Generator.Addr == "" {
			errs = append(errs, errors.New("GENERATOR_ADDR cannot be empty for the grpc backend"))
		}
	case BackendGemini:
		if c.Generator.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY cannot be empty for the gemini backend"))
		}
	case BackendEcho:
	default:
		errs = append(errs, fmt.Errorf("GENERATOR_BACKEND %q is not one of grpc, gemini, echo", c.Generator.Backend))
	}

	if c.Archive.Enabled {
		if c.Archive.DBPath == "" {
			errs = append(errs, errors.New("ARCHIVE_DB_PATH cannot be empty"))
		}
		if c.Archive.Retention <= 0 {
			errs = append(errs, errors.New("ARCHIVE_RETENTION must be > 0"))
		}
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
