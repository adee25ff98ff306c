package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ARCHIVE_ENABLED", "")
	t.Setenv("TURN_TIMEOUT", "45s")
	t.Setenv("GENERATOR_BACKEND", "echo")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("SESSION_MAX", "10000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, BackendEcho, cfg.Generator.Backend)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TURN_TIMEOUT", "10s")
	t.Setenv("GENERATION_ATTEMPTS", "3")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("SESSION_MAX", "50")
	t.Setenv("SESSION_SWEEP_INTERVAL", "30s")
	t.Setenv("GENERATOR_BACKEND", "GRPC")
	t.Setenv("GENERATOR_ADDR", "gen:50051")
	t.Setenv("ARCHIVE_ENABLED", "yes")
	t.Setenv("ARCHIVE_DB_PATH", "/tmp/rt.db")
	t.Setenv("ARCHIVE_RETENTION", "72h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 3, cfg.GenerationAttempts)
	assert.Equal(t, SessionConfig{IdleTTL: 5 * time.Minute, MaxSessions: 50, SweepInterval: 30 * time.Second}, cfg.Session)
	assert.Equal(t, BackendGRPC, cfg.Generator.Backend)
	assert.Equal(t, "gen:50051", cfg.Generator.Addr)
	assert.Equal(t, ArchiveConfig{Enabled: true, DBPath: "/tmp/rt.db", Retention: 72 * time.Hour}, cfg.Archive)
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TURN_TIMEOUT", "soon")
	t.Setenv("SESSION_MAX", "many")
	t.Setenv("ARCHIVE_ENABLED", "maybe")
	t.Setenv("GENERATOR_BACKEND", "echo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.False(t, cfg.Archive.Enabled)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Port:               "8080",
			TurnTimeout:        time.Second,
			GenerationAttempts: 2,
			Session:            SessionConfig{IdleTTL: time.Minute, MaxSessions: 1, SweepInterval: time.Second},
			Generator:          GeneratorConfig{Backend: BackendEcho},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"zero timeout", func(c *Config) { c.TurnTimeout = 0 }, "TURN_TIMEOUT"},
		{"zero attempts", func(c *Config) { c.GenerationAttempts = 0 }, "GENERATION_ATTEMPTS"},
		{"unknown backend", func(c *Config) { c.Generator.Backend = "carrier-pigeon" }, "GENERATOR_BACKEND"},
		{"gemini without key", func(c *Config) { c.Generator.Backend = BackendGemini }, "GEMINI_API_KEY"},
		{"grpc without addr", func(c *Config) { c.Generator.Backend = BackendGRPC }, "GENERATOR_ADDR"},
		{"archive without path", func(c *Config) { c.Archive = ArchiveConfig{Enabled: true, Retention: time.Hour} }, "ARCHIVE_DB_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
