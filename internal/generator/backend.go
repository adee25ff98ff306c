package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ashureev/roundtable/internal/config"
	"github.com/ashureev/roundtable/internal/domain"
)

// Backend is a named generator.
type Backend interface {
	domain.Generator
	Name() string
}

// FromConfig builds the backend selected by cfg.Backend.
func FromConfig(ctx context.Context, cfg config.GeneratorConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendGRPC:
		g, err := NewGRPC(ctx, DefaultGRPCConfig(cfg.Addr), logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.BackendGemini:
		g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.BackendEcho, "":
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}

// Close releases b's resources when it holds any.
func Close(b Backend) {
	c, ok := b.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("Failed to close generator", "backend", b.Name(), "error", err)
	}
}
