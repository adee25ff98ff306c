// Package generator provides the text generation backends personas speak through.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/roundtable/internal/domain"
)

// Wire names of the generation service. Payloads are google.protobuf.Struct
// so no generated stubs are needed on either side.
const (
	ServiceName    = "roundtable.v1.Generator"
	GenerateMethod = "/" + ServiceName + "/Generate"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errGenerateResponse         = errors.New("generate response returned error")
)

// GRPCConfig holds configuration for the gRPC generator client.
type GRPCConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
	// DialOptions are appended to the defaults. Tests use it for bufconn.
	DialOptions []grpc.DialOption
}

// DefaultGRPCConfig returns default configuration for addr.
func DefaultGRPCConfig(addr string) GRPCConfig {
	if addr == "" {
		addr = "localhost:50051"
	}
	return GRPCConfig{
		Address:          addr,
		ConnectTimeout:   5 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// GRPC generates text through a remote generation service.
type GRPC struct {
	conn   *grpc.ClientConn
	addr   string
	logger *slog.Logger
}

var _ domain.Generator = (*GRPC)(nil)

// NewGRPC connects to the generation service and waits until it is ready.
func NewGRPC(ctx context.Context, cfg GRPCConfig, logger *slog.Logger) (*GRPC, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    cfg.KeepaliveTime,
			Timeout: cfg.KeepaliveTimeout,
		}),
	}
	opts = append(opts, cfg.DialOptions...)

	// Build client connection (no network I/O yet).
	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator client for %s: %w", cfg.Address, err)
	}

	// Force a connection attempt so a bad endpoint fails at startup.
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("generator at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to generation service", "address", cfg.Address)
	return &GRPC{conn: conn, addr: cfg.Address, logger: logger}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Generate sends one prompt and returns the generated text.
func (g *GRPC) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	req, err := structpb.NewStruct(map[string]any{
		"prompt":            prompt,
		"model":             opts.Model,
		"temperature":       float64(opts.Temperature),
		"max_output_tokens": float64(opts.MaxOutputTokens),
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, GenerateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	if msg := resp.GetFields()["error"].GetStringValue(); msg != "" {
		return "", fmt.Errorf("%w: %s", errGenerateResponse, msg)
	}
	return resp.GetFields()["text"].GetStringValue(), nil
}

// Healthy reports whether the connection is usable.
func (g *GRPC) Healthy() bool {
	state := g.conn.GetState()
	return state == connectivity.Ready || state == connectivity.Idle
}

// Name identifies the backend in health output.
func (g *GRPC) Name() string {
	return "grpc:" + g.addr
}

// Close closes the gRPC connection.
func (g *GRPC) Close() error {
	if err := g.conn.Close(); err != nil {
		g.logger.Warn("failed to close gRPC connection", "error", err)
		return err
	}
	return nil
}
