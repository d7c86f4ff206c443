// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, metrics and
// authentication) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/database"
	"github.com/rajinweb/contract-esign-sub000/pkg/lifecycle"
	"github.com/rajinweb/contract-esign-sub000/pkg/metrics"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

// readyProbeKey is looked up to prove the storage backend answers.
const readyProbeKey = ".ready"

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *metrics.Metrics
	Auth      *auth.Authenticator
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
// When OIDC is enabled ctx bounds provider discovery.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	logger, err := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	authn, err := auth.New(ctx, &cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   metrics.New(),
		Auth:      authn,
	}, nil
}

// NewLogger builds the service logger writing to w. level is any value
// slog.Level accepts ("debug", "info", "warn", "error"); format is "text"
// or "json".
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// Start registers all infrastructure systems with the lifecycle coordinator
// along with the readiness probes served by /readyz.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.AddProbe("database", i.Database.Ready)
	i.Lifecycle.AddProbe("storage", func(ctx context.Context) error {
		_, err := i.Storage.Exists(ctx, readyProbeKey)
		return err
	})
	return nil
}
