package infrastructure_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/internal/infrastructure"
	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/database"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

const defaultShutdown = 5 * time.Second

func validConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Database: database.Config{Name: "esign", User: "esign"},
		Storage:  storage.Config{Backend: storage.BackendFilesystem, Root: t.TempDir()},
		Auth:     auth.Config{DevHeader: auth.DefaultDevHeader},
		LogLevel: "info",
	}
	require.NoError(t, cfg.Database.Finalize(nil))
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(context.Background(), validConfig(t))
	require.NoError(t, err)
	defer infra.Database.Connection().Close()

	assert.NotNil(t, infra.Lifecycle)
	assert.NotNil(t, infra.Logger)
	assert.NotNil(t, infra.Storage)
	assert.NotNil(t, infra.Metrics)
	assert.NotNil(t, infra.Auth)
}

func TestNewInvalidStorage(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage = storage.Config{Backend: storage.BackendAzure, ContainerName: "documents", ConnectionString: "not-a-connection-string"}

	_, err := infrastructure.New(context.Background(), cfg)
	assert.ErrorContains(t, err, "storage init failed")
}

func TestNewInvalidLogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.LogLevel = "chatty"

	_, err := infrastructure.New(context.Background(), cfg)
	assert.ErrorContains(t, err, "logger init failed")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := infrastructure.NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "system", "documents")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"system":"documents"`)

	_, err = infrastructure.NewLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestStartRegistersProbes(t *testing.T) {
	infra, err := infrastructure.New(context.Background(), validConfig(t))
	require.NoError(t, err)
	require.NoError(t, infra.Start())

	failures := infra.Lifecycle.Check(context.Background())
	assert.Contains(t, failures, "database")
	assert.Contains(t, failures, "storage")

	require.NoError(t, infra.Lifecycle.Shutdown(defaultShutdown))
}
