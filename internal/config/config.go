// Package config loads the service configuration from config.toml, an
// optional per-environment overlay, and ESIGN_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/database"
	"github.com/rajinweb/contract-esign-sub000/pkg/metrics"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvServiceEnv      = "ESIGN_ENV"
	EnvShutdownTimeout = "ESIGN_SHUTDOWN_TIMEOUT"
	EnvVersion         = "ESIGN_VERSION"
	EnvLogLevel        = "ESIGN_LOG_LEVEL"
	EnvLogFormat       = "ESIGN_LOG_FORMAT"
)

var databaseEnv = &database.Env{
	URL:             "ESIGN_DB_DSN",
	Host:            "ESIGN_DB_HOST",
	Port:            "ESIGN_DB_PORT",
	Name:            "ESIGN_DB_NAME",
	User:            "ESIGN_DB_USER",
	Password:        "ESIGN_DB_PASSWORD",
	SSLMode:         "ESIGN_DB_SSL_MODE",
	ApplicationName: "ESIGN_DB_APPLICATION_NAME",
	MaxOpenConns:    "ESIGN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ESIGN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ESIGN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ESIGN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Backend:          "ESIGN_STORAGE_BACKEND",
	Root:             "ESIGN_STORAGE_ROOT",
	ContainerName:    "ESIGN_STORAGE_CONTAINER_NAME",
	ConnectionString: "ESIGN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ESIGN_STORAGE_SERVICE_URL",
}

var authEnv = &auth.Env{
	Enabled:   "ESIGN_AUTH_ENABLED",
	Issuer:    "ESIGN_AUTH_ISSUER",
	ClientID:  "ESIGN_AUTH_CLIENT_ID",
	DevHeader: "ESIGN_AUTH_DEV_HEADER",
}

var metricsEnv = &metrics.Env{
	Enabled: "ESIGN_METRICS_ENABLED",
	Path:    "ESIGN_METRICS_PATH",
}

// Config is the root configuration for the e-signature service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Metrics         metrics.Config  `toml:"metrics"`
	LogLevel        string          `toml:"log_level"`
	LogFormat       string          `toml:"log_format"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ESIGN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base config path. A missing file is not
// an error.
func LoadFile(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Metrics.Merge(&overlay.Metrics)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Metrics.Finalize(metricsEnv); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
