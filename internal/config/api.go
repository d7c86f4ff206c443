package config

import (
	"fmt"
	"os"

	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/formatting"
	"github.com/rajinweb/contract-esign-sub000/pkg/middleware"
	"github.com/rajinweb/contract-esign-sub000/pkg/openapi"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
)

// DefaultMaxUploadSize caps a single save request.
const DefaultMaxUploadSize = "25MB"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ESIGN_CORS_ENABLED",
	Origins:          "ESIGN_CORS_ORIGINS",
	AllowedMethods:   "ESIGN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ESIGN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ESIGN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ESIGN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ESIGN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ESIGN_PAGINATION_MAX_PAGE_SIZE",
}

var renderEnv = &render.Env{
	Workers:  "ESIGN_RENDER_WORKERS",
	Compress: "ESIGN_RENDER_COMPRESS",
	Producer: "ESIGN_RENDER_PRODUCER",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "ESIGN_OPENAPI_TITLE",
	Description: "ESIGN_OPENAPI_DESCRIPTION",
}

var versionsEnv = &versions.Env{
	MaxCandidates: "ESIGN_VERSIONS_MAX_CANDIDATES",
}

// APIConfig holds API routing, CORS, pagination, rendering, and version
// store settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	Render        render.Config         `toml:"render"`
	Versions      versions.Config       `toml:"versions"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Finalize has already
// rejected values that do not parse.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if size, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	} else if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Render.Finalize(renderEnv); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Versions.Finalize(versionsEnv); err != nil {
		return fmt.Errorf("versions: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
	c.Render.Merge(&overlay.Render)
	c.Versions.Merge(&overlay.Versions)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ESIGN_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ESIGN_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
