package api

import (
	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/internal/infrastructure"
	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Render     render.Config
	Versions   versions.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metrics:   infra.Metrics,
			Auth:      infra.Auth,
		},
		Pagination: cfg.API.Pagination,
		Render:     cfg.API.Render,
		Versions:   cfg.API.Versions,
	}
}
