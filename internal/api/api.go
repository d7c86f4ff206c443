// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/internal/infrastructure"
	"github.com/rajinweb/contract-esign-sub000/pkg/middleware"
	"github.com/rajinweb/contract-esign-sub000/pkg/module"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

// Module is the API module and the OpenAPI document describing it.
type Module struct {
	*module.Module
	Spec []byte
}

// NewModule creates the API module with all domain handlers and middleware.
// Every route behind it requires an authenticated identity.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)
	groups := routeGroups(domain, cfg, runtime)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	routes.Register(mux, groups...)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(runtime.Metrics.Middleware)
	m.Use(runtime.Auth.Middleware)

	return &Module{Module: m, Spec: spec}, nil
}
