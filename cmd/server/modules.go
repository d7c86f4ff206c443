package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rajinweb/contract-esign-sub000/internal/api"
	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/internal/infrastructure"
	"github.com/rajinweb/contract-esign-sub000/pkg/handlers"
	"github.com/rajinweb/contract-esign-sub000/pkg/module"
	"github.com/rajinweb/contract-esign-sub000/pkg/openapi"
)

const readyTimeout = 3 * time.Second

type Modules struct {
	API *api.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API.Module)
	router.HandleNative("GET /openapi.json", openapi.ServeSpec(m.API.Spec))
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if failures := infra.Lifecycle.Check(ctx); len(failures) > 0 {
			checks := make(map[string]string, len(failures))
			for name, err := range failures {
				checks[name] = err.Error()
			}
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": checks,
			})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		router.Handle("GET "+cfg.Metrics.Path, infra.Metrics.Handler())
	}

	return router
}
