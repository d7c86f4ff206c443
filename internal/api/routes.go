package api

import (
	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

func routeGroups(domain *Domain, cfg *config.Config, runtime *Runtime) []routes.Group {
	return []routes.Group{
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
		newLayoutHandler(runtime.Logger).routes(),
	}
}
