package api

import (
	"github.com/rajinweb/contract-esign-sub000/internal/documents"
	"github.com/rajinweb/contract-esign-sub000/internal/render"
	"github.com/rajinweb/contract-esign-sub000/internal/versions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Versions  *versions.Store
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	vs := versions.New(runtime.Storage, runtime.Logger, runtime.Versions)
	renderer := render.New(runtime.Render, runtime.Logger)

	docsSystem := documents.New(
		runtime.Database.Connection(),
		vs,
		renderer,
		runtime.Metrics,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents: docsSystem,
		Versions:  vs,
	}
}
