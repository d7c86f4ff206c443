package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/rajinweb/contract-esign-sub000/internal/versions"
	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/handlers"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

var errForeignKey = errors.New("file belongs to another user")

// storageHandler serves stored version files back to their owner. It backs
// the fileUrl returned by a save.
type storageHandler struct {
	storage storage.System
	logger  *slog.Logger
}

func newStorageHandler(store storage.System, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		storage: store,
		logger:  logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/storage",
		Tags:        []string{"Storage"},
		Description: "Owner-scoped file retrieval",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/file", Handler: h.file, OpenAPI: storageSpec.File},
		},
	}
}

func (h *storageHandler) file(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthenticated)
		return
	}

	key := r.URL.Query().Get("path")
	if key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, storage.ErrEmptyKey)
		return
	}

	root := versions.OwnerRoot(id.Subject)
	if root == "" || !strings.HasPrefix(key, root+"/") || path.Clean(key) != key {
		handlers.RespondError(w, h.logger, http.StatusForbidden, errForeignKey)
		return
	}

	data, err := storage.ReadAll(r.Context(), h.storage, key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	contentType := "application/octet-stream"
	if strings.EqualFold(path.Ext(key), ".pdf") {
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	handlers.RespondBytes(w, http.StatusOK, contentType, data)
}
