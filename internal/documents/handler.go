package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/auth"
	"github.com/rajinweb/contract-esign-sub000/pkg/formatting"
	"github.com/rajinweb/contract-esign-sub000/pkg/handlers"
	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

// RequestIDHeader carries a caller-supplied request id.
const RequestIDHeader = "X-Request-ID"

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StatusRequest is the body of a status transition.
type StatusRequest struct {
	Status string `json:"status"`
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Documents"},
		Description: "Versioned documents and their signed copies",
		Schemas:     Spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: Spec.Search},
			{Method: "POST", Pattern: "/save", Handler: h.Save, OpenAPI: Spec.Save},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "GET", Pattern: "/{id}/versions", Handler: h.Versions, OpenAPI: Spec.Versions},
			{Method: "POST", Pattern: "/{id}/status", Handler: h.Transition, OpenAPI: Spec.Transition},
			{Method: "GET", Pattern: "/{id}/signed", Handler: h.DownloadSigned, OpenAPI: Spec.DownloadSigned},
		},
	}
}

// List returns a paginated list of the caller's documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters, err := FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.List(r.Context(), s, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching documents.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid search request: %w", err))
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), s, req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single document by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.sessionAndID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), s, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Versions returns the version history of a document.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.sessionAndID(w, r)
	if !ok {
		return
	}

	list, err := h.sys.Versions(r.Context(), s, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

// Save processes a multipart save: the PDF file plus the JSON encoded field
// and recipient arrays and optional document id, file name, change log and
// base version.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w (limit %s)", ErrFileTooLarge, formatting.FormatBytes(maxErr.Limit, 1)))
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: %v", ErrInvalidFile, err))
		return
	}

	cmd, err := h.saveCommand(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Save(r.Context(), s, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if result.Outcome == OutcomeCreated || result.Outcome == OutcomeForked {
		status = http.StatusCreated
	}
	handlers.RespondJSON(w, status, result)
}

// Transition changes the document status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.sessionAndID(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidStatus)
		return
	}

	doc, err := h.sys.Transition(r.Context(), s, id, req.Status)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// DownloadSigned streams the signed copy of a finalized document.
func (h *Handler) DownloadSigned(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.sessionAndID(w, r)
	if !ok {
		return
	}

	file, err := h.sys.DownloadSigned(r.Context(), s, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	handlers.RespondBytes(w, http.StatusOK, "application/pdf", file.Data)
}

func (h *Handler) saveCommand(r *http.Request) (SaveCommand, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return SaveCommand{}, fmt.Errorf("%w: file is required", ErrInvalidFile)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return SaveCommand{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	list, err := fields.Parse(r.FormValue("fields"))
	if err != nil {
		return SaveCommand{}, err
	}

	cmd := SaveCommand{
		Name:      strings.TrimSpace(r.FormValue("name")),
		FileName:  strings.TrimSpace(r.FormValue("fileName")),
		ChangeLog: r.FormValue("changeLog"),
		Data:      data,
		Fields:    list,
	}

	if raw := strings.TrimSpace(r.FormValue("recipients")); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &cmd.Recipients); err != nil {
			return SaveCommand{}, fmt.Errorf("%w: %v", ErrInvalidRecipients, err)
		}
		if cmd.Recipients == nil {
			cmd.Recipients = []Recipient{}
		}
	}

	if raw := strings.TrimSpace(r.FormValue("documentId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return SaveCommand{}, ErrInvalidID
		}
		cmd.DocumentID = &id
	}

	if raw := strings.TrimSpace(r.FormValue("baseVersion")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return SaveCommand{}, fmt.Errorf("%w: %q", ErrInvalidBase, raw)
		}
		cmd.BaseVersion = &v
	}

	return cmd, nil
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthenticated)
		return Session{}, false
	}

	reqID := r.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	return Session{OwnerID: id.Subject, RequestID: reqID}, true
}

func (h *Handler) sessionAndID(w http.ResponseWriter, r *http.Request) (Session, uuid.UUID, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return Session{}, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return Session{}, uuid.Nil, false
	}

	return s, id, true
}
