package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rajinweb/contract-esign-sub000/pkg/handlers"
	"github.com/rajinweb/contract-esign-sub000/pkg/layout"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

// Transform directions accepted by the transform endpoint.
const (
	DirectionToPDF      = "toPdf"
	DirectionToViewport = "toViewport"
)

var (
	errInvalidDirection = errors.New("direction must be toPdf or toViewport")
	errEmptyPage        = errors.New("page size must be positive")
)

// TransformRequest converts one box between viewport and PDF space.
type TransformRequest struct {
	Transform layout.Transform `json:"transform"`
	Box       layout.Rect      `json:"box"`
	Direction string           `json:"direction"`
	// Rotation is the page rotation in degrees. Non-zero rotation interprets
	// Transform.Page as the native (unrotated) page size.
	Rotation int `json:"rotation,omitempty"`
}

// TransformResponse is the converted box.
type TransformResponse struct {
	Box layout.Rect `json:"box"`
}

// layoutHandler exposes the coordinate helpers the editor uses when placing
// and dragging fields.
type layoutHandler struct {
	logger *slog.Logger
}

func newLayoutHandler(logger *slog.Logger) *layoutHandler {
	return &layoutHandler{logger: logger.With("handler", "layout")}
}

func (h *layoutHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/layout",
		Tags:        []string{"Layout"},
		Description: "Field geometry helpers for the editor",
		Schemas:     layoutSpec.Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/transform", Handler: h.transform, OpenAPI: layoutSpec.Transform},
			{Method: "POST", Pattern: "/snap", Handler: h.snap, OpenAPI: layoutSpec.Snap},
		},
	}
}

func (h *layoutHandler) transform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid transform request: %w", err))
		return
	}

	if req.Transform.Page.Empty() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errEmptyPage)
		return
	}

	native := req.Transform.Page
	rotation := layout.NormalizeRotation(req.Rotation)
	t := req.Transform
	t.Page = layout.DisplaySize(native, rotation)

	var box layout.Rect
	switch req.Direction {
	case DirectionToPDF:
		box = t.ToPDF(req.Box)
		box = rotateBox(box, native, rotation, layout.ToNative)
	case DirectionToViewport:
		display := rotateBox(req.Box, native, rotation, layout.ToDisplay)
		box = t.ToViewport(display)
	default:
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidDirection)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, TransformResponse{Box: box})
}

func (h *layoutHandler) snap(w http.ResponseWriter, r *http.Request) {
	var req layout.SnapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid snap request: %w", err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, layout.Resolve(req))
}

// rotateBox maps both corners of box through fn and returns the bounding box.
func rotateBox(box layout.Rect, native layout.Size, rotation int, fn func(layout.Point, layout.Size, int) layout.Point) layout.Rect {
	if rotation == 0 {
		return box
	}

	a := fn(layout.Point{X: box.X, Y: box.Y}, native, rotation)
	b := fn(layout.Point{X: box.X + box.Width, Y: box.Y + box.Height}, native, rotation)

	return layout.Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  max(a.X, b.X) - min(a.X, b.X),
		Height: max(a.Y, b.Y) - min(a.Y, b.Y),
	}
}
