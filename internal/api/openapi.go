package api

import (
	"fmt"

	"github.com/rajinweb/contract-esign-sub000/internal/config"
	"github.com/rajinweb/contract-esign-sub000/pkg/openapi"
	"github.com/rajinweb/contract-esign-sub000/pkg/routes"
)

var storageSpec = struct {
	File *openapi.Operation
}{
	File: &openapi.Operation{
		Summary:     "Read a stored version file",
		Description: "Streams a file under the caller's own storage root. The path is the key embedded in a save fileUrl.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("path", "string", "Storage key", true),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("File bytes", "application/pdf"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

var layoutSpec = struct {
	Transform *openapi.Operation
	Snap      *openapi.Operation
	Schemas   map[string]*openapi.Schema
}{
	Transform: &openapi.Operation{
		Summary:     "Convert a box between viewport and PDF space",
		RequestBody: openapi.RequestBodyJSON("TransformRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Converted box", "TransformResponse"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Snap: &openapi.Operation{
		Summary:     "Resolve the page owning a dragged field",
		RequestBody: openapi.RequestBodyJSON("SnapRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Resolved position", "SnapResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Rect": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"x":      {Type: "number"},
				"y":      {Type: "number"},
				"width":  {Type: "number"},
				"height": {Type: "number"},
			},
		},
		"Transform": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"width":  {Type: "number", Description: "Page width in points"},
						"height": {Type: "number", Description: "Page height in points"},
					},
				},
				"element": openapi.SchemaRef("Rect"),
				"zoom":    {Type: "number", Description: "Used when the element has no size"},
			},
		},
		"TransformRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"transform": openapi.SchemaRef("Transform"),
				"box":       openapi.SchemaRef("Rect"),
				"direction": {Type: "string", Enum: []any{DirectionToPDF, DirectionToViewport}},
				"rotation":  {Type: "integer", Enum: []any{0, 90, 180, 270}},
			},
			Required: []string{"transform", "box", "direction"},
		},
		"TransformResponse": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"box": openapi.SchemaRef("Rect")},
		},
		"SnapRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"x":            {Type: "number"},
				"y":            {Type: "number"},
				"height":       {Type: "number"},
				"pages":        openapi.ArrayOf("Rect"),
				"previousPage": {Type: "integer"},
			},
		},
		"SnapResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"x":       {Type: "number"},
				"y":       {Type: "number"},
				"page":    {Type: "integer"},
				"matched": {Type: "boolean"},
				"snapped": {Type: "boolean"},
			},
		},
	},
}

func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	routes.Describe(spec, "", groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
