package handler

import (
	"net/http"
	"strings"

	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/deppfellow/fleet-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// OpenAPIVersion is the version of the generated document.
const OpenAPIVersion = "3.1.0"

// OpenAPIHandler serves an OpenAPI document generated from the route table,
// so the published models are exactly the ones requests are validated
// against.
type OpenAPIHandler struct {
	Handler
	document map[string]any
}

// NewOpenAPIHandler builds the document once; the route table never changes.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler:  NewHandler(s),
		document: OpenAPIDocument(s.Routes),
	}
}

// ServeOpenAPI writes the document as JSON. Cache-Control is no-cache so a
// redeploy with a new catalog is picked up immediately.
func (h *OpenAPIHandler) ServeOpenAPI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, h.document)
}

// OpenAPIDocument describes every route and model of table.
func OpenAPIDocument(table *route.Table) map[string]any {
	schemas := make(map[string]any)
	for _, name := range table.SchemaNames() {
		schema, _ := table.Schema(name)
		doc := schema.Document()
		delete(doc, "$schema")
		schemas[name] = doc
	}
	schemas["Error"] = errorSchema()

	paths := make(map[string]any)
	for _, r := range table.Routes() {
		item, ok := paths[r.Pattern()].(map[string]any)
		if !ok {
			item = make(map[string]any)
			paths[r.Pattern()] = item
		}
		item[strings.ToLower(r.Method)] = operation(r)
	}

	return map[string]any{
		"openapi": OpenAPIVersion,
		"info": map[string]any{
			"title":   "Fleet Management API",
			"version": "1.0.0",
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": schemas,
		},
	}
}

func operation(r *route.Route) map[string]any {
	errorResponse := func(description string) map[string]any {
		return map[string]any{
			"description": description,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/Error"},
				},
			},
		}
	}

	responses := map[string]any{
		"default": map[string]any{"description": "Backend response, forwarded unchanged"},
		"404":     errorResponse(errs.CodeRouteNotFound),
		"502":     errorResponse("BAD_GATEWAY"),
	}

	op := map[string]any{
		"operationId": operationID(r),
		"responses":   responses,
	}

	if r.ValidateBody && r.Schema != "" {
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + r.Schema},
				},
			},
		}
		responses["400"] = errorResponse(errs.CodeValidationFailed)
	}

	if r.ValidateParameters && len(r.Parameters) > 0 {
		params := make([]any, 0, len(r.Parameters))
		for _, p := range r.Parameters {
			in := "query"
			if p.In == route.InHeader {
				in = "header"
			}
			params = append(params, map[string]any{
				"name":     p.Name,
				"in":       in,
				"required": true,
				"schema":   map[string]any{"type": "string"},
			})
		}
		op["parameters"] = params
		responses["400"] = errorResponse(errs.CodeValidationFailed)
	}

	return op
}

// operationID turns "POST /reservation/book" into "postReservationBook".
func operationID(r *route.Route) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(r.Method))
	for _, segment := range r.Path {
		if segment == "" {
			continue
		}
		b.WriteString(strings.ToUpper(segment[:1]))
		b.WriteString(segment[1:])
	}
	return b.String()
}

func errorSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"code", "message", "status", "override"},
		"properties": map[string]any{
			"code":     map[string]any{"type": "string"},
			"message":  map[string]any{"type": "string"},
			"status":   map[string]any{"type": "integer"},
			"override": map[string]any{"type": "boolean"},
			"errors": map[string]any{
				"type": []any{"array", "null"},
				"items": map[string]any{
					"type":     "object",
					"required": []any{"field", "error"},
					"properties": map[string]any{
						"field":   map[string]any{"type": "string"},
						"error":   map[string]any{"type": "string", "enum": []any{"TypeMismatch", "MissingRequired", "MalformedBody"}},
						"message": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
