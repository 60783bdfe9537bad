package convert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/middleware"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
)

// Pinger reports backend liveness; the store satisfies it when the
// server runs with a database configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides the HTTP endpoints of the converter.
type Handler struct {
	service *Service
	pinger  Pinger
}

// NewHandler creates a converter handler. pinger may be nil when no
// database is configured.
func NewHandler(service *Service, pinger Pinger) *Handler {
	return &Handler{service: service, pinger: pinger}
}

// RegisterRoutes registers the converter endpoints.
//
//	POST /api/convert/:table  - Synthea rows to FHIR resources
//	POST /api/reverse/:table  - FHIR resources to Synthea rows
//	GET  /api/tables          - table registry listing
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/convert/:table", h.Convert)
	g.POST("/reverse/:table", h.Reverse)
	g.GET("/tables", h.Tables)
}

// Convert handles POST /api/convert/:table. The body is a JSON array
// of rows (column name to string value). With ?bundle=true the
// response is a FHIR transaction Bundle, otherwise {"resources": […]}.
func (h *Handler) Convert(c echo.Context) error {
	table := middleware.SanitizeString(c.Param("table"))
	if _, ok := synthea.LookupTable(table); !ok {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("table "+table))
	}

	var rows []synthea.Row
	if err := json.NewDecoder(c.Request().Body).Decode(&rows); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("body must be a JSON array of rows: "+err.Error()))
	}

	resources, err := h.service.ConvertRows(c.Request().Context(), table, rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}

	if c.QueryParam("bundle") == "true" {
		bundle, err := fhir.NewTransactionBundle(resources)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
		}
		return c.JSON(http.StatusOK, bundle)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"table":     table,
		"resources": resources,
	})
}

// Reverse handles POST /api/reverse/:table. The body is a single FHIR
// resource, a JSON array of resources, or a Bundle; the response is
// {"rows": […]}.
func (h *Handler) Reverse(c echo.Context) error {
	table := middleware.SanitizeString(c.Param("table"))
	if _, ok := synthea.LookupTable(table); !ok {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("table "+table))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("failed to read request body"))
	}
	resources, err := decodeResources(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(err.Error()))
	}

	rows, err := h.service.ReverseResources(c.Request().Context(), table, resources)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"table": table,
		"rows":  rows,
	})
}

// Tables handles GET /api/tables.
func (h *Handler) Tables(c echo.Context) error {
	type tableInfo struct {
		Name          string   `json:"name"`
		Columns       []string `json:"columns"`
		ResourceTypes []string `json:"resourceTypes"`
		Reverse       bool     `json:"reverse"`
	}
	tables := synthea.Tables()
	out := make([]tableInfo, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableInfo{
			Name:          t.Name,
			Columns:       t.Columns,
			ResourceTypes: t.ResourceTypes,
			Reverse:       t.Reverse,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tables": out})
}

// Health handles GET /healthz, pinging the store when one is
// configured.
func (h *Handler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		status["database"] = "ok"
	}
	return c.JSON(http.StatusOK, status)
}

// decodeResources accepts a single resource, an array of resources, or
// a Bundle.
func decodeResources(body []byte) ([]map[string]interface{}, error) {
	var arr []map[string]interface{}
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, nil
	}
	return fhir.DecodeBundle(body)
}
