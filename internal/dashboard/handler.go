package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"ctox-dashboard/internal/analysis"
	"ctox-dashboard/internal/tabular"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the dashboard
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers dashboard routes with the Echo router
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/dashboard")
	g.GET("/overview", h.GetOverview)
	g.GET("/filters", h.GetFilters)
	g.GET("/labs", h.GetLabs)
	g.GET("/companies", h.GetCompanies)
	g.GET("/analyses", h.ListAnalyses)
	g.GET("/analyses/:kind", h.GetAnalysis)
	g.GET("/status-by-state/:dataset", h.GetStatusByState)
	g.GET("/collections", h.GetCollections)
	g.GET("/sources", h.GetSources)
	g.POST("/reload", h.Reload)
}

// FilterFromQuery reads the uf and cidade query parameters
func FilterFromQuery(c echo.Context) Filter {
	return Filter{State: c.QueryParam("uf"), City: c.QueryParam("cidade")}
}

// GetOverview handles GET /dashboard/overview
func (h *Handler) GetOverview(c echo.Context) error {
	overview, err := h.service.Overview(c.Request().Context(), FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, overview)
}

// GetFilters handles GET /dashboard/filters
func (h *Handler) GetFilters(c echo.Context) error {
	options, err := h.service.Filters(c.Request().Context())
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, options)
}

// GetLabs handles GET /dashboard/labs
func (h *Handler) GetLabs(c echo.Context) error {
	t, err := h.service.Labs(c.Request().Context(), FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, tableResponse(t))
}

// GetCompanies handles GET /dashboard/companies
func (h *Handler) GetCompanies(c echo.Context) error {
	t, err := h.service.Companies(c.Request().Context(), FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, tableResponse(t))
}

// ListAnalyses handles GET /dashboard/analyses
func (h *Handler) ListAnalyses(c echo.Context) error {
	return c.JSON(http.StatusOK, analysis.Reports)
}

// GetAnalysis handles GET /dashboard/analyses/:kind
func (h *Handler) GetAnalysis(c echo.Context) error {
	report, t, err := h.service.Analysis(c.Request().Context(), c.Param("kind"), FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, AnalysisResponse{Report: report, TableResponse: tableResponse(t)})
}

// GetStatusByState handles GET /dashboard/status-by-state/:dataset
func (h *Handler) GetStatusByState(c echo.Context) error {
	limit := DefaultStateLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.error(c, ErrInvalidLimit)
		}
		limit = n
	}

	states, err := h.service.StatusByState(c.Request().Context(), c.Param("dataset"), limit, FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, states)
}

// GetCollections handles GET /dashboard/collections
func (h *Handler) GetCollections(c echo.Context) error {
	stats, err := h.service.Collections(c.Request().Context(), FilterFromQuery(c))
	if err != nil {
		return h.error(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetSources handles GET /dashboard/sources
func (h *Handler) GetSources(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Sources(c.Request().Context()))
}

// Reload handles POST /dashboard/reload
func (h *Handler) Reload(c echo.Context) error {
	ds := h.service.Reload(c.Request().Context())
	h.log.Info("dataset reloaded on request",
		zap.Int("labs", ds.Labs.Len()),
		zap.Int("companies", ds.Companies.Len()),
		zap.Int("warnings", len(ds.Warnings)))
	return c.JSON(http.StatusOK, ds)
}

func (h *Handler) error(c echo.Context, err error) error {
	return WriteError(c, h.log, err)
}

// WriteError answers with the status GetErrorResponse assigns to err. A
// missing dataset answers 503 with the load warnings.
func WriteError(c echo.Context, log *zap.Logger, err error) error {
	resp := GetErrorResponse(err)

	var noData *NoDataError
	if errors.As(err, &noData) {
		warnings := noData.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		return c.JSON(resp.StatusCode, NoDataResponse{Error: resp.Message, Warnings: warnings})
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(resp.StatusCode, map[string]string{
		"error": resp.Message,
	})
}

func tableResponse(t *tabular.Table) TableResponse {
	return TableResponse{Total: t.Len(), Table: t}
}
