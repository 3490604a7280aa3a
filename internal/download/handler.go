package download

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"ctox-dashboard/internal/dashboard"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for download operations
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new download handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers download routes with the Echo router
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/downloads/:file", h.DownloadWorkbook)
	e.POST("/downloads/publish/:dataset", h.Publish)
}

// DownloadWorkbook handles GET /downloads/:dataset.xlsx. With ?analysis= the
// analysis result is exported instead of the dataset listing.
func (h *Handler) DownloadWorkbook(c echo.Context) error {
	file := c.Param("file")
	if !strings.HasSuffix(file, xlsxExt) {
		return writeError(c, h.log, ErrNotSpreadsheet)
	}
	name := strings.TrimSuffix(file, xlsxExt)

	export, err := h.service.Prepare(c.Request().Context(), name, c.QueryParam("analysis"), dashboard.FilterFromQuery(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(&buf, export); err != nil {
		return writeError(c, h.log, err)
	}

	filename := h.service.FileName(export.FilePrefix)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Publish handles POST /downloads/publish/:dataset
func (h *Handler) Publish(c echo.Context) error {
	resp, err := h.service.Publish(c.Request().Context(), c.Param("dataset"), c.QueryParam("analysis"), dashboard.FilterFromQuery(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, resp)
}
