package download

import (
	"errors"
	"net/http"

	"ctox-dashboard/internal/dashboard"
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/providers/graph"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var ErrNotSpreadsheet = errors.New("downloads are served as .xlsx files")

// writeError maps download and publish failures, deferring dataset errors
// to the dashboard mapping
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var apiErr *graph.APIError
	switch {
	case errors.Is(err, ErrNotSpreadsheet):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, dataset.ErrNoRemote):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, graph.ErrConfiguration):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.As(err, &apiErr), errors.Is(err, graph.ErrTokenAcquisition):
		log.Warn("remote library rejected the upload", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return dashboard.WriteError(c, log, err)
	}
}
