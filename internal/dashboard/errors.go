package dashboard

import (
	"errors"
	"net/http"

	"ctox-dashboard/internal/analysis"
)

var (
	ErrNoData         = errors.New("no data available: neither labs nor companies could be loaded")
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrInvalidLimit   = errors.New("limit must be a positive integer")
)

// NoDataError carries the load warnings explaining why nothing was loaded
type NoDataError struct {
	Warnings []string
}

func (e *NoDataError) Error() string { return ErrNoData.Error() }

func (e *NoDataError) Unwrap() error { return ErrNoData }

type ErrorResponse struct {
	StatusCode int
	Message    string
}

// GetErrorResponse returns appropriate HTTP response for an error
func GetErrorResponse(err error) ErrorResponse {
	switch {
	case errors.Is(err, ErrNoData):
		return ErrorResponse{http.StatusServiceUnavailable, "No data available. Check the data source configuration and reload."}
	case errors.Is(err, ErrUnknownDataset):
		return ErrorResponse{http.StatusNotFound, err.Error()}
	case errors.Is(err, analysis.ErrUnknownAnalysis):
		return ErrorResponse{http.StatusNotFound, err.Error()}
	case errors.Is(err, analysis.ErrInsufficientData):
		return ErrorResponse{http.StatusUnprocessableEntity, err.Error()}
	case errors.Is(err, ErrInvalidLimit):
		return ErrorResponse{http.StatusBadRequest, err.Error()}
	default:
		return ErrorResponse{http.StatusInternalServerError, "An unexpected error occurred. Please try again."}
	}
}
