package graph

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration      = errors.New("graph configuration error")
	ErrAmbiguousMode      = fmt.Errorf("%w: both OneDrive and SharePoint site configured", ErrConfiguration)
	ErrMissingCredentials = fmt.Errorf("%w: tenant id, client id and client secret are required", ErrConfiguration)
	ErrLibraryNotFound    = fmt.Errorf("%w: document library not found", ErrConfiguration)
	ErrPathMismatch       = fmt.Errorf("%w: server-relative path does not match site and library", ErrConfiguration)
	ErrEmptyPath          = errors.New("empty path")
	ErrNotFound           = errors.New("item not found")
	ErrTokenAcquisition   = errors.New("failed to acquire access token")
)

// APIError is a non-2xx answer from Microsoft Graph
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("graph API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("graph API error (status %d): %s %s", e.StatusCode, e.Code, e.Message)
}
