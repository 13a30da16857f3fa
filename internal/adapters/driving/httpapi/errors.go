// Package httpapi exposes the integration operations as an HTTP API.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// Port validation errors.
var (
	ErrMissingNotificationService = errors.New("httpapi: notification service is required")
	ErrMissingExportService       = errors.New("httpapi: export service is required")
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScenarioNotFound),
		errors.Is(err, domain.ErrUnknownScript),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoRecipients),
		errors.Is(err, domain.ErrNoData),
		errors.Is(err, domain.ErrConfigMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstream),
		errors.Is(err, domain.ErrDirectoryUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
