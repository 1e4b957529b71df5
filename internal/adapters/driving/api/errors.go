// Package api serves packs over HTTP: the catalog, resumable downloads,
// direct document ingest and similarity search.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// ErrMissingService is returned when a required port is not provided.
var ErrMissingService = errors.New("api: download and catalog services are required")

// errorBody is the JSON body of every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIngestInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrStoreAuth), errors.Is(err, domain.ErrEmbeddingFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// detailFor returns the client-facing message. Internal failures are not
// described to clients.
func detailFor(status int, err error) string {
	switch status {
	case http.StatusNotFound:
		return "Context pack not found"
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return http.StatusText(status)
	default:
		return err.Error()
	}
}
