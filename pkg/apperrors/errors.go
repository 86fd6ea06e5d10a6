// Package apperrors defines the error taxonomy shared by the store, the
// gateways and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a record referenced by identifier does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when caller-supplied data fails shape or range checks.
	ErrValidation = errors.New("validation failed")
	// ErrUpstreamUnavailable is returned when an external gateway fails or times out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse is returned when a gateway replied with content that
	// does not match the expected schema.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// NotFound wraps ErrNotFound for the given entity and identifier.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Validation wraps ErrValidation with a message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Upstream wraps ErrUpstreamUnavailable, keeping the cause inspectable.
func Upstream(service string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", service, ErrUpstreamUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUpstreamUnavailable, cause)
}

// Malformed wraps ErrMalformedResponse, keeping the cause inspectable.
func Malformed(service string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", service, ErrMalformedResponse)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrMalformedResponse, cause)
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
