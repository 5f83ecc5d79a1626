// Package apperr defines the coded application errors the API surfaces to
// clients. Every refusal carries a stable machine-readable code alongside the
// human-readable message, and conflict responses carry enough context (current
// balance, current status) to explain themselves.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Error is a coded application error.
type Error struct {
	Code    string                 `json:"error"`
	Message string                 `json:"message"`
	Status  int                    `json:"-"`
	Meta    map[string]interface{} `json:"-"`
}

func (e *Error) Error() string { return e.Message }

// WithMeta attaches extra context fields that are merged into the JSON
// response body.
func (e *Error) WithMeta(key string, value interface{}) *Error {
	meta := make(map[string]interface{}, len(e.Meta)+1)
	for k, v := range e.Meta {
		meta[k] = v
	}
	meta[key] = value
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, Meta: meta}
}

// NotFound builds a 404 with the given code.
func NotFound(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusNotFound}
}

// Conflict builds a 400 refusal for an invalid-state transition.
func Conflict(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusBadRequest}
}

// Validation builds a 400 for malformed or missing input.
func Validation(message string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Message: message, Status: http.StatusBadRequest}
}

// Forbidden builds a 403 with the given code.
func Forbidden(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusForbidden}
}

// Internal wraps an unexpected error. The cause is logged by the error
// handler, never exposed to the caller.
func Internal(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusInternalServerError}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPErrorHandler returns an echo error handler rendering coded errors as
// {"message": ..., "error": CODE, ...meta}. Unrecognized errors are logged and
// surfaced as a generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if ae, ok := As(err); ok {
			body := map[string]interface{}{
				"message": ae.Message,
				"error":   ae.Code,
			}
			for k, v := range ae.Meta {
				body[k] = v
			}
			if ae.Status >= http.StatusInternalServerError {
				logger.Error().Err(err).Str("code", ae.Code).Msg("request failed")
			}
			_ = c.JSON(ae.Status, body)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			body := map[string]interface{}{
				"message": he.Message,
				"error":   http.StatusText(he.Code),
			}
			_ = c.JSON(he.Code, body)
			return
		}

		logger.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"message": "internal server error",
			"error":   "INTERNAL_ERROR",
		})
	}
}
