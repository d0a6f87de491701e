// internal/app/features/errors/errors.go
//
// Package errors writes JSON error responses and maps domain errors to
// HTTP status codes.
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Status maps a domain error to its HTTP status. Unknown errors are 500.
// ErrUnauthorized is 401 for signed-out callers and 403 otherwise.
func Status(r *http.Request, err error) int {
	switch {
	case stderrors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case stderrors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, errs.ErrMismatch):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, errs.ErrExpired):
		return http.StatusGone
	case stderrors.Is(err, errs.ErrUnauthorized):
		if _, _, _, ok := authz.UserCtx(r); ok {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func code(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnprocessableEntity:
		return "mismatch"
	case http.StatusGone:
		return "expired"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// ErrorLogger writes error responses and logs the ones that are the
// server's fault.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger. A nil logger discards logs.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorLogger{Log: log}
}

// WriteError maps err to a status and writes it. Server errors are logged
// with op and the request id, and their detail is not sent to the client.
func (e *ErrorLogger) WriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := Status(r, err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		e.Log.Error(op,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		msg = http.StatusText(status)
	}
	Write(w, status, msg)
}

// LogBadRequest writes a 400 with msg and logs err at debug level.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, op string, err error, msg string) {
	e.Log.Debug(op, zap.Error(err), zap.String("path", r.URL.Path))
	Write(w, http.StatusBadRequest, msg)
}

// Write sends a JSON error body with the given status.
func Write(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Error: code(status), Message: msg})
}
