package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
	"github.com/rocketshoes/cartstore/pkg/logger"
	"github.com/rocketshoes/cartstore/pkg/validator"
)

// Response is the JSON envelope for every API response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope. Notification carries the
// user-facing notification kind when a cart operation was rejected.
type ErrorResponse struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Notification string            `json:"notification,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger prefers the request-scoped logger installed by the
// RequestLogger middleware.
func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if l := logger.FromContext(r.Context()); l != slog.Default() || fallback == nil {
		return l
	}
	return fallback
}

// ErrorFor maps err to a status code and error body. Server-side failures
// are logged and their details are not exposed to the client.
func ErrorFor(r *http.Request, err error, fallback *slog.Logger) (int, *ErrorResponse) {
	resp := &ErrorResponse{RequestID: logger.RequestIDFromContext(r.Context())}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		resp.Code, resp.Message = appErr.Code, appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrStockExceeded):
		resp.Code, resp.Message = "STOCK_EXCEEDED", "requested quantity exceeds stock"
	case errors.Is(err, apperrors.ErrBadGateway):
		resp.Code, resp.Message = "BAD_GATEWAY", "upstream request failed"
	default:
		resp.Code, resp.Message = "INTERNAL_ERROR", "an internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		requestLogger(r, fallback).ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	return status, resp
}

// WriteError writes the standard error envelope for err.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, resp := ErrorFor(r, err, fallback)
	WriteJSON(w, status, Response{Error: resp})
}

// WriteValidationError writes a 400 with field-level messages when err is a
// *validator.ValidationError, or the raw message otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

// ParsePositiveInt parses a path parameter as an integer greater than zero.
// On failure it writes a 400 INVALID_PARAMETER and returns false.
func ParsePositiveInt(w http.ResponseWriter, name, param string) (int, bool) {
	n, err := strconv.Atoi(param)
	if err != nil || n <= 0 {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: name + " must be a positive integer: " + strconv.Quote(param),
			},
		})
		return 0, false
	}
	return n, true
}
