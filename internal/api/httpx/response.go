// Package httpx holds the JSON envelope, error mapping, request binding and
// middleware shared by the REST handlers.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/go-chi/chi/v5/middleware"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {"status":"success","data":...}.
func OK(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, envelope{Status: "success", Data: data})
}

// Fail writes {"status":"fail","message":...}.
func Fail(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, envelope{Status: "fail", Message: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindDomain:
		return http.StatusConflict
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindAllocationExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a fail envelope. Unclassified errors are logged and
// hidden behind a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"status", code,
			"error", err.Error(),
		)
	}
	Fail(w, code, apperrors.PublicMessage(err))
}
