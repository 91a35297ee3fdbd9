// Package httputil provides HTTP response helper functions.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes a raw JSON response.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// ErrorBody is the {"code": ..., "message": ...} error envelope.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FieldErrorsBody is the {"code": ..., "errors": {field: message}} error envelope.
type FieldErrorsBody struct {
	Code   int               `json:"code"`
	Errors map[string]string `json:"errors"`
}

// Error writes a {"code", "message"} response. The body code mirrors the HTTP status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Code: status, Message: message})
}

// FieldErrors writes a field-keyed error map.
// Validation failures are reported with 401, the status clients of this API expect.
func FieldErrors(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusUnauthorized, FieldErrorsBody{Code: http.StatusUnauthorized, Errors: fields})
}
