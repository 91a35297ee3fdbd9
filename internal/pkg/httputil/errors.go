package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/study-on/billing/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
	Field   string // if set, responds with {"errors": {Field: message}}
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// If no mapping matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			if m.Field != "" {
				JSON(w, m.Status, FieldErrorsBody{Code: m.Status, Errors: map[string]string{m.Field: msg}})
				return
			}
			Error(w, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// DecodeJSON decodes the request body into v.
// A malformed body is answered with 400 and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeBody(r, v); err != nil {
		Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
