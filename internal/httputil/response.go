// Package httputil provides shared HTTP response helpers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/nekoko-ai/platform/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes a structured error body.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	WriteJSON(w, status, ErrorBody{Code: code, Error: message, Details: details})
}

// WriteError maps err onto the error taxonomy. Errors without a service
// code become opaque 500s so internals never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		WriteErrorResponse(w, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
		return
	}
	WriteErrorResponse(w, http.StatusInternalServerError, string(errors.CodeInternal), "internal error", nil)
}

// Unauthorized writes a 401 with an optional message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	WriteErrorResponse(w, http.StatusUnauthorized, string(errors.CodeUnauthorized), message, nil)
}
