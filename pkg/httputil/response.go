// Package httputil writes the JSON error responses served when a request
// cannot be answered with a mock.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Error codes used in error bodies.
const (
	CodeUnhandled    = "unhandled_request"
	CodeResolveError = "resolve_error"
	CodeBadRequest   = "bad_request"
	CodePassthrough  = "passthrough_unavailable"
)

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Method  string `json:"method,omitempty"`
	URL     string `json:"url,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: code, Message: message})
}

// WriteUnhandled writes the 404 served for a request no handler answered.
func WriteUnhandled(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, ErrorBody{
		Error:   CodeUnhandled,
		Message: "no handler matched the request",
		Method:  r.Method,
		URL:     r.URL.String(),
	})
}

// WriteResolveError writes the 500 served when resolution failed.
func WriteResolveError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, CodeResolveError, err.Error())
}
