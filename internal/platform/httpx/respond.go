// Package httpx provides HTTP response utilities for the JSON API.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ErrorBody is the payload of every failed response.
type ErrorBody struct {
	Error   string       `json:"error"`
	Details []FieldIssue `json:"details,omitempty"`
}

// MessageBody is returned by mutations without a resource payload.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Message sends {"message": message} with the given status.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// IDParam parses a positive int64 URL parameter.
func IDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
