package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

// ErrorResponse is the standard error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// jsonResponse writes a JSON response with the given status code
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// errorResponse writes a JSON error response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, ErrorResponse{Error: message})
}

// decodeBody parses a JSON request body into dst. An empty body is not an
// error; handlers validate required fields themselves.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
