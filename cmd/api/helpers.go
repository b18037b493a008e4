package main

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeJSON writes a JSON response with the given status. Encoding
// failures at this point can only be logged; headers are already gone.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// readJSON decodes a request body into dst.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// errorMessage is the uniform error payload shape.
type errorMessage struct {
	Error string `json:"error"`
}

func (s *Server) clientError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorMessage{Error: msg})
}

func (s *Server) notFound(w http.ResponseWriter, msg string) {
	s.clientError(w, http.StatusNotFound, msg)
}

// serverError logs the cause and returns a generic 500 so storage
// internals never leak to the caller.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("request failed")
	s.clientError(w, http.StatusInternalServerError, "internal server error")
}
