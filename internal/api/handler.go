// Package api provides HTTP handlers for the claims dashboard API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jaypatwe/EMA/internal/assistant"
	"github.com/jaypatwe/EMA/internal/scenario"
	"github.com/jaypatwe/EMA/internal/session"
)

// Handler serves the claim-session API.
type Handler struct {
	sessions *session.Manager
	assist   *assistant.Service
	runner   *scenario.Runner

	// base outlives individual requests; delayed assistant replies and
	// scenario playback run under it so they survive the triggering
	// request but stop on server shutdown.
	base context.Context
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(base context.Context, sessions *session.Manager, assist *assistant.Service, runner *scenario.Runner) *Handler {
	return &Handler{
		sessions: sessions,
		assist:   assist,
		runner:   runner,
		base:     base,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
