package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jaypatwe/EMA/internal/assistant"
	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/identity"
	"github.com/jaypatwe/EMA/internal/scenario"
	"github.com/jaypatwe/EMA/internal/session"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the claim-session API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/claim", h.GetClaim)
		r.Post("/claim/messages", h.PostMessage)
		r.Post("/claim/photo", h.UploadPhoto)
		r.Post("/claim/reset", h.ResetClaim)
		r.Get("/scenarios", h.ListScenarios)
		r.Post("/scenarios/{name}", h.StartScenario)
		r.Get("/notifications", h.GetNotifications)
		r.Get("/settings", h.GetSettings)
	})
}

func (h *Handler) visitorSession(w http.ResponseWriter, r *http.Request) *session.Session {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	return h.sessions.Get(visitorID)
}

// GetClaim returns the visitor's current claim and agent workflow.
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	sess := h.visitorSession(w, r)
	if sess == nil {
		return
	}
	JSON(w, http.StatusOK, sess.Snapshot())
}

type postMessageRequest struct {
	Message string `json:"message"`
}

// PostMessage appends a chat message from the claimant and schedules the
// assistant's reply.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sess := h.visitorSession(w, r)
	if sess == nil {
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	msg, _ := h.assist.HandleMessage(h.base, sess, req.Message)
	JSON(w, http.StatusAccepted, map[string]interface{}{"message": msg})
}

// UploadPhoto records the mock damage-photo upload and kicks off the
// simulated vision analysis.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	sess := h.visitorSession(w, r)
	if sess == nil {
		return
	}

	if _, err := h.assist.HandleUpload(h.base, sess); err != nil {
		if errors.Is(err, assistant.ErrPhotoAlreadyUploaded) {
			Error(w, http.StatusConflict, "a damage photo was already uploaded")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	JSON(w, http.StatusAccepted, map[string]string{"status": string(claims.StatusAnalyzing)})
}

// ResetClaim wipes the visitor's session back to the seeded claim.
func (h *Handler) ResetClaim(w http.ResponseWriter, r *http.Request) {
	sess := h.visitorSession(w, r)
	if sess == nil {
		return
	}
	sess.Reset()
	JSON(w, http.StatusOK, sess.Snapshot())
}

type scenarioInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ListScenarios returns the embedded demo timelines.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	var out []scenarioInfo
	for _, name := range scenario.List() {
		script, err := scenario.Load(name)
		if err != nil {
			Error(w, http.StatusInternalServerError, "failed to load scenarios")
			return
		}
		out = append(out, scenarioInfo{Name: script.Name, Label: script.Label})
	}
	JSON(w, http.StatusOK, out)
}

// StartScenario resets the visitor's session and plays the named timeline.
// Only one run per session may be in flight.
func (h *Handler) StartScenario(w http.ResponseWriter, r *http.Request) {
	sess := h.visitorSession(w, r)
	if sess == nil {
		return
	}

	name := chi.URLParam(r, "name")
	script, err := scenario.Load(name)
	if err != nil {
		Error(w, http.StatusNotFound, "unknown scenario")
		return
	}

	if _, err := h.runner.Start(h.base, sess, script); err != nil {
		if errors.Is(err, claims.ErrScenarioActive) {
			Error(w, http.StatusConflict, "a scenario run is already in flight")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to start scenario")
		return
	}
	JSON(w, http.StatusAccepted, scenarioInfo{Name: script.Name, Label: script.Label})
}

// GetNotifications serves the fixed notification feed.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, claims.SeedNotifications())
}

// GetSettings serves the agent threshold configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, claims.DefaultSettings())
}
