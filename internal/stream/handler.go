package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/jaypatwe/EMA/internal/identity"
	"github.com/jaypatwe/EMA/internal/session"
)

// Handler upgrades dashboard tabs to WebSocket and streams the visitor's
// claim-session snapshots to them.
type Handler struct {
	sessions      *session.Manager
	conns         *Manager
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new stream handler.
func NewHandler(sessions *session.Manager, conns *Manager, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		sessions:      sessions,
		conns:         conns,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// envelope frames every message pushed to the dashboard.
type envelope struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
}

// inbound is the only message shape the dashboard sends.
type inbound struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	if visitorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	slog.Info("Stream connection request", "visitor_id", visitorID, "tab_id", tabID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()

	h.conns.Register(visitorID, tabID, ws)
	defer h.conns.Unregister(visitorID, tabID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := h.sessions.Get(visitorID)
	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// The tab renders from snapshots alone, so send one up front rather
	// than waiting for the first mutation.
	first := sess.Snapshot()
	if err := h.writeSnapshot(ctx, ws, first); err != nil {
		slog.Debug("Failed to send initial snapshot", "error", err, "visitor_id", visitorID)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		h.readLoop(ctx, ws, sess, visitorID)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		h.writeLoop(ctx, ws, updates, visitorID)
	}()

	wg.Wait()
	slog.Info("Stream session ended", "visitor_id", visitorID, "tab_id", tabID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("Stream origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, sess *session.Session, visitorID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Stream closed by client", "visitor_id", visitorID)
			} else if ctx.Err() == nil {
				slog.Warn("Stream read error", "error", err, "visitor_id", visitorID)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			// An open tab that pings is an active visitor; keep the
			// session out of the idle sweep.
			sess.Touch()
			if err := h.writeJSON(ws, envelope{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		case "terminate":
			slog.Info("Stream terminate requested", "visitor_id", visitorID)
			return
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, ws *websocket.Conn, updates <-chan session.Snapshot, visitorID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			if err := h.writeSnapshot(ctx, ws, snap); err != nil {
				if ctx.Err() == nil {
					slog.Debug("Stream write error", "error", err, "visitor_id", visitorID)
				}
				return
			}
		}
	}
}

func (h *Handler) writeSnapshot(ctx context.Context, ws *websocket.Conn, snap session.Snapshot) error {
	data, err := json.Marshal(envelope{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

func (h *Handler) writeJSON(ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
