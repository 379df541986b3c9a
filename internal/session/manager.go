package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Manager maps anonymous visitor ids to their claim sessions. Sessions are
// created on first access and swept after a period of inactivity; nothing
// survives a sweep, a reset, or a process restart.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onRemove func(visitorID string)
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Get returns the visitor's session, creating a freshly seeded one on first
// access, and records the visit for idle sweeping.
func (m *Manager) Get(visitorID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[visitorID]
	m.mu.RUnlock()
	if ok {
		sess.Touch()
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[visitorID]; ok {
		sess.Touch()
		return sess
	}
	sess = New()
	m.sessions[visitorID] = sess
	slog.Info("Claim session created", "visitor_id", visitorID)
	return sess
}

// OnRemove registers fn to run whenever a session is discarded, whether by
// an explicit Remove or by the idle sweeper. The stream layer uses it to
// close the visitor's live connections, so a tab watching a swept session
// reconnects to the fresh one instead of holding a subscription to the
// orphaned state.
func (m *Manager) OnRemove(fn func(visitorID string)) {
	m.mu.Lock()
	m.onRemove = fn
	m.mu.Unlock()
}

// Remove discards the visitor's session. In-flight delayed work against it
// is canceled through the session's generation context.
func (m *Manager) Remove(visitorID string) {
	m.mu.Lock()
	sess, ok := m.sessions[visitorID]
	if ok {
		delete(m.sessions, visitorID)
	}
	onRemove := m.onRemove
	m.mu.Unlock()

	if ok {
		sess.Reset()
		if onRemove != nil {
			onRemove(visitorID)
		}
		slog.Info("Claim session removed", "visitor_id", visitorID)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper runs a background goroutine that periodically discards
// sessions idle for longer than ttl. It stops when ctx is canceled.
func (m *Manager) StartSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := m.sweep(ttl); n > 0 {
					slog.Info("Session sweeper removed idle sessions", "count", n)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.RLock()
	var expired []string
	for id, sess := range m.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Remove(id)
	}
	return len(expired)
}
