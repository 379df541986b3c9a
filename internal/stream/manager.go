// Package stream pushes live claim-session snapshots to dashboard tabs over
// WebSocket.
package stream

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Manager tracks active WebSocket connections per visitor and tab.
type Manager struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewManager creates a new connection manager.
func NewManager() *Manager {
	return &Manager{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a visitor and tab.
func (m *Manager) GetActive(visitorID, tabID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[visitorID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds a new connection for a visitor/tab, replacing and closing
// any previous connection for the same tab.
func (m *Manager) Register(visitorID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[visitorID]; !exists {
		m.active[visitorID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[visitorID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "tab replaced")
	}

	m.active[visitorID][tabID] = conn
	slog.Info("Dashboard stream registered", "visitor_id", visitorID, "tab_id", tabID)
}

// Unregister removes a connection for a visitor/tab if it is still the
// current one.
func (m *Manager) Unregister(visitorID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[visitorID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(m.active, visitorID)
			}
			slog.Info("Dashboard stream unregistered", "visitor_id", visitorID, "tab_id", tabID)
		}
	}
}

// CloseVisitor forcefully terminates all active connections for a visitor,
// for example when the idle sweeper discards their session.
func (m *Manager) CloseVisitor(visitorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs, ok := m.active[visitorID]
	if !ok {
		return
	}

	for tabID, conn := range tabs {
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		slog.Info("Dashboard stream closed", "visitor_id", visitorID, "tab_id", tabID)
	}
	delete(m.active, visitorID)
}
