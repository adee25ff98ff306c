package api

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Connections tracks live chat sockets per conversation session.
type Connections struct {
	mu     sync.RWMutex
	active map[string]map[*websocket.Conn]struct{}
}

// NewConnections creates an empty registry.
func NewConnections() *Connections {
	return &Connections{active: make(map[string]map[*websocket.Conn]struct{})}
}

// Register adds conn under sessionID.
func (c *Connections) Register(sessionID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[sessionID]; !ok {
		c.active[sessionID] = make(map[*websocket.Conn]struct{})
	}
	c.active[sessionID][conn] = struct{}{}
	slog.Debug("Chat socket registered", "session_id", sessionID)
}

// Unregister removes conn from sessionID.
func (c *Connections) Unregister(sessionID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns, ok := c.active[sessionID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(c.active, sessionID)
	}
}

// Count returns the number of sockets attached to sessionID.
func (c *Connections) Count(sessionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.active[sessionID])
}

// CloseSession closes every socket attached to sessionID and returns how many.
func (c *Connections) CloseSession(sessionID string) int {
	c.mu.Lock()
	conns := c.active[sessionID]
	delete(c.active, sessionID)
	c.mu.Unlock()

	for conn := range conns {
		if err := conn.Close(websocket.StatusNormalClosure, "session closed"); err != nil {
			slog.Debug("Failed to close chat socket", "session_id", sessionID, "error", err)
		}
	}
	return len(conns)
}
