package socket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrClientClosed is returned when sending to a closed or saturated client.
	ErrClientClosed = errors.New("client is closed")
	// ErrHubClosed is returned by Connect after Shutdown.
	ErrHubClosed = errors.New("hub is shut down")
)

// Hub tracks every live connection and routes events to users through the
// presence registry. It is safe for concurrent use.
type Hub struct {
	registry *Registry
	conns    map[string]Conn
	closed   bool
	mu       sync.RWMutex
}

func NewHub(registry *Registry) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Hub{
		registry: registry,
		conns:    make(map[string]Conn),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect adds conn to the broadcast set. The connection is not routable by
// user until it joins.
func (h *Hub) Connect(conn Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.conns[conn.ID()] = conn

	log.Debug().Str("component", "hub").Str("conn_id", conn.ID()).Int("total", len(h.conns)).
		Msg("Connection opened")
	return nil
}

// Disconnect drops conn and its presence entry. Safe to call more than once.
func (h *Hub) Disconnect(conn Conn) {
	h.mu.Lock()
	_, known := h.conns[conn.ID()]
	delete(h.conns, conn.ID())
	h.mu.Unlock()

	userID, wasOnline := h.registry.Unregister(conn)
	if known {
		log.Debug().Str("component", "hub").Str("conn_id", conn.ID()).Str("user_id", userID).
			Msg("Connection closed")
	}
	if wasOnline {
		h.broadcastOnlineUsers()
	}
}

// Join registers userID on conn and announces the new online set.
func (h *Hub) Join(userID string, conn Conn) error {
	if err := h.registry.Register(userID, conn); err != nil {
		return err
	}
	log.Info().Str("component", "hub").Str("user_id", userID).Str("conn_id", conn.ID()).Msg("User joined")
	h.broadcastOnlineUsers()
	return nil
}

// Leave removes userID if conn is still its current handle.
func (h *Hub) Leave(userID string, conn Conn) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	current, ok := h.registry.Lookup(userID)
	if !ok || current.ID() != conn.ID() {
		return nil
	}
	h.registry.Unregister(conn)
	log.Info().Str("component", "hub").Str("user_id", userID).Msg("User left")
	h.broadcastOnlineUsers()
	return nil
}

// EmitToUser sends event to the user's current connection. It reports whether
// a connection accepted the frame; an offline user is not an error.
func (h *Hub) EmitToUser(userID string, event EventType, payload interface{}) (bool, error) {
	conn, ok := h.registry.Lookup(userID)
	if !ok {
		return false, nil
	}
	data, err := NewMessage(event, payload).ToJSON()
	if err != nil {
		return false, err
	}
	if err := h.deliver(conn, data); err != nil {
		return false, err
	}
	return true, nil
}

// EmitToUsers sends event to each distinct online user and returns how many
// connections accepted it.
func (h *Hub) EmitToUsers(userIDs []string, event EventType, payload interface{}) int {
	data, err := NewMessage(event, payload).ToJSON()
	if err != nil {
		log.Error().Err(err).Str("component", "hub").Str("event", string(event)).Msg("Failed to encode event")
		return 0
	}

	seen := make(map[string]bool, len(userIDs))
	sent := 0
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		conn, ok := h.registry.Lookup(userID)
		if !ok {
			continue
		}
		if h.deliver(conn, data) == nil {
			sent++
		}
	}
	return sent
}

// Broadcast sends event to every open connection, joined or not.
func (h *Hub) Broadcast(event EventType, payload interface{}) int {
	data, err := NewMessage(event, payload).ToJSON()
	if err != nil {
		log.Error().Err(err).Str("component", "hub").Str("event", string(event)).Msg("Failed to encode event")
		return 0
	}

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	sent := 0
	for _, conn := range targets {
		if h.deliver(conn, data) == nil {
			sent++
		}
	}
	return sent
}

func (h *Hub) OnlineUsers() []string {
	return h.registry.ListOnline()
}

func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection and clears presence. Later Connect calls fail.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[string]Conn)
	h.mu.Unlock()

	h.registry.Clear()
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Str("component", "hub").Str("conn_id", conn.ID()).Msg("Close on shutdown")
		}
	}
	log.Info().Str("component", "hub").Int("closed", len(conns)).Msg("Hub shut down")
}

func (h *Hub) broadcastOnlineUsers() {
	h.Broadcast(EventOnlineUsers, h.registry.ListOnline())
}

// deliver writes to conn and evicts it when the write fails.
func (h *Hub) deliver(conn Conn, data []byte) error {
	err := conn.Send(data)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Str("component", "hub").Str("conn_id", conn.ID()).Msg("Dropping connection after failed send")
	h.Disconnect(conn)
	conn.Close()
	return err
}
