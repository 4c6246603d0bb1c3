package socket

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidUserID is returned for an empty or malformed user id.
var ErrInvalidUserID = errors.New("invalid user id")

// Conn is a live connection handle the hub can write to.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry maps each online user to the connection it joined on most recently.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[string]string // conn id -> user id
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		byConn: make(map[string]string),
	}
}

// Register binds userID to conn, replacing any earlier handle for that user.
// Registering the same pair twice is a no-op.
func (r *Registry) Register(userID string, conn Conn) error {
	if _, err := uuid.Parse(userID); err != nil || conn == nil {
		return ErrInvalidUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev.ID() != conn.ID() {
		delete(r.byConn, prev.ID())
	}
	// A handle belongs to one user at a time.
	if prevUser, ok := r.byConn[conn.ID()]; ok && prevUser != userID {
		delete(r.byUser, prevUser)
	}

	r.byUser[userID] = conn
	r.byConn[conn.ID()] = userID
	return nil
}

// Unregister removes whichever user is bound to conn and reports whether that
// user went offline. A stale handle whose user already re-registered
// elsewhere removes nothing.
func (r *Registry) Unregister(conn Conn) (string, bool) {
	if conn == nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn.ID())
	current, ok := r.byUser[userID]
	if !ok || current.ID() != conn.ID() {
		return userID, false
	}
	delete(r.byUser, userID)
	return userID, true
}

func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// ListOnline returns the online user ids in ascending order.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	r.mu.RUnlock()

	sort.Strings(users)
	return users
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser = make(map[string]Conn)
	r.byConn = make(map[string]string)
}
