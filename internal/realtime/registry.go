package realtime

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Registry tracks which sessions are currently connected for each user.
// One user may hold several sessions at once (multiple tabs or devices);
// the set of sessions for a user forms that user's room for fan-out.
// State is in-memory only and rebuilt empty on restart.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[uuid.UUID]map[string]Session
	sessions map[string]Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[uuid.UUID]map[string]Session),
		sessions: make(map[string]Session),
	}
}

// Join registers a session under its user's room. Two sessions of the same
// user coexist; neither replaces the other.
func (r *Registry) Join(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID()] = s
	room := r.byUser[s.UserID()]
	if room == nil {
		room = make(map[string]Session)
		r.byUser[s.UserID()] = room
	}
	room[s.ID()] = s
}

// Leave removes a session. Idempotent: unknown session IDs are a no-op.
func (r *Registry) Leave(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	room := r.byUser[s.UserID()]
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.byUser, s.UserID())
	}
}

// SessionsFor returns a snapshot of the user's sessions, possibly empty.
func (r *Registry) SessionsFor(userID uuid.UUID) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.byUser[userID]
	if len(room) == 0 {
		return nil
	}
	out := make([]Session, 0, len(room))
	for _, s := range room {
		out = append(out, s)
	}
	return out
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}
