// internal/notification/registry/registry.go
package registry

import (
	"sync"

	"notification-service/internal/common/metrics"
)

// Session is an opaque handle to one live bidirectional connection.
type Session interface {
	ID() string
	Send(payload []byte) error
}

// Registry maps a user id to the set of live sessions owned by this process.
// It is rebuilt from scratch on restart; nothing here is persisted. One
// instance is injected into the gateway, there is no package-level state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]map[string]Session // user id -> session id -> session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]map[string]Session),
	}
}

// Add registers a session for a user. Re-adding a session with the same id
// replaces the handle and is safe.
func (r *Registry) Add(userID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[string]Session)
		r.sessions[userID] = set
	}
	set[s.ID()] = s

	r.updateGauges()
}

// Remove unregisters a session for a user. Removing an absent session is a
// no-op. The user entry is dropped entirely once its set becomes empty.
func (r *Registry) Remove(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.sessions, userID)
	}

	r.updateGauges()
}

// Sessions returns a snapshot of the user's live sessions. The copy lets
// the caller deliver without holding the lock.
func (r *Registry) Sessions(userID string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	out := make([]Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// Contains reports whether the user has at least one live session here.
func (r *Registry) Contains(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions[userID]) > 0
}

// Users returns the number of users with at least one live session.
func (r *Registry) Users() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Len returns the total number of live sessions across all users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, set := range r.sessions {
		total += len(set)
	}
	return total
}

// updateGauges must be called with r.mu held.
func (r *Registry) updateGauges() {
	total := 0
	for _, set := range r.sessions {
		total += len(set)
	}
	metrics.ActiveSessions.Set(float64(total))
	metrics.ConnectedUsers.Set(float64(len(r.sessions)))
}
