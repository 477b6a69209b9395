package memory

import (
	"sync"

	"naturalize-quiz-service/internal/app"
)

// SessionRegistry is an in-memory implementation of app.SessionRegistry.
// Sessions live for the process lifetime; restarts drop them, which is the
// documented durability contract.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) Put(session *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

func (r *SessionRegistry) Get(sessionID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
