package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"naturalize-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionRegistry is a Redis-aware implementation of app.SessionRegistry.
// Notes:
//   - The authoritative aggregate stays in the local map so the per-session
//     lock keeps serializing submissions within one process.
//   - Redis holds a best-effort JSON snapshot of each session's progress so
//     dashboards and sibling processes can observe attempts.
//   - Snapshots are advisory; the process map is the source of truth.
type SessionRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) Put(session *app.Session) {
	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()
	r.mirror(session)
}

func (r *SessionRegistry) Get(sessionID string) (*app.Session, bool) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		// Refresh the mirror on read so observers see the latest cursor.
		r.mirror(session)
	}
	return session, ok
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) mirror(session *app.Session) {
	data, err := json.Marshal(session.Progress())
	if err != nil {
		return
	}
	_ = r.client.Set(context.Background(), r.key(session.ID()), data, r.ttl).Err()
}

func (r *SessionRegistry) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
