package access

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"naturalize-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// IdentityStore is the slice of the identity collaborator the gate needs.
type IdentityStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	GetQuizAccess(ctx context.Context, userID string) (domain.QuizAccess, error)
	SetDemoUsed(ctx context.Context, userID string, demoUsed int) error
	SetPremium(ctx context.Context, userID string, premium bool, expiresAt *time.Time) error
}

// remoteTimeout bounds identity-store calls so a slow collaborator cannot
// stall quiz starts.
const remoteTimeout = 3 * time.Second

// Gate decides whether a user may start a quiz attempt: premium users always
// may, authenticated users get exactly one free demo, everyone else is denied.
// Remote access records are authoritative; the local mirror is advisory only.
type Gate struct {
	store IdentityStore
	now   func() time.Time
	sf    singleflight.Group

	mu     sync.RWMutex
	mirror map[string]domain.QuizAccess
}

func NewGate(store IdentityStore) *Gate {
	return &Gate{store: store, now: time.Now, mirror: make(map[string]domain.QuizAccess)}
}

// CanStart applies the gating policy. It fails closed for anonymous users and
// exhausted demos, in that order of precedence behind the premium bypass.
func (g *Gate) CanStart(ctx context.Context, user *domain.UserProfile) error {
	now := g.now()
	if user.EffectivePremium(now) {
		return nil
	}
	if user != nil && user.IsPremium {
		// Stored flag is stale past its expiry; correct the collaborator
		// opportunistically but never trust it for gating.
		g.correctExpiredPremium(ctx, user)
	}
	if user == nil {
		return domain.ErrNotAuthenticated
	}

	access, err := g.fetchAccess(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccessNotFound) {
			// No tracked record: the user proceeds with an untracked demo.
			return nil
		}
		// Collaborator failures degrade to the advisory mirror, then to allow;
		// read-only flows must never be blocked by a flaky remote.
		log.Printf("quiz access lookup failed for %s: %v", user.ID, err)
		g.mu.RLock()
		cached, ok := g.mirror[user.ID]
		g.mu.RUnlock()
		if !ok {
			return nil
		}
		access = cached
	}

	if access.DemoUsedCount >= access.MaxDemoAllowed {
		return domain.ErrDemoExhausted
	}
	return nil
}

// ConsumeDemo increments the remote demo counter after a demo attempt starts.
// A missing record is a no-op, not an error.
func (g *Gate) ConsumeDemo(ctx context.Context, user *domain.UserProfile) {
	if user == nil || user.EffectivePremium(g.now()) {
		return
	}

	access, err := g.fetchAccess(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccessNotFound) {
			log.Printf("consume demo fetch failed for %s: %v", user.ID, err)
		}
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	if err := g.store.SetDemoUsed(updateCtx, user.ID, access.DemoUsedCount+1); err != nil {
		log.Printf("consume demo update failed for %s: %v", user.ID, err)
		return
	}

	access.DemoUsedCount++
	access.UpdatedAt = g.now()
	g.mu.Lock()
	g.mirror[user.ID] = access
	g.mu.Unlock()
}

// Access returns the freshest known record for display purposes, preferring
// the remote value and falling back to the advisory mirror.
func (g *Gate) Access(ctx context.Context, userID string) (domain.QuizAccess, error) {
	access, err := g.fetchAccess(ctx, userID)
	if err == nil {
		return access, nil
	}
	g.mu.RLock()
	cached, ok := g.mirror[userID]
	g.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return domain.QuizAccess{}, err
}

// fetchAccess reads the remote record with a timeout, deduplicating concurrent
// fetches for the same user, and refreshes the mirror on success.
func (g *Gate) fetchAccess(ctx context.Context, userID string) (domain.QuizAccess, error) {
	result, err, _ := g.sf.Do(userID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
		defer cancel()
		return g.store.GetQuizAccess(fetchCtx, userID)
	})
	if err != nil {
		return domain.QuizAccess{}, err
	}

	access := result.(domain.QuizAccess)
	g.mu.Lock()
	g.mirror[userID] = access
	g.mu.Unlock()
	return access, nil
}

func (g *Gate) correctExpiredPremium(ctx context.Context, user *domain.UserProfile) {
	fixCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	if err := g.store.SetPremium(fixCtx, user.ID, false, nil); err != nil {
		log.Printf("premium expiry correction failed for %s: %v", user.ID, err)
	}
}
