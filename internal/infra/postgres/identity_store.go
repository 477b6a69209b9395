package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"naturalize-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// IdentityStore is the client for the external identity collaborator's
// users and quiz_access tables. Schema ownership lives with the collaborator;
// this client only issues create/read/update calls.
type IdentityStore struct {
	pool *pgxpool.Pool
}

func NewIdentityStore(pool *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{pool: pool}
}

// CreateUser inserts a profile row plus its quiz_access row (demo 0 of 1).
// Duplicate emails return the existing profile.
func (s *IdentityStore) CreateUser(ctx context.Context, email, name string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	id := uuid.NewString()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING`,
		id, email, name)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_access (user_id, demo_used_count, max_demo_allowed)
		 VALUES ($1, 0, 1) ON CONFLICT (user_id) DO NOTHING`,
		user.ID)
	if err != nil {
		return nil, fmt.Errorf("create quiz access: %w", err)
	}
	return user, nil
}

func (s *IdentityStore) GetUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	var user domain.UserProfile
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, is_premium, premium_expires_at, created_at, updated_at
		 FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.IsPremium, &user.PremiumExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *IdentityStore) GetQuizAccess(ctx context.Context, userID string) (domain.QuizAccess, error) {
	var access domain.QuizAccess
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, demo_used_count, max_demo_allowed, updated_at
		 FROM quiz_access WHERE user_id = $1`, userID).
		Scan(&access.UserID, &access.DemoUsedCount, &access.MaxDemoAllowed, &access.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAccess{}, domain.ErrAccessNotFound
	}
	if err != nil {
		return domain.QuizAccess{}, fmt.Errorf("get quiz access: %w", err)
	}
	return access, nil
}

// SetDemoUsed writes the new counter value. Callers only ever pass an
// incremented count, keeping the column non-decreasing outside of webhook resets.
func (s *IdentityStore) SetDemoUsed(ctx context.Context, userID string, demoUsed int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE quiz_access SET demo_used_count = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, demoUsed)
	if err != nil {
		return fmt.Errorf("update quiz access: %w", err)
	}
	return nil
}

// SetPremium flips the premium flag and expiry on the profile row.
func (s *IdentityStore) SetPremium(ctx context.Context, userID string, premium bool, expiresAt *time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET is_premium = $2, premium_expires_at = $3, updated_at = NOW() WHERE id = $1`,
		userID, premium, expiresAt)
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return nil
}

// ResetDemo zeroes the demo counter. Only the payment webhook calls this.
func (s *IdentityStore) ResetDemo(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE quiz_access SET demo_used_count = 0, updated_at = NOW() WHERE user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("reset demo: %w", err)
	}
	return nil
}
