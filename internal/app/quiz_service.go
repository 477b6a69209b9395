package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"naturalize-quiz-service/internal/domain"
	"naturalize-quiz-service/internal/question"
)

// SessionRegistry abstracts how quiz sessions are stored (in-memory, Redis, etc).
// Sessions accumulate for the process lifetime; there is no delete.
type SessionRegistry interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Count() int
}

// StatsStore accumulates per-question accuracy across all sessions.
type StatsStore interface {
	Record(ctx context.Context, questionID int, correct bool)
	Snapshot(ctx context.Context) []domain.QuestionStats
}

// QuizService contains the quiz use cases: start, answer, session lookup,
// and the stats dashboard.
type QuizService struct {
	questions *question.Store
	sessions  SessionRegistry
	stats     StatsStore
	now       func() time.Time
}

func NewQuizService(questions *question.Store, sessions SessionRegistry, stats StatsStore) *QuizService {
	return &QuizService{questions: questions, sessions: sessions, stats: stats, now: time.Now}
}

// StartOptions selects and orders the question snapshot for a new attempt.
type StartOptions struct {
	QuestionCount int
	Category      string
	Difficulty    string
	RandomOrder   bool
}

// DefaultStartOptions mirrors the request defaults: 10 questions, no filter,
// random order.
func DefaultStartOptions() StartOptions {
	return StartOptions{QuestionCount: 10, Category: "all", Difficulty: "all", RandomOrder: true}
}

// Start builds a new session from a filtered/shuffled/truncated snapshot and
// registers it under sessionID, or a generated timestamp token if absent.
func (s *QuizService) Start(sessionID string, opts StartOptions) *Session {
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = 10
	}
	questions, _ := s.questions.Query(question.Query{
		Category:   opts.Category,
		Difficulty: opts.Difficulty,
		Limit:      opts.QuestionCount,
		Random:     opts.RandomOrder,
	})

	if sessionID == "" {
		sessionID = fmt.Sprintf("quiz_%d", s.now().UnixMilli())
	}
	session := NewSessionWithClock(sessionID, questions, s.now)
	s.sessions.Put(session)
	return session
}

// SubmitAnswer routes a submission to its session and records question stats
// on success.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string, timeSpent int) (SubmitOutcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SubmitOutcome{}, domain.ErrSessionNotFound
	}

	outcome, err := session.submit(questionID, answer, timeSpent)
	if err != nil {
		return SubmitOutcome{}, err
	}
	s.stats.Record(ctx, questionID, outcome.IsCorrect)
	return outcome, nil
}

// GetSession returns a read-only progress snapshot.
func (s *QuizService) GetSession(sessionID string) (domain.SessionProgress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionProgress{}, domain.ErrSessionNotFound
	}
	return session.Progress(), nil
}

// GlobalStats derives category/difficulty counts from the question store and
// flattens the per-question accuracy mapping. Pure read.
func (s *QuizService) GlobalStats(ctx context.Context) domain.GlobalStats {
	all := s.questions.All()

	categoryCounts := make(map[string]int)
	order := make([]string, 0)
	for _, q := range all {
		if _, seen := categoryCounts[q.Category]; !seen {
			order = append(order, q.Category)
		}
		categoryCounts[q.Category]++
	}
	sort.Strings(order)

	categories := make([]domain.CategoryCount, 0, len(order))
	for _, name := range order {
		categories = append(categories, domain.CategoryCount{Name: name, Count: categoryCounts[name]})
	}

	difficulties := make([]domain.CategoryCount, 0, len(domain.Difficulties))
	for _, diff := range domain.Difficulties {
		count := 0
		for _, q := range all {
			if q.Difficulty == diff {
				count++
			}
		}
		difficulties = append(difficulties, domain.CategoryCount{Name: diff, Count: count})
	}

	return domain.GlobalStats{
		TotalQuestions: len(all),
		Categories:     categories,
		Difficulties:   difficulties,
		TotalSessions:  s.sessions.Count(),
		QuestionStats:  s.stats.Snapshot(ctx),
	}
}
