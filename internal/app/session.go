package app

import (
	"strconv"
	"sync"
	"time"

	"naturalize-quiz-service/internal/domain"
)

// Session is one quiz attempt. It owns a snapshot copy of its questions so
// later store queries cannot mutate an in-flight attempt. All mutation goes
// through submit, which serializes concurrent submissions to the same id.
type Session struct {
	id        string
	questions []domain.Question
	now       func() time.Time

	mu      sync.Mutex
	index   int
	answers []domain.Answer
	score   int
	status  string
	started time.Time
	ended   time.Time
}

// NewSession builds an active session over a question snapshot.
func NewSession(id string, questions []domain.Question) *Session {
	return NewSessionWithClock(id, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, questions []domain.Question, now func() time.Time) *Session {
	snapshot := append([]domain.Question(nil), questions...)
	return &Session{
		id:        id,
		questions: snapshot,
		now:       now,
		status:    domain.SessionActive,
		started:   now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// TotalQuestions returns the length of the question snapshot.
func (s *Session) TotalQuestions() int { return len(s.questions) }

// FirstQuestion returns the opening question, or nil for an empty snapshot.
func (s *Session) FirstQuestion() *domain.Question {
	if len(s.questions) == 0 {
		return nil
	}
	q := s.questions[0]
	return &q
}

// SubmitOutcome is the result of one answer submission.
type SubmitOutcome struct {
	IsCorrect    bool
	Explanation  string
	Completed    bool
	NextQuestion *domain.Question
	Results      *domain.QuizResults
}

// submit validates the submission against the cursor, records the answer,
// advances, and completes the session after the last question. The session
// lock serializes submissions; a failed validation leaves state untouched.
func (s *Session) submit(questionID int, answer string, timeSpent int) (SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.SessionCompleted || s.index >= len(s.questions) {
		return SubmitOutcome{}, domain.ErrSessionCompleted
	}

	current := s.questions[s.index]
	if current.ID != questionID {
		return SubmitOutcome{}, domain.ErrQuestionMismatch
	}

	correct := answerMatches(current, answer)
	s.answers = append(s.answers, domain.Answer{
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  correct,
		TimeSpent:  timeSpent,
		Timestamp:  s.now(),
	})
	if correct {
		s.score++
	}
	s.index++

	outcome := SubmitOutcome{IsCorrect: correct, Explanation: current.Explanation}
	if s.index >= len(s.questions) {
		s.status = domain.SessionCompleted
		s.ended = s.now()
		total := len(s.questions)
		outcome.Completed = true
		outcome.Results = &domain.QuizResults{
			Score:      s.score,
			Total:      total,
			Percentage: roundPercent(s.score, total),
			TimeSpent:  s.ended.Sub(s.started).Milliseconds(),
		}
		return outcome, nil
	}

	next := s.questions[s.index]
	outcome.NextQuestion = &next
	return outcome, nil
}

// Progress returns a read-only snapshot of the session.
func (s *Session) Progress() domain.SessionProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := domain.SessionProgress{
		ID:             s.id,
		CurrentIndex:   s.index,
		TotalQuestions: len(s.questions),
		Score:          s.score,
		Status:         s.status,
	}
	if s.index < len(s.questions) {
		q := s.questions[s.index]
		progress.CurrentQuestion = &q
	}
	return progress
}

// answerMatches compares a submission against the question's correct-answer
// marker. Clients send either the option index, the option text, or the
// canonical answer string; any of the three counts.
func answerMatches(q domain.Question, answer string) bool {
	if answer == strconv.Itoa(q.CorrectAnswer) {
		return true
	}
	if q.Answer != "" && answer == q.Answer {
		return true
	}
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) && answer == q.Options[q.CorrectAnswer] {
		return true
	}
	for _, opt := range q.QuizOptions {
		if opt.Correct && answer == opt.Text {
			return true
		}
	}
	return false
}

func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(part)/float64(total)*100 + 0.5)
}
