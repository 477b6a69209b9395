package shell

import (
	"fmt"

	"naturalize-quiz-service/internal/domain"
)

// View names the screens the shell can route between.
type View string

const (
	ViewFiches  View = "fiches"
	ViewQuiz    View = "quiz"
	ViewResults View = "quiz-results"
	ViewAuth    View = "auth"
	ViewUpgrade View = "upgrade"
)

// Modal kinds, mirroring the severity levels the UI distinguishes.
const (
	ModalInfo    = "info"
	ModalSuccess = "success"
	ModalWarning = "warning"
	ModalError   = "error"
)

// Modal is a transient user-facing message.
type Modal struct {
	Kind    string
	Message string
}

// AccessView is the advisory local mirror of the user's premium/demo state.
// It is display-only and superseded by every remote fetch.
type AccessView struct {
	Authenticated bool
	Premium       bool
	DemoUsed      int
	MaxDemo       int
}

// State is the whole presentation state. Transitions never mutate a State in
// place; each returns the successor value, and a rendering layer observes the
// sequence.
type State struct {
	View  View
	Modal *Modal

	// Card (fiche) navigation.
	Cards     []domain.Question
	CardIndex int

	// Quiz attempt.
	SessionID      string
	Current        *domain.Question
	QuestionNumber int
	TotalQuestions int
	Selected       string
	Score          int
	TimeLeft       int // seconds remaining on the global budget
	TimedOut       bool
	Results        *domain.QuizResults

	Access AccessView
}

// NewState opens on the fiches view.
func NewState() State {
	return State{View: ViewFiches}
}

// WithCards loads the card deck and resets navigation.
func (s State) WithCards(cards []domain.Question) State {
	s.Cards = cards
	s.CardIndex = 0
	return s
}

// NextCard advances the deck cursor, clamped to the last card.
func (s State) NextCard() State {
	if s.CardIndex < len(s.Cards)-1 {
		s.CardIndex++
	}
	return s
}

// PrevCard moves the deck cursor back, clamped to the first card.
func (s State) PrevCard() State {
	if s.CardIndex > 0 {
		s.CardIndex--
	}
	return s
}

// BeginQuiz routes to the quiz view with a fresh attempt and timer budget.
func (s State) BeginQuiz(sessionID string, total int, first *domain.Question, budgetSeconds int) State {
	s.View = ViewQuiz
	s.SessionID = sessionID
	s.Current = first
	s.QuestionNumber = 1
	s.TotalQuestions = total
	s.Selected = ""
	s.Score = 0
	s.TimeLeft = budgetSeconds
	s.TimedOut = false
	s.Results = nil
	return s
}

// SelectAnswer records the user's pending choice for the current question.
func (s State) SelectAnswer(answer string) State {
	s.Selected = answer
	return s
}

// AnswerOutcome carries the server's response to a submission.
type AnswerOutcome struct {
	IsCorrect    bool
	Completed    bool
	NextQuestion *domain.Question
	Results      *domain.QuizResults
}

// ApplyAnswer folds a submission outcome into the state: advance to the next
// question, or route to results on completion.
func (s State) ApplyAnswer(outcome AnswerOutcome) State {
	if outcome.IsCorrect {
		s.Score++
	}
	s.Selected = ""
	if outcome.Completed {
		s.View = ViewResults
		s.Current = nil
		s.Results = outcome.Results
		return s
	}
	s.Current = outcome.NextQuestion
	s.QuestionNumber++
	return s
}

// Tick consumes one second of the quiz budget. Reaching zero flags the
// timeout; the controller reacts by finishing the attempt.
func (s State) Tick() State {
	if s.View != ViewQuiz || s.TimeLeft <= 0 {
		return s
	}
	s.TimeLeft--
	if s.TimeLeft == 0 {
		s.TimedOut = true
	}
	return s
}

// FormattedTime renders the remaining budget as M:SS.
func (s State) FormattedTime() string {
	minutes := s.TimeLeft / 60
	seconds := s.TimeLeft % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ShowModal attaches a transient message.
func (s State) ShowModal(kind, message string) State {
	s.Modal = &Modal{Kind: kind, Message: message}
	return s
}

// ClearModal removes the current message.
func (s State) ClearModal() State {
	s.Modal = nil
	return s
}

// ApplyGateDenial routes an access-gate denial to the matching prompt:
// authentication flow or subscription upsell. Denials are prompts, not errors.
func (s State) ApplyGateDenial(code string) State {
	switch code {
	case "demo_exhausted":
		s.View = ViewUpgrade
		return s.ShowModal(ModalWarning, "Quiz démo épuisé ! Version Premium disponible.")
	default:
		s.View = ViewAuth
		return s.ShowModal(ModalWarning, "Authentification requise pour accéder au quiz.")
	}
}

// ApplyAccess refreshes the advisory mirror from a remote fetch.
func (s State) ApplyAccess(authenticated, premium bool, demoUsed, maxDemo int) State {
	s.Access = AccessView{Authenticated: authenticated, Premium: premium, DemoUsed: demoUsed, MaxDemo: maxDemo}
	return s
}
