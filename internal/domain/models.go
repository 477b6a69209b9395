package domain

import "time"

// CategoryGeneral is the default applied when a raw record carries no category.
const (
	CategoryGeneral = "general"

	DifficultyEasy   = "facile"
	DifficultyMedium = "moyen"
	DifficultyHard   = "difficile"
)

// Difficulties enumerates the fixed difficulty scale, in ascending order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Option is one multiple-choice entry for a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is an interview question as served to clients. Immutable after
// load; the question store owns the canonical copy and everything else reads it.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Answer        string   `json:"reponse"`
	Explanation   string   `json:"explanation"`
	Tips          []string `json:"tips,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	QuizOptions   []Option `json:"quiz_options,omitempty"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	OpenQuestion  bool     `json:"isOpenQuestion"`
}

// Answer records one submission inside a quiz session. Append-only.
type Answer struct {
	QuestionID int       `json:"questionId"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"isCorrect"`
	TimeSpent  int       `json:"timeSpent"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session statuses. A session transitions active -> completed exactly once
// and never leaves completed.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// QuizResults is the completion payload computed when the last question is answered.
type QuizResults struct {
	Score      int   `json:"score"`
	Total      int   `json:"total"`
	Percentage int   `json:"percentage"`
	TimeSpent  int64 `json:"timeSpent"` // elapsed wall time, milliseconds
}

// SessionProgress is a read-only view of a session for status endpoints.
type SessionProgress struct {
	ID              string    `json:"id"`
	CurrentIndex    int       `json:"currentIndex"`
	TotalQuestions  int       `json:"totalQuestions"`
	Score           int       `json:"score"`
	Status          string    `json:"status"`
	CurrentQuestion *Question `json:"currentQuestion"`
}

// QuestionStats aggregates accuracy for one question across every session.
type QuestionStats struct {
	QuestionID     int `json:"questionId"`
	TotalAnswers   int `json:"totalAnswers"`
	CorrectAnswers int `json:"correctAnswers"`
	Accuracy       int `json:"accuracy"`
}

// CategoryCount pairs a category or difficulty name with its question count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GlobalStats is the dashboard payload for GET /api/stats.
type GlobalStats struct {
	TotalQuestions int             `json:"totalQuestions"`
	Categories     []CategoryCount `json:"categories"`
	Difficulties   []CategoryCount `json:"difficulties"`
	TotalSessions  int             `json:"totalSessions"`
	QuestionStats  []QuestionStats `json:"questionStats"`
}

// UserProfile mirrors a row of the identity store's users table.
type UserProfile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	IsPremium        bool       `json:"is_premium"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EffectivePremium reports whether the premium flag should be trusted at the
// given instant. A stale true past its expiry gates as false.
func (u *UserProfile) EffectivePremium(now time.Time) bool {
	if u == nil || !u.IsPremium {
		return false
	}
	if u.PremiumExpiresAt != nil && now.After(*u.PremiumExpiresAt) {
		return false
	}
	return true
}

// QuizAccess mirrors a row of the identity store's quiz_access table.
// DemoUsedCount is monotonically non-decreasing per user.
type QuizAccess struct {
	UserID         string    `json:"user_id"`
	DemoUsedCount  int       `json:"demo_used_count"`
	MaxDemoAllowed int       `json:"max_demo_allowed"`
	UpdatedAt      time.Time `json:"updated_at"`
}
