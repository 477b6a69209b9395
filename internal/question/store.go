package question

import (
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"sync"

	"naturalize-quiz-service/internal/domain"
)

// rawQuestion is the on-disk shape of one bank entry.
type rawQuestion struct {
	ID          int             `json:"id"`
	Question    string          `json:"question"`
	Reponse     string          `json:"reponse"`
	Conseils    []string        `json:"conseils"`
	QuizOptions []domain.Option `json:"quiz_options"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
}

// bankFile is the top-level document of the static question file.
type bankFile struct {
	Questions []rawQuestion `json:"entretien_naturalisation"`
}

// Store holds the normalized question collection, loaded once at startup.
// The collection is immutable after load; Query hands out copies. The mutex
// only guards the shuffler, which is not safe for concurrent use.
type Store struct {
	questions []domain.Question
	mu        sync.Mutex
	rnd       *rand.Rand
}

// Load reads the question bank from path. A missing or malformed file is never
// fatal: the store falls back to a fixed two-question set and keeps serving.
func Load(path string, rnd *rand.Rand) *Store {
	s := &Store{rnd: rnd}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("question bank unreadable (%v), using fallback set", err)
		s.questions = fallbackQuestions()
		return s
	}

	var bank bankFile
	if err := json.Unmarshal(data, &bank); err != nil {
		log.Printf("question bank malformed (%v), using fallback set", err)
		s.questions = fallbackQuestions()
		return s
	}

	s.questions = make([]domain.Question, 0, len(bank.Questions))
	for i, raw := range bank.Questions {
		s.questions = append(s.questions, normalize(raw, i))
	}
	log.Printf("loaded %d questions from %s", len(s.questions), path)
	return s
}

// normalize maps a raw bank entry into the uniform Question shape, deriving
// multiple-choice options from the question text.
func normalize(raw rawQuestion, index int) domain.Question {
	id := raw.ID
	if id == 0 {
		id = index + 1
	}
	category := raw.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	difficulty := raw.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	return domain.Question{
		ID:            id,
		Question:      raw.Question,
		Answer:        raw.Reponse,
		Explanation:   raw.Reponse,
		Tips:          raw.Conseils,
		Options:       DeriveOptions(raw.Question),
		CorrectAnswer: 0,
		QuizOptions:   raw.QuizOptions,
		Category:      category,
		Difficulty:    difficulty,
		OpenQuestion:  true,
	}
}

// Query options. Zero values mean "no filter" / "no truncation" / "keep order".
type Query struct {
	Category   string
	Difficulty string
	Limit      int
	Random     bool
}

// Query returns a filtered, optionally shuffled, optionally truncated copy of
// the collection plus the pre-truncation match count.
func (s *Store) Query(q Query) ([]domain.Question, int) {
	filtered := make([]domain.Question, 0, len(s.questions))
	for _, question := range s.questions {
		if q.Category != "" && q.Category != "all" && question.Category != q.Category {
			continue
		}
		if q.Difficulty != "" && q.Difficulty != "all" && question.Difficulty != q.Difficulty {
			continue
		}
		filtered = append(filtered, question)
	}
	total := len(filtered)

	if q.Random {
		s.mu.Lock()
		s.rnd.Shuffle(len(filtered), func(i, j int) {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		})
		s.mu.Unlock()
	}

	if q.Limit > 0 && q.Limit < len(filtered) {
		filtered = filtered[:q.Limit]
	}
	return filtered, total
}

// All returns a copy of the whole collection.
func (s *Store) All() []domain.Question {
	out, _ := s.Query(Query{})
	return out
}

// Len reports the collection size.
func (s *Store) Len() int {
	return len(s.questions)
}

// fallbackQuestions is the fixed pair served when the bank cannot be read.
func fallbackQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       1,
			Question: "Pourquoi voulez-vous devenir Français(e) ?",
			Options: []string{
				"Pour les valeurs républicaines et l'attachement à la France",
				"Pour des raisons économiques uniquement",
				"Par obligation familiale",
				"Pour faciliter les voyages",
			},
			CorrectAnswer: 0,
			Answer:        "Pour les valeurs républicaines et l'attachement à la France",
			Explanation:   "Cette question évalue votre motivation sincère et votre adhésion aux valeurs françaises.",
			Category:      "motivation",
			Difficulty:    domain.DifficultyHard,
			OpenQuestion:  true,
		},
		{
			ID:       2,
			Question: "Quelles sont les valeurs de la République française ?",
			Options: []string{
				"Liberté, Égalité, Fraternité",
				"Liberté, Justice, Paix",
				"Égalité, Justice, Solidarité",
				"Fraternité, Solidarité, Laïcité",
			},
			CorrectAnswer: 0,
			Answer:        "Liberté, Égalité, Fraternité",
			Explanation:   "La devise de la République française est 'Liberté, Égalité, Fraternité'.",
			Category:      "institutions",
			Difficulty:    domain.DifficultyEasy,
		},
	}
}
