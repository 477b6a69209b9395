package memory

import (
	"context"
	"sort"
	"sync"

	"naturalize-quiz-service/internal/domain"
)

// StatsStore keeps per-question accuracy counters in a process-wide map.
// Never reset except by restart.
type StatsStore struct {
	mu    sync.RWMutex
	stats map[int]*domain.QuestionStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[int]*domain.QuestionStats)}
}

func (s *StatsStore) Record(_ context.Context, questionID int, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.stats[questionID]
	if !ok {
		entry = &domain.QuestionStats{QuestionID: questionID}
		s.stats[questionID] = entry
	}
	entry.TotalAnswers++
	if correct {
		entry.CorrectAnswers++
	}
	entry.Accuracy = int(float64(entry.CorrectAnswers)/float64(entry.TotalAnswers)*100 + 0.5)
}

func (s *StatsStore) Snapshot(_ context.Context) []domain.QuestionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.QuestionStats, 0, len(s.stats))
	for _, entry := range s.stats {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}
