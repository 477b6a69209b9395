package redis

import (
	"context"
	"log"
	"sort"
	"strconv"

	"naturalize-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatsStore accumulates per-question counters in Redis hashes:
//
//	HINCRBY quiz:stats:totals  {questionID} 1
//	HINCRBY quiz:stats:correct {questionID} 1  (correct answers only)
//
// Accuracy is derived at snapshot time, never stored.
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

const (
	totalsKey  = "quiz:stats:totals"
	correctKey = "quiz:stats:correct"
)

func (s *StatsStore) Record(ctx context.Context, questionID int, correct bool) {
	field := strconv.Itoa(questionID)
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, totalsKey, field, 1)
	if correct {
		pipe.HIncrBy(ctx, correctKey, field, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Stats are best-effort; a redis hiccup must not fail the submission.
		log.Printf("record question stats: %v", err)
	}
}

func (s *StatsStore) Snapshot(ctx context.Context) []domain.QuestionStats {
	totals, err := s.client.HGetAll(ctx, totalsKey).Result()
	if err != nil {
		log.Printf("load question stats: %v", err)
		return nil
	}
	corrects, _ := s.client.HGetAll(ctx, correctKey).Result()

	out := make([]domain.QuestionStats, 0, len(totals))
	for field, rawTotal := range totals {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		total, _ := strconv.Atoi(rawTotal)
		correct, _ := strconv.Atoi(corrects[field])
		if total <= 0 {
			continue
		}
		out = append(out, domain.QuestionStats{
			QuestionID:     id,
			TotalAnswers:   total,
			CorrectAnswers: correct,
			Accuracy:       int(float64(correct)/float64(total)*100 + 0.5),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}
