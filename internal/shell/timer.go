package shell

import (
	"sync"
	"time"
)

// QuizBudgetSeconds is the global attempt budget: 30 minutes.
const QuizBudgetSeconds = 30 * 60

// QuizTimer is the cooperative one-second tick driving the quiz countdown.
// Stop is idempotent: the timer must be cancelled exactly once when a session
// completes or a new timer replaces it, and duplicate ticks must never
// accumulate across question transitions.
type QuizTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	stop   sync.Once
}

// StartQuizTimer invokes onTick every second until Stop is called.
func StartQuizTimer(onTick func()) *QuizTimer {
	t := &QuizTimer{
		ticker: time.NewTicker(time.Second),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				onTick()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

// Stop cancels the timer. Safe to call more than once.
func (t *QuizTimer) Stop() {
	t.stop.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
