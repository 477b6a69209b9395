package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"naturalize-quiz-service/internal/shell"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs an interactive quiz attempt against a running server,
// driving the same reactive shell state machine a UI would observe.
func NewPlayCmd() *cobra.Command {
	var (
		base     string
		email    string
		count    int
		category string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz attempt from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), base, email, count, category)
		},
	}
	cmd.Flags().StringVar(&base, "server", "http://localhost:3001", "server base URL")
	cmd.Flags().StringVar(&email, "email", "", "account email (leave empty for ungated servers)")
	cmd.Flags().IntVar(&count, "questions", 10, "number of questions")
	cmd.Flags().StringVar(&category, "category", "all", "category filter")
	return cmd
}

func runPlay(ctx context.Context, base, email string, count int, category string) error {
	client := shell.NewAPIClient(base)

	start, err := client.StartQuiz(ctx, email, count, category, "all")
	if err != nil {
		return err
	}

	state := shell.NewState()
	if !start.Success {
		state = state.ApplyGateDenial(start.Code)
		fmt.Printf("%s: %s\n", state.Modal.Kind, state.Modal.Message)
		return nil
	}

	state = state.BeginQuiz(start.Session.ID, start.Session.TotalQuestions, start.Session.CurrentQuestion, shell.QuizBudgetSeconds)
	fmt.Printf("Quiz démarré (%d questions, %s)\n\n", state.TotalQuestions, state.FormattedTime())

	ticks := make(chan struct{}, 1)
	timer := shell.StartQuizTimer(func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	defer timer.Stop()

	inputs := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			inputs <- strings.TrimSpace(scanner.Text())
		}
		close(inputs)
	}()

	for state.View == shell.ViewQuiz && state.Current != nil {
		q := state.Current
		fmt.Printf("[%d/%d] %s\n", state.QuestionNumber, state.TotalQuestions, q.Question)
		for i, opt := range q.Options {
			fmt.Printf("  %d) %s\n", i, opt)
		}
		fmt.Printf("réponse (%s restant) > ", state.FormattedTime())

		questionStart := time.Now()
		answer, asked := awaitAnswer(&state, ticks, inputs)
		if !asked {
			// Budget elapsed: automatic submission, treated as incorrect.
			fmt.Println("\nTemps écoulé !")
		}

		resp, err := client.SubmitAnswer(ctx, state.SessionID, q.ID, answer, int(time.Since(questionStart).Seconds()))
		if err != nil {
			return err
		}
		if !resp.Success {
			fmt.Printf("rejeté: %s\n", resp.Message)
			continue
		}

		if resp.IsCorrect {
			fmt.Println("✔ correct")
		} else {
			fmt.Printf("✘ incorrect — %s\n", resp.Explanation)
		}
		fmt.Println()

		state = state.ApplyAnswer(shell.AnswerOutcome{
			IsCorrect:    resp.IsCorrect,
			Completed:    resp.Completed,
			NextQuestion: resp.NextQuestion,
			Results:      resp.Results,
		})
	}
	timer.Stop()

	if state.Results != nil {
		r := state.Results
		fmt.Printf("Résultats: %d/%d (%d%%) en %s\n", r.Score, r.Total, r.Percentage,
			(time.Duration(r.TimeSpent) * time.Millisecond).Round(time.Second))
	}
	return nil
}

// awaitAnswer blocks until the user answers or the budget elapses, folding
// ticks into the state as they arrive. Returns asked=false on timeout.
func awaitAnswer(state *shell.State, ticks <-chan struct{}, inputs <-chan string) (string, bool) {
	for {
		select {
		case <-ticks:
			*state = state.Tick()
			if state.TimedOut {
				return "", false
			}
		case line, ok := <-inputs:
			if !ok {
				return "", false
			}
			if line != "" {
				*state = state.SelectAnswer(line)
				return line, true
			}
		}
	}
}
