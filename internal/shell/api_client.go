package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"naturalize-quiz-service/internal/domain"
)

// APIClient is the thin HTTP wrapper the shell drives the backend through.
type APIClient struct {
	base string
	http *http.Client
}

func NewAPIClient(base string) *APIClient {
	return &APIClient{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// QuestionsResponse is the payload of GET /api/questions.
type QuestionsResponse struct {
	Success   bool              `json:"success"`
	Questions []domain.Question `json:"questions"`
	Total     int               `json:"total"`
}

func (c *APIClient) Questions(ctx context.Context, category, difficulty string, limit int, random bool) (QuestionsResponse, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if random {
		params.Set("random", "true")
	}

	var resp QuestionsResponse
	err := c.get(ctx, "/api/questions?"+params.Encode(), &resp)
	return resp, err
}

// StartResponse is the payload of POST /api/quiz/start.
type StartResponse struct {
	Success bool `json:"success"`
	Session struct {
		ID              string           `json:"id"`
		TotalQuestions  int              `json:"totalQuestions"`
		CurrentQuestion *domain.Question `json:"currentQuestion"`
	} `json:"session"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StartQuiz starts an attempt. A non-2xx gate denial is returned in the
// response body (Code/Message), not as an error.
func (c *APIClient) StartQuiz(ctx context.Context, email string, questionCount int, category, difficulty string) (StartResponse, error) {
	body := map[string]any{
		"email": email,
		"options": map[string]any{
			"questionCount": questionCount,
			"category":      category,
			"difficulty":    difficulty,
			"randomOrder":   true,
		},
	}
	var resp StartResponse
	err := c.post(ctx, "/api/quiz/start", body, &resp)
	return resp, err
}

// AnswerResponse is the payload of POST /api/quiz/answer.
type AnswerResponse struct {
	Success      bool                `json:"success"`
	IsCorrect    bool                `json:"isCorrect"`
	Explanation  string              `json:"explanation"`
	Completed    bool                `json:"completed"`
	NextQuestion *domain.Question    `json:"nextQuestion"`
	Results      *domain.QuizResults `json:"results"`
	Message      string              `json:"message"`
}

func (c *APIClient) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string, timeSpent int) (AnswerResponse, error) {
	body := map[string]any{
		"sessionId":  sessionID,
		"questionId": questionID,
		"answer":     answer,
		"timeSpent":  timeSpent,
	}
	var resp AnswerResponse
	err := c.post(ctx, "/api/quiz/answer", body, &resp)
	return resp, err
}

// SessionResponse is the payload of GET /api/quiz/session/{id}.
type SessionResponse struct {
	Success bool                   `json:"success"`
	Session domain.SessionProgress `json:"session"`
	Message string                 `json:"message"`
}

func (c *APIClient) Session(ctx context.Context, sessionID string) (SessionResponse, error) {
	var resp SessionResponse
	err := c.get(ctx, "/api/quiz/session/"+url.PathEscape(sessionID), &resp)
	return resp, err
}

// StatsResponse is the payload of GET /api/stats.
type StatsResponse struct {
	Success bool               `json:"success"`
	Stats   domain.GlobalStats `json:"stats"`
}

func (c *APIClient) Stats(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	err := c.get(ctx, "/api/stats", &resp)
	return resp, err
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes the JSON envelope. Denial statuses
// (401/403) and client errors still carry a decodable body, so the caller can
// inspect Code/Message instead of an opaque error.
func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
