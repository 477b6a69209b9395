package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"naturalize-quiz-service/internal/access"
	"naturalize-quiz-service/internal/app"
	"naturalize-quiz-service/internal/domain"
	"naturalize-quiz-service/internal/infra/memory"
	"naturalize-quiz-service/internal/question"
	transporthttp "naturalize-quiz-service/internal/transport/http"
)

func TestQuestionsDefaultLimits(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	var body struct {
		Success   bool              `json:"success"`
		Questions []domain.Question `json:"questions"`
		Total     int               `json:"total"`
	}
	getJSON(t, server, "/api/questions", &body)
	if !body.Success || len(body.Questions) != 4 || body.Total != 4 {
		t.Fatalf("unexpected /api/questions response: %+v", body)
	}

	getJSON(t, server, "/api/questions?limit=2", &body)
	if len(body.Questions) != 2 || body.Total != 4 {
		t.Fatalf("limit must truncate after counting: %+v", body)
	}

	getJSON(t, server, "/api/quiz/questions?category=histoire", &body)
	if len(body.Questions) != 2 {
		t.Fatalf("expected 2 histoire questions, got %d", len(body.Questions))
	}
	for _, q := range body.Questions {
		if q.Category != "histoire" {
			t.Fatalf("filter leaked category %s", q.Category)
		}
	}
}

func TestQuizRoundTripOverHTTP(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	start := postJSON(t, server, "/api/quiz/start", `{"options":{"questionCount":2,"randomOrder":false}}`, http.StatusOK)
	session := start["session"].(map[string]any)
	sessionID := session["id"].(string)
	if session["totalQuestions"].(float64) != 2 {
		t.Fatalf("expected 2 questions, got %v", session["totalQuestions"])
	}
	current := session["currentQuestion"].(map[string]any)

	// First answer correct, by answer text.
	answer := postJSON(t, server, "/api/quiz/answer", fmt.Sprintf(
		`{"sessionId":%q,"questionId":%v,"answer":%q,"timeSpent":4}`,
		sessionID, current["id"], current["reponse"]), http.StatusOK)
	if answer["isCorrect"] != true || answer["completed"] != false {
		t.Fatalf("expected correct, uncompleted: %+v", answer)
	}
	next := answer["nextQuestion"].(map[string]any)

	// Second answer wrong; the session completes at 50%.
	answer = postJSON(t, server, "/api/quiz/answer", fmt.Sprintf(
		`{"sessionId":%q,"questionId":%v,"answer":"mauvaise réponse","timeSpent":6}`,
		sessionID, next["id"]), http.StatusOK)
	if answer["completed"] != true {
		t.Fatalf("expected completion: %+v", answer)
	}
	results := answer["results"].(map[string]any)
	if results["score"].(float64) != 1 || results["percentage"].(float64) != 50 {
		t.Fatalf("expected 1/2 at 50%%, got %+v", results)
	}

	var lookup struct {
		Success bool                   `json:"success"`
		Session domain.SessionProgress `json:"session"`
	}
	getJSON(t, server, "/api/quiz/session/"+sessionID, &lookup)
	if lookup.Session.Status != domain.SessionCompleted || lookup.Session.Score != 1 {
		t.Fatalf("unexpected session lookup: %+v", lookup.Session)
	}
}

func TestAnswerAcceptsOptionIndex(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	start := postJSON(t, server, "/api/quiz/start", `{"options":{"questionCount":1,"randomOrder":false}}`, http.StatusOK)
	session := start["session"].(map[string]any)
	current := session["currentQuestion"].(map[string]any)

	// A bare number selects the option at that index.
	body := fmt.Sprintf(`{"sessionId":%q,"questionId":%v,"answer":%v}`,
		session["id"], current["id"], current["correctAnswer"])
	answer := postJSON(t, server, "/api/quiz/answer", body, http.StatusOK)
	if answer["isCorrect"] != true {
		t.Fatalf("numeric option index should score as correct: %+v", answer)
	}
}

func TestAnswerErrorTaxonomy(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	resp := postJSON(t, server, "/api/quiz/answer", `{"sessionId":"ghost","questionId":1,"answer":"x"}`, http.StatusNotFound)
	if resp["message"] != "Session non trouvée" {
		t.Fatalf("unexpected 404 body: %+v", resp)
	}

	start := postJSON(t, server, "/api/quiz/start", `{"sessionId":"s1","options":{"questionCount":2,"randomOrder":false}}`, http.StatusOK)
	current := start["session"].(map[string]any)["currentQuestion"].(map[string]any)

	var before struct {
		Session domain.SessionProgress `json:"session"`
	}
	getJSON(t, server, "/api/quiz/session/s1", &before)

	body := fmt.Sprintf(`{"sessionId":"s1","questionId":%v,"answer":"x"}`, int(current["id"].(float64))+999)
	resp = postJSON(t, server, "/api/quiz/answer", body, http.StatusBadRequest)
	if resp["message"] != "Question incorrecte" {
		t.Fatalf("unexpected 400 body: %+v", resp)
	}

	var after struct {
		Session domain.SessionProgress `json:"session"`
	}
	getJSON(t, server, "/api/quiz/session/s1", &after)
	if before.Session.CurrentIndex != after.Session.CurrentIndex || before.Session.Score != after.Session.Score {
		t.Fatalf("rejected answer mutated the session: %+v vs %+v", before.Session, after.Session)
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	res, err := http.Get(server.URL + "/api/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("404 body must be JSON: %v", err)
	}
	if body["message"] != "Route non trouvée" {
		t.Fatalf("unexpected 404 body: %+v", body)
	}
}

func TestQuizStartGating(t *testing.T) {
	identity := &fakeIdentityStore{
		users: map[string]*domain.UserProfile{
			"alice@example.org": {ID: "u1", Email: "alice@example.org"},
		},
		access: map[string]domain.QuizAccess{
			"u1": {UserID: "u1", DemoUsedCount: 1, MaxDemoAllowed: 1},
		},
	}
	server := newTestServer(t, identity)
	defer server.Close()

	// No email resolves to anonymous.
	resp := postJSON(t, server, "/api/quiz/start", `{}`, http.StatusUnauthorized)
	if resp["code"] != "not_authenticated" {
		t.Fatalf("expected not_authenticated, got %+v", resp)
	}

	// Known user with an exhausted demo.
	resp = postJSON(t, server, "/api/quiz/start", `{"email":"alice@example.org"}`, http.StatusForbidden)
	if resp["code"] != "demo_exhausted" {
		t.Fatalf("expected demo_exhausted, got %+v", resp)
	}

	// Fresh demo is allowed and consumed.
	identity.access["u1"] = domain.QuizAccess{UserID: "u1", DemoUsedCount: 0, MaxDemoAllowed: 1}
	postJSON(t, server, "/api/quiz/start", `{"email":"alice@example.org"}`, http.StatusOK)
	if identity.access["u1"].DemoUsedCount != 1 {
		t.Fatalf("demo start must consume the counter, got %d", identity.access["u1"].DemoUsedCount)
	}

	// Premium bypasses the exhausted counter.
	identity.users["alice@example.org"].IsPremium = true
	postJSON(t, server, "/api/quiz/start", `{"email":"alice@example.org"}`, http.StatusOK)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	res, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func newTestServer(t *testing.T, identity *fakeIdentityStore) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	bank := `{"entretien_naturalisation":[
		{"id":1,"question":"Pourquoi la France ?","reponse":"Adhésion aux valeurs républicaines françaises","category":"motivation","difficulty":"difficile"},
		{"id":2,"question":"Quand a eu lieu la Révolution ?","reponse":"En 1789","category":"histoire","difficulty":"facile"},
		{"id":3,"question":"Qui était Napoléon ?","reponse":"Empereur des Français","category":"histoire","difficulty":"moyen"},
		{"id":4,"question":"Quelle est votre motivation ?","reponse":"Adhésion aux valeurs républicaines françaises","category":"motivation","difficulty":"moyen"}
	]}`
	if err := os.WriteFile(path, []byte(bank), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	questions := question.Load(path, rand.New(rand.NewSource(11)))
	service := app.NewQuizService(questions, memory.NewSessionRegistry(), memory.NewStatsStore())

	handler := transporthttp.NewHandler(service, questions)
	if identity != nil {
		handler = handler.WithAccessGate(access.NewGate(identity), identity)
	}
	return httptest.NewServer(handler.Router())
}

func getJSON(t *testing.T, server *httptest.Server, path string, out any) {
	t.Helper()
	res, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: decode: %v", path, err)
	}
}

func postJSON(t *testing.T, server *httptest.Server, path, body string, wantStatus int) map[string]any {
	t.Helper()
	res, err := http.Post(server.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d", path, res.StatusCode, wantStatus)
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("POST %s: decode: %v", path, err)
	}
	return out
}

type fakeIdentityStore struct {
	users  map[string]*domain.UserProfile
	access map[string]domain.QuizAccess
}

func (f *fakeIdentityStore) GetUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeIdentityStore) GetQuizAccess(ctx context.Context, userID string) (domain.QuizAccess, error) {
	acc, ok := f.access[userID]
	if !ok {
		return domain.QuizAccess{}, domain.ErrAccessNotFound
	}
	return acc, nil
}

func (f *fakeIdentityStore) SetDemoUsed(ctx context.Context, userID string, demoUsed int) error {
	acc := f.access[userID]
	acc.DemoUsedCount = demoUsed
	f.access[userID] = acc
	return nil
}

func (f *fakeIdentityStore) SetPremium(ctx context.Context, userID string, premium bool, expiresAt *time.Time) error {
	return nil
}
