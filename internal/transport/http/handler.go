package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"naturalize-quiz-service/internal/access"
	"naturalize-quiz-service/internal/app"
	"naturalize-quiz-service/internal/billing"
	"naturalize-quiz-service/internal/domain"
	"naturalize-quiz-service/internal/question"
	"github.com/gorilla/mux"
)

// Handler wires the REST surface onto the quiz use cases. Gate, checkout and
// webhook are optional: without an identity or payment collaborator the
// read/quiz flows keep working and gating is skipped.
type Handler struct {
	quiz      *app.QuizService
	questions *question.Store
	gate      *access.Gate
	identity  access.IdentityStore
	checkout  *billing.Checkout
	webhook   *billing.Webhook
}

func NewHandler(quiz *app.QuizService, questions *question.Store) *Handler {
	return &Handler{quiz: quiz, questions: questions}
}

// WithAccessGate attaches the identity collaborator used for quiz-start gating.
func (h *Handler) WithAccessGate(gate *access.Gate, identity access.IdentityStore) *Handler {
	h.gate = gate
	h.identity = identity
	return h
}

// WithBilling attaches the payment collaborator endpoints.
func (h *Handler) WithBilling(checkout *billing.Checkout, webhook *billing.Webhook) *Handler {
	h.checkout = checkout
	h.webhook = webhook
	return h
}

// Router builds the API router with the JSON 404 and panic-recovery policy.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware)

	r.HandleFunc("/api/questions", h.handleQuestions(10)).Methods(http.MethodGet)
	r.HandleFunc("/api/quiz/questions", h.handleQuestions(200)).Methods(http.MethodGet)
	r.HandleFunc("/api/quiz/start", h.handleQuizStart).Methods(http.MethodPost)
	r.HandleFunc("/api/quiz/answer", h.handleQuizAnswer).Methods(http.MethodPost)
	r.HandleFunc("/api/quiz/session/{id}", h.handleQuizSession).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", h.handleProgress).Methods(http.MethodPost)

	if h.checkout != nil {
		r.HandleFunc("/api/billing/checkout", h.handleCheckout).Methods(http.MethodPost)
	}
	if h.webhook != nil {
		r.HandleFunc("/api/billing/webhook", h.handleWebhook).Methods(http.MethodPost)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route non trouvée")
	})
	return r
}

// handleQuestions serves the filtered question list. The two routes share the
// logic and differ only in their default limit.
func (h *Handler) handleQuestions(defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := defaultLimit
		if raw := q.Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		questions, total := h.questions.Query(question.Query{
			Category:   q.Get("category"),
			Difficulty: q.Get("difficulty"),
			Limit:      limit,
			Random:     q.Get("random") == "true",
		})

		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"questions": questions,
			"total":     total,
		})
	}
}

type startRequest struct {
	SessionID string `json:"sessionId"`
	Email     string `json:"email"`
	Options   struct {
		QuestionCount int    `json:"questionCount"`
		Category      string `json:"category"`
		Difficulty    string `json:"difficulty"`
		RandomOrder   *bool  `json:"randomOrder"`
	} `json:"options"`
}

func (h *Handler) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}

	opts := app.DefaultStartOptions()
	if req.Options.QuestionCount > 0 {
		opts.QuestionCount = req.Options.QuestionCount
	}
	if req.Options.Category != "" {
		opts.Category = req.Options.Category
	}
	if req.Options.Difficulty != "" {
		opts.Difficulty = req.Options.Difficulty
	}
	if req.Options.RandomOrder != nil {
		opts.RandomOrder = *req.Options.RandomOrder
	}

	if h.gate != nil {
		user := h.resolveUser(r, req.Email)
		if err := h.gate.CanStart(r.Context(), user); err != nil {
			writeGateDenial(w, err)
			return
		}
		h.gate.ConsumeDemo(r.Context(), user)
	}

	session := h.quiz.Start(strings.TrimSpace(req.SessionID), opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": map[string]any{
			"id":              session.ID(),
			"totalQuestions":  session.TotalQuestions(),
			"currentQuestion": session.FirstQuestion(),
		},
	})
}

type answerRequest struct {
	SessionID  string          `json:"sessionId"`
	QuestionID int             `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
	TimeSpent  int             `json:"timeSpent"`
}

func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}

	outcome, err := h.quiz.SubmitAnswer(r.Context(), req.SessionID, req.QuestionID, normalizeAnswer(req.Answer), req.TimeSpent)
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session non trouvée")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Question incorrecte")
		return
	}

	resp := map[string]any{
		"success":     true,
		"isCorrect":   outcome.IsCorrect,
		"explanation": outcome.Explanation,
		"completed":   outcome.Completed,
	}
	if outcome.Completed {
		resp["results"] = outcome.Results
	} else {
		resp["nextQuestion"] = outcome.NextQuestion
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleQuizSession(w http.ResponseWriter, r *http.Request) {
	progress, err := h.quiz.GetSession(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Session non trouvée")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": progress,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   h.quiz.GlobalStats(r.Context()),
	})
}

// handleProgress acknowledges client study-progress pushes. Nothing durable
// lives behind this endpoint.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Progrès sauvegardés",
	})
}

type checkoutRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	url, err := h.checkout.CreateSession(req.UserID)
	if err != nil {
		log.Printf("checkout session failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Erreur lors de la création du paiement")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": url})
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Corps de requête illisible")
		return
	}
	event, err := h.webhook.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Signature webhook invalide")
		return
	}
	if err := h.webhook.HandleEvent(r.Context(), event); err != nil {
		log.Printf("webhook event failed: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

// resolveUser maps an email to a profile through the identity collaborator.
// Lookup failures degrade to anonymous; the gate then decides.
func (h *Handler) resolveUser(r *http.Request, email string) *domain.UserProfile {
	email = strings.TrimSpace(email)
	if email == "" || h.identity == nil {
		return nil
	}
	user, err := h.identity.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Printf("user lookup failed for %s: %v", email, err)
		}
		return nil
	}
	return user
}

// normalizeAnswer accepts either a JSON string or number for the answer field
// and flattens it to the comparison string the engine expects.
func normalizeAnswer(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.Itoa(asNumber)
	}
	return strings.Trim(string(raw), `"`)
}

func writeGateDenial(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"code":    "not_authenticated",
			"message": "Authentification requise pour accéder au quiz",
		})
	case errors.Is(err, domain.ErrDemoExhausted):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"code":    "demo_exhausted",
			"message": "Quiz démo épuisé. Version Premium disponible.",
		})
	default:
		writeError(w, http.StatusInternalServerError, "Erreur serveur")
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "Erreur interne du serveur")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
