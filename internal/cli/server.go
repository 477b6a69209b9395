package cli

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"naturalize-quiz-service/internal/access"
	"naturalize-quiz-service/internal/app"
	"naturalize-quiz-service/internal/billing"
	"naturalize-quiz-service/internal/config"
	"naturalize-quiz-service/internal/infra/memory"
	pgidentity "naturalize-quiz-service/internal/infra/postgres"
	redisinfra "naturalize-quiz-service/internal/infra/redis"
	"naturalize-quiz-service/internal/question"
	transport "naturalize-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		// A missing config file is not fatal; defaults cover local runs.
		log.Printf("config not loaded (%v), using defaults", err)
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3001"
	}

	questionsPath := cfg.Questions.Path
	if questionsPath == "" {
		questionsPath = "data/questions.json"
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	questions := question.Load(questionsPath, rnd)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var sessions app.SessionRegistry
	var stats app.StatsStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionRegistry(redisClient, redisTTL)
		stats = redisinfra.NewStatsStore(redisClient)
	} else {
		sessions = memory.NewSessionRegistry()
		stats = memory.NewStatsStore()
	}
	service := app.NewQuizService(questions, sessions, stats)
	handler := transport.NewHandler(service, questions)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		identity := pgidentity.NewIdentityStore(pool)
		handler = handler.WithAccessGate(access.NewGate(identity), identity)

		if cfg.Stripe.SecretKey != "" {
			billingCfg := billing.Config{
				SecretKey:     cfg.Stripe.SecretKey,
				WebhookSecret: cfg.Stripe.WebhookSecret,
				SuccessURL:    cfg.Stripe.SuccessURL,
				CancelURL:     cfg.Stripe.CancelURL,
				PriceCents:    cfg.Stripe.PriceCents,
				PremiumDays:   cfg.Stripe.PremiumDays,
			}
			handler = handler.WithBilling(billing.NewCheckout(billingCfg), billing.NewWebhook(identity, billingCfg))
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      c.Handler(handler.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s (%d questions)", finalPort, questions.Len())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
