package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lms-quiz-session/internal/app"
	"lms-quiz-session/internal/auth"
	"lms-quiz-session/internal/config"
	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/infra/memory"
	pgstore "lms-quiz-session/internal/infra/postgres"
	redisstore "lms-quiz-session/internal/infra/redis"
	"lms-quiz-session/internal/infra/scoring"
	"lms-quiz-session/internal/logging"
	"lms-quiz-session/internal/metrics"
	"lms-quiz-session/internal/session"
	transport "lms-quiz-session/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.App.Name, cfg.App.Env, cfg.Log.Level)
	ctx = logging.IntoContext(ctx, logger)

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL, logger)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL, logger)
	} else {
		store = memory.NewSessionStore()
	}

	sender := resultSender(cfg, pool, logger)
	collectors := metrics.New(prometheus.DefaultRegisterer)
	service := app.NewQuizService(store, quizRepo, app.ServiceOptions{
		Sender:        sender,
		SubmitTimeout: config.TTLDuration(cfg.Session.SubmitTimeout, 10*time.Second),
		Metrics:       collectors,
	}, logger)
	verifier := auth.NewVerifier(auth.Config{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, verifier, prometheus.DefaultGatherer, logger),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: it would cut long-lived WebSocket connections
	}

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting quiz session service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server...")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// resultSender picks where finished attempts go: the remote scorer, then Postgres, then memory.
func resultSender(cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) session.ResultSender {
	switch {
	case cfg.Scoring.URL != "":
		logger.Info().Str("url", cfg.Scoring.URL).Msg("results go to remote scoring service")
		return scoring.NewClient(cfg.Scoring.URL, scoring.WithTimeout(config.TTLDuration(cfg.Scoring.Timeout, 10*time.Second)))
	case pool != nil:
		logger.Info().Msg("results are stored in postgres")
		return pgstore.NewResultStore(pool)
	default:
		logger.Warn().Msg("no scoring url or database configured, results are kept in memory")
		return memory.NewResultRecorder()
	}
}

// sampleQuizzes is the demo catalog served when no database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"onboarding": {
			ID:               "onboarding",
			Title:            "Onboarding basics",
			TimeLimitMinutes: 5,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Who approves vacation requests?",
					Answers: []domain.Answer{
						{ID: "a1", Text: "Your manager", IsCorrect: true},
						{ID: "a2", Text: "Payroll"},
						{ID: "a3", Text: "Nobody"},
					},
				},
				{
					ID:     "q2",
					Prompt: "Where are company policies published?",
					Answers: []domain.Answer{
						{ID: "a4", Text: "The intranet handbook", IsCorrect: true},
						{ID: "a5", Text: "The lobby notice board"},
					},
				},
			},
		},
		"security": {
			ID:               "security",
			Title:            "Security awareness",
			TimeLimitMinutes: 3,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "A caller asks for your password. What do you do?",
					Answers: []domain.Answer{
						{ID: "a1", Text: "Refuse and report it", IsCorrect: true},
						{ID: "a2", Text: "Share it if they sound official"},
					},
				},
			},
		},
	}
}
