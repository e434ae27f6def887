package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-submission-service/internal/app"
	"quiz-submission-service/internal/config"
	"quiz-submission-service/internal/domain"
	"quiz-submission-service/internal/infra/memory"
	pgstore "quiz-submission-service/internal/infra/postgres"
	redisinfra "quiz-submission-service/internal/infra/redis"
	transport "quiz-submission-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the submission scoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		submissionStore app.SubmissionStore
		contentStore    app.ContentStore
		loader          memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := pgstore.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		store := pgstore.NewStore(db)
		submissionStore = store
		contentStore = store

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgstore.NewQuizLoader(pool)
	} else {
		mem := memory.NewStore()
		submissionStore = mem
		contentStore = mem
		loader = mem
		if err := seedSampleContent(ctx, mem); err != nil {
			return err
		}
		log.Printf("postgres not configured, serving sample data from memory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	hub := app.NewResultsHub()
	submissions := app.NewSubmissionService(submissionStore, quizRepo, hub)
	content := app.NewContentService(contentStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(submissions, content, quizRepo).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(hub, quizRepo).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting submission service on :%s", finalPort)
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

// seedSampleContent loads a small demo quiz; swap in Postgres for real data.
func seedSampleContent(ctx context.Context, store app.ContentStore) error {
	content := app.NewContentService(store)

	quiz, err := content.CreateQuiz(ctx, "Sample quiz")
	if err != nil {
		return err
	}
	if _, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "What is 2 + 2?", Type: domain.SingleChoice,
		Points: 3, NegativePoints: 1,
		Answers: []domain.Answer{
			{Text: "3"},
			{Text: "4", IsCorrect: true},
			{Text: "5"},
		},
	}); err != nil {
		return err
	}
	if _, err := content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "Select the prime numbers", Type: domain.MultipleChoice,
		Points: 6, NegativePoints: 2,
		Answers: []domain.Answer{
			{Text: "2", IsCorrect: true},
			{Text: "3", IsCorrect: true},
			{Text: "4"},
		},
	}); err != nil {
		return err
	}
	_, err = content.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID, Text: "What color is the sky?", Type: domain.Text,
		Points: 2, NegativePoints: 0.5,
		Answers: []domain.Answer{{Text: "blue", IsCorrect: true}},
	})
	return err
}
