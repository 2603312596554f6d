package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptiq-quiz-service/internal/app"
	"adaptiq-quiz-service/internal/config"
	"adaptiq-quiz-service/internal/domain"
	"adaptiq-quiz-service/internal/infra/memory"
	pgstore "adaptiq-quiz-service/internal/infra/postgres"
	redisstore "adaptiq-quiz-service/internal/infra/redis"
	transport "adaptiq-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the adaptive quiz server",
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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgstore.NewQuestionStore(pool)
	}
	questionTTL := config.TTLDuration(cfg.Quiz.QuestionTTL, 10*time.Minute)
	questions := memory.NewQuestionRepository(loader, questionTTL)

	var sessions app.SessionStore
	var monitors app.MonitorStore
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
		monitors = redisstore.NewMonitorStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
		monitors = memory.NewMonitorStore()
	}

	quizService := app.NewQuizService(sessions, questions, cfg.Quiz.MaxQuestions)
	proctorService := app.NewProctorService(monitors, quizService, cfg.Proctor.MaxWarnings)
	handler := transport.NewHandler(quizService, proctorService)
	wsHandler := transport.NewProctorWSHandler(proctorService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/proctor", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting adaptive quiz service on :%s", finalPort)
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

// sampleQuestions provides a minimal demo question pool; the Postgres-backed
// loader replaces this when a database is configured.
func sampleQuestions() []domain.Question {
	now := time.Now()
	questions := []domain.Question{
		{ID: "q-comp-easy-1", Text: "What does CPU stand for?", Category: "computer", Difficulty: domain.DifficultyEasy, CorrectAnswer: "Central Processing Unit", IncorrectAnswers: []string{"Central Process Unit", "Computer Personal Unit", "Central Processor Unit"}},
		{ID: "q-comp-med-1", Text: "In what year was the Python programming language first released?", Category: "computer", Difficulty: domain.DifficultyMedium, CorrectAnswer: "1991", IncorrectAnswers: []string{"1989", "1995", "2000"}},
		{ID: "q-comp-med-2", Text: "How many bits are in a byte?", Category: "computer", Difficulty: domain.DifficultyMedium, CorrectAnswer: "8", IncorrectAnswers: []string{"4", "16", "32"}},
		{ID: "q-comp-hard-1", Text: "Which sorting algorithm has the best average-case time complexity?", Category: "computer", Difficulty: domain.DifficultyHard, CorrectAnswer: "Merge sort", IncorrectAnswers: []string{"Bubble sort", "Insertion sort", "Selection sort"}},
		{ID: "q-maths-easy-1", Text: "What is 7 x 8?", Category: "maths", Difficulty: domain.DifficultyEasy, CorrectAnswer: "56", IncorrectAnswers: []string{"54", "58", "64"}},
		{ID: "q-maths-med-1", Text: "What is the square root of 144?", Category: "maths", Difficulty: domain.DifficultyMedium, CorrectAnswer: "12", IncorrectAnswers: []string{"10", "14", "16"}},
		{ID: "q-maths-hard-1", Text: "What is the derivative of x^3?", Category: "maths", Difficulty: domain.DifficultyHard, CorrectAnswer: "3x^2", IncorrectAnswers: []string{"x^2", "3x", "x^3/3"}},
		{ID: "q-sports-med-1", Text: "How many players are on a basketball team on the court?", Category: "sports", Difficulty: domain.DifficultyMedium, CorrectAnswer: "5", IncorrectAnswers: []string{"6", "7", "11"}},
	}
	for i := range questions {
		questions[i].Active = true
		questions[i].CreatedAt = now
	}
	return questions
}
