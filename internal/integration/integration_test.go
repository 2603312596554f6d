package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"adaptiq-quiz-service/internal/app"
	"adaptiq-quiz-service/internal/domain"
	"adaptiq-quiz-service/internal/infra/memory"
	pgstore "adaptiq-quiz-service/internal/infra/postgres"
	pgmigrations "adaptiq-quiz-service/internal/infra/postgres/migrations"
	redisstore "adaptiq-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestAdaptiveQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	questionStore := pgstore.NewQuestionStore(pool)
	inserted, err := questionStore.SaveQuestions(ctx, seedQuestions())
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	if inserted != len(seedQuestions()) {
		t.Fatalf("expected %d inserts, got %d", len(seedQuestions()), inserted)
	}
	// Duplicate texts are skipped on re-import.
	again, err := questionStore.SaveQuestions(ctx, seedQuestions())
	if err != nil {
		t.Fatalf("reseed questions: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected duplicate texts skipped, got %d inserts", again)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questions := memory.NewQuestionRepository(questionStore, 5*time.Minute)
	sessions := redisstore.NewSessionStore(redisClient, 5*time.Minute)
	monitors := redisstore.NewMonitorStore(redisClient, 5*time.Minute)
	quiz := app.NewQuizService(sessions, questions, 10)
	proctor := app.NewProctorService(monitors, quiz, 2)

	start, err := quiz.StartQuiz(ctx, "u1", "computer")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if start.Difficulty != domain.DifficultyMedium {
		t.Fatalf("expected medium start, got %s", start.Difficulty)
	}

	// Two correct answers promote to hard with the medium point value each.
	first, err := quiz.SubmitAnswer(ctx, start.SessionID, start.Question.ID, "1991")
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if !first.Correct || first.Points != 10 {
		t.Fatalf("unexpected first result %+v", first)
	}
	second, err := quiz.SubmitAnswer(ctx, start.SessionID, start.Question.ID, "1991")
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if second.Difficulty != domain.DifficultyHard || second.TotalScore != 20 {
		t.Fatalf("expected hard at score 20, got %+v", second)
	}
	if second.NextQuestion == nil || second.NextQuestion.Difficulty != domain.DifficultyHard {
		t.Fatalf("expected hard next question, got %+v", second.NextQuestion)
	}

	answers, err := sessions.Answers(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 2 || answers[1].Seq != 2 {
		t.Fatalf("unexpected answer log %+v", answers)
	}

	// Three violations force-quit the session.
	if _, err := proctor.StartMonitoring(ctx, start.SessionID); err != nil {
		t.Fatalf("start monitoring: %v", err)
	}
	var verdict domain.ViolationResult
	for i := 0; i < 3; i++ {
		verdict, err = proctor.ReportViolation(ctx, start.SessionID, "looking_away", "gaze left frame")
		if err != nil {
			t.Fatalf("violation %d: %v", i+1, err)
		}
	}
	if !verdict.ShouldForceQuit {
		t.Fatalf("expected force quit, got %+v", verdict)
	}
	session, err := quiz.GetSession(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.State != domain.SessionTerminated {
		t.Fatalf("expected terminated session, got %s", session.State)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seedQuestions() []domain.Question {
	now := time.Now()
	return []domain.Question{
		{
			ID:               "q-med-1",
			Text:             "In what year was the Python programming language first released?",
			Category:         "computer",
			Difficulty:       domain.DifficultyMedium,
			CorrectAnswer:    "1991",
			IncorrectAnswers: []string{"1989", "1995", "2000"},
			Active:           true,
			CreatedAt:        now,
		},
		{
			ID:               "q-hard-1",
			Text:             "Which sorting algorithm has the best average-case time complexity?",
			Category:         "computer",
			Difficulty:       domain.DifficultyHard,
			CorrectAnswer:    "Merge sort",
			IncorrectAnswers: []string{"Bubble sort", "Insertion sort"},
			Active:           true,
			CreatedAt:        now,
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
