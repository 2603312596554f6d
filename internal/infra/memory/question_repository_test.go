package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptiq-quiz-service/internal/domain"
)

func TestQuestionRepositoryCachesPool(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.FindRandom(context.Background(), "computer", domain.DifficultyMedium); err != nil {
		t.Fatalf("find random: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.FindRandom(context.Background(), "computer", domain.DifficultyMedium); err != nil {
		t.Fatalf("find random 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestFindRandomWithoutMatches(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(sampleQuestions()), time.Minute)

	_, err := repo.FindRandom(context.Background(), "history", domain.DifficultyMedium)
	if !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected no-questions error, got %v", err)
	}
}

func TestFindRandomSkipsInactive(t *testing.T) {
	inactive := sampleQuestions()
	for i := range inactive {
		inactive[i].Active = false
	}
	repo := NewQuestionRepository(NewStaticQuestionLoader(inactive), time.Minute)

	_, err := repo.FindRandom(context.Background(), "computer", domain.DifficultyMedium)
	if !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected inactive questions excluded, got %v", err)
	}
}

func TestGetQuestionUsesPoolCache(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	// Loading the pool fills the ID index; the follow-up lookup stays local.
	if _, err := repo.FindRandom(context.Background(), "computer", domain.DifficultyMedium); err != nil {
		t.Fatalf("find random: %v", err)
	}
	question, err := repo.GetQuestion(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if question.CorrectAnswer != "4" {
		t.Fatalf("unexpected question %+v", question)
	}
	if loader.calls != 1 {
		t.Fatalf("expected no extra loader call, got %d", loader.calls)
	}

	if _, err := repo.GetQuestion(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) ListActive(ctx context.Context, category string, difficulty domain.Difficulty) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.ListActive(ctx, category, difficulty)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:               "q1",
			Text:             "What is 2 + 2?",
			Category:         "computer",
			Difficulty:       domain.DifficultyMedium,
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3", "5"},
			Active:           true,
		},
		{
			ID:               "q2",
			Text:             "What is 2 + 3?",
			Category:         "computer",
			Difficulty:       domain.DifficultyMedium,
			CorrectAnswer:    "5",
			IncorrectAnswers: []string{"4", "6"},
			Active:           true,
		},
	}
}
