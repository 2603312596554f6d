package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"adaptiq-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionStore abstracts how quiz sessions are persisted (in-memory, Redis, etc).
// Update must apply the mutation atomically with respect to concurrent
// updates of the same session.
type SessionStore interface {
	Create(ctx context.Context, session domain.QuizSession) error
	Get(ctx context.Context, sessionID string) (domain.QuizSession, error)
	Update(ctx context.Context, sessionID string, mutate func(*domain.QuizSession) error) (domain.QuizSession, error)
	AppendAnswer(ctx context.Context, answer domain.UserAnswer) error
	SessionsByUser(ctx context.Context, userID string) ([]domain.QuizSession, error)
}

// QuestionRepository serves question content (from cache/backing store).
type QuestionRepository interface {
	// FindRandom returns a uniformly random active question for the category
	// and difficulty, or domain.ErrNoQuestionsAvailable.
	FindRandom(ctx context.Context, category string, difficulty domain.Difficulty) (domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuizService owns the adaptive quiz session state machine.
type QuizService struct {
	sessions     SessionStore
	questions    QuestionRepository
	maxQuestions int
}

func NewQuizService(sessions SessionStore, questions QuestionRepository, maxQuestions int) *QuizService {
	if maxQuestions <= 0 {
		maxQuestions = 10
	}
	return &QuizService{sessions: sessions, questions: questions, maxQuestions: maxQuestions}
}

// StartQuiz creates a new session at medium difficulty and returns the first
// question with its answer set shuffled.
func (s *QuizService) StartQuiz(ctx context.Context, userID, category string) (domain.StartResult, error) {
	if userID == "" {
		return domain.StartResult{}, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	if category == "" {
		return domain.StartResult{}, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}

	question, err := s.questions.FindRandom(ctx, category, domain.DifficultyMedium)
	if err != nil {
		return domain.StartResult{}, err
	}

	now := time.Now()
	session := domain.QuizSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     category,
		Difficulty:   domain.DifficultyMedium,
		MaxQuestions: s.maxQuestions,
		State:        domain.SessionActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.StartResult{}, fmt.Errorf("create session: %w", err)
	}

	return domain.StartResult{
		SessionID:  session.ID,
		Question:   shuffledView(question),
		Difficulty: session.Difficulty,
	}, nil
}

// SubmitAnswer grades one answer, advances the difficulty state machine, logs
// the answer, and serves the next question unless the session just completed.
// A session that ran out of matching questions stays active with a nil next
// question.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, questionID, selectedAnswer string) (domain.AnswerResult, error) {
	if sessionID == "" || questionID == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: sessionId and questionId are required", domain.ErrValidation)
	}
	if selectedAnswer == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: selectedAnswer is required", domain.ErrValidation)
	}

	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	correct := selectedAnswer == question.CorrectAnswer

	var (
		answeredAt domain.Difficulty
		transition Transition
	)
	updated, err := s.sessions.Update(ctx, sessionID, func(session *domain.QuizSession) error {
		if session.State != domain.SessionActive {
			return domain.ErrSessionNotFound
		}
		answeredAt = session.Difficulty
		transition = ComputeTransition(session.Difficulty, session.ConsecutiveCorrect, session.ConsecutiveIncorrect, correct)

		session.Difficulty = transition.Difficulty
		session.ConsecutiveCorrect = transition.ConsecutiveCorrect
		session.ConsecutiveIncorrect = transition.ConsecutiveIncorrect
		session.Score += transition.Points
		session.Answered++
		if session.Answered >= session.MaxQuestions {
			session.State = domain.SessionCompleted
		}
		session.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	answer := domain.UserAnswer{
		SessionID:  sessionID,
		Seq:        updated.Answered,
		QuestionID: question.ID,
		Selected:   selectedAnswer,
		Correct:    correct,
		Points:     transition.Points,
		Difficulty: answeredAt,
		AnsweredAt: updated.UpdatedAt,
	}
	if err := s.sessions.AppendAnswer(ctx, answer); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("append answer: %w", err)
	}

	result := domain.AnswerResult{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Points:        transition.Points,
		Difficulty:    updated.Difficulty,
		TotalScore:    updated.Score,
		Answered:      updated.Answered,
		MaxQuestions:  updated.MaxQuestions,
		State:         updated.State,
	}
	if updated.State == domain.SessionActive {
		next, err := s.questions.FindRandom(ctx, updated.Category, updated.Difficulty)
		switch {
		case err == nil:
			view := shuffledView(next)
			result.NextQuestion = &view
		case errors.Is(err, domain.ErrNoQuestionsAvailable):
			// Degraded but successful: the caller sees a nil next question.
		default:
			return domain.AnswerResult{}, err
		}
	}
	return result, nil
}

// GetSession returns the current session state.
func (s *QuizService) GetSession(ctx context.Context, sessionID string) (domain.QuizSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// TerminateSession force-quits an active session. Completed or already
// terminated sessions are left untouched.
func (s *QuizService) TerminateSession(ctx context.Context, sessionID string) error {
	_, err := s.sessions.Update(ctx, sessionID, func(session *domain.QuizSession) error {
		if session.State == domain.SessionActive {
			session.State = domain.SessionTerminated
			session.UpdatedAt = time.Now()
		}
		return nil
	})
	return err
}

// Stats aggregates a user's quiz history across stored sessions.
func (s *QuizService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	if userID == "" {
		return domain.UserStats{}, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	sessions, err := s.sessions.SessionsByUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("list sessions: %w", err)
	}

	stats := domain.UserStats{TotalSessions: len(sessions)}
	seen := make(map[string]struct{})
	for _, session := range sessions {
		stats.TotalScore += session.Score
		stats.TotalQuestions += session.Answered
		if _, ok := seen[session.Category]; !ok {
			seen[session.Category] = struct{}{}
			stats.Categories = append(stats.Categories, session.Category)
		}
	}
	sort.Strings(stats.Categories)
	return stats, nil
}

// shuffledView builds the client view of a question with a uniformly random
// permutation of the answer set.
func shuffledView(question domain.Question) domain.QuestionView {
	answers := make([]string, 0, len(question.IncorrectAnswers)+1)
	answers = append(answers, question.CorrectAnswer)
	answers = append(answers, question.IncorrectAnswers...)
	rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return domain.QuestionView{
		ID:         question.ID,
		Text:       question.Text,
		Category:   question.Category,
		Difficulty: question.Difficulty,
		Answers:    answers,
	}
}
