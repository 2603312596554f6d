package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"adaptiq-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore reads and writes trivia questions in Postgres. It backs the
// in-memory pool cache as its loader and the import job as its writer.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, text, category, difficulty, correct_answer, incorrect_answers, COALESCE(api_question_id, 0), is_active, created_at`

// ListActive returns all active questions for a category and difficulty.
func (s *QuestionStore) ListActive(ctx context.Context, category string, difficulty domain.Difficulty) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category=$1 AND difficulty=$2 AND is_active`,
		category, string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// GetQuestion loads a single question by ID.
func (s *QuestionStore) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id=$1`, questionID)
	question, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// SaveQuestions inserts imported questions, skipping ones whose text is
// already present. It returns the number of rows actually inserted.
func (s *QuestionStore) SaveQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	inserted := 0
	for _, question := range questions {
		incorrect, err := json.Marshal(question.IncorrectAnswers)
		if err != nil {
			return inserted, fmt.Errorf("marshal incorrect answers: %w", err)
		}
		var apiID interface{}
		if question.APIQuestionID != 0 {
			apiID = question.APIQuestionID
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO questions (id, text, category, difficulty, correct_answer, incorrect_answers, api_question_id, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
			 ON CONFLICT (text) DO NOTHING`,
			question.ID, question.Text, question.Category, string(question.Difficulty),
			question.CorrectAnswer, incorrect, apiID, question.Active)
		if err != nil {
			return inserted, fmt.Errorf("insert question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		question   domain.Question
		difficulty string
		raw        []byte
	)
	err := row.Scan(
		&question.ID,
		&question.Text,
		&question.Category,
		&difficulty,
		&question.CorrectAnswer,
		&raw,
		&question.APIQuestionID,
		&question.Active,
		&question.CreatedAt,
	)
	if err != nil {
		return domain.Question{}, err
	}
	question.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(raw, &question.IncorrectAnswers); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal incorrect answers: %w", err)
	}
	return question, nil
}
