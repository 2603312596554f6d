package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"adaptiq-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store (e.g., Postgres).
type QuestionLoader interface {
	ListActive(ctx context.Context, category string, difficulty domain.Difficulty) ([]domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionRepository caches the active question pool per (category, difficulty)
// with TTL to avoid repeated DB hits, and serves uniform random picks from it.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPool
	byID  map[string]domain.Question
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
		byID:   make(map[string]domain.Question),
	}
}

// FindRandom returns a uniformly random active question for the category and
// difficulty, loading the pool through the loader on cache miss.
func (r *QuestionRepository) FindRandom(ctx context.Context, category string, difficulty domain.Difficulty) (domain.Question, error) {
	pool, err := r.pool(ctx, category, difficulty)
	if err != nil {
		return domain.Question{}, err
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrNoQuestionsAvailable
	}
	return pool[rand.Intn(len(pool))], nil
}

// GetQuestion resolves a question by ID, preferring entries already pulled
// into the pool cache.
func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	r.mu.RLock()
	if question, ok := r.byID[questionID]; ok {
		r.mu.RUnlock()
		return question, nil
	}
	r.mu.RUnlock()

	question, err := r.loader.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	r.mu.Lock()
	r.byID[questionID] = question
	r.mu.Unlock()
	return question, nil
}

func (r *QuestionRepository) pool(ctx context.Context, category string, difficulty domain.Difficulty) ([]domain.Question, error) {
	key := category + "/" + string(difficulty)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.ListActive(ctx, category, difficulty)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedPool{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		for _, question := range questions {
			r.byID[question.ID] = question
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by a fixed slice (useful for
// tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) ListActive(_ context.Context, category string, difficulty domain.Difficulty) ([]domain.Question, error) {
	var matches []domain.Question
	for _, question := range l.questions {
		if question.Active && question.Category == category && question.Difficulty == difficulty {
			matches = append(matches, question)
		}
	}
	return matches, nil
}

func (l *StaticQuestionLoader) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	for _, question := range l.questions {
		if question.ID == questionID {
			return question, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
