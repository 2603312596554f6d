package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"adaptiq-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-backed implementation of app.SessionStore.
// Layout:
//   - SET  quiz:session:{id}          full session JSON, TTL-bound
//   - LIST quiz:session:{id}:answers  append-only answer log (JSON per entry)
//   - SET  quiz:user:{id}:sessions    session-ID index used for stats
//
// Notes:
//   - Read-modify-write goes through an in-process keyed lock, so updates are
//     atomic per session for a single instance. For true multi-instance
//     deployment you'd swap this for WATCH/MULTI or a Redis lock.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	locks  keyedMutex
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(session.ID), data, s.ttl)
	pipe.SAdd(ctx, s.userKey(session.UserID), session.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.userKey(session.UserID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.QuizSession, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.QuizSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Update(ctx context.Context, sessionID string, mutate func(*domain.QuizSession) error) (domain.QuizSession, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if err := mutate(&session); err != nil {
		return domain.QuizSession{}, err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return domain.QuizSession{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) AppendAnswer(ctx context.Context, answer domain.UserAnswer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	key := s.answersKey(answer.SessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

func (s *SessionStore) Answers(ctx context.Context, sessionID string) ([]domain.UserAnswer, error) {
	raw, err := s.client.LRange(ctx, s.answersKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	answers := make([]domain.UserAnswer, 0, len(raw))
	for _, entry := range raw {
		var answer domain.UserAnswer
		if err := json.Unmarshal([]byte(entry), &answer); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (s *SessionStore) SessionsByUser(ctx context.Context, userID string) ([]domain.QuizSession, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load user index: %w", err)
	}
	sessions := make([]domain.QuizSession, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			// Session expired out from under the index.
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return "quiz:session:" + sessionID
}

func (s *SessionStore) answersKey(sessionID string) string {
	return "quiz:session:" + sessionID + ":answers"
}

func (s *SessionStore) userKey(userID string) string {
	return "quiz:user:" + userID + ":sessions"
}

// keyedMutex hands out one mutex per key for per-session critical sections.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
