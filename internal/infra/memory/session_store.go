package memory

import (
	"context"
	"sync"

	"adaptiq-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.QuizSession
	answers  map[string][]domain.UserAnswer
	byUser   map[string][]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.QuizSession),
		answers:  make(map[string][]domain.UserAnswer),
		byUser:   make(map[string][]string),
	}
}

func (s *SessionStore) Create(_ context.Context, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.byUser[session.UserID] = append(s.byUser[session.UserID], session.ID)
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// Update applies mutate under the store lock; a mutate error leaves the
// stored session unchanged.
func (s *SessionStore) Update(_ context.Context, sessionID string, mutate func(*domain.QuizSession) error) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err := mutate(&session); err != nil {
		return domain.QuizSession{}, err
	}
	s.sessions[sessionID] = session
	return session, nil
}

func (s *SessionStore) AppendAnswer(_ context.Context, answer domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)
	return nil
}

func (s *SessionStore) Answers(_ context.Context, sessionID string) ([]domain.UserAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.answers[sessionID]
	out := make([]domain.UserAnswer, len(log))
	copy(out, log)
	return out, nil
}

func (s *SessionStore) SessionsByUser(_ context.Context, userID string) ([]domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	sessions := make([]domain.QuizSession, 0, len(ids))
	for _, id := range ids {
		if session, ok := s.sessions[id]; ok {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}
