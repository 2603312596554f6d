package memory

import (
	"context"
	"sync"

	"adaptiq-quiz-service/internal/domain"
)

// MonitorStore is an in-memory implementation of app.MonitorStore.
type MonitorStore struct {
	mu       sync.RWMutex
	monitors map[string]domain.MonitorState
}

func NewMonitorStore() *MonitorStore {
	return &MonitorStore{monitors: make(map[string]domain.MonitorState)}
}

func (s *MonitorStore) Put(_ context.Context, state domain.MonitorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitors[state.SessionID] = state
	return nil
}

func (s *MonitorStore) Get(_ context.Context, sessionID string) (domain.MonitorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.monitors[sessionID]
	if !ok {
		return domain.MonitorState{}, domain.ErrMonitorNotFound
	}
	return state, nil
}

func (s *MonitorStore) Update(_ context.Context, sessionID string, mutate func(*domain.MonitorState) error) (domain.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.monitors[sessionID]
	if !ok {
		return domain.MonitorState{}, domain.ErrMonitorNotFound
	}
	if err := mutate(&state); err != nil {
		return domain.MonitorState{}, err
	}
	s.monitors[sessionID] = state
	return state, nil
}
