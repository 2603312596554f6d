package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adaptiq-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// MonitorStore keeps camera-monitoring state as JSON under proctor:{sessionID}.
type MonitorStore struct {
	client *redis.Client
	ttl    time.Duration
	locks  keyedMutex
}

func NewMonitorStore(client *redis.Client, ttl time.Duration) *MonitorStore {
	return &MonitorStore{client: client, ttl: ttl}
}

func (s *MonitorStore) Put(ctx context.Context, state domain.MonitorState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal monitor state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store monitor state: %w", err)
	}
	return nil
}

func (s *MonitorStore) Get(ctx context.Context, sessionID string) (domain.MonitorState, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.MonitorState{}, domain.ErrMonitorNotFound
	}
	if err != nil {
		return domain.MonitorState{}, fmt.Errorf("load monitor state: %w", err)
	}
	var state domain.MonitorState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.MonitorState{}, fmt.Errorf("unmarshal monitor state: %w", err)
	}
	return state, nil
}

func (s *MonitorStore) Update(ctx context.Context, sessionID string, mutate func(*domain.MonitorState) error) (domain.MonitorState, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.MonitorState{}, err
	}
	if err := mutate(&state); err != nil {
		return domain.MonitorState{}, err
	}
	if err := s.Put(ctx, state); err != nil {
		return domain.MonitorState{}, err
	}
	return state, nil
}

func (s *MonitorStore) key(sessionID string) string {
	return "proctor:" + sessionID
}
