package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptiq-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMonitorStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewMonitorStore(client, time.Minute)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrMonitorNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	state := domain.MonitorState{SessionID: "s1", MaxWarnings: 2, CameraActive: true}
	if err := store.Put(ctx, state); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("proctor:s1") {
		t.Fatalf("expected proctor key to be set")
	}

	updated, err := store.Update(ctx, "s1", func(m *domain.MonitorState) error {
		m.Warnings = append(m.Warnings, domain.Warning{Type: "looking_away", Reason: "gaze left frame"})
		m.CheatingDetected = true
		m.CameraActive = false
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Warnings) != 1 || !updated.CheatingDetected {
		t.Fatalf("unexpected state %+v", updated)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CameraActive || len(got.Warnings) != 1 || got.Warnings[0].Type != "looking_away" {
		t.Fatalf("unexpected persisted state %+v", got)
	}
}
