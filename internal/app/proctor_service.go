package app

import (
	"context"
	"fmt"
	"time"

	"adaptiq-quiz-service/internal/domain"
)

const (
	StatusMonitoringStarted = "monitoring_started"
	StatusMonitoringStopped = "monitoring_stopped"
)

// MonitorStore persists per-session camera-monitoring state. Update must be
// atomic per session.
type MonitorStore interface {
	Put(ctx context.Context, state domain.MonitorState) error
	Update(ctx context.Context, sessionID string, mutate func(*domain.MonitorState) error) (domain.MonitorState, error)
}

// SessionControl is the slice of the quiz service the violation tracker
// needs for cascading termination.
type SessionControl interface {
	GetSession(ctx context.Context, sessionID string) (domain.QuizSession, error)
	TerminateSession(ctx context.Context, sessionID string) error
}

// ProctorService tracks externally detected proctoring violations and
// force-quits the linked quiz session once the warning budget is spent.
type ProctorService struct {
	monitors    MonitorStore
	sessions    SessionControl
	maxWarnings int
}

func NewProctorService(monitors MonitorStore, sessions SessionControl, maxWarnings int) *ProctorService {
	if maxWarnings <= 0 {
		maxWarnings = 2
	}
	return &ProctorService{monitors: monitors, sessions: sessions, maxWarnings: maxWarnings}
}

// StartMonitoring creates fresh monitoring state for a session, clearing any
// warnings left over from a previous attempt.
func (p *ProctorService) StartMonitoring(ctx context.Context, sessionID string) (domain.MonitorStatus, error) {
	if sessionID == "" {
		return domain.MonitorStatus{}, fmt.Errorf("%w: sessionId is required", domain.ErrValidation)
	}
	if _, err := p.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.MonitorStatus{}, err
	}

	now := time.Now()
	state := domain.MonitorState{
		SessionID:    sessionID,
		MaxWarnings:  p.maxWarnings,
		CameraActive: true,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.monitors.Put(ctx, state); err != nil {
		return domain.MonitorStatus{}, fmt.Errorf("store monitor state: %w", err)
	}
	return domain.MonitorStatus{Status: StatusMonitoringStarted, MaxWarnings: p.maxWarnings}, nil
}

// ReportViolation appends a warning and reports whether the session must be
// force-quit. The quit threshold is crossed strictly when the warning count
// exceeds maxWarnings; the first crossing terminates the linked session and
// stops the camera.
func (p *ProctorService) ReportViolation(ctx context.Context, sessionID, violationType, reason string) (domain.ViolationResult, error) {
	if sessionID == "" || violationType == "" {
		return domain.ViolationResult{}, fmt.Errorf("%w: sessionId and violationType are required", domain.ErrValidation)
	}

	tripped := false
	state, err := p.monitors.Update(ctx, sessionID, func(m *domain.MonitorState) error {
		now := time.Now()
		m.Warnings = append(m.Warnings, domain.Warning{Type: violationType, Reason: reason, At: now})
		m.UpdatedAt = now
		if len(m.Warnings) > m.MaxWarnings && !m.CheatingDetected {
			m.CheatingDetected = true
			m.CameraActive = false
			tripped = true
		}
		return nil
	})
	if err != nil {
		return domain.ViolationResult{}, err
	}

	if tripped {
		if err := p.sessions.TerminateSession(ctx, sessionID); err != nil {
			return domain.ViolationResult{}, fmt.Errorf("terminate session: %w", err)
		}
	}
	return domain.ViolationResult{
		WarningNumber:   len(state.Warnings),
		MaxWarnings:     state.MaxWarnings,
		ShouldForceQuit: state.CheatingDetected,
	}, nil
}

// StopMonitoring deactivates the camera without touching warning history.
// Calling it repeatedly is a no-op after the first call.
func (p *ProctorService) StopMonitoring(ctx context.Context, sessionID string) (domain.MonitorStatus, error) {
	if sessionID == "" {
		return domain.MonitorStatus{}, fmt.Errorf("%w: sessionId is required", domain.ErrValidation)
	}
	state, err := p.monitors.Update(ctx, sessionID, func(m *domain.MonitorState) error {
		if m.CameraActive {
			m.CameraActive = false
			m.UpdatedAt = time.Now()
		}
		return nil
	})
	if err != nil {
		return domain.MonitorStatus{}, err
	}
	return domain.MonitorStatus{Status: StatusMonitoringStopped, TotalWarnings: len(state.Warnings)}, nil
}

// ResetWarnings clears warning history and the cheating flag, used when a new
// quiz attempt begins under the same monitoring session.
func (p *ProctorService) ResetWarnings(ctx context.Context, sessionID string) error {
	_, err := p.monitors.Update(ctx, sessionID, func(m *domain.MonitorState) error {
		m.Warnings = nil
		m.CheatingDetected = false
		m.UpdatedAt = time.Now()
		return nil
	})
	return err
}
