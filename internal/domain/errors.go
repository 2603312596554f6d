package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session is unknown or no longer active.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestionsAvailable indicates no active question matches the requested category and difficulty.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrMonitorNotFound is returned when monitoring was never started for a session.
	ErrMonitorNotFound = errors.New("monitoring session not found")
	// ErrValidation marks malformed client input (missing category, answer, or IDs).
	ErrValidation = errors.New("invalid request")
)
