package domain

import "time"

// Difficulty is one of the three ordered question levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty level.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Points returns the score value for a correct answer at this level.
func (d Difficulty) Points() int {
	switch d {
	case DifficultyEasy:
		return 5
	case DifficultyHard:
		return 20
	default:
		return 10
	}
}

// Promote returns the next harder level, clamped at hard.
func (d Difficulty) Promote() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	}
	return d
}

// Demote returns the next easier level, clamped at easy.
func (d Difficulty) Demote() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyEasy
	}
	return d
}

// SessionState models the quiz session lifecycle.
type SessionState string

const (
	SessionActive     SessionState = "active"
	SessionCompleted  SessionState = "completed"
	SessionTerminated SessionState = "terminated"
)

// Question is an immutable trivia question. Only the Active flag changes
// after import.
type Question struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	CorrectAnswer    string     `json:"correctAnswer"`
	IncorrectAnswers []string   `json:"incorrectAnswers"`
	APIQuestionID    int        `json:"apiQuestionId,omitempty"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// QuizSession is the mutable per-attempt state driven by the session manager.
// ConsecutiveCorrect and ConsecutiveIncorrect are never both nonzero.
type QuizSession struct {
	ID                   string       `json:"id"`
	UserID               string       `json:"userId"`
	Category             string       `json:"category"`
	Difficulty           Difficulty   `json:"difficulty"`
	ConsecutiveCorrect   int          `json:"consecutiveCorrect"`
	ConsecutiveIncorrect int          `json:"consecutiveIncorrect"`
	Answered             int          `json:"answered"`
	Score                int          `json:"score"`
	MaxQuestions         int          `json:"maxQuestions"`
	State                SessionState `json:"state"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

// UserAnswer is one entry of the append-only answer log.
type UserAnswer struct {
	SessionID  string     `json:"sessionId"`
	Seq        int        `json:"seq"`
	QuestionID string     `json:"questionId"`
	Selected   string     `json:"selected"`
	Correct    bool       `json:"correct"`
	Points     int        `json:"points"`
	Difficulty Difficulty `json:"difficulty"` // level at the time of answering
	AnsweredAt time.Time  `json:"answeredAt"`
}

// Warning records one reported proctoring violation.
type Warning struct {
	Type   string    `json:"type"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// MonitorState is the per-session camera-monitoring state.
type MonitorState struct {
	SessionID        string    `json:"sessionId"`
	MaxWarnings      int       `json:"maxWarnings"`
	Warnings         []Warning `json:"warnings"`
	CheatingDetected bool      `json:"cheatingDetected"`
	CameraActive     bool      `json:"cameraActive"`
	StartedAt        time.Time `json:"startedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// QuestionView is the client-facing question: the answer set is shuffled and
// the correct one is not marked.
type QuestionView struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Answers    []string   `json:"answers"`
}

// StartResult is returned when a quiz session begins.
type StartResult struct {
	SessionID  string       `json:"sessionId"`
	Question   QuestionView `json:"question"`
	Difficulty Difficulty   `json:"currentDifficulty"`
}

// AnswerResult summarizes one submission and carries the next question, if any.
type AnswerResult struct {
	Correct       bool          `json:"isCorrect"`
	CorrectAnswer string        `json:"correctAnswer"`
	Points        int           `json:"pointsEarned"`
	Difficulty    Difficulty    `json:"currentDifficulty"`
	TotalScore    int           `json:"totalScore"`
	Answered      int           `json:"questionsAnswered"`
	MaxQuestions  int           `json:"maxQuestions"`
	State         SessionState  `json:"state"`
	NextQuestion  *QuestionView `json:"nextQuestion"`
}

// MonitorStatus is returned by start/stop monitoring.
type MonitorStatus struct {
	Status        string `json:"status"`
	MaxWarnings   int    `json:"maxWarnings,omitempty"`
	TotalWarnings int    `json:"totalWarnings"`
}

// ViolationResult is returned for each reported violation.
type ViolationResult struct {
	WarningNumber   int  `json:"warningNumber"`
	MaxWarnings     int  `json:"maxWarnings"`
	ShouldForceQuit bool `json:"shouldForceQuit"`
}

// UserStats aggregates a user's quiz history.
type UserStats struct {
	TotalSessions  int      `json:"totalSessions"`
	TotalScore     int      `json:"totalScore"`
	TotalQuestions int      `json:"totalQuestions"`
	Categories     []string `json:"categoriesPlayed"`
}
