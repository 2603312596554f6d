package app

import "adaptiq-quiz-service/internal/domain"

// promoteStreak / demoteStreak are the consecutive-answer counts that move
// the difficulty one step.
const (
	promoteStreak = 2
	demoteStreak  = 2
)

// Transition is the outcome of applying a single answer to the adaptive
// difficulty state. Points are always keyed to the difficulty that was
// active when the answer was given, not the post-transition one.
type Transition struct {
	Difficulty           domain.Difficulty
	Points               int
	ConsecutiveCorrect   int
	ConsecutiveIncorrect int
}

// ComputeTransition applies one answer outcome to the difficulty state
// machine. It is pure and fully deterministic.
//
// A correct answer awards points for the current level and bumps the correct
// streak; reaching the promote streak below hard raises the level one step
// and resets the streak to zero. Incorrect answers mirror this downward with
// zero points. At the boundaries (hard/correct, easy/incorrect) the level
// holds and the streak keeps accumulating.
func ComputeTransition(current domain.Difficulty, consecutiveCorrect, consecutiveIncorrect int, correct bool) Transition {
	if correct {
		t := Transition{
			Difficulty:         current,
			Points:             current.Points(),
			ConsecutiveCorrect: consecutiveCorrect + 1,
		}
		if t.ConsecutiveCorrect >= promoteStreak && current != domain.DifficultyHard {
			t.Difficulty = current.Promote()
			t.ConsecutiveCorrect = 0
		}
		return t
	}

	t := Transition{
		Difficulty:           current,
		ConsecutiveIncorrect: consecutiveIncorrect + 1,
	}
	if t.ConsecutiveIncorrect >= demoteStreak && current != domain.DifficultyEasy {
		t.Difficulty = current.Demote()
		t.ConsecutiveIncorrect = 0
	}
	return t
}
