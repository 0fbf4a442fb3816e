package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreakIncrementAndReset(t *testing.T) {
	s := NewStreak()

	for i := 0; i < 5; i++ {
		s.Increment()
	}
	stats := s.Snapshot()
	assert.Equal(t, 5, stats.Streak)
	assert.Equal(t, 5, stats.MaxStreak)

	s.Reset()
	stats = s.Snapshot()
	assert.Equal(t, 0, stats.Streak)
	assert.Equal(t, 5, stats.MaxStreak)
}

func TestStreakMaxNeverDecreases(t *testing.T) {
	s := NewStreak()

	ops := []string{"inc", "inc", "reset", "inc", "inc", "inc", "reset", "inc"}
	prevMax := 0
	for _, op := range ops {
		if op == "inc" {
			s.Increment()
		} else {
			s.Reset()
		}
		stats := s.Snapshot()
		assert.GreaterOrEqual(t, stats.MaxStreak, stats.Streak)
		assert.GreaterOrEqual(t, stats.MaxStreak, prevMax)
		prevMax = stats.MaxStreak
	}
}

func TestStreakScoreAndCompletedQuizzes(t *testing.T) {
	s := NewStreak()

	s.AddScore(1)
	s.AddScore(3)
	s.CompleteQuiz()

	stats := s.Snapshot()
	assert.Equal(t, 4, stats.Score)
	assert.Equal(t, 1, stats.CompletedQuizzes)
}

func TestStreakNotifiesObservers(t *testing.T) {
	s := NewStreak()

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	s.Increment()
	s.AddScore(1)
	assert.Equal(t, 2, calls)

	// Resetting an already-zero streak is not a change
	s.Reset()
	s.Reset()
	assert.Equal(t, 3, calls)

	unsubscribe()
	s.Increment()
	assert.Equal(t, 3, calls)
}
