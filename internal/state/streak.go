package state

import (
	"sync"

	"github.com/Amaan007S/piq-sync/internal/models"
)

// Streak tracks the in-game scoring state: current streak, best streak,
// score and completed quiz count.
type Streak struct {
	notifier

	mu    sync.Mutex
	stats models.GameStats
}

func NewStreak() *Streak {
	return &Streak{}
}

// Increment advances the streak by one and raises maxStreak with it.
func (s *Streak) Increment() {
	s.mu.Lock()
	s.stats.Streak++
	if s.stats.Streak > s.stats.MaxStreak {
		s.stats.MaxStreak = s.stats.Streak
	}
	s.mu.Unlock()
	s.notify()
}

// Reset zeroes the current streak. maxStreak is untouched. Called when the
// question timer expires or the user declines a retry after a wrong answer.
func (s *Streak) Reset() {
	s.mu.Lock()
	changed := s.stats.Streak != 0
	s.stats.Streak = 0
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// AddScore credits points for a correct answer.
func (s *Streak) AddScore(points int) {
	s.mu.Lock()
	s.stats.Score += points
	s.mu.Unlock()
	s.notify()
}

// CompleteQuiz bumps the finished-quiz counter.
func (s *Streak) CompleteQuiz() {
	s.mu.Lock()
	s.stats.CompletedQuizzes++
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current stats.
func (s *Streak) Snapshot() models.GameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Restore overwrites the slice with an externally reconciled value,
// bypassing the mutation operations.
func (s *Streak) Restore(stats models.GameStats) {
	stats.Clamp()
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	s.notify()
}
