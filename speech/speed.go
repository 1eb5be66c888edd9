package speech

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSpeedOutOfRange is returned when a rate falls outside the ladder.
var ErrSpeedOutOfRange = errors.New("speed must be between 0.5 and 2.0")

// speedSteps are the discrete rate multipliers offered to the user.
var speedSteps = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// Ladder steps the playback rate through predefined multipliers.
type Ladder struct {
	mu      sync.Mutex
	current float64
}

// NewLadder returns a ladder at normal speed.
func NewLadder() *Ladder {
	return &Ladder{current: 1.0}
}

// Current returns the current rate multiplier.
func (l *Ladder) Current() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Set snaps the rate to the nearest ladder step. Rates outside the
// ladder bounds are rejected.
func (l *Ladder) Set(rate float64) error {
	if rate < speedSteps[0] || rate > speedSteps[len(speedSteps)-1] {
		return ErrSpeedOutOfRange
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	nearest := speedSteps[0]
	for _, s := range speedSteps {
		if abs(s-rate) < abs(nearest-rate) {
			nearest = s
		}
	}
	l.current = nearest
	return nil
}

// Increase moves to the next faster step and returns the new rate.
// At the top of the ladder the rate is unchanged.
func (l *Ladder) Increase() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range speedSteps {
		if s > l.current {
			l.current = s
			break
		}
	}
	return l.current
}

// Decrease moves to the next slower step and returns the new rate.
// At the bottom of the ladder the rate is unchanged.
func (l *Ladder) Decrease() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(speedSteps) - 1; i >= 0; i-- {
		if speedSteps[i] < l.current {
			l.current = speedSteps[i]
			break
		}
	}
	return l.current
}

// Display returns the rate formatted for the status bar, e.g. "1.25x".
func (l *Ladder) Display() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("%gx", l.current)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
