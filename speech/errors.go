package speech

import (
	"errors"
	"fmt"
)

// Common errors for the speech system.
var (
	ErrNoContent        = errors.New("no content loaded")
	ErrVoiceNotFound    = errors.New("requested voice not found")
	ErrNoVoices         = errors.New("no voices available")
	ErrSeekWhilePlaying = errors.New("cannot seek during playback")
	ErrEngineNotFound   = errors.New("speech engine not found")
)

// UnitError reports a synthesis failure for a single unit. The
// controller keeps going after emitting one unless configured strict.
type UnitError struct {
	Index int    // index of the unit that failed
	Text  string // the unit's text
	Err   error  // the underlying synthesizer error
}

// Error implements the error interface.
func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d %q: %v", e.Index, e.Text, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnitError) Unwrap() error {
	return e.Err
}
