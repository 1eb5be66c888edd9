// Package mock provides a scriptable synthesizer for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/lectern/speech"
)

// Synthesizer implements speech.Synthesizer for tests. By default it
// "speaks" instantly; tests can add a delay, script failures for
// specific words, or switch to manual mode and drive every utterance
// by hand.
type Synthesizer struct {
	mu        sync.Mutex
	delay     time.Duration
	spoken    []string
	calls     int
	failText  map[string]error
	voices    []speech.Voice
	voicesErr error
	started   chan speech.Utterance
	release   chan error
}

// New creates a mock synthesizer with a small default voice list.
func New() *Synthesizer {
	return &Synthesizer{
		failText: make(map[string]error),
		voices: []speech.Voice{
			{ID: "mock-1", Name: "Mock One", Language: "en-US", Gender: "neutral"},
			{ID: "mock-2", Name: "Mock Two", Language: "en-GB", Gender: "female"},
			{ID: "mock-3", Name: "Mock Three", Language: "de-DE", Gender: "male"},
		},
	}
}

// Speak records the utterance and completes after the configured
// delay, the scripted failure, or a manual release.
func (s *Synthesizer) Speak(ctx context.Context, u speech.Utterance) error {
	s.mu.Lock()
	s.calls++
	s.spoken = append(s.spoken, u.Text)
	err := s.failText[u.Text]
	delay := s.delay
	started := s.started
	release := s.release
	s.mu.Unlock()

	if started != nil {
		select {
		case started <- u:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if release != nil {
		select {
		case res := <-release:
			if res != nil {
				return res
			}
		case <-ctx.Done():
			return ctx.Err()
		}
		return err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Voices returns the scripted voice list.
func (s *Synthesizer) Voices(ctx context.Context) ([]speech.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voicesErr != nil {
		return nil, s.voicesErr
	}
	out := make([]speech.Voice, len(s.voices))
	copy(out, s.voices)
	return out, nil
}

// Manual switches the synthesizer to hand-driven mode. Every Speak
// call announces itself on the started channel and then blocks until
// the test sends a result on release (nil for success) or the
// utterance is canceled.
func (s *Synthesizer) Manual() (started <-chan speech.Utterance, release chan<- error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = make(chan speech.Utterance)
	s.release = make(chan error)
	return s.started, s.release
}

// SetDelay sets the simulated speaking time per utterance.
func (s *Synthesizer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailOn scripts a failure for a specific word.
func (s *Synthesizer) FailOn(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failText[text] = err
}

// SetVoices replaces the scripted voice list.
func (s *Synthesizer) SetVoices(voices []speech.Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = voices
}

// SetVoicesError makes Voices fail.
func (s *Synthesizer) SetVoicesError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voicesErr = err
}

// Spoken returns every utterance text passed to Speak, in order.
func (s *Synthesizer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// CallCount returns the number of Speak calls.
func (s *Synthesizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var _ speech.Synthesizer = (*Synthesizer)(nil)
