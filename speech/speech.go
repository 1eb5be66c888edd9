// Package speech turns a document into spoken words and tracks which
// word is being spoken. It owns unit splitting, the playback phase
// machine, the position tracker, voice selection, and the controller
// that drives a Synthesizer one unit at a time.
package speech

import "context"

// Voice identifies a single voice offered by a synthesizer.
type Voice struct {
	ID       string // engine-specific identifier passed back on Speak
	Name     string // human readable name
	Language string // BCP 47-ish tag as reported by the engine, e.g. "en-US" or "en_GB"
	Gender   string // "male", "female", or "" when the engine does not say
}

// Utterance is one unit of text handed to a synthesizer.
type Utterance struct {
	Text  string
	Voice Voice   // zero value means the engine default
	Rate  float64 // speed multiplier, 1.0 is normal
}

// Synthesizer speaks text through some external speech capability.
//
// Speak blocks until the utterance has been fully spoken and must
// return promptly once ctx is canceled, abandoning any audio still in
// flight. Implementations serialize utterances internally so at most
// one is audible at a time.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
	Voices(ctx context.Context) ([]Voice, error)
}
