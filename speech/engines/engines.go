// Package engines builds concrete synthesizers for the playback
// controller.
package engines

import (
	"fmt"

	"github.com/dgnsrekt/lectern/speech"
	"github.com/dgnsrekt/lectern/speech/engines/command"
	"github.com/dgnsrekt/lectern/speech/engines/mock"
	"github.com/dgnsrekt/lectern/speech/engines/piper"
)

// Config selects and configures a synthesizer.
type Config struct {
	// Name of the engine: "auto", "say", "espeak-ng", "espeak",
	// "flite", "piper", or "mock".
	Name string

	// PiperModel is the path to a piper voice model, used only by the
	// piper engine.
	PiperModel string
}

// New builds the synthesizer named in cfg. "auto" probes the system
// speech programs in order.
func New(cfg Config) (speech.Synthesizer, error) {
	switch cfg.Name {
	case "", "auto":
		return command.Detect()
	case "say", "espeak-ng", "espeak", "flite":
		return command.New(cfg.Name)
	case "piper":
		return piper.New(piper.Config{Model: cfg.PiperModel})
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", speech.ErrEngineNotFound, cfg.Name)
	}
}
