package speech

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between playback and the UI.

// PhaseMsg indicates the playback phase changed.
type PhaseMsg struct {
	Phase Phase
}

// UnitMsg indicates a unit has started being spoken.
type UnitMsg struct {
	Index int
	Text  string
}

// ProgressMsg carries a position change.
type ProgressMsg struct {
	Position Position
}

// SpeechErrMsg indicates a synthesis error. Playback usually keeps
// going; see Options.StrictErrors.
type SpeechErrMsg struct {
	Err error
}

// VoicesMsg delivers the synthesizer's voice list, which can arrive
// well after startup.
type VoicesMsg struct {
	Voices []Voice
	Err    error
}

// ListVoicesCmd asks the synthesizer for its voices off the UI loop.
func ListVoicesCmd(synth Synthesizer, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		voices, err := synth.Voices(ctx)
		return VoicesMsg{Voices: voices, Err: err}
	}
}
