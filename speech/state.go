package speech

// Phase represents the playback phase of the controller.
type Phase int

const (
	// Idle indicates content is loaded but playback has never started.
	Idle Phase = iota
	// Playing indicates units are being spoken.
	Playing
	// Paused indicates playback is suspended mid-document.
	Paused
	// Stopped indicates playback was halted and reset to the start.
	Stopped
	// Finished indicates the last unit has been spoken.
	Finished
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// CanPlay returns true if playback can start or resume from this phase.
func (p Phase) CanPlay() bool {
	return p == Idle || p == Paused || p == Stopped || p == Finished
}

// CanPause returns true if playback can be paused from this phase.
func (p Phase) CanPause() bool {
	return p == Playing
}

// CanStop returns true if playback can be stopped from this phase.
// Stopping an already finished document is allowed and rewinds it.
func (p Phase) CanStop() bool {
	return p == Playing || p == Paused || p == Finished
}

// IsActive returns true if the controller holds a position worth
// persisting, that is playback has started and not been rewound.
func (p Phase) IsActive() bool {
	return p == Playing || p == Paused
}

// transitions lists the legal phase changes. Playing an empty
// document finishes it immediately, hence the Idle and Stopped edges
// straight to Finished. Loading new content returns the controller to
// Idle from any phase.
var transitions = map[Phase][]Phase{
	Idle:     {Playing, Finished, Idle},
	Playing:  {Paused, Stopped, Finished, Idle},
	Paused:   {Playing, Stopped, Idle},
	Stopped:  {Playing, Finished, Idle},
	Finished: {Playing, Stopped, Idle},
}

// CanTransition reports whether moving from one phase to another is
// legal.
func CanTransition(from, to Phase) bool {
	if from == to {
		return true
	}
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
