package speech

import (
	"context"
	"fmt"
	"sync"
)

// Options configures a Controller.
type Options struct {
	Voice Voice   // initial voice, zero value for the engine default
	Rate  float64 // initial rate multiplier, 0 means 1.0

	// StrictErrors pauses playback on the first synthesis error
	// instead of skipping the failed unit and continuing.
	StrictErrors bool
}

// DefaultOptions returns the controller defaults.
func DefaultOptions() Options {
	return Options{Rate: 1.0}
}

// Controller speaks a document one unit at a time through a
// Synthesizer and keeps phase and position consistent while play,
// pause, and stop requests race against synthesis completions.
//
// Every Play, Pause, Stop, and Load bumps a monotonic epoch under the
// controller mutex. A speak loop captures its epoch when it starts and
// re-validates it before recording any completion, so a completion
// that lost the race against a pause can never advance the position.
type Controller struct {
	synth Synthesizer

	mu       sync.Mutex
	phase    Phase
	units    []string
	tracker  *Tracker
	voice    Voice
	rate     float64
	strict   bool
	epoch    uint64
	cancel   context.CancelFunc
	loopDone chan struct{}
	lastErr  error

	onPhase func(Phase)
	onUnit  func(int, string)
	onError func(error)
}

// NewController creates a controller around the given synthesizer.
func NewController(synth Synthesizer, opts Options) *Controller {
	rate := opts.Rate
	if rate == 0 {
		rate = 1.0
	}
	return &Controller{
		synth:   synth,
		phase:   Idle,
		tracker: NewTracker(),
		voice:   opts.Voice,
		rate:    rate,
		strict:  opts.StrictErrors,
	}
}

// Load replaces the document. Any in-flight speech is invalidated, the
// position resets to the start, and the controller returns to Idle.
func (c *Controller) Load(units []string) {
	c.mu.Lock()
	c.invalidateLocked()
	c.units = units
	c.lastErr = nil
	c.setPhaseLocked(Idle)
	c.tracker.Reset(len(units))
	fn := c.onPhase
	c.mu.Unlock()
	if fn != nil {
		fn(Idle)
	}
}

// Play starts or resumes playback. From Paused the interrupted unit is
// spoken again from its beginning. From Finished the document restarts
// at the first unit unless the position was seeked back first. An
// empty document finishes immediately.
func (c *Controller) Play() error {
	c.mu.Lock()
	if !c.phase.CanPlay() {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot play while %s", phase)
	}
	if len(c.units) == 0 {
		c.setPhaseLocked(Finished)
		fn := c.onPhase
		c.mu.Unlock()
		if fn != nil {
			fn(Finished)
		}
		return nil
	}
	if c.phase == Finished && c.tracker.Snapshot().Index >= len(c.units) {
		c.tracker.Reset(len(c.units))
	}
	c.epoch++
	epoch := c.epoch
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	prev := c.loopDone
	done := make(chan struct{})
	c.loopDone = done
	c.setPhaseLocked(Playing)
	fn := c.onPhase
	c.mu.Unlock()

	if fn != nil {
		fn(Playing)
	}
	go c.speakLoop(ctx, epoch, prev, done)
	return nil
}

// Pause suspends playback. The in-flight unit is invalidated before
// Pause returns; its completion, if any, is discarded and the position
// stays on the interrupted unit so resuming speaks it from the start.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if !c.phase.CanPause() {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot pause while %s", phase)
	}
	c.invalidateLocked()
	c.setPhaseLocked(Paused)
	fn := c.onPhase
	c.mu.Unlock()
	if fn != nil {
		fn(Paused)
	}
	return nil
}

// Stop halts playback and rewinds to the first unit. Stopping a
// finished document is allowed and also rewinds it.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.phase.CanStop() {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot stop while %s", phase)
	}
	c.invalidateLocked()
	c.setPhaseLocked(Stopped)
	c.tracker.Reset(len(c.units))
	fn := c.onPhase
	c.mu.Unlock()
	if fn != nil {
		fn(Stopped)
	}
	return nil
}

// Seek moves the position while playback is not running, clamped to
// the document bounds. Used to restore a bookmarked position.
func (c *Controller) Seek(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Playing {
		return ErrSeekWhilePlaying
	}
	c.tracker.Set(index)
	return nil
}

// Shutdown invalidates any in-flight speech and waits for the speak
// loop to exit.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.invalidateLocked()
	done := c.loopDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetVoice changes the voice. During playback it applies from the
// next unit.
func (c *Controller) SetVoice(v Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = v
}

// Voice returns the voice in use.
func (c *Controller) Voice() Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice
}

// SetRate changes the rate multiplier. During playback it applies
// from the next unit.
func (c *Controller) SetRate(rate float64) error {
	if rate < speedSteps[0] || rate > speedSteps[len(speedSteps)-1] {
		return ErrSpeedOutOfRange
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	return nil
}

// Rate returns the rate multiplier in use.
func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Phase returns the current playback phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Position returns the current playback position.
func (c *Controller) Position() Position {
	return c.tracker.Snapshot()
}

// Tracker exposes the position store for watchers.
func (c *Controller) Tracker() *Tracker {
	return c.tracker
}

// Err returns the last synthesis error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// OnPhaseChange registers a callback for phase changes. It is invoked
// outside the controller mutex.
func (c *Controller) OnPhaseChange(fn func(Phase)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPhase = fn
}

// OnUnitStart registers a callback invoked when a unit begins to be
// spoken.
func (c *Controller) OnUnitStart(fn func(index int, text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnit = fn
}

// OnError registers a callback for synthesis errors.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// invalidateLocked bumps the epoch and cancels the active speak loop.
// Callers hold c.mu.
func (c *Controller) invalidateLocked() {
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// setPhaseLocked applies a legal transition. Callers hold c.mu.
func (c *Controller) setPhaseLocked(to Phase) {
	if CanTransition(c.phase, to) {
		c.phase = to
	}
}

// speakLoop speaks units starting at the current position until the
// document finishes or its epoch goes stale.
func (c *Controller) speakLoop(ctx context.Context, epoch uint64, prev, done chan struct{}) {
	defer close(done)

	// Serialize against the previous loop so at most one utterance is
	// ever in flight.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	for {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		pos := c.tracker.Snapshot()
		if pos.Index >= pos.Total {
			c.setPhaseLocked(Finished)
			fn := c.onPhase
			c.mu.Unlock()
			if fn != nil {
				fn(Finished)
			}
			return
		}
		idx := pos.Index
		utt := Utterance{Text: c.units[idx], Voice: c.voice, Rate: c.rate}
		onUnit := c.onUnit
		c.mu.Unlock()

		if onUnit != nil {
			onUnit(idx, utt.Text)
		}

		err := c.synth.Speak(ctx, utt)

		c.mu.Lock()
		if c.epoch != epoch {
			// A pause, stop, or reload won the race; this completion
			// no longer counts.
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.lastErr = err
			uerr := &UnitError{Index: idx, Text: utt.Text, Err: err}
			onErr := c.onError
			if c.strict {
				c.setPhaseLocked(Paused)
				fn := c.onPhase
				c.mu.Unlock()
				if onErr != nil {
					onErr(uerr)
				}
				if fn != nil {
					fn(Paused)
				}
				return
			}
			// Skip the failed unit and keep going.
			c.tracker.Advance()
			c.mu.Unlock()
			if onErr != nil {
				onErr(uerr)
			}
			continue
		}
		c.tracker.Advance()
		c.mu.Unlock()
	}
}
