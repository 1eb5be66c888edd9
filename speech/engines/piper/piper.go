// Package piper synthesizes speech offline with a piper voice model
// and plays the raw PCM through the system audio device.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/lectern/speech"
)

const (
	defaultSampleRate = 22050
	synthesisTimeout  = 30 * time.Second

	// maxTextSize keeps single-shot synthesis latency reasonable.
	maxTextSize = 5000
)

// Config configures the piper engine.
type Config struct {
	// Model is the path to the .onnx voice model (required).
	Model string

	// ConfigPath is the model's json config. Defaults to the model
	// path with a .json extension.
	ConfigPath string

	// Speaker selects a speaker in multi-speaker models.
	Speaker string

	// SampleRate of the model output. Defaults to 22050.
	SampleRate int
}

// Engine runs the piper binary once per utterance and plays the
// resulting PCM. Utterances are serialized.
type Engine struct {
	binary     string
	model      string
	config     string
	speaker    string
	sampleRate int

	mu     sync.Mutex
	player *player
}

var _ speech.Synthesizer = (*Engine)(nil)

// New creates a piper engine. The piper binary must be on the PATH and
// the model file must exist.
func New(cfg Config) (*Engine, error) {
	binary, err := exec.LookPath("piper")
	if err != nil {
		return nil, fmt.Errorf("%w: piper", speech.ErrEngineNotFound)
	}
	if cfg.Model == "" {
		return nil, errors.New("piper: model path is required")
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, fmt.Errorf("piper model: %w", err)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = strings.TrimSuffix(cfg.Model, filepath.Ext(cfg.Model)) + ".json"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaultSampleRate
	}
	return &Engine{
		binary:     binary,
		model:      cfg.Model,
		config:     cfg.ConfigPath,
		speaker:    cfg.Speaker,
		sampleRate: cfg.SampleRate,
	}, nil
}

// Speak synthesizes one utterance and blocks until the audio finishes
// or ctx is canceled.
func (e *Engine) Speak(ctx context.Context, u speech.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pcm, err := e.synthesize(ctx, u)
	if err != nil {
		return err
	}
	if e.player == nil {
		// The audio device opens lazily so constructing the engine
		// never claims it.
		p, err := newPlayer(e.sampleRate)
		if err != nil {
			return err
		}
		e.player = p
	}
	return e.player.play(ctx, pcm)
}

// Voices reports the single voice the loaded model provides.
func (e *Engine) Voices(context.Context) ([]speech.Voice, error) {
	return []speech.Voice{modelVoice(e.model)}, nil
}

// modelVoice derives the voice from the model filename. Piper models
// carry the locale as a prefix, for example en_US-amy-medium.onnx.
func modelVoice(model string) speech.Voice {
	name := strings.TrimSuffix(filepath.Base(model), filepath.Ext(model))
	var lang string
	if i := strings.Index(name, "-"); i > 0 {
		lang = strings.ReplaceAll(name[:i], "_", "-")
	}
	return speech.Voice{ID: name, Name: name, Language: lang}
}

// synthesize runs piper with pre-configured stdin. Writing stdin up
// front avoids racing piper's own read of it.
func (e *Engine) synthesize(ctx context.Context, u speech.Utterance) ([]byte, error) {
	if u.Text == "" {
		return nil, speech.ErrNoContent
	}
	if len(u.Text) > maxTextSize {
		return nil, fmt.Errorf("piper: text too long: %d bytes (max %d)", len(u.Text), maxTextSize)
	}

	rate := u.Rate
	if rate <= 0 {
		rate = 1.0
	}
	args := []string{
		"--model", e.model,
		"--config", e.config,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1.0/rate),
	}
	if e.speaker != "" {
		args = append(args, "--speaker", e.speaker)
	}

	ctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- cmd.Run() }()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("piper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
		}
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Signal(os.Interrupt)
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
				_ = cmd.Process.Kill()
				<-done
			}
		}
		return nil, ctx.Err()
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("piper produced no audio, stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
