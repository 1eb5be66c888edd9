// Package command speaks through the system text-to-speech programs:
// say on macOS, espeak-ng, espeak, or flite elsewhere. Each utterance
// runs the program once and blocks until it exits.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/lectern/speech"
)

// baseWPM is the words-per-minute rate a 1.0 multiplier maps to.
const baseWPM = 175

const voicesTimeout = 10 * time.Second

// probeOrder returns the program names to try during detection, most
// natural for the platform first.
func probeOrder() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say", "espeak-ng", "espeak", "flite"}
	}
	return []string{"espeak-ng", "espeak", "flite", "say"}
}

// Engine drives a single system speech program. Utterances are
// serialized; canceling the context stops the running process.
type Engine struct {
	program string
	path    string

	mu sync.Mutex
}

var _ speech.Synthesizer = (*Engine)(nil)

// New creates an engine for the named program. The program must be on
// the PATH.
func New(program string) (*Engine, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", speech.ErrEngineNotFound, program)
	}
	return &Engine{program: program, path: path}, nil
}

// Detect returns an engine for the first system speech program found
// on the PATH.
func Detect() (*Engine, error) {
	for _, program := range probeOrder() {
		if path, err := exec.LookPath(program); err == nil {
			return &Engine{program: program, path: path}, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %s", speech.ErrEngineNotFound, strings.Join(probeOrder(), ", "))
}

// Program returns the name of the binary this engine runs.
func (e *Engine) Program() string { return e.program }

// Speak runs the program for one utterance and blocks until the
// process exits or ctx is canceled.
func (e *Engine) Speak(ctx context.Context, u speech.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	args, stdin := speakArgs(e.program, u)
	log.Debug("speech subprocess", "program", e.program, "args", args)

	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", e.program, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s failed: %w, stderr: %s", e.program, err, strings.TrimSpace(stderr.String()))
		}
		return nil
	case <-ctx.Done():
		// Ask nicely first so the audio device is released cleanly.
		if cmd.Process != nil {
			_ = cmd.Process.Signal(os.Interrupt)
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
				_ = cmd.Process.Kill()
				<-done
			}
		}
		return ctx.Err()
	}
}

// Voices lists the voices the program reports. Listing runs its own
// short-lived process and does not wait for an in-flight utterance.
func (e *Engine) Voices(ctx context.Context) ([]speech.Voice, error) {
	args := voicesArgs(e.program)
	if args == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, voicesTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// say -v ? exits nonzero on some macOS releases while still
		// printing the full list.
		if stdout.Len() == 0 {
			return nil, fmt.Errorf("listing %s voices: %w, stderr: %s", e.program, err, strings.TrimSpace(stderr.String()))
		}
	}

	voices := parseVoices(e.program, stdout.String())
	if len(voices) == 0 {
		return nil, fmt.Errorf("%s reported no voices", e.program)
	}
	return voices, nil
}

// speakArgs builds the argument list and stdin payload for one
// utterance.
func speakArgs(program string, u speech.Utterance) (args []string, stdin string) {
	wpm := strconv.Itoa(wordsPerMinute(u.Rate))
	switch program {
	case "say":
		args = []string{"-r", wpm}
		if u.Voice.ID != "" {
			args = append(args, "-v", u.Voice.ID)
		}
		return args, u.Text
	case "espeak", "espeak-ng":
		args = []string{"--stdin", "-s", wpm}
		if u.Voice.ID != "" {
			args = append(args, "-v", u.Voice.ID)
		}
		return args, u.Text
	case "flite":
		if u.Voice.ID != "" {
			args = append(args, "-voice", u.Voice.ID)
		}
		args = append(args, "-t", u.Text)
		return args, ""
	default:
		return []string{u.Text}, ""
	}
}

// wordsPerMinute converts the speed multiplier to the integer rate the
// programs accept.
func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1.0
	}
	return int(float64(baseWPM)*rate + 0.5)
}

func voicesArgs(program string) []string {
	switch program {
	case "say":
		return []string{"-v", "?"}
	case "espeak", "espeak-ng":
		return []string{"--voices"}
	case "flite":
		return []string{"-lv"}
	default:
		return nil
	}
}

func parseVoices(program, out string) []speech.Voice {
	switch program {
	case "say":
		return parseSayVoices(out)
	case "espeak", "espeak-ng":
		return parseEspeakVoices(out)
	case "flite":
		return parseFliteVoices(out)
	default:
		return nil
	}
}

// parseSayVoices parses `say -v ?` output. Each line is a voice name,
// a locale, and a sample sentence after a # marker:
//
//	Alex                en_US    # Most people recognize me by my voice.
func parseSayVoices(out string) []speech.Voice {
	var voices []speech.Voice
	for _, line := range strings.Split(out, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, speech.Voice{ID: name, Name: name, Language: lang})
	}
	return voices
}

// parseEspeakVoices parses `espeak --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af             --/M      Afrikaans           gmw/af
func parseEspeakVoices(out string) []speech.Voice {
	var voices []speech.Voice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		var gender string
		if _, g, ok := strings.Cut(fields[2], "/"); ok {
			switch g {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}
		voices = append(voices, speech.Voice{
			ID:       fields[1],
			Name:     fields[3],
			Language: fields[1],
			Gender:   gender,
		})
	}
	return voices
}

// parseFliteVoices parses `flite -lv` output, a single line of names:
//
//	Voices available: kal awb_time kal16 awb rms slt
func parseFliteVoices(out string) []speech.Voice {
	if _, rest, ok := strings.Cut(out, ":"); ok {
		out = rest
	}
	var voices []speech.Voice
	for _, name := range strings.Fields(out) {
		voices = append(voices, speech.Voice{ID: name, Name: name})
	}
	return voices
}
