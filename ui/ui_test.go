package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/lectern/library"
	"github.com/dgnsrekt/lectern/speech"
	"github.com/dgnsrekt/lectern/speech/engines/mock"
)

var errTest = errors.New("synthetic failure")

// keyMsg creates a key message for testing.
func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

// newTestModel builds a ready model around the mock synthesizer and a
// throwaway local store.
func newTestModel(t *testing.T) model {
	t.Helper()

	store, err := library.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m := newModel(
		Config{Speed: 1.0},
		Source{Kind: library.SourceText, Text: "unused"},
		Deps{Synth: mock.New(), Store: store},
	)
	m.width = 80
	m.height = 24
	m.setSize(80, 24)
	m.state = stateReady
	m.units = unitsOf("one", "two", "three")
	m.position = speech.Position{Index: 0, Total: 3}
	m.controller.Load([]string{"one", "two", "three"})

	t.Cleanup(func() {
		m.controller.Shutdown()
		if m.watcher != nil {
			m.watcher.Close()
		}
	})
	return m
}

func asModel(t *testing.T, tm tea.Model) model {
	t.Helper()
	m, ok := tm.(model)
	if !ok {
		t.Fatalf("expected ui model, got %T", tm)
	}
	return m
}

// TestSpaceBeforeVoices tests that play is refused until voices have
// arrived.
func TestSpaceBeforeVoices(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleKey(keyMsg(" "))
	got := asModel(t, nm)
	if got.statusMessage != "Voices are still loading" {
		t.Errorf("status = %q, want the loading notice", got.statusMessage)
	}
	if got.statusIsError {
		t.Error("waiting for voices is not an error")
	}

	// Voices arrived but the list is empty.
	m.voicesPending = false
	nm, _ = m.handleKey(keyMsg(" "))
	got = asModel(t, nm)
	if got.statusMessage != "No voices available" {
		t.Errorf("status = %q, want no voices", got.statusMessage)
	}
	if !got.statusIsError {
		t.Error("an empty voice list should be reported as an error")
	}
}

// TestVoicesMsgSelectsVoice tests that a late voice list picks a voice
// and hands it to the controller.
func TestVoicesMsgSelectsVoice(t *testing.T) {
	m := newTestModel(t)

	voices := []speech.Voice{
		{ID: "v1", Name: "Alice", Language: "en-US"},
		{ID: "v2", Name: "Bob", Language: "de-DE"},
	}
	nm, _ := m.Update(speech.VoicesMsg{Voices: voices})
	got := asModel(t, nm)

	if got.voicesPending {
		t.Error("voicesPending should clear once the list arrives")
	}
	v, ok := got.picker.Current()
	if !ok {
		t.Fatal("picker should have a current voice")
	}
	if got.controller.Voice().ID != v.ID {
		t.Errorf("controller voice = %q, picker voice = %q", got.controller.Voice().ID, v.ID)
	}
}

// TestVoiceCycleKey tests cycling voices with v.
func TestVoiceCycleKey(t *testing.T) {
	m := newTestModel(t)
	m.picker.SetAvailable([]speech.Voice{
		{ID: "v1", Name: "Alice", Language: "en-US"},
		{ID: "v2", Name: "Bob", Language: "en-GB"},
	})
	before, _ := m.picker.Current()

	nm, _ := m.handleKey(keyMsg("v"))
	got := asModel(t, nm)

	after, _ := got.picker.Current()
	if after.ID == before.ID {
		t.Error("v should move to the next voice")
	}
	if got.controller.Voice().ID != after.ID {
		t.Errorf("controller voice = %q, want %q", got.controller.Voice().ID, after.ID)
	}
	if !strings.Contains(got.statusMessage, after.Name) {
		t.Errorf("status %q should name the new voice", got.statusMessage)
	}
}

// TestVoiceCycleWithoutVoices tests v before any voices exist.
func TestVoiceCycleWithoutVoices(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleKey(keyMsg("v"))
	got := asModel(t, nm)
	if got.statusMessage != "No voices available" {
		t.Errorf("status = %q, want no voices", got.statusMessage)
	}
}

// TestSeekKeys tests stepping with the arrow keys, clamped at the
// document start.
func TestSeekKeys(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleKey(keyMsg("left"))
	got := asModel(t, nm)
	if got.position.Index != 0 {
		t.Errorf("left at start moved to %d, want 0", got.position.Index)
	}

	nm, _ = got.handleKey(keyMsg("right"))
	got = asModel(t, nm)
	if got.position.Index != 1 {
		t.Errorf("right moved to %d, want 1", got.position.Index)
	}
	if got.active != 1 {
		t.Errorf("highlight = %d, want 1", got.active)
	}
}

// TestSpeedKeys tests the speed ladder bindings.
func TestSpeedKeys(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleKey(keyMsg("+"))
	got := asModel(t, nm)
	if got.ladder.Current() != 1.25 {
		t.Errorf("after +: speed = %v, want 1.25", got.ladder.Current())
	}
	if got.controller.Rate() != 1.25 {
		t.Errorf("controller rate = %v, want 1.25", got.controller.Rate())
	}

	nm, _ = got.handleKey(keyMsg("-"))
	got = asModel(t, nm)
	if got.ladder.Current() != 1.0 {
		t.Errorf("after -: speed = %v, want 1.0", got.ladder.Current())
	}
}

// TestSummaryKeyWithoutSummarizer tests a without a configured
// summarizer.
func TestSummaryKeyWithoutSummarizer(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleKey(keyMsg("a"))
	got := asModel(t, nm)
	if got.showSummary {
		t.Error("summary should not open without a summarizer")
	}
	if got.statusMessage != "No summarizer configured" {
		t.Errorf("status = %q", got.statusMessage)
	}
}

// TestSummaryOverlayCloses tests that the overlay swallows keys and
// closes on a and esc.
func TestSummaryOverlayCloses(t *testing.T) {
	m := newTestModel(t)
	m.showSummary = true
	m.summaryRaw = "short"
	m.summaryRendered = "short"

	// Playback keys are swallowed while the overlay is up.
	nm, cmd := m.handleKey(keyMsg(" "))
	got := asModel(t, nm)
	if !got.showSummary || cmd != nil {
		t.Error("space should be swallowed by the overlay")
	}

	nm, _ = got.handleKey(keyMsg("esc"))
	got = asModel(t, nm)
	if got.showSummary {
		t.Error("esc should close the overlay")
	}
}

// TestFatalError tests the error screen and its any-key exit.
func TestFatalError(t *testing.T) {
	m := newTestModel(t)
	m.state = stateLoading

	nm, _ := m.handleDocLoaded(docLoadedMsg{err: errTest})
	got := asModel(t, nm)
	if got.fatalErr == nil {
		t.Fatal("initial load failure should be fatal")
	}
	if !strings.Contains(got.View(), "ERROR") {
		t.Error("error view should say ERROR")
	}

	_, cmd := got.Update(keyMsg("x"))
	if cmd == nil {
		t.Fatal("a key on the error screen should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}

// TestReloadFailureKeepsDocument tests that a failed reload leaves the
// current document readable.
func TestReloadFailureKeepsDocument(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleDocLoaded(docLoadedMsg{reload: true, err: errTest})
	got := asModel(t, nm)
	if got.fatalErr != nil {
		t.Error("a reload failure must not be fatal")
	}
	if got.state != stateReady {
		t.Error("state should return to ready")
	}
	if !strings.HasPrefix(got.statusMessage, "Reload failed") {
		t.Errorf("status = %q", got.statusMessage)
	}
}

// TestDocLoaded tests the happy path: reconciler wired, layout built,
// first unit highlighted.
func TestDocLoaded(t *testing.T) {
	m := newTestModel(t)
	m.state = stateLoading
	m.units = nil

	doc := library.NewDocument("A Title", "one two three", library.SourceText, "", 3)
	nm, _ := m.handleDocLoaded(docLoadedMsg{doc: doc, units: unitsOf("one", "two", "three")})
	got := asModel(t, nm)
	t.Cleanup(func() {
		if got.recon != nil {
			got.recon.Close()
		}
	})

	if got.state != stateReady {
		t.Fatal("model should be ready after a successful load")
	}
	if got.recon == nil {
		t.Fatal("a reconciler should track the loaded document")
	}
	if got.active != 0 {
		t.Errorf("highlight = %d, want 0", got.active)
	}

	view := got.View()
	for _, word := range []string{"A Title", "one", "two", "three"} {
		if !strings.Contains(view, word) {
			t.Errorf("view should contain %q", word)
		}
	}
}

// TestStatusMessageLifecycle tests the transient status message.
func TestStatusMessageLifecycle(t *testing.T) {
	m := newTestModel(t)

	cmd := m.showStatusMessage("hello", false)
	if m.statusMessage != "hello" {
		t.Fatalf("status = %q, want hello", m.statusMessage)
	}
	if cmd == nil {
		t.Fatal("expected a timeout command")
	}

	nm, _ := m.Update(statusMessageTimeoutMsg{})
	got := asModel(t, nm)
	if got.statusMessage != "" {
		t.Errorf("status should clear on timeout, got %q", got.statusMessage)
	}
}

// TestHelpToggle tests that help opens, shrinks the viewport, and
// closes again.
func TestHelpToggle(t *testing.T) {
	m := newTestModel(t)
	plain := m.viewport.Height

	m.toggleHelp()
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	if m.viewport.Height >= plain {
		t.Error("help should shrink the viewport")
	}

	m.toggleHelp()
	if m.showHelp {
		t.Error("? should close help again")
	}
	if m.viewport.Height != plain {
		t.Errorf("viewport height = %d, want %d", m.viewport.Height, plain)
	}
}
