package ui

import (
	"strings"
	"testing"

	"github.com/dgnsrekt/lectern/speech"
)

func unitsOf(words ...string) []speech.Unit {
	return speech.Split(strings.Join(words, " "))
}

// TestLayoutUnits tests greedy word wrapping.
func TestLayoutUnits(t *testing.T) {
	units := unitsOf("alpha", "beta", "gamma", "delta")

	// "alpha beta" is 10 cells, "gamma" no longer fits at width 11.
	lines, lineOf := layoutUnits(units, 11)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != 2 || len(lines[1]) != 2 {
		t.Errorf("expected 2 words per line, got %d and %d", len(lines[0]), len(lines[1]))
	}
	if lines[0][0].text != "alpha" || lines[1][0].text != "gamma" {
		t.Errorf("unexpected line starts: %q, %q", lines[0][0].text, lines[1][0].text)
	}

	wantLineOf := []int{0, 0, 1, 1}
	for i, want := range wantLineOf {
		if lineOf[i] != want {
			t.Errorf("lineOf[%d] = %d, want %d", i, lineOf[i], want)
		}
	}

	// Word indices must be preserved through the layout.
	if lines[1][1].index != 3 {
		t.Errorf("last word index = %d, want 3", lines[1][1].index)
	}
}

// TestLayoutUnitsLongWord tests that a word wider than the line gets a
// line of its own.
func TestLayoutUnitsLongWord(t *testing.T) {
	units := unitsOf("hi", "incomprehensibilities", "ok")

	lines, lineOf := layoutUnits(units, 10)

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if len(lines[1]) != 1 || lines[1][0].text != "incomprehensibilities" {
		t.Errorf("long word should sit alone on line 1, got %v", lines[1])
	}
	if lineOf[2] != 2 {
		t.Errorf("lineOf[2] = %d, want 2", lineOf[2])
	}
}

// TestLayoutUnitsWideRunes tests cell-width wrapping for CJK text.
func TestLayoutUnitsWideRunes(t *testing.T) {
	// Each word is 3 runes but 6 cells wide.
	units := unitsOf("日本語", "日本語")

	// 13 cells fit both (6 + 1 + 6), 12 do not.
	lines, _ := layoutUnits(units, 13)
	if len(lines) != 1 {
		t.Errorf("width 13: expected 1 line, got %d", len(lines))
	}

	lines, _ = layoutUnits(units, 12)
	if len(lines) != 2 {
		t.Errorf("width 12: expected 2 lines, got %d", len(lines))
	}
}

// TestLayoutUnitsEmpty tests layout of an empty document.
func TestLayoutUnitsEmpty(t *testing.T) {
	lines, lineOf := layoutUnits(nil, 80)
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}
	if len(lineOf) != 0 {
		t.Errorf("expected empty lineOf, got %d entries", len(lineOf))
	}
}

// TestFollowLine tests the auto-scroll decision.
func TestFollowLine(t *testing.T) {
	testCases := []struct {
		name    string
		line    int
		top     int
		height  int
		wantTop int
		move    bool
	}{
		{"visible", 5, 0, 10, 0, false},
		{"at top edge", 3, 3, 10, 0, false},
		{"on last row", 9, 0, 10, 6, true},
		{"below window", 30, 0, 12, 26, true},
		{"above window", 2, 10, 12, 0, true},
		{"clamps to zero", 1, 10, 12, 0, true},
		{"zero height", 5, 0, 0, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			top, move := followLine(tc.line, tc.top, tc.height)
			if move != tc.move {
				t.Fatalf("followLine(%d, %d, %d) move = %v, want %v",
					tc.line, tc.top, tc.height, move, tc.move)
			}
			if move && top != tc.wantTop {
				t.Errorf("followLine(%d, %d, %d) top = %d, want %d",
					tc.line, tc.top, tc.height, top, tc.wantTop)
			}
		})
	}
}

// TestStatusProgress tests the progress cell of the status bar.
func TestStatusProgress(t *testing.T) {
	testCases := []struct {
		pos  speech.Position
		want string
	}{
		{speech.Position{Index: 2, Total: 4}, "  50% 2/4 "},
		{speech.Position{Index: 0, Total: 4}, "   0% 0/4 "},
		{speech.Position{Index: 4, Total: 4}, " 100% 4/4 "},
		{speech.Position{Index: 0, Total: 0}, "   0% 0/0 "},
	}

	for _, tc := range testCases {
		if got := statusProgress(tc.pos); got != tc.want {
			t.Errorf("statusProgress(%d/%d) = %q, want %q",
				tc.pos.Index, tc.pos.Total, got, tc.want)
		}
	}
}

// TestPhaseLabel tests the phase cell of the status bar.
func TestPhaseLabel(t *testing.T) {
	testCases := []struct {
		phase speech.Phase
		want  string
	}{
		{speech.Idle, "■ Ready"},
		{speech.Playing, "▶ Playing"},
		{speech.Paused, "⏸ Paused"},
		{speech.Stopped, "■ Stopped"},
		{speech.Finished, "✓ Finished"},
	}

	for _, tc := range testCases {
		if got := phaseLabel(tc.phase); got != tc.want {
			t.Errorf("phaseLabel(%v) = %q, want %q", tc.phase, got, tc.want)
		}
	}
}

// TestActiveIndex tests which unit gets the highlight.
func TestActiveIndex(t *testing.T) {
	units := unitsOf("one", "two", "three")

	testCases := []struct {
		name  string
		units []speech.Unit
		phase speech.Phase
		pos   speech.Position
		want  int
	}{
		{"playing first", units, speech.Playing, speech.Position{Index: 0, Total: 3}, 0},
		{"paused mid", units, speech.Paused, speech.Position{Index: 1, Total: 3}, 1},
		{"finished", units, speech.Finished, speech.Position{Index: 3, Total: 3}, -1},
		{"index past end", units, speech.Playing, speech.Position{Index: 3, Total: 3}, -1},
		{"no units", nil, speech.Idle, speech.Position{}, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := model{units: tc.units, phase: tc.phase, position: tc.pos}
			if got := m.activeIndex(); got != tc.want {
				t.Errorf("activeIndex() = %d, want %d", got, tc.want)
			}
		})
	}
}

// TestRenderContent tests that every word and the title appear in the
// rendered document.
func TestRenderContent(t *testing.T) {
	m := model{width: 40, active: -1}
	m.doc.Title = "Test Article"
	m.units = unitsOf("first", "second", "third")
	m.lines, m.lineOf = layoutUnits(m.units, 38)

	content := m.renderContent()

	if !strings.Contains(content, "Test Article") {
		t.Error("content should contain the title")
	}
	for _, u := range m.units {
		if !strings.Contains(content, u.Text) {
			t.Errorf("content should contain %q", u.Text)
		}
	}
}

// TestLoadingNote tests the loading screen note per source kind.
func TestLoadingNote(t *testing.T) {
	testCases := []struct {
		name string
		src  Source
		want string
	}{
		{"url", Source{URL: "https://example.com/a"}, "Fetching article"},
		{"pdf", Source{Path: "/tmp/paper.PDF"}, "Reading PDF"},
		{"file", Source{Path: "/tmp/notes.md"}, "Reading notes.md"},
		{"stdin", Source{Text: "hello"}, "Preparing text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := loadingNoteFor(tc.src); got != tc.want {
				t.Errorf("loadingNoteFor = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestSummaryBoxWidth tests the overlay width floor.
func TestSummaryBoxWidth(t *testing.T) {
	if got := summaryBoxWidth(120); got != 110 {
		t.Errorf("summaryBoxWidth(120) = %d, want 110", got)
	}
	if got := summaryBoxWidth(12); got != 20 {
		t.Errorf("summaryBoxWidth(12) = %d, want 20", got)
	}
}
