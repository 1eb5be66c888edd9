package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/lectern/speech"
)

const (
	statusBarHeight = 1

	// contentHeaderLines is the title line plus one blank line above
	// the words.
	contentHeaderLines = 2
)

var (
	readerHelpHeight int

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#6124DF")).
			Bold(true).
			Render

	statusBarProgressStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"})

	// The word being spoken.
	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("226")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8E8E8E", Dark: "#747373"})

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
)

// layoutWord is one unit placed on a content line.
type layoutWord struct {
	index int
	text  string
}

// layoutLine is one wrapped line of words.
type layoutLine []layoutWord

// layoutUnits wraps units to the given width, one cell-measured word
// at a time. Words wider than the line get a line of their own. The
// returned lineOf maps each unit index to its line.
func layoutUnits(units []speech.Unit, width int) ([]layoutLine, []int) {
	if width < 1 {
		width = 1
	}
	lines := make([]layoutLine, 0, len(units)/8+1)
	lineOf := make([]int, len(units))

	var cur layoutLine
	used := 0
	for i, u := range units {
		w := runewidth.StringWidth(u.Text)
		need := w
		if len(cur) > 0 {
			need++ // joining space
		}
		if len(cur) > 0 && used+need > width {
			lines = append(lines, cur)
			cur = nil
			used = 0
			need = w
		}
		cur = append(cur, layoutWord{index: i, text: u.Text})
		used += need
		lineOf[i] = len(lines)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines, lineOf
}

// followLine reports whether a viewport at top with the given height
// needs to move to keep line visible, and where to move its top.
func followLine(line, top, height int) (int, bool) {
	if height <= 0 {
		return 0, false
	}
	if line >= top && line <= top+height-2 {
		return 0, false
	}
	newTop := line - height/3
	if newTop < 0 {
		newTop = 0
	}
	return newTop, true
}

func (m *model) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h - statusBarHeight

	if m.showHelp {
		if readerHelpHeight == 0 {
			readerHelpHeight = strings.Count(m.helpView(), "\n")
		}
		m.viewport.Height -= statusBarHeight + readerHelpHeight
	}
}

func (m *model) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.width, m.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

// setDocument lays the current document out and rewinds the view.
func (m *model) setDocument() {
	m.relayout()
	m.viewport.GotoTop()
}

// relayout rebuilds the wrapped lines for the current width.
func (m *model) relayout() {
	if len(m.units) == 0 {
		return
	}
	width := m.width
	if width == 0 {
		width = 80
	}
	m.lines, m.lineOf = layoutUnits(m.units, max(1, width-2))
	m.viewport.SetContent(m.renderContent())
}

// setActive restyles the highlighted word in place and keeps it in
// view.
func (m *model) setActive(i int) {
	m.active = i
	if len(m.lines) == 0 {
		return
	}
	m.viewport.SetContent(m.renderContent())
	if i >= 0 && i < len(m.lineOf) {
		if top, ok := followLine(contentHeaderLines+m.lineOf[i], m.viewport.YOffset, m.viewport.Height); ok {
			m.viewport.SetYOffset(top)
		}
	}
}

func (m model) renderContent() string {
	var b strings.Builder

	title := truncate.StringWithTail(m.doc.Title, uint(max(0, m.width-2)), ellipsis) //nolint:gosec
	b.WriteString(" " + titleStyle.Render(title) + "\n\n")

	for li, line := range m.lines {
		b.WriteByte(' ')
		for wi, w := range line {
			if wi > 0 {
				b.WriteByte(' ')
			}
			if w.index == m.active {
				b.WriteString(highlightStyle.Render(w.text))
			} else {
				b.WriteString(w.text)
			}
		}
		if li+1 < len(m.lines) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}
	if m.state == stateLoading {
		return m.loadingView()
	}
	if m.showSummary {
		return m.summaryView()
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b)
	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m model) loadingView() string {
	return fmt.Sprintf("\n\n  %s %s%s\n\n  %s\n",
		m.spinner.View(),
		m.loadingNote,
		ellipsis,
		subtleStyle.Render("q to quit"),
	)
}

func (m model) statusBarView(b *strings.Builder) {
	logo := logoStyle(" Lectern ")
	progress := statusBarProgressStyle(statusProgress(m.position))
	helpNote := statusBarHelpStyle(" ? Help ")

	showMessage := m.statusMessage != ""
	note := m.statusNote()
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(progress)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	switch {
	case showMessage && m.statusIsError:
		note = statusBarErrorStyle(note)
	case showMessage:
		note = statusBarMessageStyle(note)
	default:
		note = statusBarNoteStyle(note)
	}

	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(progress)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showMessage && m.statusIsError {
		emptySpace = statusBarErrorStyle(emptySpace)
	} else if showMessage {
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s", logo, note, emptySpace, progress, helpNote)
}

// statusNote is the middle portion of the status bar: the transient
// message when one is showing, otherwise phase, voice, and speed.
func (m model) statusNote() string {
	if m.statusMessage != "" {
		return m.statusMessage
	}

	parts := []string{phaseLabel(m.phase)}
	if v, ok := m.picker.Current(); ok {
		parts = append(parts, v.Name)
	} else if m.voicesPending {
		parts = append(parts, m.spinner.View()+" voices")
	}
	parts = append(parts, m.ladder.Display())
	if m.summarizing {
		parts = append(parts, m.spinner.View()+" summarizing")
	}
	return strings.Join(parts, " | ")
}

func phaseLabel(p speech.Phase) string {
	switch p {
	case speech.Playing:
		return "▶ Playing"
	case speech.Paused:
		return "⏸ Paused"
	case speech.Stopped:
		return "■ Stopped"
	case speech.Finished:
		return "✓ Finished"
	default:
		return "■ Ready"
	}
}

func statusProgress(pos speech.Position) string {
	return fmt.Sprintf(" %3.f%% %d/%d ", pos.Ratio()*100, pos.Index, pos.Total)
}

func (m model) helpView() (s string) {
	s += "\n"
	s += "space    play or pause\n"
	s += "s        stop and rewind\n"
	s += "←/→      step one word while paused\n"
	s += "+/-      faster or slower\n"
	s += "v        next voice\n"
	s += "a        article summary\n"
	s += "c        copy source\n"
	s += "r        reload local file\n"
	s += "k/↑ j/↓  scroll\n"
	s += "g/G      go to top/bottom\n"
	s += "?        close help\n"
	s += "q        quit"

	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring.
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
