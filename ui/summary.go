package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/lectern/extract"
)

const summarizeTimeout = time.Second * 60

var (
	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}).
			Padding(0, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ECFD65")).
				Background(lipgloss.Color("#6124DF")).
				Padding(0, 1)
)

// summaryMsg carries a finished or re-rendered summary. width is the
// terminal width the markdown was rendered for, so stale renders can
// be detected after a resize.
type summaryMsg struct {
	raw      string
	rendered string
	width    int
	err      error
}

// toggleSummary opens the summary overlay, requesting one from the
// summarizer the first time and reusing the cached text after that.
func (m model) toggleSummary() (tea.Model, tea.Cmd) {
	if m.showSummary {
		m.showSummary = false
		return m, nil
	}
	if m.deps.Summarizer == nil {
		return m, m.showStatusMessage("No summarizer configured", true)
	}
	if m.summarizing {
		return m, nil
	}
	if m.summaryRaw != "" {
		m.showSummary = true
		if m.summaryWidth != m.width {
			return m, renderSummaryCmd(m.cfg, m.summaryRaw, m.width)
		}
		return m, nil
	}

	m.summarizing = true
	return m, tea.Batch(m.spinner.Tick, summarizeCmd(m.deps.Summarizer, m.cfg, m.doc.Text, m.width))
}

func summarizeCmd(s extract.Summarizer, cfg Config, content string, width int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), summarizeTimeout)
		defer cancel()

		raw, err := s.Summarize(ctx, content)
		if err != nil {
			return summaryMsg{err: err}
		}
		rendered, err := renderSummary(cfg, raw, width)
		return summaryMsg{raw: raw, rendered: rendered, width: width, err: err}
	}
}

// renderSummaryCmd re-renders an already fetched summary, after a
// resize.
func renderSummaryCmd(cfg Config, raw string, width int) tea.Cmd {
	return func() tea.Msg {
		rendered, err := renderSummary(cfg, raw, width)
		return summaryMsg{raw: raw, rendered: rendered, width: width, err: err}
	}
}

func renderSummary(cfg Config, raw string, width int) (string, error) {
	var gs glamour.TermRendererOption
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		gs = glamour.WithAutoStyle()
	} else {
		gs = glamour.WithStylePath(cfg.GlamourStyle)
	}

	wrap := max(0, min(int(cfg.GlamourMaxWidth), summaryBoxWidth(width))) //nolint:gosec
	r, err := glamour.NewTermRenderer(gs, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", err
	}
	out, err := r.Render(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// summaryBoxWidth is the inner width of the overlay for a given
// terminal width.
func summaryBoxWidth(termWidth int) int {
	return max(20, termWidth-10)
}

func (m model) summaryView() string {
	body := m.summaryRendered
	if body == "" {
		body = m.summaryRaw
	}

	content := summaryTitleStyle.Render(" Summary ") +
		"\n\n" + body + "\n\n" +
		subtleStyle.Render("a or esc to close")

	box := summaryBoxStyle.
		Width(summaryBoxWidth(m.width)).
		MaxHeight(max(3, m.height)).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
