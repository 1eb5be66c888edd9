// Package ui provides the reading view: a viewport of the document's
// words with the spoken word highlighted, playback key bindings, and a
// status bar showing phase, voice, speed, and progress.
package ui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/lectern/library"
	"github.com/dgnsrekt/lectern/speech"
)

const (
	statusMessageTimeout = time.Second * 3
	voicesTimeout        = time.Second * 15
	loadTimeout          = time.Minute * 2
	flushTimeout         = time.Second * 3
	storeTimeout         = time.Second * 10
	ellipsis             = "…"
)

// NewProgram returns a new Tea program for reading one document. The
// controller's callbacks forward playback events into the program's
// message loop.
func NewProgram(cfg Config, src Source, deps Deps) *tea.Program {
	log.Debug("starting reader", "kind", src.Kind, "engine", cfg.Engine, "speed", cfg.Speed)

	m := newModel(cfg, src, deps)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, opts...)

	c := m.controller
	c.OnPhaseChange(func(ph speech.Phase) { p.Send(speech.PhaseMsg{Phase: ph}) })
	c.OnUnitStart(func(i int, text string) { p.Send(speech.UnitMsg{Index: i, Text: text}) })
	c.OnError(func(err error) { p.Send(speech.SpeechErrMsg{Err: err}) })
	return p
}

// state is the top-level application state.
type state int

const (
	stateLoading state = iota
	stateReady
)

type (
	docLoadedMsg struct {
		doc    library.Document
		units  []speech.Unit
		reload bool
		err    error
	}
	controlMsg              struct{ err error }
	reloadMsg               struct{}
	statusMessageTimeoutMsg struct{}
)

type model struct {
	cfg  Config
	src  Source
	deps Deps

	state    state
	fatalErr error
	width    int
	height   int

	spinner     spinner.Model
	loadingNote string

	controller *speech.Controller
	picker     *speech.Picker
	ladder     *speech.Ladder
	recon      *library.Reconciler

	doc   library.Document
	units []speech.Unit

	phase         speech.Phase
	position      speech.Position
	voicesPending bool

	// Reader view.
	viewport viewport.Model
	lines    []layoutLine
	lineOf   []int // unit index to content line
	active   int   // highlighted unit, -1 for none
	showHelp bool

	// Summary overlay.
	summaryRaw      string
	summaryRendered string
	summaryWidth    int
	showSummary     bool
	summarizing     bool

	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer

	watcher *fsnotify.Watcher
}

func newModel(cfg Config, src Source, deps Deps) model {
	ladder := speech.NewLadder()
	if err := ladder.Set(cfg.Speed); err != nil {
		log.Warn("invalid speed, using 1.0", "speed", cfg.Speed)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := model{
		cfg:   cfg,
		src:   src,
		deps:  deps,
		state: stateLoading,

		loadingNote: loadingNoteFor(src),
		spinner:     sp,
		viewport:    viewport.New(0, 0),

		controller: speech.NewController(deps.Synth, speech.Options{
			Rate:         ladder.Current(),
			StrictErrors: cfg.StrictErrors,
		}),
		picker: speech.NewPicker(cfg.VoiceName, cfg.Language),
		ladder: ladder,

		voicesPending: true,
		active:        -1,
	}

	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}
	return m
}

func loadingNoteFor(src Source) string {
	switch {
	case src.URL != "":
		return "Fetching article"
	case src.Path != "" && strings.EqualFold(filepath.Ext(src.Path), ".pdf"):
		return "Reading PDF"
	case src.Path != "":
		return "Reading " + filepath.Base(src.Path)
	default:
		return "Preparing text"
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadDocumentCmd(m.deps, m.src, m.controller, false),
		speech.ListVoicesCmd(m.deps.Synth, voicesTimeout),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If the document never loaded, any key exits.
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setSize(msg.Width, msg.Height)
		m.relayout()
		if m.showSummary && m.summaryRaw != "" && m.summaryWidth != m.width {
			return m, renderSummaryCmd(m.cfg, m.summaryRaw, m.width)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.shouldSpin() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case docLoadedMsg:
		return m.handleDocLoaded(msg)

	case speech.PhaseMsg:
		m.phase = msg.Phase
		m.position = m.controller.Position()
		if m.recon != nil {
			m.recon.PhaseEdge(msg.Phase)
		}
		m.setActive(m.activeIndex())
		return m, nil

	case speech.UnitMsg:
		m.position = speech.Position{Index: msg.Index, Total: len(m.units)}
		m.setActive(msg.Index)
		return m, nil

	case speech.SpeechErrMsg:
		log.Error("synthesis failed", "error", msg.Err)
		return m, m.showStatusMessage(msg.Err.Error(), true)

	case speech.VoicesMsg:
		m.voicesPending = false
		if msg.Err != nil {
			log.Error("voice listing failed", "error", msg.Err)
			return m, m.showStatusMessage("Voice listing failed: "+msg.Err.Error(), true)
		}
		m.picker.SetAvailable(msg.Voices)
		if v, ok := m.picker.Current(); ok {
			m.controller.SetVoice(v)
			log.Debug("voice selected", "voice", v.Name, "language", v.Language)
		}
		return m, nil

	case controlMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(msg.err.Error(), true)
		}
		return m, nil

	case summaryMsg:
		m.summarizing = false
		if msg.err != nil {
			log.Error("summarize failed", "error", msg.err)
			return m, m.showStatusMessage("Summary failed: "+msg.err.Error(), true)
		}
		m.summaryRaw = msg.raw
		m.summaryRendered = msg.rendered
		m.summaryWidth = msg.width
		m.showSummary = true
		return m, nil

	case reloadMsg:
		if m.state != stateReady {
			return m, nil
		}
		log.Debug("file changed on disk, reloading", "path", m.src.Path)
		return m, m.startReload()

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		return m, nil
	}

	// Everything else, e.g. mouse wheel events, goes to the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The summary overlay swallows everything except close and quit.
	if m.showSummary {
		switch msg.String() {
		case "a", "esc", "q":
			m.showSummary = false
			return m, nil
		case "ctrl+c":
			return m, tea.Sequence(m.shutdownCmd(), tea.Quit)
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Sequence(m.shutdownCmd(), tea.Quit)

	case "ctrl+z":
		return m, tea.Suspend

	case " ":
		if m.state != stateReady {
			return m, nil
		}
		if m.phase == speech.Playing {
			return m, pauseCmd(m.controller)
		}
		if _, ok := m.picker.Current(); !ok {
			if m.voicesPending {
				return m, m.showStatusMessage("Voices are still loading", false)
			}
			return m, m.showStatusMessage("No voices available", true)
		}
		return m, playCmd(m.controller)

	case "s":
		if m.state != stateReady {
			return m, nil
		}
		return m, stopCmd(m.controller)

	case "left", "right":
		if m.state != stateReady {
			return m, nil
		}
		delta := -1
		if msg.String() == "right" {
			delta = 1
		}
		if err := m.controller.Seek(m.position.Index + delta); err != nil {
			return m, m.showStatusMessage("Pause before seeking", false)
		}
		m.position = m.controller.Position()
		m.setActive(m.activeIndex())
		return m, nil

	case "+", "=":
		if m.state != stateReady {
			return m, nil
		}
		_ = m.controller.SetRate(m.ladder.Increase())
		return m, nil

	case "-", "_":
		if m.state != stateReady {
			return m, nil
		}
		_ = m.controller.SetRate(m.ladder.Decrease())
		return m, nil

	case "v":
		if m.state != stateReady {
			return m, nil
		}
		v, err := m.picker.Next()
		if err != nil {
			return m, m.showStatusMessage("No voices available", true)
		}
		m.controller.SetVoice(v)
		return m, m.showStatusMessage("Voice: "+v.Name, false)

	case "a":
		if m.state != stateReady {
			return m, nil
		}
		return m.toggleSummary()

	case "c":
		if m.state != stateReady {
			return m, nil
		}
		text, what := m.doc.Text, "document text"
		if m.doc.SourceURL != "" {
			text, what = m.doc.SourceURL, "source URL"
		}
		// Copy using OSC 52 and the native system clipboard.
		termenv.Copy(text)
		_ = clipboard.WriteAll(text)
		return m, m.showStatusMessage("Copied "+what, false)

	case "r":
		if m.state != stateReady || m.src.Path == "" {
			return m, nil
		}
		return m, m.startReload()

	case "?":
		m.toggleHelp()
		return m, nil

	case "g", "home":
		m.viewport.GotoTop()
		return m, nil

	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}

	// Remaining keys scroll the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleDocLoaded(msg docLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.reload {
			m.state = stateReady
			return m, m.showStatusMessage("Reload failed: "+msg.err.Error(), true)
		}
		m.fatalErr = msg.err
		return m, nil
	}

	m.doc = msg.doc
	m.units = msg.units
	m.state = stateReady
	m.loadingNote = ""
	m.phase = m.controller.Phase()
	m.position = m.controller.Position()

	m.recon = library.NewReconciler(m.deps.Store, m.doc)
	m.controller.Tracker().Watch(m.recon.Track)

	m.setDocument()
	m.setActive(m.activeIndex())

	log.Debug("document loaded",
		"title", m.doc.Title,
		"units", len(m.units),
		"resume", m.src.ResumeIndex)

	var cmds []tea.Cmd
	if !msg.reload && m.src.ResumeKey == "" {
		cmds = append(cmds, appendHistoryCmd(m.deps.Store, m.doc))
	}
	if m.src.Path != "" {
		cmds = append(cmds, m.watchFile)
	}
	return m, tea.Batch(cmds...)
}

// activeIndex is the unit to highlight, or -1 for none.
func (m model) activeIndex() int {
	if len(m.units) == 0 || m.phase == speech.Finished {
		return -1
	}
	if m.position.Index >= len(m.units) {
		return -1
	}
	return m.position.Index
}

func (m model) shouldSpin() bool {
	return m.state == stateLoading || m.summarizing || m.voicesPending
}

// showStatusMessage flashes a note in the status bar for a few
// seconds.
func (m *model) showStatusMessage(text string, isError bool) tea.Cmd {
	m.statusMessage = text
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	t := m.statusMessageTimer
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

// startReload re-extracts the current source. The content key is kept
// so the document's bookmark identity survives the reload; the
// position resets with the fresh text.
func (m *model) startReload() tea.Cmd {
	m.state = stateLoading
	m.loadingNote = "Reloading " + filepath.Base(m.src.Path)

	src := m.src
	src.ResumeKey = m.doc.ContentKey
	src.ResumeIndex = 0

	old := m.recon
	m.recon = nil
	return tea.Batch(m.spinner.Tick, reloadCmd(m.deps, src, m.controller, old))
}

// COMMANDS

func playCmd(c *speech.Controller) tea.Cmd {
	return func() tea.Msg { return controlMsg{err: c.Play()} }
}

func pauseCmd(c *speech.Controller) tea.Cmd {
	return func() tea.Msg { return controlMsg{err: c.Pause()} }
}

func stopCmd(c *speech.Controller) tea.Cmd {
	return func() tea.Msg { return controlMsg{err: c.Stop()} }
}

// loadDocumentCmd extracts the source and hands the units to the
// controller before reporting back to the UI.
func loadDocumentCmd(deps Deps, src Source, c *speech.Controller, reload bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		doc, units, err := LoadDocument(ctx, deps, src)
		if err != nil {
			return docLoadedMsg{reload: reload, err: err}
		}

		texts := make([]string, len(units))
		for i, u := range units {
			texts[i] = u.Text
		}
		c.Load(texts)
		if src.ResumeIndex > 0 {
			_ = c.Seek(src.ResumeIndex)
		}
		return docLoadedMsg{doc: doc, units: units, reload: reload}
	}
}

// reloadCmd retires the old reconciler, then loads the source again.
func reloadCmd(deps Deps, src Source, c *speech.Controller, old *library.Reconciler) tea.Cmd {
	load := loadDocumentCmd(deps, src, c, true)
	return func() tea.Msg {
		if old != nil {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			_ = old.Flush(ctx)
			cancel()
			old.Close()
		}
		return load()
	}
}

func appendHistoryCmd(store library.Store, doc library.Document) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := store.AppendHistory(ctx, doc.Record(time.Now())); err != nil {
			log.Error("history append failed", "error", err)
		}
		return nil
	}
}

// shutdownCmd stops speech, persists the final position, and releases
// the file watcher.
func (m model) shutdownCmd() tea.Cmd {
	c, recon, watcher := m.controller, m.recon, m.watcher
	return func() tea.Msg {
		c.Shutdown()
		if recon != nil {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			_ = recon.Flush(ctx)
			cancel()
			recon.Close()
		}
		if watcher != nil {
			_ = watcher.Close()
		}
		return nil
	}
}

// watchFile blocks until the source file changes on disk, then asks
// for a reload. It re-arms after every reload.
func (m model) watchFile() tea.Msg {
	if m.watcher == nil || m.src.Path == "" {
		return nil
	}
	dir := filepath.Dir(m.src.Path)

	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
		return nil
	}
	log.Debug("fsnotify watching dir", "dir", dir)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != m.src.Path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}
