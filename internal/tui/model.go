package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/core/loader"
	"github.com/hay-kot/quire/internal/core/logging"
	coreprogress "github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/core/viewer"
	"github.com/hay-kot/quire/internal/core/watch"
	"github.com/hay-kot/quire/pkg/tmpl"
)

// UIState represents the current state of the TUI.
type UIState int

const (
	stateLoading UIState = iota
	stateReading
	stateSearching
	stateShowingHelp
)

// Key constants for event handling.
const (
	keyEnter = "enter"
	keyEsc   = "esc"
	keyCtrlC = "ctrl+c"
)

const (
	statusHeight   = 1
	zoomStep       = 1.25
	minZoom        = 0.5
	maxZoom        = 4.0
	maxQueryLength = 256
)

// Options configures the TUI.
type Options struct {
	Config  *config.Config
	Loader  *loader.Loader
	Bus     *coreprogress.Bus // shared with Loader; nil creates one
	KV      kv.KV             // persistent user data; nil keeps it in memory
	Library library.Store     // optional
	Watcher *watch.Watcher    // optional; reloads WatchPath when it changes
	// WatchPath is the file behind the document ID, if there is one.
	WatchPath string
}

// Model is the Bubble Tea model of the reader.
type Model struct {
	ctx     context.Context
	cfg     *config.Config
	loader  *loader.Loader
	reader  *reader.Reader
	view    *viewer.Viewer
	kv      kv.KV
	handler *KeybindingResolver
	status  *tmpl.Template
	annot   map[string]lipgloss.Style
	log     zerolog.Logger

	docID    string
	state    UIState
	width    int
	height   int
	stepping bool
	loadErr  error
	loadMsg  string
	quitting bool

	spinner  spinner.Model
	pbar     progress.Model
	input    textinput.Model
	toasts   *ToastController
	helpView string

	events  *EventBuffer
	watchCh <-chan watch.Event
}

// New creates the reader model for docID. Loading starts in Init.
func New(ctx context.Context, docID string, opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}

	status, err := tmpl.Parse(cfg.TUI.StatusFormat)
	if err != nil {
		return Model{}, fmt.Errorf("tui.status_format: %w", err)
	}

	store := opts.KV
	if store == nil {
		store = kv.NewMemory()
	}

	bus := opts.Bus
	if bus == nil {
		bus = coreprogress.NewBus()
	}

	log := logging.Component("tui")

	prefs, err := reader.LoadPrefs(ctx, store, reader.Prefs{
		Zoom:         cfg.Reader.Zoom,
		DisplayPages: cfg.Reader.DisplayPages,
	})
	if err != nil {
		log.Warn().Err(err).Msg("using configured view settings")
	}

	view := viewer.New(viewer.Options{
		DisplayPages: prefs.DisplayPages,
		Zoom:         prefs.Zoom,
		TabWidth:     cfg.Reader.TabWidth,
		Chunk:        cfg.Reader.PaginateChunk,
	}, bus)

	events := NewEventBuffer()
	bus.Subscribe(events.Push)

	input := textinput.New()
	input.Prompt = "/"
	input.PromptStyle = promptStyle
	input.CharLimit = maxQueryLength

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = statusKeyStyle

	m := Model{
		ctx:     ctx,
		cfg:     cfg,
		loader:  opts.Loader,
		reader:  reader.New(view, store, opts.Library),
		view:    view,
		kv:      store,
		handler: NewKeybindingResolver(cfg.Keybindings),
		status:  status,
		annot:   annotationStyles(cfg.Annotations.Colors),
		log:     log,
		docID:   docID,
		state:   stateLoading,
		loadMsg: "loading",
		spinner: s,
		pbar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:   input,
		toasts:  NewToastController(),
		events:  events,
	}

	if opts.Watcher != nil && opts.WatchPath != "" && cfg.Reader.Watch {
		ch, err := opts.Watcher.Watch(ctx, opts.WatchPath)
		if err != nil {
			log.Warn().Err(err).Str("path", opts.WatchPath).Msg("not watching document")
		} else {
			m.watchCh = ch
		}
	}

	return m, nil
}

// Reader returns the reader behind the model.
func (m Model) Reader() *reader.Reader { return m.reader }

// Init starts loading the document.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.loadCmd(m.docID),
		m.events.WaitForSignal(),
	}
	if m.watchCh != nil {
		cmds = append(cmds, waitForFileChange(m.watchCh))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.pbar.Width = max(msg.Width/3, 10)
		m.view.Resize(msg.Width, max(msg.Height-statusHeight, 1))
		cmd := m.schedulePagination()
		return m, cmd

	case docLoadedMsg:
		return m.handleDocLoaded(msg)

	case paginateStepMsg:
		return m.handlePaginateStep(msg)

	case drainEventsMsg:
		for _, e := range m.events.Drain() {
			m.handleProgressEvent(e)
		}
		return m, m.events.WaitForSignal()

	case fileChangedMsg:
		if msg.closed {
			m.watchCh = nil
			return m, nil
		}
		m.log.Debug().Str("path", msg.event.Path).Msg("document changed on disk")
		return m, tea.Batch(
			m.loadCmd(m.docID),
			waitForFileChange(m.watchCh),
			m.pushToast(ToastInfo, "reloading"),
		)

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if m.toasts.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toasts.SetTicking(false)
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == stateSearching {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// loadCmd starts a load of id on the UI goroutine and runs it in the
// background.
func (m Model) loadCmd(id string) tea.Cmd {
	if m.loader == nil {
		return nil
	}
	job := m.loader.Start(m.ctx, id)
	return func() tea.Msg {
		doc, err := job.Run()
		return docLoadedMsg{gen: job.Gen, id: id, doc: doc, err: err}
	}
}

// schedulePagination queues the next pagination step unless one is queued.
func (m *Model) schedulePagination() tea.Cmd {
	if m.stepping || !m.view.Paginating() {
		return nil
	}
	m.stepping = true
	gen := m.view.Generation()
	return func() tea.Msg { return paginateStepMsg{gen: gen} }
}

func (m Model) pushToast(level ToastLevel, text string) tea.Cmd {
	m.toasts.Push(level, text)
	if m.toasts.Ticking() {
		return nil
	}
	m.toasts.SetTicking(true)
	return scheduleToastTick()
}

func (m Model) pushError(err error) tea.Cmd {
	m.log.Error().Err(err).Msg("reader action failed")
	return m.pushToast(ToastError, err.Error())
}

// title returns the name shown for the current document.
func (m Model) title() string {
	doc := m.view.Document()
	if doc.ID() == "" {
		return library.Entry{ID: m.docID}.DisplayName()
	}
	meta := doc.Metadata()
	if meta.Title != "" {
		return meta.Title
	}
	return library.Entry{ID: doc.ID(), Title: strings.TrimSpace(doc.Title())}.DisplayName()
}

func (m Model) statusData(doc *document.Document) config.StatusTemplateData {
	page := 0
	if m.view.PageCount() > 0 {
		page = m.view.Page() + 1
	}
	return config.StatusTemplateData{
		Title:     m.title(),
		Author:    doc.Metadata().Author,
		Page:      page,
		Pages:     m.view.PageCount(),
		Offset:    m.view.Offset(),
		Length:    doc.Len(),
		Bookmarks: m.reader.Marks().BookmarkCount(),
		Query:     m.view.SearchQuery(),
	}
}
