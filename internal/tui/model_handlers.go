package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/quire/internal/core/config"
	coreprogress "github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/core/viewer"
)

func (m Model) handleDocLoaded(msg docLoadedMsg) (tea.Model, tea.Cmd) {
	if m.loader != nil && !m.loader.IsCurrent(msg.gen) {
		m.log.Debug().Uint64("gen", msg.gen).Str("id", msg.id).Msg("dropping stale load")
		return m, nil
	}

	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("id", msg.id).Msg("load failed")
		if m.view.Document().ID() == "" {
			m.loadErr = msg.err
			return m, nil
		}
		return m, m.pushError(fmt.Errorf("reload %s: %w", m.title(), msg.err))
	}

	ok, err := m.reader.Install(m.ctx, msg.doc, msg.gen)
	if !ok {
		return m, nil
	}

	m.loadErr = nil
	if m.state == stateLoading {
		m.state = stateReading
	}

	cmds := []tea.Cmd{m.schedulePagination()}
	if err != nil {
		cmds = append(cmds, m.pushError(err))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handlePaginateStep(msg paginateStepMsg) (tea.Model, tea.Cmd) {
	m.stepping = false
	if m.view.StepPagination(msg.gen) && !m.view.Paginating() {
		return m, nil
	}
	cmd := m.schedulePagination()
	return m, cmd
}

func (m *Model) handleProgressEvent(e coreprogress.Event) {
	if m.staleEvent(e) {
		m.log.Debug().Uint64("gen", e.Gen).Str("kind", e.Kind.String()).Msg("dropping stale progress event")
		return
	}

	switch e.Kind {
	case coreprogress.ConstructStarted:
		m.loadMsg = "parsing"
	case coreprogress.ConstructFinished:
		m.loadMsg = "laying out"
	case coreprogress.PaginateFinished:
		m.log.Debug().Str("doc_id", e.DocID).Uint64("gen", e.Gen).Int("pages", m.view.PageCount()).Msg("pagination finished")
	}
}

// staleEvent reports whether e belongs to a load that a newer one replaced.
func (m Model) staleEvent(e coreprogress.Event) bool {
	if m.loader != nil {
		return e.Gen < m.loader.Current()
	}
	return e.Gen < m.view.Generation()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == keyCtrlC {
		return m.quit()
	}

	switch m.state {
	case stateLoading:
		if action, ok := m.handler.Resolve(k); ok && action == config.ActionQuit {
			return m.quit()
		}
		return m, nil
	case stateSearching:
		return m.handleSearchKey(msg)
	case stateShowingHelp:
		m.state = stateReading
		return m, nil
	}

	if k == keyEsc {
		m.view.ClearSearch()
		m.toasts.DismissAll()
		return m, nil
	}

	action, ok := m.handler.Resolve(k)
	if !ok {
		return m, nil
	}
	return m.dispatch(action)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.state = stateReading
		m.input.Blur()
		return m, nil
	case keyEnter:
		m.state = stateReading
		m.input.Blur()
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		if _, ok := m.view.Search(query); !ok {
			return m, m.pushToast(ToastError, fmt.Sprintf("no match for %q", query))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch runs a reader action.
func (m Model) dispatch(action string) (tea.Model, tea.Cmd) {
	view := m.view

	switch action {
	case config.ActionNextPage:
		view.NextSet()
	case config.ActionPrevPage:
		view.PrevSet()
	case config.ActionFirstPage:
		if view.PageCount() > 0 {
			if err := m.reader.JumpToPage(0); err != nil {
				return m, m.pushError(err)
			}
		}
	case config.ActionLastPage:
		if n := view.PageCount(); n > 0 {
			if err := m.reader.JumpToPage(n - 1); err != nil {
				return m, m.pushError(err)
			}
		}

	case config.ActionSearch:
		m.state = stateSearching
		query := view.SearchQuery()
		if query == "" {
			query = m.reader.LastQuery()
		}
		m.input.SetValue(query)
		m.input.CursorEnd()
		focus := m.input.Focus()
		return m, tea.Batch(focus, textinput.Blink)
	case config.ActionSearchNext:
		query := ""
		if view.SearchQuery() == "" {
			if query = m.reader.LastQuery(); query == "" {
				return m, m.pushToast(ToastInfo, "no search query")
			}
		}
		if _, ok := view.SearchNext(query); !ok {
			return m, m.pushToast(ToastError, "no more matches")
		}

	case config.ActionBookmark:
		b, err := m.reader.ToggleBookmark("")
		switch {
		case err != nil:
			return m, m.pushError(err)
		case b == nil:
			return m, m.pushToast(ToastInfo, "bookmark removed")
		default:
			return m, m.pushToast(ToastInfo, fmt.Sprintf("bookmark added on page %d", view.Page()+1))
		}
	case config.ActionNextBookmark:
		if !m.reader.NextBookmark() {
			return m, m.pushToast(ToastInfo, "no later bookmark")
		}
	case config.ActionPrevBookmark:
		if !m.reader.PrevBookmark() {
			return m, m.pushToast(ToastInfo, "no earlier bookmark")
		}
	case config.ActionBack:
		m.reader.Back()
	case config.ActionForward:
		m.reader.Forward()
	case config.ActionHighlight:
		_, ok, err := m.reader.HighlightMatch(m.cfg.Annotations.Default)
		switch {
		case err != nil:
			return m, m.pushError(err)
		case !ok:
			return m, m.pushToast(ToastInfo, "nothing to highlight")
		default:
			return m, m.pushToast(ToastInfo, "highlighted")
		}

	case config.ActionZoomIn:
		return m.setZoom(view.Zoom() * zoomStep)
	case config.ActionZoomOut:
		return m.setZoom(view.Zoom() / zoomStep)
	case config.ActionCycleDisplay:
		n := view.DisplayPageCount()%viewer.MaxDisplayPages + 1
		if err := view.SetDisplayPageCount(n); err != nil {
			return m, m.pushError(err)
		}
		step := m.schedulePagination()
		return m, tea.Batch(step, m.savePrefs())

	case config.ActionHelp:
		m.helpView = m.renderHelp()
		m.state = stateShowingHelp
	case config.ActionQuit:
		return m.quit()
	}

	cmd := m.schedulePagination()
	return m, cmd
}

func (m Model) setZoom(zoom float64) (tea.Model, tea.Cmd) {
	zoom = min(max(zoom, minZoom), maxZoom)
	m.view.SetZoom(zoom)
	step := m.schedulePagination()
	return m, tea.Batch(step, m.savePrefs())
}

func (m Model) savePrefs() tea.Cmd {
	if err := reader.SavePrefs(m.ctx, m.kv, m.view); err != nil {
		return m.pushError(err)
	}
	return nil
}

// quit saves the reading state and exits.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.reader.Close(m.ctx); err != nil {
		m.log.Error().Err(err).Msg("save reading state")
	}
	m.quitting = true
	return m, tea.Quit
}
