package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/watch"
)

// docLoadedMsg carries the result of a background load.
type docLoadedMsg struct {
	gen uint64
	id  string
	doc *document.Document
	err error
}

// paginateStepMsg asks for one pagination step of generation gen.
type paginateStepMsg struct {
	gen uint64
}

// drainEventsMsg signals buffered progress events.
type drainEventsMsg struct{}

// fileChangedMsg reports a change of the open file. closed is set when the
// watch ended.
type fileChangedMsg struct {
	event  watch.Event
	closed bool
}

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

func waitForFileChange(ch <-chan watch.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		return fileChangedMsg{event: e, closed: !ok}
	}
}
