package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/quire/internal/core/layout"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting || m.width == 0 {
		return ""
	}

	switch m.state {
	case stateLoading:
		return m.renderLoading()
	case stateShowingHelp:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpView)
	}

	return m.renderPages() + "\n" + m.renderStatusLine()
}

func (m Model) renderLoading() string {
	var body string
	if m.loadErr != nil {
		body = toastErrorStyle.Render(fmt.Sprintf("%s %s: %v", iconError, m.title(), m.loadErr)) +
			"\n\n" + statusStyle.Render("press q to quit")
	} else {
		body = m.spinner.View() + " " + statusStyle.Render(m.loadMsg+" "+m.title())
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// renderPages lays the visible pages out side by side. Slots of the display
// set without a page stay blank.
func (m Model) renderPages() string {
	vp := m.view.Viewport()
	pvp := m.view.PageViewport()
	height := max(vp.Height, 1)

	text := m.view.Document().Text()
	pages := m.view.VisiblePages()

	cols := make([]string, 0, 2*m.view.DisplayPageCount())
	for slot := range m.view.DisplayPageCount() {
		if slot > 0 {
			cols = append(cols, gutterColumn(height))
		}
		var lines []string
		if slot < len(pages) {
			lines = m.renderPage(text, pages[slot])
		}
		cols = append(cols, column(lines, pvp.Width, height))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// span is a styled byte range of the document.
type span struct {
	start, end int
	style      lipgloss.Style
}

func (m Model) renderPage(text string, i int) []string {
	pg, err := m.view.Layout().Page(i)
	if err != nil {
		return nil
	}

	spans := m.pageSpans(pg)
	tab := strings.Repeat(" ", max(m.cfg.Reader.TabWidth, 1))

	out := make([]string, 0, len(pg.Lines))
	for _, l := range pg.Lines {
		if l.End > len(text) {
			break
		}
		raw := strings.TrimRight(text[l.Start:l.End], "\r\n")
		out = append(out, strings.ReplaceAll(paintLine(raw, l.Start, spans), "\t", tab))
	}
	return out
}

// pageSpans collects the annotations and the search match on pg, ordered by
// start. The match comes last so it wins where they overlap.
func (m Model) pageSpans(pg layout.Page) []span {
	var spans []span
	for _, a := range m.reader.Marks().AnnotationsIn(pg.Start, pg.End) {
		start, end := a.Range()
		style, ok := m.annot[a.Color]
		if !ok {
			style = matchStyle
		}
		spans = append(spans, span{start: start, end: end, style: style})
	}
	slices.SortStableFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })

	if match, ok := m.view.Highlight(); ok && match.Offset < pg.End && match.End() > pg.Start {
		spans = overlay(spans, span{start: match.Offset, end: match.End(), style: matchStyle})
	}
	return spans
}

// overlay cuts top out of spans and inserts it in order.
func overlay(spans []span, top span) []span {
	out := make([]span, 0, len(spans)+2)
	for _, s := range spans {
		if s.end <= top.start || s.start >= top.end {
			out = append(out, s)
			continue
		}
		if s.start < top.start {
			out = append(out, span{start: s.start, end: top.start, style: s.style})
		}
		if s.end > top.end {
			out = append(out, span{start: top.end, end: s.end, style: s.style})
		}
	}
	out = append(out, top)
	slices.SortStableFunc(out, func(a, b span) int { return cmp.Compare(a.start, b.start) })
	return out
}

// paintLine styles the parts of line, which starts at document offset base,
// covered by spans. Spans must be ordered by start.
func paintLine(line string, base int, spans []span) string {
	end := base + len(line)
	pos := base

	var b strings.Builder
	for _, s := range spans {
		from, to := max(s.start, pos), min(s.end, end)
		if from >= to {
			continue
		}
		b.WriteString(line[pos-base : from-base])
		b.WriteString(s.style.Render(line[from-base : to-base]))
		pos = to
	}
	b.WriteString(line[pos-base:])
	return b.String()
}

// column pads lines to a block of width by height cells.
func column(lines []string, width, height int) string {
	out := make([]string, height)
	for i := range out {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if pad := width - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[i] = line
	}
	return strings.Join(out, "\n")
}

func gutterColumn(height int) string {
	line := gutterStyle.Render(" │")
	return strings.TrimSuffix(strings.Repeat(line+"\n", height), "\n")
}

// renderStatusLine shows the search prompt while searching. Otherwise the
// newest toast takes precedence over pagination progress and the status
// template.
func (m Model) renderStatusLine() string {
	if m.state == stateSearching {
		return m.input.View()
	}

	var left string
	switch toast, ok := m.toasts.Latest(); {
	case ok:
		left = renderToast(toast)
	case m.view.Paginating():
		cur, total := m.view.Progress()
		frac := 0.0
		if total > 0 {
			frac = float64(cur) / float64(total)
		}
		left = m.pbar.ViewAs(frac) + " " + statusStyle.Render("paginating")
	default:
		left = m.renderStatus()
	}

	var right string
	if m.reader.Marks().BookmarkAt(m.view.Offset()) != nil {
		right = bookmarkStyle.Render(iconBookmark)
	}
	if q := m.view.SearchQuery(); q != "" {
		right += " " + statusKeyStyle.Render("/"+q)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderStatus() string {
	s, err := m.status.Execute(m.statusData(m.view.Document()))
	if err != nil {
		return toastErrorStyle.Render(err.Error())
	}
	return statusStyle.Render(s)
}

func renderToast(t toast) string {
	switch t.level {
	case ToastError:
		return toastErrorStyle.Render(iconError + " " + t.text)
	default:
		return toastInfoStyle.Render(iconInfo + " " + t.text)
	}
}

// renderHelp renders the keybinding table as markdown with glamour.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n| Key | Action |\n| --- | --- |\n")
	for _, kb := range m.handler.HelpBindings() {
		h := kb.Help()
		fmt.Fprintf(&b, "| `%s` | %s |\n", escapeCell(h.Key), escapeCell(h.Desc))
	}
	b.WriteString("\n" + iconDot + " any key closes this help\n")

	md := b.String()
	wrap := max(min(m.width-4, 72), 20)

	style := glamour.WithStandardStyle(m.cfg.TUI.Glamour)
	if m.cfg.TUI.Glamour == "" || m.cfg.TUI.Glamour == "auto" {
		style = glamour.WithAutoStyle()
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		m.log.Warn().Err(err).Msg("help renderer")
		return helpBoxStyle.Render(md)
	}
	out, err := r.Render(md)
	if err != nil {
		m.log.Warn().Err(err).Msg("render help")
		return helpBoxStyle.Render(md)
	}
	return helpBoxStyle.Render(strings.TrimSpace(out))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
