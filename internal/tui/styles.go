// Package tui implements the Bubble Tea reader for quire.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Icons and symbols.
const (
	iconDot      = "•"
	iconBookmark = "▍"
	iconError    = "✗"
	iconInfo     = "●"
)

var (
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#6c6c6c"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fafd7"}
	colorError  = lipgloss.AdaptiveColor{Light: "#af0000", Dark: "#ff5f5f"}
	colorMatch  = lipgloss.AdaptiveColor{Light: "#ffd75f", Dark: "#875f00"}
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	gutterStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	bookmarkStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	matchStyle = lipgloss.NewStyle().
			Background(colorMatch).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

// annotationStyles maps annotation color tags to background styles. Tags
// without an entry fall back to the match style.
func annotationStyles(colors map[string]string) map[string]lipgloss.Style {
	out := make(map[string]lipgloss.Style, len(colors))
	for name, c := range colors {
		out[name] = lipgloss.NewStyle().
			Background(lipgloss.Color(c)).
			Foreground(lipgloss.Color("#000000"))
	}
	return out
}
