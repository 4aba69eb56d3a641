// Package cli is the xcctl command line: cobra commands over internal/app and
// lipgloss rendering of the routed page.
package cli

import "github.com/charmbracelet/lipgloss"

// Brand colors.
var (
	colorPrimary = lipgloss.Color("#1B5E20")
	colorAccent  = lipgloss.Color("#F9A825")
	colorMuted   = lipgloss.Color("#8A8F98")
	colorError   = lipgloss.Color("#E53935")
	colorSuccess = lipgloss.Color("#43A047")
)

// Styles groups the text styles used by the renderer.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Stat    lipgloss.Style
}

// DefaultStyles returns the xcctl palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Bold:    lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Error:   lipgloss.NewStyle().Foreground(colorError),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Stat:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 1),
	}
}
