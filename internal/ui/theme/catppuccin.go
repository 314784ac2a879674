// Package theme holds the Catppuccin Mocha palette and the styles shared by
// every tab.
package theme

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")
)

var (
	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(1)

	// PaneActive outlines the timer while the countdown runs.
	PaneActive = Pane.BorderForeground(Green)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Error = lipgloss.NewStyle().Foreground(Red).Bold(true)

	Driver    = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Navigator = lipgloss.NewStyle().Foreground(Sapphire)

	Running = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Idle    = lipgloss.NewStyle().Foreground(Subtext0)
)

// Countdown picks the remaining-time style: green while there is time, yellow
// in the final minute, red in the final ten seconds of a running interval.
func Countdown(remainingSeconds int, active bool) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch {
	case !active:
		return style.Foreground(Text)
	case remainingSeconds <= 10:
		return style.Foreground(Red)
	case remainingSeconds <= 60:
		return style.Foreground(Yellow)
	default:
		return style.Foreground(Green)
	}
}

// ListDelegate is the list item delegate used by every list tab.
func ListDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(Lavender).BorderForeground(Lavender)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(Sapphire).BorderForeground(Lavender)
	return d
}
