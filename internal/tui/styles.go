package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorDanger  = lipgloss.Color("#FF5F87")
	ColorMuted   = lipgloss.Color("#6C6C6C")

	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StatusStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	DoneStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	ErrorStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	HelpStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
)
