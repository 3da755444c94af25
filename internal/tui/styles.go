package tui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle      = lipgloss.NewStyle().Padding(1, 2)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	pendingStyle  = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Bold(true)
	failStyle     = lipgloss.NewStyle().Bold(true)
	errorBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)
