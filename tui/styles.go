package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtle  lipgloss.Color = "#6c7086"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarning lipgloss.Color = "#f9e2af"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorSubtle)
	activeTabStyle = tabStyle.Foreground(colorAccent).Bold(true).Underline(true)
	titleStyle     = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).MarginBottom(1)
	labelStyle     = lipgloss.NewStyle().Foreground(colorText).Width(22)
	valueStyle     = lipgloss.NewStyle().Foreground(colorText)
	cursorStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	pendingStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	bodyStyle      = lipgloss.NewStyle().Padding(1, 2)
)
