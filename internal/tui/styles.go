package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	felt   = lipgloss.Color("#1E6F50")
	chalk  = lipgloss.Color("#F2F2F2")
	gold   = lipgloss.Color("#E8C547")
	ruby   = lipgloss.Color("#E5484D")
	mint   = lipgloss.Color("#7FD1AE")
	amber  = lipgloss.Color("#F5A524")
	slate  = lipgloss.Color("#6B7280")
	accent = lipgloss.Color("#3DDC97")
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(chalk).Background(felt).Bold(true)

	HandInfoStyle = lipgloss.NewStyle().Foreground(mint).Bold(true)
	ActionsStyle  = lipgloss.NewStyle().Foreground(gold).Bold(true)

	RedCardStyle   = lipgloss.NewStyle().Foreground(ruby).Bold(true)
	BlackCardStyle = lipgloss.NewStyle().Foreground(chalk).Bold(true)

	// seat rows in the sidebar
	CurrentPlayerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	FoldedStyle        = lipgloss.NewStyle().Foreground(slate).Strikethrough(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(mint).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ruby).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(amber).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(slate)
	HelpStyle    = lipgloss.NewStyle().Foreground(slate).Italic(true)
)
