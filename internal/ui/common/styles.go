// Package common provides shared styles and helpers for the UI.
package common

import "github.com/charmbracelet/lipgloss"

// Icons
const (
	ReadyIcon    = "✅"
	WaitingIcon  = "⏳"
	WinnerIcon   = "🏆"
	AnsweredIcon = "✍"
)

var (
	DocStyle       = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	PromptStyle    = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	CorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	WrongStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
