// Package ui renders the live generation view for the CLI.
package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors shared across the view.
var (
	accentColor  = lipgloss.Color("#8BC34A")
	mutedColor   = lipgloss.Color("#6b7280")
	errorColor   = lipgloss.Color("#e53935")
	successColor = lipgloss.Color("#8BC34A")
)

// Styles holds the styled components of the generation view.
type Styles struct {
	Title     lipgloss.Style
	Status    lipgloss.Style
	Reasoning lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			MarginBottom(1),

		Status: lipgloss.NewStyle().
			Bold(true),

		Reasoning: lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true).
			PaddingLeft(2),

		Success: lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(mutedColor),
	}
}
