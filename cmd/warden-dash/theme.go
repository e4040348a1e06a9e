package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the warden dashboard.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultTheme returns the default theme for warden-dash.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("12"),  // Blue
		Success: lipgloss.Color("10"),  // Green
		Warning: lipgloss.Color("11"),  // Yellow
		Error:   lipgloss.Color("9"),   // Red
		Muted:   lipgloss.Color("240"), // Gray
	}
}

// styles derived from the theme, built once at model init.
type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	held    lipgloss.Style
	free    lipgloss.Style
	waiting lipgloss.Style
	errText lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		header:  lipgloss.NewStyle().Bold(true).Underline(true),
		held:    lipgloss.NewStyle().Foreground(t.Warning),
		free:    lipgloss.NewStyle().Foreground(t.Success),
		waiting: lipgloss.NewStyle().Foreground(t.Warning),
		errText: lipgloss.NewStyle().Foreground(t.Error),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
	}
}
