package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("208") // HN orange
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
)

// SelectedItem style for the currently highlighted story.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// NormalItem style for unselected stories.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// RankStyle for the position number column.
var RankStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DomainStyle for the "(example.com)" suffix.
var DomainStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// MetaItem style for score, comment count and age.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// HeaderStyle for the category title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("232")).
	Background(colorPrimary).
	Padding(0, 1)

// HeaderMeta for the "fetched ..." note in the header.
var HeaderMeta = lipgloss.NewStyle().
	Foreground(lipgloss.Color("236")).
	Background(colorPrimary)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBarLink style for a link shown in the status bar.
var StatusBarLink = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Underline(true)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for the empty-list hint.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// HelpBar wraps the key help below the status bar.
var HelpBar = lipgloss.NewStyle().
	Padding(0, 1)

// SpinnerStyle for the refresh indicator.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("232"))
