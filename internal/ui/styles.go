package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Amber
	colorError     = lipgloss.Color("196") // Red
)

// TitleStyle for the app banner.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// InputStyle frames the address field.
var InputStyle = lipgloss.NewStyle().
	Padding(0, 1)

// SelectedItem style for the highlighted suggestion.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for other suggestions.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// LocalityStyle for the city/state suffix on a suggestion.
var LocalityStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// SectionHeader style for list and card headings.
var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1).
	Padding(0, 1)

// MutedStyle for hints and secondary text.
var MutedStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// WarnStyle for retry notices.
var WarnStyle = lipgloss.NewStyle().
	Foreground(colorWarn).
	Padding(0, 1)

// SuccessStyle for completed steps.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true).
	Padding(0, 1)

// ErrorStyle for inline error text.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// ProgressPanel frames the processing display.
var ProgressPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// ReportCard frames the report summary.
var ReportCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorSuccess).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorWarn).
	Padding(1, 1)

// DebugHeaderStyle for debug overlay section titles.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWarn)
