// Package render draws tables, condition cards and charts for terminal
// output.
package render

import "github.com/charmbracelet/lipgloss"

// Color definitions for the terminal theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("42")  // Green
	Secondary = lipgloss.Color("39")  // Blue
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 2)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// LabelStyle styles the key half of key-value lines.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(15)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// FrostStyle flags readings at or below the frost threshold.
var FrostStyle = lipgloss.NewStyle().
	Foreground(Info).
	Bold(true).
	Italic(true)

// TempStyle returns the style for a temperature reading in degrees
// Celsius. Readings at or below frostThreshold get the frost alert style.
func TempStyle(deg, frostThreshold float64) lipgloss.Style {
	switch {
	case deg <= frostThreshold:
		return FrostStyle
	case deg < 10:
		return InfoTextStyle
	case deg < 30:
		return SuccessTextStyle
	case deg < 38:
		return WarningTextStyle
	default:
		return ErrorTextStyle
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}
