package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/ppds/orchdash/internal/models"
)

// Color scheme
const (
	ColorPrimary = "6"  // Cyan
	ColorSuccess = "2"  // Green
	ColorWarning = "3"  // Yellow
	ColorError   = "1"  // Red
	ColorInfo    = "4"  // Blue
	ColorMuted   = "8"  // Dark gray
	ColorAccent  = "11" // Bright yellow
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(ColorInfo))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted))

	KeyHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccent)).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))
)

// StatusStyle colors a session status label.
func StatusStyle(status string) lipgloss.Style {
	color := ColorMuted
	switch status {
	case models.SessionStatusWorking, models.SessionStatusPlanning:
		color = ColorInfo
	case models.SessionStatusStuck:
		color = ColorError
	case models.SessionStatusPaused, models.SessionStatusRegistered:
		color = ColorWarning
	case models.SessionStatusComplete:
		color = ColorSuccess
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
