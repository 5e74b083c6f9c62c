package styles

import (
	"github.com/allbin/seaward-capture/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Device card styles
	CardBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Width(14)

	FieldValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text)

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Yellow)

	// Status styles
	OkStyle = lipgloss.NewStyle().
		Foreground(colors.Green).
		Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true)

	ErrStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Sky)

	// Incoming data indicator
	RxStyle = lipgloss.NewStyle().
		Foreground(colors.Teal)
)
