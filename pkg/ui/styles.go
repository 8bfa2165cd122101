// Package ui holds the terminal styling for the workbench console:
// the severity palette records are rendered with, the banner, and
// color-mode handling.
package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/servhound/servhound/pkg/record"
)

// Color palette. Severity colors track the record color scale.
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	SeverityRed    = lipgloss.Color("#FF3838")
	SeverityYellow = lipgloss.Color("#FFD93D")
	SeverityGreen  = lipgloss.Color("#00D26A")

	Muted = lipgloss.Color("#6B7280")
)

// Pre-configured styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	RedStyle    = lipgloss.NewStyle().Foreground(SeverityRed).Bold(true)
	YellowStyle = lipgloss.NewStyle().Foreground(SeverityYellow)
	GreenStyle  = lipgloss.NewStyle().Foreground(SeverityGreen)

	UnseenStyle = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
)

// StatusStyle maps a record color onto its terminal style.
func StatusStyle(c record.Color) lipgloss.Style {
	switch c {
	case record.ColorRed:
		return RedStyle
	case record.ColorYellow:
		return YellowStyle
	case record.ColorGreen:
		return GreenStyle
	default:
		return MutedStyle
	}
}

var (
	noColorMu   sync.RWMutex
	noColorMode bool
)

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	noColorMu.Lock()
	defer noColorMu.Unlock()
	noColorMode = noColor
}

// NoColor reports whether colored output is disabled.
func NoColor() bool {
	noColorMu.RLock()
	defer noColorMu.RUnlock()
	return noColorMode
}

// Render applies style to s unless colors are disabled.
func Render(style lipgloss.Style, s string) string {
	if NoColor() {
		return s
	}
	return style.Render(s)
}
