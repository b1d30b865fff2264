package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/quakewatch/internal/render/mapview"
)

// Theme defines the colors of the dashboard chrome. Marker and chart
// colors come from the fixed magnitude palettes and do not change.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Border     lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Map        mapview.Palette
}

// DarkTheme is the default theme for dark terminals.
var DarkTheme = Theme{
	Name:       ThemeDark,
	Background: lipgloss.Color("#0f172a"),
	Text:       lipgloss.Color("#e2e8f0"),
	Muted:      lipgloss.Color("#64748b"),
	Accent:     lipgloss.Color("#38bdf8"),
	Border:     lipgloss.Color("#334155"),
	Success:    lipgloss.Color("#4ade80"),
	Warning:    lipgloss.Color("#facc15"),
	Error:      lipgloss.Color("#f87171"),
	Map:        mapview.DarkPalette,
}

// LightTheme is the theme for light terminals.
var LightTheme = Theme{
	Name:       ThemeLight,
	Background: lipgloss.Color("#f8fafc"),
	Text:       lipgloss.Color("#0f172a"),
	Muted:      lipgloss.Color("#64748b"),
	Accent:     lipgloss.Color("#0369a1"),
	Border:     lipgloss.Color("#cbd5e1"),
	Success:    lipgloss.Color("#15803d"),
	Warning:    lipgloss.Color("#a16207"),
	Error:      lipgloss.Color("#b91c1c"),
	Map:        mapview.LightPalette,
}

// ThemeFor returns the theme with the given name, defaulting to dark.
func ThemeFor(name string) Theme {
	if name == ThemeLight {
		return LightTheme
	}
	return DarkTheme
}
