package tui

import (
	"github.com/andy/invoicedesk/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// palette is one colour theme
type palette struct {
	primary    lipgloss.Color
	accent     lipgloss.Color
	muted      lipgloss.Color
	success    lipgloss.Color
	warning    lipgloss.Color
	err        lipgloss.Color
	help       lipgloss.Color
	border     lipgloss.Color
	footer     lipgloss.Color
	selectedFg lipgloss.Color
}

var palettes = map[string]palette{
	config.ThemeDark: {
		primary:    "39",  // Blue
		accent:     "205", // Pink
		muted:      "241", // Gray
		success:    "76",  // Green
		warning:    "214", // Orange
		err:        "196", // Red
		help:       "117", // Bright cyan
		border:     "63",  // Soft purple
		footer:     "226", // Bright yellow
		selectedFg: "0",
	},
	config.ThemeLight: {
		primary:    "25",
		accent:     "162",
		muted:      "245",
		success:    "28",
		warning:    "166",
		err:        "160",
		help:       "31",
		border:     "61",
		footer:     "130",
		selectedFg: "15",
	},
}

var (
	currentTheme string

	// Colors
	primaryColor lipgloss.Color
	accentColor  lipgloss.Color
	mutedColor   lipgloss.Color
	successColor lipgloss.Color
	warningColor lipgloss.Color
	errorColor   lipgloss.Color
	borderColor  lipgloss.Color

	// Base styles
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	helpStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	disabledStyle lipgloss.Style
	enabledStyle  lipgloss.Style

	// Layout
	appBorderStyle lipgloss.Style

	// Header/Footer
	headerStyle lipgloss.Style
	footerStyle lipgloss.Style
)

func init() {
	applyTheme(config.ThemeLight)
}

// applyTheme rebuilds every style from the named palette. Unknown names fall
// back to light.
func applyTheme(name string) {
	p, ok := palettes[name]
	if !ok {
		name = config.ThemeLight
		p = palettes[name]
	}
	currentTheme = name

	primaryColor = p.primary
	accentColor = p.accent
	mutedColor = p.muted
	successColor = p.success
	warningColor = p.warning
	errorColor = p.err
	borderColor = p.border

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle = lipgloss.NewStyle().Foreground(p.help)
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(primaryColor).Foreground(p.selectedFg)
	disabledStyle = lipgloss.NewStyle().Foreground(mutedColor).Faint(true)
	enabledStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)

	appBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(p.footer).Bold(true)
}

// otherTheme returns the theme the toggle switches to
func otherTheme(name string) string {
	if name == config.ThemeDark {
		return config.ThemeLight
	}
	return config.ThemeDark
}
