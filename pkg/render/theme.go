package render

import "github.com/charmbracelet/lipgloss"

// Theme defines colors and icons for terminal rendering.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Border  lipgloss.Color
	Icons   ThemeIcons
}

// ThemeIcons defines the icon set for a theme.
type ThemeIcons struct {
	Pass   string
	Fail   string
	Warn   string
	Info   string
	Bullet string
}

// DefaultTheme returns a vibrant color theme.
func DefaultTheme() Theme {
	return Theme{
		Name:    "default",
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),  // pale blue
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Bold:    lipgloss.NewStyle().Bold(true),
		Border:  lipgloss.Color("39"),
		Icons: ThemeIcons{
			Pass:   "✓",
			Fail:   "✗",
			Warn:   "⚠",
			Info:   "●",
			Bullet: "·",
		},
	}
}

// DarkTheme returns a muted theme for dark terminals.
func DarkTheme() Theme {
	return Theme{
		Name:    "dark",
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),  // pale blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("108")), // sage green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("179")), // muted gold
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("167")), // muted red
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // lighter gray
		Bold:    lipgloss.NewStyle().Bold(true),
		Border:  lipgloss.Color("245"),
		Icons: ThemeIcons{
			Pass:   "✓",
			Fail:   "✗",
			Warn:   "!",
			Info:   "·",
			Bullet: "·",
		},
	}
}

// MonoTheme returns a monochrome theme (no colors).
func MonoTheme() Theme {
	return Theme{
		Name:    "mono",
		Primary: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Info:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle().Bold(true),
		Border:  lipgloss.Color(""),
		Icons: ThemeIcons{
			Pass:   "+",
			Fail:   "x",
			Warn:   "!",
			Info:   "*",
			Bullet: "-",
		},
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "dark":
		return DarkTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}

// IsThemeName reports whether name selects a built-in theme.
func IsThemeName(name string) bool {
	switch name {
	case "default", "dark", "mono":
		return true
	}
	return false
}
