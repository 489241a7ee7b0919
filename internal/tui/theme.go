package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// Colors are adaptive so the TUI stays readable on light and dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted          lipgloss.TerminalColor = ac("240", "243")
	colorChromeMutedFg  lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg     lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg     lipgloss.TerminalColor = ac("235", "255")
	colorSelectedBorder lipgloss.TerminalColor = ac("232", "255")
	colorCardBorder     lipgloss.TerminalColor = ac("250", "243")
	colorSurfaceFg      lipgloss.TerminalColor = ac("235", "252")
	colorAccent         lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg       lipgloss.TerminalColor = ac("255", "235")
	colorActiveDoc      lipgloss.TerminalColor = ac("28", "114")
	colorError          lipgloss.TerminalColor = ac("160", "203")
)

func styleMuted() lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorMuted)
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
}

func styleActiveDoc() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorActiveDoc).Bold(true)
}

func styleTab(active bool) lipgloss.Style {
	if active {
		return lipgloss.NewStyle().Background(colorAccent).Foreground(colorAccentFg).Padding(0, 1)
	}
	return lipgloss.NewStyle().Foreground(colorChromeMutedFg).Padding(0, 1)
}

// applyColorProfilePreference honors NO_COLOR and otherwise follows the terminal.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if profile != termenv.Ascii && (strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit")) {
		profile = termenv.TrueColor
	}
	lipgloss.SetColorProfile(profile)
}
