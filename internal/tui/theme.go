package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on light and dark backgrounds, so colors are adaptive.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorDone       lipgloss.TerminalColor = ac("28", "71")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorDragBg     lipgloss.TerminalColor = ac("153", "24")
)

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	done     lipgloss.Style
	selected lipgloss.Style
	dragged  lipgloss.Style
	notice   lipgloss.Style
	errorMsg lipgloss.Style
	input    lipgloss.Style
}

func newStyles() styles {
	muted := lipgloss.NewStyle().Foreground(colorMuted)
	if lipgloss.HasDarkBackground() {
		// Faint text on light terminals often becomes illegible.
		muted = muted.Faint(true)
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		muted:    muted,
		done:     lipgloss.NewStyle().Foreground(colorDone),
		selected: lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg),
		dragged:  lipgloss.NewStyle().Background(colorDragBg).Bold(true),
		notice:   lipgloss.NewStyle().Foreground(colorDone),
		errorMsg: lipgloss.NewStyle().Foreground(colorError).Bold(true),
		input:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// termenv.EnvColorProfile honors CLICOLOR/CLICOLOR_FORCE, which can disable colors in a
// TUI by accident, so only NO_COLOR and the theme "none" force plain output here.
func applyColorProfilePreference(theme string) {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || theme == "none" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	// Trust TERM/COLORTERM when they claim more than the detector reports.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference pins the background variant used by adaptive colors.
// "auto" keeps Lip Gloss's own detection.
func applyThemePreference(theme string) {
	switch theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
}
