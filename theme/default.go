package theme

import (
	"github.com/pterm/pterm"
)

// Theme defines the colour scheme used by the terminal logger and CLI tables
type Theme struct {
	Info  *pterm.Style
	Muted *pterm.Style

	// Instance pool colours
	Endpoint  pterm.Color
	Provider  pterm.Color
	Counts    pterm.Color
	Available pterm.Color
	Cooldown  pterm.Color
}

// Default returns the default application theme
func Default() *Theme {
	return &Theme{
		Info:  pterm.NewStyle(pterm.FgGreen),
		Muted: pterm.NewStyle(pterm.FgGray),

		Endpoint:  pterm.FgCyan,
		Provider:  pterm.FgMagenta,
		Counts:    pterm.FgLightYellow,
		Available: pterm.FgGreen,
		Cooldown:  pterm.FgRed,
	}
}

// Mono keeps the terminal's own foreground for everything, for light
// backgrounds and screen readers
func Mono() *Theme {
	return &Theme{
		Info:  pterm.NewStyle(pterm.FgDefault),
		Muted: pterm.NewStyle(pterm.FgDefault),

		Endpoint:  pterm.FgDefault,
		Provider:  pterm.FgDefault,
		Counts:    pterm.FgDefault,
		Available: pterm.FgDefault,
		Cooldown:  pterm.FgDefault,
	}
}

// GetTheme returns the theme registered under name, falling back to the default
func GetTheme(name string) *Theme {
	if name == "mono" {
		return Mono()
	}
	return Default()
}

// ColourSplash colours the banner printed on startup
func ColourSplash(message ...any) string {
	return pterm.LightGreen(message...)
}

// ColourVersion colours version numbers on the banner
func ColourVersion(message ...any) string {
	return pterm.LightYellow(message...)
}

// StyleUrl colours URLs and hyperlinks
func StyleUrl(message ...any) string {
	return pterm.LightBlue(message...)
}

// Hyperlink creates a hyperlink in the terminal
func Hyperlink(uri string, text string) string {
	return "\x1b]8;;" + uri + "\x07" + text + "\x1b]8;;\x07" + "\u001b[0m"
}
