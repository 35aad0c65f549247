// Package tui provides terminal output components for ally.
//
// This package provides a centralized style system using Lip Gloss for consistent
// styling. All colors use AdaptiveColor for light/dark terminal support.
//
// # Semantic Colors
//
// Five semantic colors are exported for use across components:
//   - ColorPrimary (Blue): headings, links, progress
//   - ColorSuccess (Green): passing scores, completed scans
//   - ColorWarning (Yellow): middling scores, moderate issues
//   - ColorError (Red): failing scores, critical issues
//   - ColorMuted (Gray): secondary text
//
// # NO_COLOR Support
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR environment
// variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/ally/internal/domain"
)

//nolint:gochecknoglobals // Intentional package-level constants for styling API
var (
	// ColorPrimary is blue, used for headings, links, and progress.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for passing scores.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for attention-required items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for failures and critical issues.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim/faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// Score thresholds for coloring.
const (
	ScoreGood = 90
	ScoreFair = 70
)

// SeverityColors returns the color for each violation severity.
func SeverityColors() map[domain.Severity]lipgloss.AdaptiveColor {
	return map[domain.Severity]lipgloss.AdaptiveColor{
		domain.SeverityCritical: ColorError,
		domain.SeveritySerious:  {Light: "#D75F00", Dark: "#FF8700"}, // Orange
		domain.SeverityModerate: ColorWarning,
		domain.SeverityMinor:    ColorMuted,
	}
}

// SeverityIcon returns the icon shown next to a severity.
func SeverityIcon(sev domain.Severity) string {
	switch sev {
	case domain.SeverityCritical:
		return "✗"
	case domain.SeveritySerious:
		return "▲"
	case domain.SeverityModerate:
		return "⚠"
	default:
		return "·"
	}
}

// SeverityLabel returns the title-cased severity name, e.g. "Critical".
func SeverityLabel(sev domain.Severity) string {
	return cases.Title(language.English).String(string(sev))
}

// RenderSeverity returns the icon and label in the severity's color.
func RenderSeverity(sev domain.Severity) string {
	style := lipgloss.NewStyle().Foreground(SeverityColors()[sev])
	return style.Render(SeverityIcon(sev) + " " + SeverityLabel(sev))
}

// ScoreColor returns the color for a score.
func ScoreColor(score int) lipgloss.AdaptiveColor {
	switch {
	case score >= ScoreGood:
		return ColorSuccess
	case score >= ScoreFair:
		return ColorWarning
	default:
		return ColorError
	}
}

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or TERM=dumb.
// This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
