package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// ProgressBar wraps the charmbracelet/bubbles progress bar with ally styling.
// Supports adaptive width and NO_COLOR compatibility.
type ProgressBar struct {
	bar   progress.Model
	width int
}

// NewProgressBar creates a new progress bar.
// Uses a ColorPrimary gradient, or a solid fill in NO_COLOR mode.
func NewProgressBar(width int) *ProgressBar {
	var bar progress.Model
	if HasColorSupport() {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithScaledGradient("#0087AF", "#00D7FF"),
			progress.WithoutPercentage(),
		)
	} else {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithSolidFill("#808080"),
			progress.WithoutPercentage(),
		)
	}
	return &ProgressBar{bar: bar, width: width}
}

// Render returns the progress bar for the given fraction (0.0-1.0).
// Uses ViewAs for static rendering (no animation).
func (pb *ProgressBar) Render(percent float64) string {
	percent = min(max(percent, 0), 1)
	return pb.bar.ViewAs(percent)
}

// Width returns the current width of the progress bar.
func (pb *ProgressBar) Width() int {
	return pb.width
}

// FormatCounter formats progress as "current/total" (e.g., "3/7").
func FormatCounter(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}

// ScanProgress prints one update per finished target. On a terminal it
// redraws a single bar line; elsewhere it prints one plain line per target.
type ScanProgress struct {
	w           io.Writer
	interactive bool
	bar         *ProgressBar
	styles      *OutputStyles
	labelWidth  int
}

// barWidth is the width of the inline progress bar.
const barWidth = 30

// NewScanProgress creates a ScanProgress writing to w.
func NewScanProgress(w io.Writer) *ScanProgress {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
	}
	return &ScanProgress{
		w:           w,
		interactive: interactive,
		bar:         NewProgressBar(barWidth),
		styles:      NewOutputStyles(),
		labelWidth:  max(detectTerminalWidth(w)-barWidth-16, MinColumnWidth),
	}
}

// Update reports a finished target.
func (p *ScanProgress) Update(completed, total int, label string, cached bool, err error) {
	status := p.styles.Success.Render("✓")
	switch {
	case err != nil:
		status = p.styles.Error.Render("✗")
	case cached:
		status = p.styles.Dim.Render("≡")
	}

	if !p.interactive {
		line := fmt.Sprintf("[%s] %s %s", FormatCounter(completed, total), status, label)
		if err != nil {
			line += p.styles.Dim.Render(": " + err.Error())
		}
		_, _ = fmt.Fprintln(p.w, line)
		return
	}

	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total)
	}
	label = runewidth.Truncate(label, p.labelWidth, "…")
	_, _ = fmt.Fprintf(p.w, "\r\033[K%s %s %s %s",
		p.bar.Render(percent), FormatCounter(completed, total), status, label)
}

// Done ends the progress line.
func (p *ScanProgress) Done() {
	if p.interactive {
		_, _ = fmt.Fprintln(p.w)
	}
}
