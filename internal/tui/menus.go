package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// terminalCheck reports whether stdin is interactive. It can be overridden in tests.
//
//nolint:gochecknoglobals // Required for test mocking
var terminalCheck = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

// IsInteractive reports whether prompts can be shown.
func IsInteractive() bool {
	return terminalCheck()
}

// AllyTheme returns a Huh theme using the colors from styles.go.
func AllyTheme() *huh.Theme {
	CheckNoColor()

	t := huh.ThemeBase()
	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(ColorPrimary)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	return t
}

// Confirm presents a yes/no prompt. Without a terminal it returns
// ErrInteractiveRequired; Esc or Ctrl+C returns ErrMenuCanceled.
func Confirm(message string, defaultYes bool) (bool, error) {
	if !terminalCheck() {
		return false, allyerrors.ErrInteractiveRequired
	}

	confirmed := defaultYes
	field := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(AllyTheme()).
		WithShowHelp(false)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, allyerrors.ErrMenuCanceled
		}
		return false, fmt.Errorf("confirm prompt failed: %w", err)
	}
	return confirmed, nil
}
