// Package browser adapts headless browser engines to a single Backend/Page
// contract used by the scan pipeline.
//
// Two engines are provided: chromedp (the default) and rod. Both drive a
// Chrome/Chromium binary over the DevTools protocol. The concrete engine is
// chosen once, at construction time, through New or a Registry.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// Type identifies a browser backend implementation.
type Type string

// Backend types.
const (
	TypeChromedp Type = "chromedp"
	TypeRod      Type = "rod"
)

// String returns the string representation of the Type.
func (t Type) String() string {
	return string(t)
}

// ParseType resolves a backend name. Empty selects chromedp.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeChromedp:
		return TypeChromedp, nil
	case TypeRod:
		return TypeRod, nil
	default:
		return "", allyerrors.Detail(allyerrors.ErrUnknownBackend, s)
	}
}

// Backend owns one browser process. It is launched once and closed once per
// scan run; pages opened from it may be used concurrently.
type Backend interface {
	// Launch starts the browser. A missing dependency is reported as
	// *NotInstalledError; other failures wrap ErrBackendLaunchFailed.
	Launch(ctx context.Context) error

	// NewPage opens a fresh tab.
	NewPage(ctx context.Context) (Page, error)

	// Close shuts the browser down. It is safe to call more than once.
	Close() error

	// Type reports which engine this is.
	Type() Type
}

// Page is one browser tab.
type Page interface {
	// Goto navigates to url and waits for the given condition. timeout bounds
	// the navigation and the wait together.
	Goto(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error

	// SetContent replaces the document with html and waits for the given condition.
	SetContent(ctx context.Context, html string, wait WaitCondition, timeout time.Duration) error

	// Evaluate runs a JavaScript expression, awaits it if it is a promise, and
	// decodes the JSON value into out. out may be nil or a *[]byte for raw JSON.
	Evaluate(ctx context.Context, script string, out any) error

	// AddStyle injects a stylesheet into the current document.
	AddStyle(ctx context.Context, css string) error

	// SetViewport sets the page size in CSS pixels.
	SetViewport(ctx context.Context, width, height int) error

	// Screenshot writes a PNG to path.
	Screenshot(ctx context.Context, path string, fullPage bool) error

	// Close closes the tab.
	Close() error
}

// Options configures a backend.
type Options struct {
	// ExecPath points at a Chrome/Chromium binary. Empty means auto-detect.
	ExecPath string

	// Headless runs without a window.
	Headless bool

	// NoSandbox disables the Chrome sandbox.
	NoSandbox bool

	// Download lets the rod backend fetch a browser when none is found.
	Download bool

	// EvalTimeout bounds each Evaluate call, including a rule engine run.
	// Zero means no bound.
	EvalTimeout time.Duration

	Logger zerolog.Logger
}

// DefaultOptions returns headless options with a disabled logger.
func DefaultOptions() Options {
	return Options{Headless: true, Logger: zerolog.Nop()}
}

// DisableAnimationsCSS stops CSS animations and transitions so scans see a
// settled layout.
const DisableAnimationsCSS = `*, *::before, *::after {
  animation-duration: 0s !important;
  animation-delay: 0s !important;
  transition-duration: 0s !important;
  transition-delay: 0s !important;
  scroll-behavior: auto !important;
}`

// timeoutError marks a wait that ran out of time. Its message carries
// "timeout" so retry classification treats it as transient.
func timeoutError(op string, d time.Duration, cause error) error {
	return fmt.Errorf("%s: timeout after %s: %w", op, d, cause)
}
