package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// lookPath finds a locally installed browser. Overridable in tests.
//
//nolint:gochecknoglobals // Required for test mocking
var lookPath = launcher.LookPath

// rodInstallHint is shown when no browser binary can be found.
const rodInstallHint = "install Chrome or Chromium, set browser.exec_path, enable browser.download, or use --browser chromedp"

// RodBackend drives Chrome through go-rod.
type RodBackend struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

// NewRod creates an unlaunched rod backend.
func NewRod(opts Options) *RodBackend {
	return &RodBackend{opts: opts}
}

// Type implements Backend.
func (b *RodBackend) Type() Type { return TypeRod }

// resolveBin returns the browser binary to launch. An empty result with a nil
// error means rod should download one.
func (b *RodBackend) resolveBin() (string, error) {
	if b.opts.ExecPath != "" {
		if _, err := os.Stat(b.opts.ExecPath); err != nil {
			return "", &NotInstalledError{
				Backend:     TypeRod,
				Dependency:  "browser binary at " + b.opts.ExecPath,
				InstallHint: rodInstallHint,
			}
		}
		return b.opts.ExecPath, nil
	}
	if path, ok := lookPath(); ok {
		return path, nil
	}
	if b.opts.Download {
		return "", nil
	}
	return "", &NotInstalledError{
		Backend:     TypeRod,
		Dependency:  "Chrome or Chromium",
		InstallHint: rodInstallHint,
	}
}

// Launch implements Backend.
func (b *RodBackend) Launch(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return allyerrors.ErrBackendClosed
	}
	if b.browser != nil {
		return nil
	}

	bin, err := b.resolveBin()
	if err != nil {
		return err
	}

	l := launcher.New().
		Context(ctx).
		Headless(b.opts.Headless).
		NoSandbox(b.opts.NoSandbox).
		Leakless(false)
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: rod: %w", allyerrors.ErrBackendLaunchFailed, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: rod: connect: %w", allyerrors.ErrBackendLaunchFailed, err)
	}

	b.launcher = l
	b.browser = browser
	b.opts.Logger.Debug().Str("backend", string(TypeRod)).Str("bin", bin).Msg("browser launched")
	return nil
}

// NewPage implements Backend.
func (b *RodBackend) NewPage(_ context.Context) (Page, error) {
	b.mu.Lock()
	browser := b.browser
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return nil, allyerrors.ErrBackendClosed
	}
	if browser == nil {
		return nil, fmt.Errorf("%w: rod: not launched", allyerrors.ErrBackendLaunchFailed)
	}

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &rodPage{page: p, evalTimeout: b.opts.EvalTimeout}, nil
}

// Close implements Backend.
func (b *RodBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	if err != nil {
		return fmt.Errorf("close rod browser: %w", err)
	}
	return nil
}

type rodPage struct {
	page        *rod.Page
	evalTimeout time.Duration
	once        sync.Once
	err         error
}

// scoped returns the page bound to ctx and, when timeout is set, a deadline.
// The returned release func frees the deadline's timer and must be called.
func (p *rodPage) scoped(ctx context.Context, timeout time.Duration) (*rod.Page, func()) {
	scoped := p.page.Context(ctx)
	if timeout <= 0 {
		return scoped, func() {}
	}
	scoped = scoped.Timeout(timeout)
	return scoped, func() { scoped.CancelTimeout() }
}

// unscoped returns the page bound to ctx with no deadline.
func (p *rodPage) unscoped(ctx context.Context) *rod.Page {
	return p.page.Context(ctx)
}

// wrap normalizes rod errors: caller cancellation wins, then deadlines.
func wrap(ctx context.Context, op string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(op, timeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// awaitEvent blocks on a rod event waiter. Waiters return without an error
// when the page context ends, so a deadline that fired first is reported as
// the context's error instead of a settled page.
func awaitEvent(ctx context.Context, waitFn func()) error {
	waitFn()
	return ctx.Err()
}

// wait navigates and blocks until the condition holds.
func (p *rodPage) wait(page *rod.Page, wait WaitCondition, navigate func() error) error {
	switch wait {
	case WaitDOMContentLoaded:
		waitDOM := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
		if err := navigate(); err != nil {
			return err
		}
		return awaitEvent(page.GetContext(), waitDOM)
	case WaitNetworkIdle:
		waitIdle := page.WaitRequestIdle(networkIdleQuiet, nil, nil, nil)
		if err := navigate(); err != nil {
			return err
		}
		if err := awaitEvent(page.GetContext(), waitIdle); err != nil {
			return err
		}
		return page.WaitLoad()
	default:
		if err := navigate(); err != nil {
			return err
		}
		return page.WaitLoad()
	}
}

func (p *rodPage) Goto(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error {
	page, release := p.scoped(ctx, timeout)
	defer release()
	err := p.wait(page, wait, func() error { return page.Navigate(url) })
	return wrap(ctx, "goto "+url, timeout, err)
}

func (p *rodPage) SetContent(ctx context.Context, html string, wait WaitCondition, timeout time.Duration) error {
	page, release := p.scoped(ctx, timeout)
	defer release()
	if err := page.Navigate("about:blank"); err != nil {
		return wrap(ctx, "set content", timeout, err)
	}
	if err := page.WaitLoad(); err != nil {
		return wrap(ctx, "set content", timeout, err)
	}
	err := page.SetDocumentContent(html)
	if err == nil {
		switch wait {
		case WaitDOMContentLoaded:
		case WaitNetworkIdle:
			if err = page.WaitLoad(); err == nil {
				err = awaitEvent(page.GetContext(), page.WaitRequestIdle(networkIdleQuiet, nil, nil, nil))
			}
		default:
			err = page.WaitLoad()
		}
	}
	return wrap(ctx, "set content", timeout, err)
}

func (p *rodPage) Evaluate(ctx context.Context, script string, out any) error {
	page, release := p.scoped(ctx, p.evalTimeout)
	defer release()
	res, err := page.Evaluate(rod.Eval("() => (" + script + ")").ByPromise())
	if err != nil {
		return wrap(ctx, "evaluate", p.evalTimeout, err)
	}
	if b, ok := out.(*[]byte); ok {
		*b = []byte(res.Value.JSON("", ""))
		return nil
	}
	return decodeJSON([]byte(res.Value.JSON("", "")), out)
}

func (p *rodPage) AddStyle(ctx context.Context, css string) error {
	return wrap(ctx, "add style", 0, p.unscoped(ctx).AddStyleTag("", css))
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	err := p.unscoped(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
	return wrap(ctx, "set viewport", 0, err)
}

func (p *rodPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	data, err := p.unscoped(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return wrap(ctx, "screenshot", 0, err)
	}
	return writeScreenshot(path, data)
}

func (p *rodPage) Close() error {
	p.once.Do(func() { p.err = p.page.Close() })
	return p.err
}

// Compile-time interface checks.
var (
	_ Backend = (*RodBackend)(nil)
	_ Page    = (*rodPage)(nil)
)
