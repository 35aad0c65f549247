package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// ChromedpBackend drives Chrome through chromedp.
type ChromedpBackend struct {
	opts Options

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context //nolint:containedctx // chromedp scopes the browser to a context
	browserCancel context.CancelFunc
	closed        bool
}

// NewChromedp creates an unlaunched chromedp backend.
func NewChromedp(opts Options) *ChromedpBackend {
	return &ChromedpBackend{opts: opts}
}

// Type implements Backend.
func (b *ChromedpBackend) Type() Type { return TypeChromedp }

// Launch starts Chrome. The browser lives until Close or until ctx ends.
func (b *ChromedpBackend) Launch(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return allyerrors.ErrBackendClosed
	}
	if b.browserCtx != nil {
		return nil
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !b.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if b.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if b.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	logger := b.opts.Logger.With().Str("backend", string(TypeChromedp)).Logger()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug().Msgf(format, args...)
		}),
	)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("%w: chromedp: %w", allyerrors.ErrBackendLaunchFailed, err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	logger.Debug().Msg("browser launched")
	return nil
}

// NewPage implements Backend.
func (b *ChromedpBackend) NewPage(_ context.Context) (Page, error) {
	b.mu.Lock()
	browserCtx := b.browserCtx
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return nil, allyerrors.ErrBackendClosed
	}
	if browserCtx == nil {
		return nil, fmt.Errorf("%w: chromedp: not launched", allyerrors.ErrBackendLaunchFailed)
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	// The first Run on a tab context creates the target; it must not carry a
	// timeout or the tab is torn down when the timeout fires.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel, evalTimeout: b.opts.EvalTimeout}, nil
}

// Close implements Backend.
func (b *ChromedpBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}

type chromedpPage struct {
	ctx         context.Context //nolint:containedctx // chromedp scopes a tab to a context
	cancel      context.CancelFunc
	evalTimeout time.Duration
	once        sync.Once
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *chromedpPage) run(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return timeoutError(op, timeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *chromedpPage) Goto(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error {
	var actions []chromedp.Action
	switch wait {
	case WaitDOMContentLoaded:
		actions = append(actions, navigateNoWait(url), waitReadyState(`document.readyState !== "loading"`))
	case WaitNetworkIdle:
		actions = append(actions, chromedp.Navigate(url), chromedp.Sleep(networkIdleQuiet))
	default:
		actions = append(actions, chromedp.Navigate(url))
	}
	return p.run(ctx, "goto "+url, timeout, actions...)
}

func (p *chromedpPage) SetContent(ctx context.Context, html string, wait WaitCondition, timeout time.Duration) error {
	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
	}
	switch wait {
	case WaitDOMContentLoaded:
		actions = append(actions, waitReadyState(`document.readyState !== "loading"`))
	case WaitNetworkIdle:
		actions = append(actions, waitReadyState(`document.readyState === "complete"`), chromedp.Sleep(networkIdleQuiet))
	default:
		actions = append(actions, waitReadyState(`document.readyState === "complete"`))
	}
	return p.run(ctx, "set content", timeout, actions...)
}

func (p *chromedpPage) Evaluate(ctx context.Context, script string, out any) error {
	var raw []byte
	err := p.run(ctx, "evaluate", p.evalTimeout, chromedp.Evaluate(script, &raw, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}))
	if err != nil {
		return err
	}
	return decodeJSON(raw, out)
}

func (p *chromedpPage) AddStyle(ctx context.Context, css string) error {
	return p.Evaluate(ctx, addStyleScript(css), nil)
}

func (p *chromedpPage) SetViewport(ctx context.Context, width, height int) error {
	return p.run(ctx, "set viewport", 0, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (p *chromedpPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, "screenshot", 0, action); err != nil {
		return err
	}
	return writeScreenshot(path, buf)
}

func (p *chromedpPage) Close() error {
	p.once.Do(p.cancel)
	return nil
}

// navigateNoWait issues the navigation without waiting for the load event.
func navigateNoWait(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return fmt.Errorf("page load error %s", errText)
		}
		return nil
	})
}

func waitReadyState(predicate string) chromedp.Action {
	return chromedp.Poll(predicate, nil, chromedp.WithPollingInterval(50*time.Millisecond), chromedp.WithPollingTimeout(0))
}

// addStyleScript builds an expression that appends a <style> element.
func addStyleScript(css string) string {
	lit, _ := json.Marshal(css) //nolint:errchkjson // strings always marshal
	return fmt.Sprintf(`(() => {
  const style = document.createElement("style");
  style.textContent = %s;
  (document.head || document.documentElement).appendChild(style);
  return true;
})()`, lit)
}

// decodeJSON stores raw into out: verbatim for *[]byte, decoded otherwise.
func decodeJSON(raw []byte, out any) error {
	switch o := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*o = raw
		return nil
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode evaluation result: %w", err)
	}
	return nil
}

func writeScreenshot(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Backend = (*ChromedpBackend)(nil)
	_ Page    = (*chromedpPage)(nil)
)
