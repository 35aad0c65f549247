package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mrz1836/ally/internal/browser"
)

// FakePage is an in-memory browser.Page. Hooks are optional; without them
// every call succeeds and Evaluate decodes null.
type FakePage struct {
	GotoFunc       func(ctx context.Context, url string, wait browser.WaitCondition, timeout time.Duration) error
	SetContentFunc func(ctx context.Context, html string, wait browser.WaitCondition, timeout time.Duration) error
	EvaluateFunc   func(ctx context.Context, script string) (any, error)

	mu          sync.Mutex
	url         string
	html        string
	scripts     []string
	styles      []string
	viewport    [2]int
	screenshots []string
	closed      bool
	onClose     func()
}

// Goto implements browser.Page.
func (p *FakePage) Goto(ctx context.Context, url string, wait browser.WaitCondition, timeout time.Duration) error {
	if p.GotoFunc != nil {
		if err := p.GotoFunc(ctx, url, wait, timeout); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

// SetContent implements browser.Page.
func (p *FakePage) SetContent(ctx context.Context, html string, wait browser.WaitCondition, timeout time.Duration) error {
	if p.SetContentFunc != nil {
		if err := p.SetContentFunc(ctx, html, wait, timeout); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.html = html
	p.mu.Unlock()
	return nil
}

// Evaluate implements browser.Page. The hook's return value is JSON
// round-tripped into out, like a real browser would.
func (p *FakePage) Evaluate(ctx context.Context, script string, out any) error {
	p.mu.Lock()
	p.scripts = append(p.scripts, script)
	p.mu.Unlock()

	var value any
	if p.EvaluateFunc != nil {
		v, err := p.EvaluateFunc(ctx, script)
		if err != nil {
			return err
		}
		value = v
	}
	return DecodeInto(value, out)
}

// AddStyle implements browser.Page.
func (p *FakePage) AddStyle(_ context.Context, css string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styles = append(p.styles, css)
	return nil
}

// SetViewport implements browser.Page.
func (p *FakePage) SetViewport(_ context.Context, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = [2]int{width, height}
	return nil
}

// Screenshot implements browser.Page. It writes a placeholder file.
func (p *FakePage) Screenshot(_ context.Context, path string, _ bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("PNG"), 0o600); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots = append(p.screenshots, path)
	return nil
}

// Close implements browser.Page.
func (p *FakePage) Close() error {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	onClose := p.onClose
	p.mu.Unlock()

	if !already && onClose != nil {
		onClose()
	}
	return nil
}

// URL returns the last navigated URL.
func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// HTML returns the last content set.
func (p *FakePage) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

// Scripts returns every evaluated script in call order.
func (p *FakePage) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// Styles returns every injected stylesheet.
func (p *FakePage) Styles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.styles...)
}

// Viewport returns the last viewport size.
func (p *FakePage) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport[0], p.viewport[1]
}

// Screenshots returns the written screenshot paths.
func (p *FakePage) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.screenshots...)
}

// Closed reports whether Close was called.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// DecodeInto JSON round-trips value into out. A nil out is ignored and a
// *[]byte receives the raw JSON.
func DecodeInto(value, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if b, ok := out.(*[]byte); ok {
		*b = data
		return nil
	}
	return json.Unmarshal(data, out)
}

// FakeBackend is an in-memory browser.Backend that counts lifecycle calls
// and tracks how many pages are open at once.
type FakeBackend struct {
	// LaunchErr is returned from Launch when set.
	LaunchErr error

	// NewPageFunc builds each page. Defaults to an empty FakePage.
	NewPageFunc func() *FakePage

	// NewPageErr is returned from NewPage when set.
	NewPageErr error

	mu       sync.Mutex
	launches int
	closes   int
	open     int
	peakOpen int
	pages    []*FakePage
}

// Type implements browser.Backend.
func (b *FakeBackend) Type() browser.Type { return browser.TypeChromedp }

// Launch implements browser.Backend.
func (b *FakeBackend) Launch(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.launches++
	return b.LaunchErr
}

// NewPage implements browser.Backend.
func (b *FakeBackend) NewPage(_ context.Context) (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}

	page := &FakePage{}
	if b.NewPageFunc != nil {
		page = b.NewPageFunc()
	}
	page.onClose = func() {
		b.mu.Lock()
		b.open--
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.open++
	b.peakOpen = max(b.peakOpen, b.open)
	b.pages = append(b.pages, page)
	b.mu.Unlock()
	return page, nil
}

// Close implements browser.Backend.
func (b *FakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

// Launches returns how many times Launch was called.
func (b *FakeBackend) Launches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launches
}

// Closes returns how many times Close was called.
func (b *FakeBackend) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// OpenPages returns the number of pages not yet closed.
func (b *FakeBackend) OpenPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// PeakOpenPages returns the most pages that were open at once.
func (b *FakeBackend) PeakOpenPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peakOpen
}

// Pages returns every page opened so far.
func (b *FakeBackend) Pages() []*FakePage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakePage(nil), b.pages...)
}

// Compile-time interface checks.
var (
	_ browser.Backend = (*FakeBackend)(nil)
	_ browser.Page    = (*FakePage)(nil)
)
