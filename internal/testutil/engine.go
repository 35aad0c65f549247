package testutil

import (
	"context"
	"sync"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/engine"
)

// FakeInvoker is an engine.Invoker that delegates to RunFunc and records calls.
type FakeInvoker struct {
	RunFunc func(ctx context.Context, page browser.Page, tags []string) (*engine.Result, error)

	mu    sync.Mutex
	calls int
	tags  [][]string
}

// Run implements engine.Invoker.
func (f *FakeInvoker) Run(ctx context.Context, page browser.Page, tags []string) (*engine.Result, error) {
	f.mu.Lock()
	f.calls++
	f.tags = append(f.tags, append([]string(nil), tags...))
	f.mu.Unlock()

	if f.RunFunc != nil {
		return f.RunFunc(ctx, page, tags)
	}
	return &engine.Result{}, nil
}

// Calls returns how many times Run was called.
func (f *FakeInvoker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Tags returns the tag sets passed to each call.
func (f *FakeInvoker) Tags() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.tags...)
}

// PageKey returns the URL a FakePage navigated to, or its content for
// SetContent loads. Invoker fakes use it to vary results per target.
func PageKey(page browser.Page) string {
	fp, ok := page.(*FakePage)
	if !ok {
		return ""
	}
	if u := fp.URL(); u != "" {
		return u
	}
	return fp.HTML()
}

// Compile-time check that FakeInvoker implements engine.Invoker.
var _ engine.Invoker = (*FakeInvoker)(nil)
