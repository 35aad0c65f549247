package scan_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/cache"
	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/engine"
	"github.com/mrz1836/ally/internal/report"
	"github.com/mrz1836/ally/internal/retry"
	"github.com/mrz1836/ally/internal/scan"
	"github.com/mrz1836/ally/internal/testutil"
)

func cleanPages(t *testing.T, n int) []domain.Target {
	t.Helper()
	dir := t.TempDir()
	targets := make([]domain.Target, 0, n)
	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.html", i))
		require.NoError(t, os.WriteFile(path, []byte(`<html lang="en"><title>ok</title></html>`), 0o600))
		target, err := domain.NewFileTarget(path)
		require.NoError(t, err)
		targets = append(targets, target)
	}
	return targets
}

func scenarioOptions(std domain.Standard, batchSize int) scan.Options {
	return scan.Options{
		BatchSize: batchSize,
		Standard:  std,
		Timeout:   time.Second,
		Wait:      browser.WaitLoad,
		Retry:     retry.Policy{MaxRetries: 1, BaseDelay: time.Millisecond},
		UseCache:  true,
		Clock:     clock.Fixed(time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)),
		Logger:    zerolog.Nop(),
	}
}

func TestScanAll_CleanPagesReportFullScore(t *testing.T) {
	targets := cleanPages(t, 3)
	backend := &testutil.FakeBackend{}
	invoker := &testutil.FakeInvoker{RunFunc: func(context.Context, browser.Page, []string) (*engine.Result, error) {
		return &engine.Result{Passes: 7}, nil
	}}

	outcome, err := scan.New(backend, invoker, nil, scenarioOptions(domain.StandardAA, 2)).
		ScanAll(context.Background(), targets)
	require.NoError(t, err)

	rep := report.Build(outcome, domain.StandardAA, clock.Fixed(time.Date(2026, 5, 1, 9, 31, 0, 0, time.UTC)))
	assert.Equal(t, 100, rep.Summary.Score)
	assert.Zero(t, rep.Summary.TotalViolations)
	assert.Len(t, rep.Results, 3)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, 3, rep.TotalFiles)
	assert.Equal(t, domain.StandardAA, rep.Standard)
	assert.Equal(t, 3, invoker.Calls())
	assert.Equal(t, 1, backend.Launches())
	assert.LessOrEqual(t, backend.PeakOpenPages(), 2)
	for _, tags := range invoker.Tags() {
		assert.Equal(t, domain.StandardAA.Tags(), tags)
	}
}

func TestScanAll_StricterStandardMissesCachedResult(t *testing.T) {
	ctx := context.Background()
	targets := cleanPages(t, 1)
	c := cache.New(cache.NewFileStore(filepath.Join(t.TempDir(), "cache")), cache.Options{Logger: zerolog.Nop()})

	aaInvoker := &testutil.FakeInvoker{}
	_, err := scan.New(&testutil.FakeBackend{}, aaInvoker, c, scenarioOptions(domain.StandardAA, 4)).ScanAll(ctx, targets)
	require.NoError(t, err)
	require.Equal(t, 1, aaInvoker.Calls())

	aaaBackend := &testutil.FakeBackend{}
	aaaInvoker := &testutil.FakeInvoker{}
	outcome, err := scan.New(aaaBackend, aaaInvoker, c, scenarioOptions(domain.StandardAAA, 4)).ScanAll(ctx, targets)
	require.NoError(t, err)

	assert.Equal(t, 1, aaaInvoker.Calls(), "an AA result never answers an AAA request")
	require.Len(t, aaaInvoker.Tags(), 1)
	assert.Equal(t, domain.StandardAAA.Tags(), aaaInvoker.Tags()[0])
	assert.Equal(t, 1, aaaBackend.Launches())
	assert.Zero(t, outcome.CacheHits)
	assert.Equal(t, 1, outcome.CacheMisses)

	rep := report.Build(outcome, domain.StandardAAA, nil)
	assert.Equal(t, domain.StandardAAA, rep.Standard)
	assert.Len(t, rep.Results, 1)

	// The AA record is still there for AA runs.
	againInvoker := &testutil.FakeInvoker{}
	again, err := scan.New(&testutil.FakeBackend{}, againInvoker, c, scenarioOptions(domain.StandardAA, 4)).ScanAll(ctx, targets)
	require.NoError(t, err)
	assert.Zero(t, againInvoker.Calls())
	assert.Equal(t, 1, again.CacheHits)
}
