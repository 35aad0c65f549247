// Package scan schedules accessibility scans over a set of targets.
//
// A Scanner serves unchanged targets from the cache, launches one browser for
// the rest, and scans them in fixed-size chunks. Chunks run one after another;
// the targets inside a chunk run concurrently, so at most BatchSize pages are
// open at once. A failing target is recorded and never stops its siblings.
//
// Import rules:
//   - CAN import: internal/browser, internal/engine, internal/cache,
//     internal/retry, internal/metrics, internal/domain, internal/errors
//   - MUST NOT import: internal/cli, internal/report, internal/tui
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/cache"
	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/engine"
	allyerrors "github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/logging"
	"github.com/mrz1836/ally/internal/metrics"
	"github.com/mrz1836/ally/internal/retry"
)

// Options configures a Scanner.
type Options struct {
	// BatchSize is the number of targets scanned concurrently. Values below 1
	// fall back to constants.DefaultBatchSize.
	BatchSize int

	// Standard selects the rule tags passed to the engine.
	Standard domain.Standard

	// Timeout bounds each navigation and its wait condition.
	Timeout time.Duration

	// Wait is the readiness condition every page load waits for.
	Wait browser.WaitCondition

	// Retry applies to each target individually.
	Retry retry.Policy

	// UseCache enables cache lookups and writes. It has no effect without a cache.
	UseCache bool

	ViewportWidth  int
	ViewportHeight int

	// DisableAnimations injects browser.DisableAnimationsCSS after each load.
	DisableAnimations bool

	// ScreenshotDir receives a full-page PNG for every target with violations.
	ScreenshotDir string

	// RateLimit caps URL page loads per second. Zero means unlimited.
	RateLimit float64

	Metrics *metrics.Recorder
	Clock   clock.Clock
	Logger  zerolog.Logger
}

// ProgressEvent reports one finished target.
type ProgressEvent struct {
	// Completed counts finished targets, including this one.
	Completed int
	Total     int

	Target string
	Label  string

	// CacheHit is set when the result came from the cache.
	CacheHit bool

	// Err is set when the target failed.
	Err error
}

// Scanner runs scans. It holds no per-run state and can start several runs
// over its lifetime, though the backend is launched and closed by each.
type Scanner struct {
	backend browser.Backend
	invoker engine.Invoker
	cache   *cache.Cache
	opts    Options
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Scanner. cache may be nil to disable caching.
func New(backend browser.Backend, invoker engine.Invoker, c *cache.Cache, opts Options) *Scanner {
	if opts.BatchSize < 1 {
		opts.BatchSize = constants.DefaultBatchSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultScanTimeout
	}
	if opts.Wait == "" {
		opts.Wait = browser.WaitLoad
	}
	if opts.Standard == "" {
		opts.Standard = domain.Standard(constants.DefaultStandard)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	s := &Scanner{
		backend: backend,
		invoker: invoker,
		cache:   c,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "scan").Logger(),
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return s
}

// Run is one scan in progress.
type Run struct {
	progress chan ProgressEvent
	done     chan struct{}
	state    atomic.Int32
	total    int

	outcome *domain.BatchOutcome
	err     error
}

// Progress returns the event stream. Every target produces exactly one event.
// The channel is buffered for all of them and closed when the run ends, so
// callers may ignore it.
func (r *Run) Progress() <-chan ProgressEvent {
	return r.progress
}

// Wait blocks until the run ends. The outcome is nil only when err is set.
func (r *Run) Wait() (*domain.BatchOutcome, error) {
	<-r.done
	return r.outcome, r.err
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	return State(r.state.Load())
}

// Total returns the number of targets in the run.
func (r *Run) Total() int {
	return r.total
}

func (r *Run) setState(s State) {
	r.state.Store(int32(s))
}

func (r *Run) fail(err error) {
	r.err = err
	r.setState(StateFailed)
}

// Start begins scanning targets in the background.
func (s *Scanner) Start(ctx context.Context, targets []domain.Target) *Run {
	r := &Run{
		progress: make(chan ProgressEvent, len(targets)),
		done:     make(chan struct{}),
		total:    len(targets),
	}
	go s.execute(ctx, r, targets)
	return r
}

// ScanAll runs a scan to completion, discarding progress events.
func (s *Scanner) ScanAll(ctx context.Context, targets []domain.Target) (*domain.BatchOutcome, error) {
	r := s.Start(ctx, targets)
	for range r.Progress() {
	}
	return r.Wait()
}

// slot holds one target's result until aggregation.
type slot struct {
	result  *domain.ScanResult
	failure *domain.Failure
}

func (s *Scanner) execute(ctx context.Context, r *Run, targets []domain.Target) {
	defer close(r.done)
	defer close(r.progress)

	if len(targets) == 0 {
		r.fail(allyerrors.ErrNoTargets)
		return
	}
	if err := ctxutil.Canceled(ctx); err != nil {
		r.fail(err)
		return
	}

	outcome := &domain.BatchOutcome{
		Results:  make([]domain.ScanResult, 0, len(targets)),
		Failures: []domain.Failure{},
	}
	// emit increments and sends under one lock so events arrive in order.
	// The channel holds one slot per target, so the send never blocks.
	var (
		emitMu    sync.Mutex
		completed int
	)
	emit := func(t domain.Target, hit bool, err error) {
		emitMu.Lock()
		defer emitMu.Unlock()
		completed++
		r.progress <- ProgressEvent{
			Completed: completed,
			Total:     len(targets),
			Target:    t.ID,
			Label:     t.Label(),
			CacheHit:  hit,
			Err:       err,
		}
	}

	misses := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		if !s.cacheEnabled() {
			misses = append(misses, t)
			continue
		}
		if res, ok := s.cache.Get(ctx, t, s.opts.Standard); ok {
			outcome.Results = append(outcome.Results, *res)
			outcome.CacheHits++
			emit(t, true, nil)
			continue
		}
		outcome.CacheMisses++
		misses = append(misses, t)
	}

	s.logger.Info().
		Int("targets", len(targets)).
		Int("cached", outcome.CacheHits).
		Int("batch_size", s.opts.BatchSize).
		Str("standard", s.opts.Standard.String()).
		Msg("scan started")

	var scanned []slot
	if len(misses) > 0 {
		r.setState(StateLaunching)
		if err := s.backend.Launch(ctx); err != nil {
			if closeErr := s.backend.Close(); closeErr != nil {
				s.logger.Debug().Err(closeErr).Msg("close after failed launch")
			}
			r.fail(err)
			return
		}
		s.opts.Metrics.BackendLaunched(s.backend.Type().String())

		r.setState(StateScanning)
		scanned = make([]slot, 0, len(misses))
		for _, chunk := range chunks(misses, s.opts.BatchSize) {
			scanned = append(scanned, s.scanChunk(ctx, chunk, emit)...)
		}

		if err := s.backend.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("browser close failed")
		}
	}

	r.setState(StateAggregating)
	for _, sl := range scanned {
		if sl.failure != nil {
			outcome.Failures = append(outcome.Failures, *sl.failure)
			continue
		}
		outcome.Results = append(outcome.Results, *sl.result)
	}

	s.logger.Info().
		Int("succeeded", len(outcome.Results)).
		Int("failed", len(outcome.Failures)).
		Msg("scan finished")

	r.outcome = outcome
	r.setState(StateDone)
}

// scanChunk scans every target of chunk concurrently and returns their slots
// in chunk order. Goroutines never return an error so one failure cannot
// cancel its siblings.
func (s *Scanner) scanChunk(ctx context.Context, chunk []domain.Target, emit func(domain.Target, bool, error)) []slot {
	slots := make([]slot, len(chunk))

	var g errgroup.Group
	for i, t := range chunk {
		g.Go(func() error {
			start := time.Now()
			result, err := s.scanWithRetry(ctx, t)
			if err != nil {
				s.opts.Metrics.TargetScanned(string(t.Kind), metrics.OutcomeFailure, time.Since(start))
				s.logger.Warn().Err(err).Str("target", logging.SafeURL(t.ID)).Msg("target failed")
				slots[i] = slot{failure: &domain.Failure{Target: t.ID, Error: logging.FilterSensitiveValue(err.Error())}}
				emit(t, false, err)
				return nil
			}

			s.opts.Metrics.TargetScanned(string(t.Kind), metrics.OutcomeSuccess, time.Since(start))
			if s.cacheEnabled() {
				s.cache.Put(ctx, t, s.opts.Standard, *result)
			}
			slots[i] = slot{result: result}
			emit(t, false, nil)
			return nil
		})
	}
	_ = g.Wait()

	return slots
}

func (s *Scanner) scanWithRetry(ctx context.Context, t domain.Target) (*domain.ScanResult, error) {
	op := func(ctx context.Context, _ int) (*domain.ScanResult, error) {
		return s.scanOne(ctx, t)
	}
	onRetry := func(attempt int, err error, delay time.Duration) {
		s.opts.Metrics.Retry()
		s.logger.Debug().
			Err(err).
			Str("target", logging.SafeURL(t.ID)).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying target")
	}
	return retry.Do(ctx, op, s.opts.Retry, onRetry)
}

// scanOne runs one attempt against a fresh page.
func (s *Scanner) scanOne(ctx context.Context, t domain.Target) (*domain.ScanResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	page, err := s.backend.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			s.logger.Debug().Err(closeErr).Msg("page close failed")
		}
	}()

	if s.opts.ViewportWidth > 0 && s.opts.ViewportHeight > 0 {
		if err := page.SetViewport(ctx, s.opts.ViewportWidth, s.opts.ViewportHeight); err != nil {
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	if err := s.load(ctx, page, t); err != nil {
		return nil, err
	}

	// A stylesheet only lives as long as its document, so it goes in after the load.
	if s.opts.DisableAnimations {
		if err := page.AddStyle(ctx, browser.DisableAnimationsCSS); err != nil {
			return nil, fmt.Errorf("disable animations: %w", err)
		}
	}

	res, err := s.invoker.Run(ctx, page, s.opts.Standard.Tags())
	if err != nil {
		return nil, err
	}

	result := domain.NewScanResult(t, s.opts.Clock.Now(), res.Violations, res.Passes, res.Incomplete)

	if s.opts.ScreenshotDir != "" && result.ViolationCount() > 0 {
		path := filepath.Join(s.opts.ScreenshotDir, ScreenshotName(t))
		if err := page.Screenshot(ctx, path, true); err != nil {
			s.logger.Warn().Err(err).Str("target", logging.SafeURL(t.ID)).Msg("screenshot failed")
		}
	}

	return &result, nil
}

func (s *Scanner) load(ctx context.Context, page browser.Page, t domain.Target) error {
	if t.Kind == domain.TargetInline {
		return page.SetContent(ctx, t.HTML, s.opts.Wait, s.opts.Timeout)
	}
	if t.Kind == domain.TargetURL && s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return page.Goto(ctx, t.URL, s.opts.Wait, s.opts.Timeout)
}

func (s *Scanner) cacheEnabled() bool {
	return s.opts.UseCache && s.cache != nil
}

// chunks splits targets into contiguous runs of size n; the last may be shorter.
func chunks(targets []domain.Target, n int) [][]domain.Target {
	out := make([][]domain.Target, 0, (len(targets)+n-1)/n)
	for start := 0; start < len(targets); start += n {
		end := min(start+n, len(targets))
		out = append(out, targets[start:end])
	}
	return out
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`) //nolint:gochecknoglobals // compiled once

// ScreenshotName returns a file name for t that is unique per target identity.
func ScreenshotName(t domain.Target) string {
	base := unsafeNameChars.ReplaceAllString(t.Label(), "_")
	base = strings.Trim(base, "_.")
	if len(base) > 48 {
		base = base[:48]
	}
	if base == "" {
		base = "page"
	}
	sum := sha256.Sum256([]byte(t.ID))
	return base + "-" + hex.EncodeToString(sum[:4]) + ".png"
}
