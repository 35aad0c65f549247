package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/cache"
	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/engine"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/metrics"
	"github.com/mrz1836/ally/internal/retry"
	"github.com/mrz1836/ally/internal/scan"
)

// stdinArg is the path argument that reads markup from standard input.
const stdinArg = "-"

// maxStdinBytes bounds the markup read for an inline target.
const maxStdinBytes = 16 << 20

// collectTargets turns scan arguments into targets. With no paths, URLs or
// stdin, the current directory is scanned.
func collectTargets(args, urls []string, stdin io.Reader) ([]domain.Target, error) {
	paths := make([]string, 0, len(args))
	readStdin := false
	for _, arg := range args {
		if arg == stdinArg {
			readStdin = true
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 && len(urls) == 0 && !readStdin {
		paths = []string{"."}
	}

	targets, err := scan.Discover(paths, urls)
	if err != nil {
		return nil, err
	}

	if readStdin {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, errors.NewExitCode2Error(fmt.Errorf("%w: no markup on stdin", errors.ErrEmptyValue))
		}
		targets = append(targets, domain.NewInlineTarget("", string(data)))
	}

	return targets, nil
}

// newResultCache builds the result cache from configuration. It returns nil
// when caching is disabled.
func newResultCache(cfg *config.Config, rec *metrics.Recorder, logger zerolog.Logger) *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		store = cache.NewMemoryStore()
	default:
		store = cache.NewFileStore(cfg.Cache.Dir)
	}

	stamper := &cache.Stamper{
		URLPolicy: cfg.Cache.URLs,
		Client:    &http.Client{Timeout: cfg.Scan.Timeout},
	}
	if cfg.Scan.RateLimit > 0 {
		stamper.Limiter = rate.NewLimiter(rate.Limit(cfg.Scan.RateLimit), 1)
	}

	return cache.New(store, cache.Options{Stamper: stamper, Logger: logger, Metrics: rec})
}

// newScanner wires the backend, rule engine, and cache described by cfg.
// Nothing is launched here; a missing axe source fails before any browser starts.
func newScanner(cfg *config.Config, rec *metrics.Recorder, logger zerolog.Logger) (*scan.Scanner, domain.Standard, error) {
	std, err := domain.ParseStandard(cfg.Scan.Standard)
	if err != nil {
		return nil, "", err
	}

	wait, err := browser.ParseWaitCondition(cfg.Scan.WaitUntil)
	if err != nil {
		return nil, "", err
	}

	kind, err := engine.ParseKind(cfg.Engine.Kind)
	if err != nil {
		return nil, "", err
	}
	invoker, err := engine.New(kind, engine.Options{AxePath: cfg.Engine.AxePath, Logger: logger})
	if err != nil {
		return nil, "", err
	}

	backendType, err := browser.ParseType(cfg.Browser.Backend)
	if err != nil {
		return nil, "", err
	}
	backend, err := browser.New(backendType, backendOptions(cfg, logger))
	if err != nil {
		return nil, "", err
	}

	scanner := scan.New(backend, invoker, newResultCache(cfg, rec, logger), scan.Options{
		BatchSize: cfg.Scan.BatchSize,
		Standard:  std,
		Timeout:   cfg.Scan.Timeout,
		Wait:      wait,
		Retry: retry.Policy{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
		},
		UseCache:          cfg.Cache.Enabled,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		DisableAnimations: cfg.Browser.DisableAnimations,
		ScreenshotDir:     cfg.Scan.ScreenshotDir,
		RateLimit:         cfg.Scan.RateLimit,
		Metrics:           rec,
		Clock:             clock.RealClock{},
		Logger:            logger,
	})
	return scanner, std, nil
}

// backendOptions maps the browser section onto backend options. The scan
// timeout bounds engine evaluation as well as navigation.
func backendOptions(cfg *config.Config, logger zerolog.Logger) browser.Options {
	return browser.Options{
		ExecPath:    cfg.Browser.ExecPath,
		Headless:    cfg.Browser.Headless,
		NoSandbox:   cfg.Browser.NoSandbox,
		Download:    cfg.Browser.Download,
		EvalTimeout: cfg.Scan.Timeout,
		Logger:      logger,
	}
}

// severityCounts converts a summary breakdown to metric labels.
func severityCounts(bySeverity map[domain.Severity]int) map[string]int {
	counts := make(map[string]int, len(bySeverity))
	for sev, n := range bySeverity {
		counts[sev.String()] = n
	}
	return counts
}

// checkFailUnder returns ErrScoreBelowThreshold when a threshold is set and
// the score falls below it.
func checkFailUnder(score, threshold int) error {
	if threshold <= 0 || score >= threshold {
		return nil
	}
	return fmt.Errorf("%w: score %d is below %d", errors.ErrScoreBelowThreshold, score, threshold)
}
