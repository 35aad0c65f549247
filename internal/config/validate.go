package config

import (
	"time"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - scan.standard must name a WCAG level
//   - scan.batch_size must be between 1 and 64
//   - scan.timeout must be positive
//   - scan.wait_until must be load, domcontentloaded, or networkidle
//   - browser.backend must be chromedp or rod
//   - engine.kind must be axe or builtin
//   - cache.backend and cache.urls must be known policies
//   - retry.max_retries must be between 0 and 10
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateScanConfig(&cfg.Scan); err != nil {
		return err
	}

	if err := validateBrowserConfig(&cfg.Browser); err != nil {
		return err
	}

	if err := validateEngineConfig(&cfg.Engine); err != nil {
		return err
	}

	if err := validateCacheConfig(&cfg.Cache); err != nil {
		return err
	}

	return validateRetryConfig(&cfg.Retry)
}

func validateScanConfig(cfg *ScanConfig) error {
	if _, err := domain.ParseStandard(cfg.Standard); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalidScan,
			"scan.standard must be A, AA, or AAA, got %q", cfg.Standard)
	}

	if cfg.BatchSize < 1 || cfg.BatchSize > constants.MaxBatchSize {
		return errors.Wrapf(errors.ErrConfigInvalidScan,
			"scan.batch_size must be between 1 and %d, got %d", constants.MaxBatchSize, cfg.BatchSize)
	}

	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidScan,
			"scan.timeout must be positive, got %s", cfg.Timeout)
	}

	switch cfg.WaitUntil {
	case "load", "domcontentloaded", "networkidle":
	default:
		return errors.Wrapf(errors.ErrConfigInvalidScan,
			"scan.wait_until must be load, domcontentloaded, or networkidle, got %q", cfg.WaitUntil)
	}

	if cfg.RateLimit < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidScan,
			"scan.rate_limit must not be negative, got %g", cfg.RateLimit)
	}

	if cfg.ReportPath == "" {
		return errors.Wrap(errors.ErrConfigInvalidScan, "scan.report_path must not be empty")
	}

	return nil
}

func validateBrowserConfig(cfg *BrowserConfig) error {
	switch cfg.Backend {
	case BackendChromedp, BackendRod:
	default:
		return errors.Wrapf(errors.ErrConfigInvalidBrowser,
			"browser.backend must be %s or %s, got %q", BackendChromedp, BackendRod, cfg.Backend)
	}

	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidBrowser,
			"browser viewport must be positive, got %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}

	return nil
}

func validateEngineConfig(cfg *EngineConfig) error {
	switch cfg.Kind {
	case EngineAxe, EngineBuiltin:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidEngine,
			"engine.kind must be %s or %s, got %q", EngineAxe, EngineBuiltin, cfg.Kind)
	}
}

func validateCacheConfig(cfg *CacheConfig) error {
	switch cfg.Backend {
	case CacheBackendFile:
		if cfg.Enabled && cfg.Dir == "" {
			return errors.Wrap(errors.ErrConfigInvalidCache, "cache.dir must not be empty for the file backend")
		}
	case CacheBackendMemory:
	default:
		return errors.Wrapf(errors.ErrConfigInvalidCache,
			"cache.backend must be %s or %s, got %q", CacheBackendFile, CacheBackendMemory, cfg.Backend)
	}

	switch cfg.URLs {
	case CacheURLsSkip, CacheURLsDigest:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidCache,
			"cache.urls must be %s or %s, got %q", CacheURLsSkip, CacheURLsDigest, cfg.URLs)
	}
}

func validateRetryConfig(cfg *RetryConfig) error {
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.max_retries must be between 0 and 10, got %d", cfg.MaxRetries)
	}

	maxBaseDelay := 1 * time.Minute
	if cfg.BaseDelay < 0 || cfg.BaseDelay > maxBaseDelay {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.base_delay must be between 0 and %s, got %s", maxBaseDelay, cfg.BaseDelay)
	}

	return nil
}
