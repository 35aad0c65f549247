package config

import (
	"path/filepath"

	"github.com/mrz1836/ally/internal/constants"
)

// Backend, engine, and cache policy names accepted in configuration.
const (
	BackendChromedp = "chromedp"
	BackendRod      = "rod"

	EngineAxe     = "axe"
	EngineBuiltin = "builtin"

	CacheBackendFile   = "file"
	CacheBackendMemory = "memory"

	CacheURLsSkip   = "skip"
	CacheURLsDigest = "digest"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are the base layer that config files, environment
// variables, and CLI flags override.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Standard:  constants.DefaultStandard,
			BatchSize: constants.DefaultBatchSize,
			Timeout:   constants.DefaultScanTimeout,
			WaitUntil: constants.DefaultWaitCondition,
			// Project-relative so reports sit next to the scanned site.
			ReportPath:  filepath.Join(constants.AllyHome, constants.ReportFileName),
			HistoryPath: filepath.Join(constants.AllyHome, constants.HistoryFileName),
		},
		Browser: BrowserConfig{
			Backend:           BackendChromedp,
			Headless:          true,
			ViewportWidth:     constants.DefaultViewportWidth,
			ViewportHeight:    constants.DefaultViewportHeight,
			DisableAnimations: true,
		},
		Engine: EngineConfig{
			Kind: EngineAxe,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: CacheBackendFile,
			Dir:     filepath.Join(constants.AllyHome, constants.CacheDir),
			URLs:    CacheURLsSkip,
		},
		Retry: RetryConfig{
			MaxRetries: constants.DefaultMaxRetries,
			BaseDelay:  constants.DefaultBaseDelay,
		},
	}
}
