// Package config provides configuration management for ally with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (ALLY_* prefix)
//  3. Project config (.ally/config.yaml)
//  4. Global config (~/.ally/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants, internal/domain and
// internal/errors, but MUST NOT import the browser, engine, or scan packages.
package config

import "time"

// Config is the root configuration structure for ally.
type Config struct {
	// Scan contains settings for the batch scheduler and report sinks.
	Scan ScanConfig `yaml:"scan" mapstructure:"scan" json:"scan"`

	// Browser contains settings for the execution backend.
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser" json:"browser"`

	// Engine contains settings for the rule engine.
	Engine EngineConfig `yaml:"engine" mapstructure:"engine" json:"engine"`

	// Cache contains settings for the result cache.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache" json:"cache"`

	// Retry contains the backoff policy for transient scan failures.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry" json:"retry"`

	// Metrics contains settings for the prometheus textfile export.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
}

// ScanConfig contains settings for one scan run.
type ScanConfig struct {
	// Standard is the WCAG level: A, AA, or AAA.
	// Default: "AA"
	Standard string `yaml:"standard" mapstructure:"standard" json:"standard"`

	// BatchSize is the number of targets scanned concurrently.
	// Default: 4, Valid range: 1-64
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" json:"batch_size"`

	// Timeout bounds each navigation or content load.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`

	// WaitUntil is the page readiness condition: load, domcontentloaded, networkidle.
	// Default: "load"
	WaitUntil string `yaml:"wait_until" mapstructure:"wait_until" json:"wait_until"`

	// RateLimit caps URL navigations per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" json:"rate_limit"`

	// ScreenshotDir, when set, receives a full-page PNG for every target with violations.
	ScreenshotDir string `yaml:"screenshot_dir" mapstructure:"screenshot_dir" json:"screenshot_dir"`

	// ReportPath is where the JSON report is written.
	// Default: ".ally/scan.json"
	ReportPath string `yaml:"report_path" mapstructure:"report_path" json:"report_path"`

	// HistoryPath is the append-only history log.
	// Default: ".ally/history.jsonl"
	HistoryPath string `yaml:"history_path" mapstructure:"history_path" json:"history_path"`
}

// BrowserConfig contains settings for the browser backend.
type BrowserConfig struct {
	// Backend selects the automation engine: chromedp (default) or rod.
	Backend string `yaml:"backend" mapstructure:"backend" json:"backend"`

	// ExecPath points at a Chrome/Chromium binary. Empty means auto-detect.
	ExecPath string `yaml:"exec_path" mapstructure:"exec_path" json:"exec_path"`

	// Headless runs the browser without a window.
	// Default: true
	Headless bool `yaml:"headless" mapstructure:"headless" json:"headless"`

	// NoSandbox disables the Chrome sandbox, which is often required in containers.
	NoSandbox bool `yaml:"no_sandbox" mapstructure:"no_sandbox" json:"no_sandbox"`

	// Download lets the rod backend fetch a browser when none is installed.
	Download bool `yaml:"download" mapstructure:"download" json:"download"`

	// ViewportWidth and ViewportHeight set the page size in CSS pixels.
	ViewportWidth  int `yaml:"viewport_width" mapstructure:"viewport_width" json:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height" mapstructure:"viewport_height" json:"viewport_height"`

	// DisableAnimations injects a stylesheet that stops CSS animations and transitions.
	// Default: true
	DisableAnimations bool `yaml:"disable_animations" mapstructure:"disable_animations" json:"disable_animations"`
}

// EngineConfig contains settings for the rule engine.
type EngineConfig struct {
	// Kind selects the engine: axe (default) or builtin.
	Kind string `yaml:"kind" mapstructure:"kind" json:"kind"`

	// AxePath points at axe.min.js. Empty means search node_modules.
	AxePath string `yaml:"axe_path" mapstructure:"axe_path" json:"axe_path"`
}

// CacheConfig contains settings for the result cache.
type CacheConfig struct {
	// Enabled turns the result cache on.
	// Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// Backend selects storage: file (default) or memory.
	Backend string `yaml:"backend" mapstructure:"backend" json:"backend"`

	// Dir is the file cache directory.
	// Default: ".ally/cache"
	Dir string `yaml:"dir" mapstructure:"dir" json:"dir"`

	// URLs sets the staleness policy for URL targets: skip (default) or digest.
	URLs string `yaml:"urls" mapstructure:"urls" json:"urls"`
}

// RetryConfig contains the backoff policy for transient failures.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Default: 2, Valid range: 0-10
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" json:"max_retries"`

	// BaseDelay is the first backoff delay. Delays double on each retry.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay" mapstructure:"base_delay" json:"base_delay"`
}

// MetricsConfig contains settings for metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives prometheus metrics in text exposition format
	// after each scan (node_exporter textfile collector).
	Textfile string `yaml:"textfile" mapstructure:"textfile" json:"textfile"`
}
