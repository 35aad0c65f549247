// Package constants provides centralized constant values used throughout ally.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by ally for organizing data.
const (
	// AllyHome is the hidden directory name where ally stores its data.
	// It exists both in the user's home directory (global config, logs)
	// and in a project root (project config, cache, reports).
	AllyHome = ".ally"

	// CacheDir is the directory name where cached scan results are stored.
	CacheDir = "cache"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// ScreenshotsDir is the default directory for violation screenshots.
	ScreenshotsDir = "screenshots"
)

// File names used by ally for state persistence.
const (
	// ConfigFileName is the name of the YAML configuration file.
	ConfigFileName = "config.yaml"

	// ReportFileName is the name of the JSON report written after each scan.
	ReportFileName = "scan.json"

	// HistoryFileName is the append-only JSON-lines log of past scan summaries.
	HistoryFileName = "history.jsonl"

	// CLILogFileName is the name of the rotating CLI log file.
	CLILogFileName = "ally.log"
)

// Scan defaults.
const (
	// DefaultBatchSize bounds how many pages are open at once.
	DefaultBatchSize = 4

	// MaxBatchSize is the upper bound accepted for scan.batch_size.
	MaxBatchSize = 64

	// DefaultScanTimeout is the per-navigation timeout.
	DefaultScanTimeout = 30 * time.Second

	// DefaultStandard is the WCAG level scanned when none is given.
	DefaultStandard = "AA"

	// DefaultWaitCondition is the page readiness condition used for navigation.
	DefaultWaitCondition = "load"

	// NetworkIdleQuiet is the quiet window used to approximate network idleness.
	NetworkIdleQuiet = 500 * time.Millisecond

	// TopIssuesLimit is the number of most frequent violation ids in a summary.
	TopIssuesLimit = 5

	// MaxNodesPerViolation caps how many nodes of one violation count toward the penalty.
	MaxNodesPerViolation = 10

	// MaxPenalty caps the total score penalty.
	MaxPenalty = 100
)

// Browser defaults.
const (
	// DefaultViewportWidth is the default page width in CSS pixels.
	DefaultViewportWidth = 1280

	// DefaultViewportHeight is the default page height in CSS pixels.
	DefaultViewportHeight = 720

	// DefaultAxePath is the axe-core script location relative to a project root.
	DefaultAxePath = "node_modules/axe-core/axe.min.js"
)

// Retry configuration defaults for transient scan failures.
const (
	// DefaultMaxRetries is the number of additional attempts after the first.
	DefaultMaxRetries = 2

	// DefaultBaseDelay is the first backoff delay; later delays double.
	DefaultBaseDelay = 1 * time.Second
)

// Log rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 30
	LogCompress   = true
)

// File lock timing for the history log.
const (
	LockTimeout       = 5 * time.Second
	LockRetryInterval = 50 * time.Millisecond
)

// HistoryDefaultLimit is how many history entries 'ally history' shows by default.
const HistoryDefaultLimit = 10

// Schema version constants for data migration support.
const (
	// CacheSchemaVersion is the current version of the cache record format.
	// Records with any other version are treated as misses.
	CacheSchemaVersion = 1

	// ReportVersion is the version stamped into every AllyReport.
	ReportVersion = "1.0"
)
