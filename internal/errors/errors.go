// Package errors provides centralized error handling for ally.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrBackendNotInstalled indicates that the selected browser backend
	// has no usable browser binary on this host.
	ErrBackendNotInstalled = errors.New("browser backend not installed")

	// ErrBackendLaunchFailed indicates that the browser process could not be
	// started or connected to.
	ErrBackendLaunchFailed = errors.New("browser backend failed to launch")

	// ErrUnknownBackend indicates that an unrecognized backend type was requested.
	ErrUnknownBackend = errors.New("unknown browser backend")

	// ErrBackendClosed indicates an operation on a backend that was already closed.
	ErrBackendClosed = errors.New("browser backend closed")

	// ErrEngineSourceMissing indicates that the rule engine script could not be found.
	ErrEngineSourceMissing = errors.New("rule engine source not found")

	// ErrEngineFailed indicates that the rule engine ran but returned an unusable result.
	ErrEngineFailed = errors.New("rule engine failed")

	// ErrUnknownEngine indicates that an unrecognized rule engine kind was requested.
	ErrUnknownEngine = errors.New("unknown rule engine")

	// ErrNoTargets indicates that discovery produced nothing to scan.
	ErrNoTargets = errors.New("no scan targets found")

	// ErrInvalidTarget indicates a malformed file path or URL target.
	ErrInvalidTarget = errors.New("invalid scan target")

	// ErrInvalidStandard indicates an unrecognized WCAG standard name.
	ErrInvalidStandard = errors.New("invalid accessibility standard")

	// ErrInvalidWaitCondition indicates an unrecognized page wait condition.
	ErrInvalidWaitCondition = errors.New("invalid wait condition")

	// ErrCacheCorrupt indicates an unreadable cache record. It never escapes
	// the cache package; corrupt records are treated as misses.
	ErrCacheCorrupt = errors.New("cache record corrupt")

	// ErrCacheMiss indicates that no record exists for a cache key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrReportNotFound indicates that no previous scan report exists.
	ErrReportNotFound = errors.New("scan report not found")

	// ErrScoreBelowThreshold indicates the scan score fell below the --fail-under gate.
	ErrScoreBelowThreshold = errors.New("score below threshold")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidScan indicates an invalid scan configuration value.
	ErrConfigInvalidScan = errors.New("invalid scan configuration")

	// ErrConfigInvalidBrowser indicates an invalid browser configuration value.
	ErrConfigInvalidBrowser = errors.New("invalid browser configuration")

	// ErrConfigInvalidEngine indicates an invalid engine configuration value.
	ErrConfigInvalidEngine = errors.New("invalid engine configuration")

	// ErrConfigInvalidCache indicates an invalid cache configuration value.
	ErrConfigInvalidCache = errors.New("invalid cache configuration")

	// ErrConfigInvalidRetry indicates an invalid retry configuration value.
	ErrConfigInvalidRetry = errors.New("invalid retry configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates an invalid command-line argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrMenuCanceled indicates the user canceled an interactive prompt.
	ErrMenuCanceled = errors.New("menu canceled")

	// ErrInteractiveRequired indicates that a prompt is required but stdin is not a terminal.
	ErrInteractiveRequired = errors.New("interactive prompt required")

	// ErrLockTimeout indicates a file lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for file lock")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
