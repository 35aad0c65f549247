package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because wrapped errors need errors.Is() traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Browser backends
	// ===================
	{
		err: ErrBackendNotInstalled,
		info: ErrorInfo{
			Message: "The selected browser backend has no browser available.",
			Action:  "Install Chrome/Chromium, set browser.exec_path, or rerun with --browser chromedp.",
		},
	},
	{
		err: ErrBackendLaunchFailed,
		info: ErrorInfo{
			Message: "The browser could not be started.",
			Action:  "Check that Chrome/Chromium is installed. In containers, set browser.no_sandbox: true.",
		},
	},
	{
		err: ErrUnknownBackend,
		info: ErrorInfo{
			Message: "Unknown browser backend.",
			Action:  "Use --browser chromedp or --browser rod.",
		},
	},

	// ===================
	// Rule engine
	// ===================
	{
		err: ErrEngineSourceMissing,
		info: ErrorInfo{
			Message: "The axe-core script could not be found.",
			Action:  "Run 'npm install axe-core', set engine.axe_path, or rerun with --engine builtin.",
		},
	},
	{
		err: ErrUnknownEngine,
		info: ErrorInfo{
			Message: "Unknown rule engine.",
			Action:  "Use --engine axe or --engine builtin.",
		},
	},

	// ===================
	// Targets & input
	// ===================
	{
		err: ErrNoTargets,
		info: ErrorInfo{
			Message: "No HTML files or URLs were found to scan.",
			Action:  "Pass a directory containing .html files, a file path, or --url.",
		},
	},
	{
		err: ErrInvalidTarget,
		info: ErrorInfo{
			Message: "A scan target is not a valid file path or http(s) URL.",
			Action:  "Check the paths and URLs passed to 'ally scan'.",
		},
	},
	{
		err: ErrInvalidStandard,
		info: ErrorInfo{
			Message: "Unknown accessibility standard.",
			Action:  "Use --standard A, AA, or AAA.",
		},
	},
	{
		err: ErrInvalidWaitCondition,
		info: ErrorInfo{
			Message: "Unknown wait condition.",
			Action:  "Use --wait load, domcontentloaded, or networkidle.",
		},
	},
	{
		err: ErrReportNotFound,
		info: ErrorInfo{
			Message: "No scan report found.",
			Action:  "Run 'ally scan' first or pass --path to an existing report.",
		},
	},
	{
		err: ErrScoreBelowThreshold,
		info: ErrorInfo{
			Message: "Accessibility score is below the required threshold.",
			Action:  "Fix the reported violations or lower --fail-under.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is missing.",
		},
	},
	{
		err: ErrConfigInvalidScan,
		info: ErrorInfo{
			Message: "The scan section of the configuration is invalid.",
			Action:  "Run 'ally config show' and fix the scan.* values.",
		},
	},
	{
		err: ErrConfigInvalidBrowser,
		info: ErrorInfo{
			Message: "The browser section of the configuration is invalid.",
			Action:  "Run 'ally config show' and fix the browser.* values.",
		},
	},
	{
		err: ErrConfigInvalidEngine,
		info: ErrorInfo{
			Message: "The engine section of the configuration is invalid.",
			Action:  "Run 'ally config show' and fix the engine.* values.",
		},
	},
	{
		err: ErrConfigInvalidCache,
		info: ErrorInfo{
			Message: "The cache section of the configuration is invalid.",
			Action:  "Run 'ally config show' and fix the cache.* values.",
		},
	},
	{
		err: ErrConfigInvalidRetry,
		info: ErrorInfo{
			Message: "The retry section of the configuration is invalid.",
			Action:  "Run 'ally config show' and fix the retry.* values.",
		},
	},

	// ===================
	// CLI
	// ===================
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
	{
		err: ErrInteractiveRequired,
		info: ErrorInfo{
			Message: "This command needs confirmation but no terminal is attached.",
			Action:  "Rerun with --force.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another ally process is holding the history log.",
			Action:  "Wait for the other scan to finish and try again.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that have no clear action, the action string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
