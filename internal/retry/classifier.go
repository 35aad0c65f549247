package retry

import (
	"context"
	"errors"
	"strings"
)

// transientSignatures are lowercase fragments of error messages that
// indicate a network or timing failure worth retrying.
//
//nolint:gochecknoglobals // Package-level patterns for reuse
var transientSignatures = []string{
	"connection reset",
	"connection refused",
	"econnreset",
	"econnrefused",
	"err_connection_",
	"err_name_not_resolved",
	"err_internet_disconnected",
	"err_network_changed",
	"no such host",
	"getaddrinfo",
	"enotfound",
	"dns",
	"timeout",
	"timed out",
	"etimedout",
	"err_timed_out",
	"socket hang up",
	"broken pipe",
	"unexpected eof",
}

// IsTransient reports whether err looks like a temporary failure.
// A context deadline counts as transient because each navigation runs under
// its own timeout; cancellation never does.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
