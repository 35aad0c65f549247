package browser

import (
	"fmt"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// NotInstalledError reports that a backend cannot run because a dependency
// is missing on this machine.
type NotInstalledError struct {
	Backend     Type
	Dependency  string
	InstallHint string
}

// Error implements error.
func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("%s backend requires %s: %s", e.Backend, e.Dependency, e.InstallHint)
}

// Unwrap lets errors.Is match ErrBackendNotInstalled.
func (e *NotInstalledError) Unwrap() error {
	return allyerrors.ErrBackendNotInstalled
}
