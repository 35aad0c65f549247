// Package testutil provides testing utilities for ally.
//
// This package contains mock errors and fake browser/engine implementations
// used across test files. It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockConnectionRefused is a transient navigation failure.
	ErrMockConnectionRefused = errors.New("net::ERR_CONNECTION_REFUSED")

	// ErrMockTimeout is a transient timeout failure.
	ErrMockTimeout = errors.New("navigation timeout exceeded")

	// ErrMockEngine is a permanent rule engine failure.
	ErrMockEngine = errors.New("engine crashed: axe is not defined")

	// ErrMockLaunch is a browser launch failure.
	ErrMockLaunch = errors.New("chrome failed to start")

	// ErrMockDisk is a storage failure.
	ErrMockDisk = errors.New("disk full")
)
