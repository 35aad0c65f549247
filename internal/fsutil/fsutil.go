// Package fsutil provides durable file writes shared by the cache and report sinks.
package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/flock"
)

// Directory and file permission constants.
const (
	DirPerm  = 0o750 // Secure directory permissions
	FilePerm = 0o600 // Secure file permissions
)

// AtomicWrite writes data to a file atomically using write-then-rename.
// The parent directory is created if missing.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync to disk (ensure data is persisted before rename)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// AppendLine appends entry to a JSON-lines file, adding a trailing newline
// when missing. The file is locked for the write so lines from concurrent
// processes never interleave.
func AppendLine(ctx context.Context, path string, entry []byte) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to append line: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, FilePerm) //#nosec G304 -- path is user configuration
	if err != nil {
		return fmt.Errorf("failed to append line: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := flock.Acquire(ctx, f, constants.LockTimeout); err != nil {
		return fmt.Errorf("failed to append line: %w", err)
	}
	defer func() { _ = flock.Unlock(f.Fd()) }()

	if len(entry) > 0 && entry[len(entry)-1] != '\n' {
		entry = append(entry, '\n')
	}

	if _, err := f.Write(entry); err != nil {
		return fmt.Errorf("failed to append line: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}
