// Package flock provides exclusive advisory file locks.
//
// ally appends one line per scan to the history log. Several scans may run in
// the same project at once (a CI matrix, or an editor hook next to a manual
// run), so appends hold an exclusive lock on the log while they write.
//
// Usage:
//
//	f, _ := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
//	if err := flock.Acquire(ctx, f, constants.LockTimeout); err != nil {
//	    return err
//	}
//	defer flock.Unlock(f.Fd())
package flock
