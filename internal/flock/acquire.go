package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/errors"
)

// Acquire takes an exclusive lock on f, polling until timeout elapses or ctx
// ends. The caller releases it with Unlock.
func Acquire(ctx context.Context, f *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		if err := Exclusive(f.Fd()); err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", errors.ErrLockTimeout, f.Name())
		}

		if err := ctxutil.Sleep(ctx, constants.LockRetryInterval); err != nil {
			return err
		}
	}
}
