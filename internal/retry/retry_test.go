package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("net::ERR_CONNECTION_REFUSED")
	errPermanent = errors.New("engine returned malformed output")
)

// recordSleeps swaps timeSleep for an instant fake and records requested delays.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()

	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	orig := timeSleep
	timeSleep = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	t.Cleanup(func() { timeSleep = orig })
	return &delays
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	delays := recordSleeps(t)

	calls := 0
	got, err := Do(context.Background(), func(_ context.Context, _ int) (string, error) {
		calls++
		return "ok", nil
	}, Policy{MaxRetries: 3, BaseDelay: time.Second}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestDo_PermanentErrorReturnsImmediately(t *testing.T) {
	delays := recordSleeps(t)

	calls := 0
	retried := false
	_, err := Do(context.Background(), func(_ context.Context, _ int) (int, error) {
		calls++
		return 0, errPermanent
	}, Policy{MaxRetries: 5, BaseDelay: time.Second}, func(int, error, time.Duration) { retried = true })

	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
	assert.False(t, retried)
	assert.Empty(t, *delays)
}

func TestDo_RetryBoundary(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failures   int
		wantCalls  int
		wantErr    bool
	}{
		{name: "recovers on last allowed attempt", maxRetries: 2, failures: 2, wantCalls: 3},
		{name: "exhausts budget", maxRetries: 2, failures: 3, wantCalls: 3, wantErr: true},
		{name: "no retries configured", maxRetries: 0, failures: 1, wantCalls: 1, wantErr: true},
		{name: "recovers early", maxRetries: 4, failures: 1, wantCalls: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recordSleeps(t)

			calls := 0
			_, err := Do(context.Background(), func(_ context.Context, attempt int) (int, error) {
				assert.Equal(t, calls, attempt)
				calls++
				if calls <= tc.failures {
					return 0, errTransient
				}
				return calls, nil
			}, Policy{MaxRetries: tc.maxRetries, BaseDelay: time.Millisecond}, nil)

			assert.Equal(t, tc.wantCalls, calls)
			if tc.wantErr {
				assert.Same(t, errTransient, err, "last error returned unwrapped")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDo_ExponentialDelaysAndCallback(t *testing.T) {
	delays := recordSleeps(t)

	type retryCall struct {
		attempt int
		delay   time.Duration
	}
	var calls []retryCall

	_, err := Do(context.Background(), func(_ context.Context, _ int) (struct{}, error) {
		return struct{}{}, errTransient
	}, Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}, func(attempt int, err error, delay time.Duration) {
		assert.Equal(t, errTransient, err)
		calls = append(calls, retryCall{attempt, delay})
	})

	require.Error(t, err)
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	assert.Equal(t, want, *delays)
	assert.Equal(t, []retryCall{{1, want[0]}, {2, want[1]}, {3, want[2]}}, calls)
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	orig := timeSleep
	timeSleep = func(time.Duration) <-chan time.Time { return make(chan time.Time) }
	t.Cleanup(func() { timeSleep = orig })

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, func(_ context.Context, _ int) (int, error) {
		calls++
		return 0, errTransient
	}, Policy{MaxRetries: 3, BaseDelay: time.Hour}, func(int, error, time.Duration) { cancel() })

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: time.Second}
	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(-1))
	assert.Equal(t, time.Duration(0), Policy{}.Delay(4))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), true},
		{errors.New("page load error net::ERR_NAME_NOT_RESOLVED"), true},
		{errors.New("lookup staging.invalid: no such host"), true},
		{errors.New("navigation Timeout exceeded"), true},
		{errors.New("request timed out"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("socket hang up"), true},
		{fmt.Errorf("goto https://example.com/: %w", io.ErrUnexpectedEOF), true},
		{errors.New("read config: EOF"), false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("goto: %w", context.DeadlineExceeded), true},
		{context.Canceled, false},
		{fmt.Errorf("goto: %w", context.Canceled), false},
		{errors.New("axe is not defined"), false},
		{errors.New("invalid selector"), false},
	}

	for _, tc := range tests {
		name := "nil"
		if tc.err != nil {
			name = tc.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
