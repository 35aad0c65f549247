package browser

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "", want: TypeChromedp},
		{in: "chromedp", want: TypeChromedp},
		{in: " ROD ", want: TypeRod},
		{in: "playwright", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseType(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, allyerrors.ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseWaitCondition(t *testing.T) {
	for in, want := range map[string]WaitCondition{
		"":                 WaitLoad,
		"load":             WaitLoad,
		"DOMContentLoaded": WaitDOMContentLoaded,
		"networkidle":      WaitNetworkIdle,
	} {
		got, err := ParseWaitCondition(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseWaitCondition("networkidle0")
	require.ErrorIs(t, err, allyerrors.ErrInvalidWaitCondition)
}

func TestRegistry(t *testing.T) {
	t.Run("default registry has both engines", func(t *testing.T) {
		reg := DefaultRegistry()
		assert.Equal(t, []Type{TypeChromedp, TypeRod}, reg.Types())

		b, err := reg.New(TypeRod, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, TypeRod, b.Type())

		b, err = New(TypeChromedp, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, TypeChromedp, b.Type())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewRegistry().New("webkit", DefaultOptions())
		require.ErrorIs(t, err, allyerrors.ErrUnknownBackend)
	})

	t.Run("register replaces", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(TypeRod, func(Options) Backend { return NewChromedp(DefaultOptions()) })
		assert.True(t, reg.Has(TypeRod))

		b, err := reg.New(TypeRod, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, TypeChromedp, b.Type())
	})
}

func TestNotInstalledError(t *testing.T) {
	var err error = &NotInstalledError{Backend: TypeRod, Dependency: "Chrome", InstallHint: "install it"}

	require.ErrorIs(t, err, allyerrors.ErrBackendNotInstalled)
	assert.Equal(t, "rod backend requires Chrome: install it", err.Error())

	var target *NotInstalledError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Chrome", target.Dependency)
}

func stubLookPath(t *testing.T, path string, ok bool) {
	t.Helper()
	orig := lookPath
	lookPath = func() (string, bool) { return path, ok }
	t.Cleanup(func() { lookPath = orig })
}

func TestRodLaunch_NotInstalled(t *testing.T) {
	stubLookPath(t, "", false)

	b := NewRod(DefaultOptions())
	err := b.Launch(context.Background())

	var notInstalled *NotInstalledError
	require.ErrorAs(t, err, &notInstalled)
	assert.Equal(t, TypeRod, notInstalled.Backend)
	require.ErrorIs(t, err, allyerrors.ErrBackendNotInstalled)
	require.NoError(t, b.Close())
}

func TestRodLaunch_MissingExecPath(t *testing.T) {
	stubLookPath(t, "/usr/bin/chromium", true)

	opts := DefaultOptions()
	opts.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")
	err := NewRod(opts).Launch(context.Background())
	require.ErrorIs(t, err, allyerrors.ErrBackendNotInstalled)
}

func TestRodResolveBin_DownloadAllowed(t *testing.T) {
	stubLookPath(t, "", false)

	opts := DefaultOptions()
	opts.Download = true
	bin, err := NewRod(opts).resolveBin()
	require.NoError(t, err)
	assert.Empty(t, bin, "empty bin lets the launcher download a browser")
}

func TestChromedpLaunch_BadExecPath(t *testing.T) {
	opts := DefaultOptions()
	opts.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")

	b := NewChromedp(opts)
	err := b.Launch(context.Background())
	require.ErrorIs(t, err, allyerrors.ErrBackendLaunchFailed)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "close is idempotent")
}

func TestBackend_UseAfterClose(t *testing.T) {
	for _, b := range []Backend{NewChromedp(DefaultOptions()), NewRod(DefaultOptions())} {
		t.Run(b.Type().String(), func(t *testing.T) {
			require.NoError(t, b.Close())
			require.ErrorIs(t, b.Launch(context.Background()), allyerrors.ErrBackendClosed)

			_, err := b.NewPage(context.Background())
			require.ErrorIs(t, err, allyerrors.ErrBackendClosed)
		})
	}
}

func TestNewPage_BeforeLaunch(t *testing.T) {
	_, err := NewChromedp(DefaultOptions()).NewPage(context.Background())
	require.ErrorIs(t, err, allyerrors.ErrBackendLaunchFailed)

	_, err = NewRod(DefaultOptions()).NewPage(context.Background())
	require.ErrorIs(t, err, allyerrors.ErrBackendLaunchFailed)
}

func TestTimeoutErrorIsTransientShaped(t *testing.T) {
	err := timeoutError("goto https://example.com/", 0, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timeout")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAwaitEvent_DeadlineBeforeEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Event waiters unblock silently when their context ends.
	err := awaitEvent(ctx, func() { <-ctx.Done() })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	wrapped := wrap(context.Background(), "goto https://example.com/", 20*time.Millisecond, err)
	require.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.Contains(t, wrapped.Error(), "timeout after 20ms")
}

func TestAwaitEvent_EventArrives(t *testing.T) {
	fired := false
	require.NoError(t, awaitEvent(context.Background(), func() { fired = true }))
	assert.True(t, fired)
}

func TestWrap(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, wrap(context.Background(), "evaluate", time.Second, nil))
	require.ErrorIs(t, wrap(canceled, "evaluate", time.Second, context.DeadlineExceeded), context.Canceled,
		"caller cancellation wins over the deadline")

	err := wrap(context.Background(), "evaluate", time.Second, errors.New("target closed"))
	assert.Equal(t, "evaluate: target closed", err.Error())
}

func TestRodPage_ScopedRelease(t *testing.T) {
	p := &rodPage{page: &rod.Page{}}

	page, release := p.scoped(context.Background(), time.Minute)
	_, hasDeadline := page.GetContext().Deadline()
	assert.True(t, hasDeadline)
	release()
	require.ErrorIs(t, page.GetContext().Err(), context.Canceled, "release stops the deadline timer")

	page, release = p.scoped(context.Background(), 0)
	release()
	_, hasDeadline = page.GetContext().Deadline()
	assert.False(t, hasDeadline)
	assert.NoError(t, page.GetContext().Err())
}

func TestDecodeJSON(t *testing.T) {
	var n int
	require.NoError(t, decodeJSON([]byte("42"), &n))
	assert.Equal(t, 42, n)

	var raw []byte
	require.NoError(t, decodeJSON([]byte(`{"a":1}`), &raw))
	assert.JSONEq(t, `{"a":1}`, string(raw))

	require.NoError(t, decodeJSON([]byte("1"), nil))

	var m map[string]any
	require.NoError(t, decodeJSON(nil, &m))
	assert.Nil(t, m)

	require.Error(t, decodeJSON([]byte("{"), &n))
}

func TestAddStyleScriptEscapes(t *testing.T) {
	script := addStyleScript("a::after { content: \"</style>\" }")
	assert.Contains(t, script, `document.createElement("style")`)
	assert.Contains(t, script, `\"`)
}
