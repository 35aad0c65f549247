package signal

import (
	"context"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestHandler_FirstSignalCancels(t *testing.T) {
	var forced atomic.Int32
	h := NewHandler(context.Background(), func() { forced.Add(1) })
	defer h.Stop()

	require.NoError(t, h.Context().Err())
	assert.False(t, isClosed(h.Interrupted()))

	h.handleSignal()

	assert.Equal(t, context.Canceled, h.Context().Err())
	assert.True(t, isClosed(h.Interrupted()))
	assert.Zero(t, forced.Load(), "first signal never forces")
}

func TestHandler_SecondSignalForces(t *testing.T) {
	var forced atomic.Int32
	h := NewHandler(context.Background(), func() { forced.Add(1) })
	defer h.Stop()

	h.handleSignal()
	h.handleSignal()
	h.handleSignal()

	assert.Equal(t, int32(2), forced.Load())
	assert.True(t, isClosed(h.Interrupted()))
}

func TestHandler_NilForce(t *testing.T) {
	h := NewHandler(context.Background(), nil)
	defer h.Stop()

	assert.NotPanics(t, func() {
		h.handleSignal()
		h.handleSignal()
	})
	assert.Error(t, h.Context().Err())
}

func TestHandler_ListenReceivesAfterCancel(t *testing.T) {
	var forced atomic.Int32
	h := NewHandler(context.Background(), func() { forced.Add(1) })
	defer h.Stop()

	h.sigChan <- syscall.SIGINT
	require.Eventually(t, func() bool { return h.Context().Err() != nil }, time.Second, 5*time.Millisecond)

	h.sigChan <- syscall.SIGINT
	require.Eventually(t, func() bool { return forced.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandler_Stop(t *testing.T) {
	h := NewHandler(context.Background(), nil)

	h.Stop()
	h.Stop()

	require.Error(t, h.Context().Err())
	assert.False(t, isClosed(h.Interrupted()), "stop is not an interrupt")
}

func TestHandler_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent, nil)
	defer h.Stop()

	cancel()

	assert.Error(t, h.Context().Err())
}
