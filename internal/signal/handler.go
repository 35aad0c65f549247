// Package signal turns SIGINT and SIGTERM into context cancellation for ally.
//
// The first signal cancels the root context: a running scan stops scheduling
// targets, closes its browser, and the command returns. A second signal calls
// the force function so a wedged browser cannot hold the terminal.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Handler cancels a context on the first interrupt and forces an exit on
// the second.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the root context
	cancel      context.CancelFunc
	force       func()
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal
	received    atomic.Int32
	once        sync.Once
	stopOnce    sync.Once
}

// NewHandler listens for SIGINT and SIGTERM. force may be nil, in which case
// repeated signals only cancel the context.
//
// Usage:
//
//	h := signal.NewHandler(ctx, func() { os.Exit(130) })
//	defer h.Stop()
//	err := run(h.Context())
func NewHandler(parent context.Context, force func()) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		force:       force,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffered so signal.Notify never drops a signal while we are busy.
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the context canceled by the first signal.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when the first signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop stops listening and cancels the context. It is safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

// handleSignal processes one received signal.
func (h *Handler) handleSignal() {
	if h.received.Add(1) == 1 {
		h.once.Do(func() {
			h.cancel()
			close(h.interrupted)
		})
		return
	}
	if h.force != nil {
		h.force()
	}
}

// listen runs until Stop. It keeps receiving after the context is canceled
// so a second signal still reaches force.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
