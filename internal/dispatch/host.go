// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"sync"

	"github.com/evolution-gaming/vidinfo/internal/logging"
)

// Host runs Calls in the background on behalf of a caller.
//
// Each submitted call runs on its own goroutine, at most maxInFlight at a time.
// Close detaches the caller: outstanding calls are cancelled and their replies
// dropped.
type Host struct {
	d      *Dispatcher
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool

	// Held while replying, Close takes it before cancelling.
	replyMu sync.Mutex
}

// NewHost creates Host, maxInFlight below 1 is treated as 1.
func NewHost(d *Dispatcher, maxInFlight int) *Host {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Host{
		d:      d,
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, maxInFlight),
	}
}

// Submit schedules call and returns immediately. The reply func is invoked
// exactly once from a background goroutine unless Host gets closed first.
// Returns false when Host is already closed and call was not accepted.
func (h *Host) Submit(call Call, reply func(Response)) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		logging.Debugf("Host closed, dropping %s", call)
		return false
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()

		select {
		case h.sem <- struct{}{}:
		case <-h.ctx.Done():
			return
		}
		defer func() { <-h.sem }()

		h.d.metrics.addInFlight(1)
		resp := h.d.Dispatch(h.ctx, call)
		h.d.metrics.addInFlight(-1)

		h.replyMu.Lock()
		defer h.replyMu.Unlock()
		if h.ctx.Err() != nil {
			logging.Debugf("Caller detached, suppressing reply to %s", call)
			return
		}
		reply(resp)
	}()
	return true
}

// Wait blocks until all accepted calls have finished.
func (h *Host) Wait() {
	h.wg.Wait()
}

// Close cancels outstanding calls and waits for them to return. A reply in
// progress completes before Close starts, none is delivered after that. Safe
// to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.replyMu.Lock()
	h.cancel()
	h.replyMu.Unlock()
	h.wg.Wait()
}
