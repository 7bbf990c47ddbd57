package monitoring

import (
	"sync"

	"github.com/fealab/strata/hooking"
)

// A pauseHook blocks the solver goroutine at hook boundaries while the
// monitor is paused. Hooks fire between engine phases, so pausing never
// interrupts a half-finished vector update.
type pauseHook struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newPauseHook() *pauseHook {
	h := &pauseHook{}
	h.cond = sync.NewCond(&h.mu)

	return h
}

// Func blocks until the monitor is continued.
func (h *pauseHook) Func(_ hooking.HookCtx) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.paused {
		h.cond.Wait()
	}
}

// Pause makes registered solvers halt at their next hook boundary.
func (h *pauseHook) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.paused = true
}

// Continue releases paused solvers.
func (h *pauseHook) Continue() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.paused = false
	h.cond.Broadcast()
}

// Paused reports whether the monitor is pausing solvers.
func (h *pauseHook) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.paused
}
