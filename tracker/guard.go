package tracker

import "sync/atomic"

// runGuard enforces the single-run invariant. Acquisition is an atomic
// test-and-set so concurrent manual triggers and timer ticks can never both
// win. Release must happen on every exit path, including faults.
type runGuard struct {
	running atomic.Bool
}

// acquire returns true when the caller now owns the guard.
func (g *runGuard) acquire() bool {
	return g.running.CompareAndSwap(false, true)
}

func (g *runGuard) release() {
	g.running.Store(false)
}

// held reports whether a run is in progress.
func (g *runGuard) held() bool {
	return g.running.Load()
}
