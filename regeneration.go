package doublejump

import (
	"sync/atomic"
	"time"
)

// regenerator drives charge regeneration for a manager.
//
// Every player regenerates on its own schedule, anchored to the instant it
// last gained a charge. The loop wakes at a fixed rate no coarser than the
// regeneration interval and lets Registry.Regenerate decide which players
// are due, so nobody gains more than one charge per interval.
type regenerator struct {
	manager *Manager

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Tick tracking
	tickRate   time.Duration
	tickNumber atomic.Uint64
}

// newRegenerator creates a stopped regenerator.
func newRegenerator(m *Manager, interval time.Duration) *regenerator {
	rate := TickDuration
	if interval > 0 && interval < rate {
		rate = interval
	}
	return &regenerator{
		manager:  m,
		tickRate: rate,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the regeneration loop.
func (r *regenerator) Start() {
	if r.running.Swap(true) {
		return // Already running
	}
	go r.tickLoop()
}

// Stop stops the loop and waits for the current tick to finish.
func (r *regenerator) Stop() {
	if !r.running.Swap(false) {
		return // Not running
	}

	close(r.stopCh)
	<-r.doneCh
}

// tickLoop is the main regeneration loop.
func (r *regenerator) tickLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return

		case <-ticker.C:
			r.tickNumber.Add(1)
			r.manager.Tick()
		}
	}
}
