package scheduler

import (
	"context"
	"sync"
)

// lifecycleCoordinator encapsulates Scheduler's shutdown sequence. It is a
// wiring helper: it doesn't own the coordinator, generators, or kernel; it
// orchestrates cancellation and waits in a deterministic order. Close is
// safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	cancel     context.CancelFunc
	inflight   *sync.WaitGroup
	waitArmer  func()
	waitKernel func()

	once sync.Once
}

func newLifecycleCoordinator(
	cancel context.CancelFunc,
	inflight *sync.WaitGroup,
	waitArmer func(),
	waitKernel func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		cancel:     cancel,
		inflight:   inflight,
		waitArmer:  waitArmer,
		waitKernel: waitKernel,
	}
}

// Close executes the shutdown sequence exactly once:
// 1) cancel the run context (stops the coordinator, generators, and the monitor)
// 2) wait for the coordinator and generator goroutines to return
// 3) wait for the monitor's goroutine to return
// 4) wait for any still-executing spawned jobs to return
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		if lc.cancel != nil {
			lc.cancel()
		}
		if lc.inflight != nil {
			lc.inflight.Wait()
		}
		if lc.waitArmer != nil {
			lc.waitArmer()
		}
		if lc.waitKernel != nil {
			lc.waitKernel()
		}
	})
}
