package dds

import (
	"fmt"
	"time"

	"github.com/samuel-barrett/ddsched/shim"
)

// NewCompleteFunc builds the shim.CompleteFunc a worker uses to report
// completion: a single bounded-timeout send onto ch. shim.Run already
// retries a failing CompleteFunc exactly once (spec.md §7's "retry once,
// then worker exits"), so this closure only needs to implement one attempt.
func NewCompleteFunc(ch chan<- uint32, timeout time.Duration) shim.CompleteFunc {
	return func(taskID uint32) error {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case ch <- taskID:
			return nil
		case <-timer.C:
			return fmt.Errorf("dds: completion send timed out for task %d", taskID)
		}
	}
}
