// Package shim implements the per-job worker entry point: it waits out a
// known nominal number of host ticks and then signals completion. It deliberately
// knows nothing about task lists, deadlines, or priorities -- those are the
// DDS coordinator's concern.
//
// The panic-recovery-then-signal structure here is grounded on the
// teacher's task.go, which races a task closure against ctx.Done() and
// recovers a panicking closure into an error rather than letting it take
// down the whole process.
package shim

import (
	"context"

	"github.com/samuel-barrett/ddsched/host"
)

// CompleteFunc reports that taskID finished. It may return an error if the
// completion signal could not be delivered (e.g. a queue-send timeout);
// Run retries exactly once before giving up, per the scheduler's
// error-handling design (a dropped completion signal does not leave the job
// stuck: the coordinator's deadline check will eventually move it to the
// overdue list).
type CompleteFunc func(taskID uint32) error

// ActivityFunc is invoked with on=true when userTaskID begins consuming CPU
// and on=false when it stops, modeling the original firmware's per-workload
// LED indicator without any hardware dependency.
type ActivityFunc func(userTaskID uint32, on bool)

// Clock is the subset of host.Kernel a shim needs to busy-wait on tick
// edges.
type Clock interface {
	Now() host.Tick
	SleepTicks(n host.Tick)
}

// Run waits until execTicks distinct tick edges have been observed, polling
// the clock and sleeping one tick between polls, so the job does not keep
// the CPU busy while it waits; it then calls complete(taskID). It never mutates any Task record -- it only
// knows the task's id and user task id. A panicking workload segment (were
// one ever plugged in in place of the built-in spin) is recovered and still
// results in a completion signal, so the coordinator is never left waiting
// forever on a job that failed catastrophically.
//
// Run returns once completion has been signaled (successfully or not); it
// never calls host.Kernel.Destroy itself for the normal-completion path --
// per the split-ownership rule, the coordinator's completion handling is
// responsible for that half of the lifecycle.
func Run(
	ctx context.Context,
	clock Clock,
	taskID uint32,
	userTaskID uint32,
	execTicks host.Tick,
	complete CompleteFunc,
	activity ActivityFunc,
) {
	completed := false
	defer func() {
		if recover() != nil && !completed {
			// The spin loop or an activity callback panicked before completion
			// was signaled. Still signal completion so the coordinator isn't
			// left waiting forever on a job that failed catastrophically.
			_ = signalCompletion(complete, taskID, nil)
		}
	}()

	if activity != nil {
		activity(userTaskID, true)
	}

	spin(ctx, clock, execTicks)

	if activity != nil {
		activity(userTaskID, false)
	}

	completed = true
	_ = signalCompletion(complete, taskID, nil)
}

// spin consumes execTicks tick edges, or returns early if ctx is canceled
// (the coordinator forcibly destroyed this job's context because it went
// overdue while still running).
func spin(ctx context.Context, clock Clock, execTicks host.Tick) {
	remaining := execTicks
	prev := clock.Now()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cur := clock.Now()
		if cur != prev {
			remaining--
			prev = cur
			continue
		}

		clock.SleepTicks(1)
	}
}

// signalCompletion calls complete once, retries exactly once on error, and
// otherwise gives up silently: per the scheduler's error-handling design, no
// error is ever surfaced back to a workload, and a dropped completion will
// be resolved later by the coordinator's deadline check.
func signalCompletion(complete CompleteFunc, taskID uint32, cause error) error {
	if complete == nil {
		return cause
	}
	if err := complete(taskID); err != nil {
		if err2 := complete(taskID); err2 != nil {
			return err2
		}
	}
	return cause
}
