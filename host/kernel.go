// Package host specifies the external host real-time kernel contract the
// scheduler core assumes: a monotonic tick counter, cooperative sleeps, and
// the ability to spawn, re-prioritize, and destroy an opaque execution
// context. See RealKernel for a goroutine-backed reference implementation
// suitable for running the scheduler without real embedded hardware.
//
// A real fixed-priority preemptive kernel (FreeRTOS, the original system
// this module reimplements, or any RTOS) is the intended backing
// implementation in production; priority values set through this interface
// would there translate directly into OS task priorities. RealKernel cannot
// make that guarantee in user-space Go -- see its doc comment.
package host

import (
	"context"

	"github.com/samuel-barrett/ddsched/tasklist"
)

// Tick re-exports tasklist.Tick so callers of this package don't need to
// import tasklist solely for the timestamp type.
type Tick = tasklist.Tick

// Handle is an opaque capability identifying a spawned execution context.
// The DDS coordinator destroys a Handle on both paths out of the active list:
// when the job's completion is received and when its deadline expires. The
// workload (shim) never destroys its own Handle.
type Handle = tasklist.Handle

// Kernel is the set of host operations the DDS coordinator, generators, and
// worker shims rely on. Implementations must be safe for concurrent use:
// Spawn/SetPriority/Destroy may be called from the coordinator while other
// spawned contexts call Now/SleepTicks concurrently.
type Kernel interface {
	// Now returns the current tick count.
	Now() Tick

	// SleepTicks cooperatively suspends the calling goroutine for n ticks.
	SleepTicks(n Tick)

	// Spawn creates a new execution context running entry and returns a
	// handle to it. entry is invoked in its own goroutine; it must return
	// promptly after ctx is canceled.
	Spawn(entry func(ctx context.Context), priority int) (Handle, error)

	// SetPriority changes the host priority of the context identified by h.
	// A failure here is, per the scheduler's error-handling design, fatal.
	SetPriority(h Handle, priority int) error

	// Destroy tears down the execution context identified by h. Destroying
	// an unknown or already-destroyed handle is a no-op.
	Destroy(h Handle) error
}
