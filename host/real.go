package host

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samuel-barrett/ddsched/pool"
)

// slot is the reusable bookkeeping object recycled by RealKernel's pool,
// mirroring the way the teacher's dispatcher recycles *worker objects around
// each execution rather than allocating one per task.
type slot struct {
	cancel   context.CancelFunc
	priority int32
}

// RealKernel is a goroutine-backed reference implementation of Kernel.
//
// Go gives user code no portable way to ask the OS scheduler to run one
// goroutine strictly before another the way a fixed-priority RTOS runs its
// highest-priority ready task: SetPriority here only updates bookkeeping
// used for observability (the monitor report, tests asserting invariant 5).
// It does not change how the Go runtime schedules the underlying goroutine.
// A production deployment of this scheduler would replace RealKernel with a
// binding to an actual RTOS or a cgo shim over sched_setscheduler, which is
// exactly the "host real-time kernel" the core spec treats as an external
// collaborator (see SPEC_FULL.md's DOMAIN STACK and spec.md §1/§6).
type RealKernel struct {
	start        time.Time
	tickDuration time.Duration

	mu      sync.Mutex
	next    Handle
	slots   map[Handle]*slot
	pool    pool.Pool
	wg      sync.WaitGroup
	inflight int64
}

// NewRealKernel constructs a RealKernel whose tick counter advances one unit
// every tickDuration of wall-clock time. poolCapacity, when non-zero, caps
// the number of recycled slot objects kept warm (see pool.NewFixed); zero
// selects the dynamic sync.Pool-backed strategy (pool.NewDynamic).
func NewRealKernel(tickDuration time.Duration, poolCapacity uint) *RealKernel {
	newSlot := func() interface{} { return &slot{} }

	var p pool.Pool
	if poolCapacity > 0 {
		p = pool.NewFixed(poolCapacity, newSlot)
	} else {
		p = pool.NewDynamic(newSlot)
	}

	return &RealKernel{
		start:        time.Now(),
		tickDuration: tickDuration,
		slots:        make(map[Handle]*slot),
		pool:         p,
	}
}

// Now returns the elapsed ticks since the kernel was constructed.
func (k *RealKernel) Now() Tick {
	return Tick(time.Since(k.start) / k.tickDuration)
}

// SleepTicks suspends the calling goroutine for n ticks of wall-clock time.
func (k *RealKernel) SleepTicks(n Tick) {
	time.Sleep(time.Duration(n) * k.tickDuration)
}

// Spawn obtains a recycled slot, assigns it a cancelable context, and runs
// entry in a new goroutine tracked by the kernel's WaitGroup so Close/Wait
// (used by tests and graceful shutdown) can observe quiescence.
func (k *RealKernel) Spawn(entry func(ctx context.Context), priority int) (Handle, error) {
	if entry == nil {
		return 0, fmt.Errorf("host: Spawn requires a non-nil entry")
	}

	s := k.pool.Get().(*slot)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	atomic.StoreInt32(&s.priority, int32(priority))

	k.mu.Lock()
	k.next++
	h := k.next
	k.slots[h] = s
	k.mu.Unlock()

	k.wg.Add(1)
	atomic.AddInt64(&k.inflight, 1)
	go func() {
		defer k.wg.Done()
		defer atomic.AddInt64(&k.inflight, -1)
		entry(ctx)
	}()

	return h, nil
}

// SetPriority updates the recorded priority for h.
func (k *RealKernel) SetPriority(h Handle, priority int) error {
	k.mu.Lock()
	s, ok := k.slots[h]
	k.mu.Unlock()
	if !ok {
		return fmt.Errorf("host: SetPriority on unknown handle %d", h)
	}
	atomic.StoreInt32(&s.priority, int32(priority))
	return nil
}

// Priority returns the last priority recorded for h, for observability.
func (k *RealKernel) Priority(h Handle) (int, bool) {
	k.mu.Lock()
	s, ok := k.slots[h]
	k.mu.Unlock()
	if !ok {
		return 0, false
	}
	return int(atomic.LoadInt32(&s.priority)), true
}

// Destroy cancels h's context, releases it from tracking, and returns the
// slot to the pool for reuse. Destroying an unknown handle is a no-op.
func (k *RealKernel) Destroy(h Handle) error {
	k.mu.Lock()
	s, ok := k.slots[h]
	if ok {
		delete(k.slots, h)
	}
	k.mu.Unlock()

	if !ok {
		return nil
	}
	s.cancel()
	k.pool.Put(s)
	return nil
}

// Wait blocks until every spawned entry has returned. Intended for tests and
// orderly shutdown of a demo run, not for the coordinator's own hot path.
func (k *RealKernel) Wait() {
	k.wg.Wait()
}

// Inflight returns the number of currently running spawned contexts.
func (k *RealKernel) Inflight() int64 {
	return atomic.LoadInt64(&k.inflight)
}
