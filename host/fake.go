package host

import (
	"context"
	"sync"
)

// PriorityChange records one SetPriority call observed by a FakeKernel.
type PriorityChange struct {
	Handle   Handle
	Priority int
}

// FakeKernel is a deterministic, in-memory Kernel used by dds/generator/shim
// tests. It never spawns a real goroutine to run entry automatically; tests
// drive completion and deadline expiry explicitly, and Now/SleepTicks are controlled
// by SetNow rather than wall-clock time. This lets coordinator tests assert
// invariant 5 (the active head always carries a strictly higher priority
// than the rest) without depending on real scheduling or sleeps.
type FakeKernel struct {
	mu sync.Mutex

	now Tick

	nextHandle Handle
	destroyed  map[Handle]bool
	priorities map[Handle]int

	// FailSetPriority, when non-nil, is returned by every SetPriority call;
	// used to exercise the "host-kernel priority-change failure is fatal"
	// error path.
	FailSetPriority error

	changes []PriorityChange
}

// NewFakeKernel constructs an empty FakeKernel with the tick counter at 0.
func NewFakeKernel() *FakeKernel {
	return &FakeKernel{
		destroyed:  make(map[Handle]bool),
		priorities: make(map[Handle]int),
	}
}

// SetNow sets the value Now() will report.
func (k *FakeKernel) SetNow(t Tick) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.now = t
}

// Advance increments the tick counter by n and returns the new value.
func (k *FakeKernel) Advance(n Tick) Tick {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.now += n
	return k.now
}

func (k *FakeKernel) Now() Tick {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

// SleepTicks is a no-op on FakeKernel; tests advance time explicitly.
func (k *FakeKernel) SleepTicks(Tick) {}

// Spawn allocates a handle but deliberately never runs entry: coordinator
// tests drive completion and deadline expiry explicitly (via CompleteChan
// and SetNow/Advance) rather than racing against a real workload goroutine.
// entry is accepted only to satisfy host.Kernel's signature; callers that
// need it to actually execute should run it themselves, e.g. `go entry(ctx)`.
func (k *FakeKernel) Spawn(entry func(ctx context.Context), priority int) (Handle, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextHandle++
	h := k.nextHandle
	k.priorities[h] = priority
	return h, nil
}

func (k *FakeKernel) SetPriority(h Handle, priority int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.FailSetPriority != nil {
		return k.FailSetPriority
	}
	k.priorities[h] = priority
	k.changes = append(k.changes, PriorityChange{Handle: h, Priority: priority})
	return nil
}

func (k *FakeKernel) Destroy(h Handle) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.destroyed[h] = true
	return nil
}

// Priority returns the last priority recorded for h.
func (k *FakeKernel) Priority(h Handle) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.priorities[h]
}

// Destroyed reports whether Destroy has been called for h.
func (k *FakeKernel) Destroyed(h Handle) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.destroyed[h]
}

// Changes returns a copy of every SetPriority call observed so far, in call
// order.
func (k *FakeKernel) Changes() []PriorityChange {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]PriorityChange, len(k.changes))
	copy(out, k.changes)
	return out
}
