// Package dds implements the Deadline-Driven Scheduler coordinator: the
// single-threaded event loop that owns the active/completed/overdue task
// lists and continuously rewrites host-kernel priorities so that the
// earliest-deadline job always runs. Everything else in this module — the
// generators, the worker shim, the monitor, the boundary API — exists to
// feed this loop or observe its state.
//
// The coordinator goroutine is the only writer of the three lists, which is
// what lets tasklist.List skip its own locking (see tasklist's doc comment):
// ownership, not a mutex, is what makes this safe.
package dds

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/generator"
	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/metrics"
	"github.com/samuel-barrett/ddsched/shim"
	"github.com/samuel-barrett/ddsched/tasklist"
)

// SnapshotRequest is one pending call to GetActiveList/GetCompletedList/
// GetOverdueList. Reply must be buffered (capacity >= 1) so the coordinator
// never blocks delivering it; the boundary API owns creating and reading it.
//
// spec.md §4.F describes this as a pair of fixed queues (a request queue and
// a response queue); here the reply channel is created fresh per call and
// carried on the request itself, which correlates each answer to its caller
// without that fixed pair letting two concurrent callers cross replies.
type SnapshotRequest struct {
	Reply chan []tasklist.Task
}

// Config bounds the coordinator's queues and yield behavior. Zero values are
// replaced by DefaultConfig's at NewCoordinator time.
type Config struct {
	Priorities Priorities

	// NewTaskQueueCap and CompleteQueueCap bound the release/completion
	// queues. spec.md §6 requires capacity >= 100 for the host-kernel queue
	// primitive the core assumes.
	NewTaskQueueCap  int
	CompleteQueueCap int

	// SnapshotQueueCap bounds each of the three request queues.
	SnapshotQueueCap int

	// MaxActive bounds the active list; a release that would exceed it is
	// dropped straight onto overdue (spec.md §4.D failure semantics). Zero
	// means unbounded.
	MaxActive int

	// YieldTicks is how long the coordinator sleeps at the end of every
	// iteration (spec.md §4.D step 5: "yield briefly... must not spin-wait").
	YieldTicks host.Tick

	// CompleteSendTimeout bounds how long a worker's completion signal is
	// allowed to block (spec.md §4.F/§7).
	CompleteSendTimeout time.Duration
}

// DefaultConfig returns a Config satisfying spec.md §6's capacity floor.
func DefaultConfig() Config {
	return Config{
		Priorities:          DefaultPriorities(),
		NewTaskQueueCap:     100,
		CompleteQueueCap:    100,
		SnapshotQueueCap:    16,
		MaxActive:           0,
		YieldTicks:          1,
		CompleteSendTimeout: time.Second,
	}
}

// ActivityFunc mirrors the original firmware's per-workload LED toggle; it
// is invoked true when a job starts consuming CPU, false when it stops or is
// forcibly deleted as overdue.
type ActivityFunc func(userTaskID uint32, on bool)

// Coordinator is the DDS event loop.
type Coordinator struct {
	kernel host.Kernel
	cfg    Config

	newTaskCh  chan generator.ReleaseRequest
	completeCh chan uint32

	activeReqCh    chan SnapshotRequest
	completedReqCh chan SnapshotRequest
	overdueReqCh   chan SnapshotRequest

	active    tasklist.List
	completed tasklist.List
	overdue   tasklist.List

	nextTaskID uint32

	activity ActivityFunc
	armFn    func()

	log     zerolog.Logger
	metrics metrics.Provider

	releases   metrics.Counter
	completes  metrics.Counter
	overdueCnt metrics.Counter
	dropped    metrics.Counter

	halted  bool
	fatalCh chan error
}

// NewCoordinator constructs a Coordinator. armFn is called whenever list
// contents change in a way the monitor cares about (completion or deadline
// expiry per spec.md §4.E); it is expected to be monitor.Armer.Arm and may
// be nil in tests that don't exercise the monitor.
func NewCoordinator(
	kernel host.Kernel,
	cfg Config,
	activity ActivityFunc,
	armFn func(),
	provider metrics.Provider,
	log zerolog.Logger,
) *Coordinator {
	if cfg.NewTaskQueueCap <= 0 {
		cfg.NewTaskQueueCap = DefaultConfig().NewTaskQueueCap
	}
	if cfg.CompleteQueueCap <= 0 {
		cfg.CompleteQueueCap = DefaultConfig().CompleteQueueCap
	}
	if cfg.SnapshotQueueCap <= 0 {
		cfg.SnapshotQueueCap = DefaultConfig().SnapshotQueueCap
	}
	if cfg.YieldTicks <= 0 {
		cfg.YieldTicks = 1
	}
	if cfg.CompleteSendTimeout <= 0 {
		cfg.CompleteSendTimeout = time.Second
	}
	if cfg.Priorities == (Priorities{}) {
		cfg.Priorities = DefaultPriorities()
	}
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}

	return &Coordinator{
		kernel:         kernel,
		cfg:            cfg,
		newTaskCh:      make(chan generator.ReleaseRequest, cfg.NewTaskQueueCap),
		completeCh:     make(chan uint32, cfg.CompleteQueueCap),
		activeReqCh:    make(chan SnapshotRequest, cfg.SnapshotQueueCap),
		completedReqCh: make(chan SnapshotRequest, cfg.SnapshotQueueCap),
		overdueReqCh:   make(chan SnapshotRequest, cfg.SnapshotQueueCap),
		activity:       activity,
		armFn:          armFn,
		metrics:        provider,
		log:            log.With().Str("component", "dds").Logger(),
		releases: provider.Counter("dds_releases_accepted",
			metrics.WithDescription("releases admitted into the active list")),
		completes: provider.Counter("dds_tasks_completed",
			metrics.WithDescription("jobs that completed before their deadline")),
		overdueCnt: provider.Counter("dds_tasks_overdue",
			metrics.WithDescription("jobs moved to overdue after missing their deadline")),
		dropped: provider.Counter("dds_releases_dropped",
			metrics.WithDescription("releases dropped because the active list was full")),
		fatalCh: make(chan error, 1),
	}
}

// NewTaskChan is the send side of the release queue: generators and the
// boundary API's Release call post ReleaseRequest values here.
func (c *Coordinator) NewTaskChan() chan<- generator.ReleaseRequest { return c.newTaskCh }

// CompleteChan is the send side of the completion queue.
func (c *Coordinator) CompleteChan() chan<- uint32 { return c.completeCh }

// ActiveRequests, CompletedRequests, and OverdueRequests are the send sides
// of the three snapshot-request queues (spec.md §4.F).
func (c *Coordinator) ActiveRequests() chan<- SnapshotRequest    { return c.activeReqCh }
func (c *Coordinator) CompletedRequests() chan<- SnapshotRequest { return c.completedReqCh }
func (c *Coordinator) OverdueRequests() chan<- SnapshotRequest   { return c.overdueReqCh }

// CompleteFunc returns the shim.CompleteFunc a spawned job should use to
// report its own completion: a single bounded-timeout send onto the
// coordinator's completion queue.
func (c *Coordinator) CompleteFunc() shim.CompleteFunc {
	return NewCompleteFunc(c.completeCh, c.cfg.CompleteSendTimeout)
}

// Fatal returns a channel that receives exactly one error if the host
// kernel ever rejects a priority change (spec.md §4.D: fatal, halts the
// scheduler). The owner of the Coordinator should select on this alongside
// Run returning to know the halt was involuntary.
func (c *Coordinator) Fatal() <-chan error { return c.fatalCh }

// Run executes the coordinator loop until ctx is canceled or a fatal
// host-kernel error occurs. Each iteration performs, in this fixed order:
// drain releases, drain completions, check deadlines, service snapshot
// requests, yield one tick. The order determines every tie-break the spec
// cares about (a completion and a deadline on the same tick, a snapshot
// taken mid-iteration, and so on).
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.drainNewTasks()
		if c.halted {
			return
		}
		c.drainCompletions()
		if c.halted {
			return
		}
		c.checkDeadlines()
		if c.halted {
			return
		}
		c.serviceSnapshots()

		select {
		case <-ctx.Done():
			return
		default:
			c.kernel.SleepTicks(c.cfg.YieldTicks)
		}
	}
}

func (c *Coordinator) drainNewTasks() {
	for {
		select {
		case req := <-c.newTaskCh:
			c.acceptRelease(req)
			if c.halted {
				return
			}
		default:
			return
		}
	}
}

func (c *Coordinator) acceptRelease(req generator.ReleaseRequest) {
	now := c.kernel.Now()
	taskID := c.nextTaskID
	c.nextTaskID++

	t := tasklist.Task{
		TaskID:           taskID,
		UserTaskID:       req.UserTaskID,
		Kind:             req.Kind,
		ReleaseTime:      now,
		AbsoluteDeadline: req.AbsoluteDeadline,
	}

	if c.cfg.MaxActive > 0 && c.active.Len() >= c.cfg.MaxActive {
		c.overdue.Push(t)
		c.dropped.Add(1)
		c.log.Warn().Uint32("task_id", taskID).Msg("active list full: release dropped straight to overdue")
		return
	}

	entry := c.buildEntry(taskID, req)
	handle, err := c.kernel.Spawn(entry, c.cfg.Priorities.IdleUser)
	if err != nil {
		c.log.Error().Err(err).Uint32("task_id", taskID).Msg("failed to spawn host execution context; release dropped")
		c.dropped.Add(1)
		return
	}
	t.Handle = handle

	c.active.Push(t)
	c.releases.Add(1)
	c.updatePriorities()
}

// buildEntry closes over everything a spawned job needs without giving it
// access to the lists or the coordinator itself, per spec.md §4.C: the shim
// only ever sees a task_id, a user_task_id, and a nominal execution time.
func (c *Coordinator) buildEntry(taskID uint32, req generator.ReleaseRequest) func(context.Context) {
	complete := c.CompleteFunc()
	activity := c.activity
	kernel := c.kernel
	execTicks := req.ExecTicks
	userTaskID := req.UserTaskID

	return func(ctx context.Context) {
		shim.Run(ctx, kernel, taskID, userTaskID, execTicks, complete, activity)
	}
}

func (c *Coordinator) drainCompletions() {
	for {
		select {
		case taskID := <-c.completeCh:
			c.completeTask(taskID)
			if c.halted {
				return
			}
		default:
			return
		}
	}
}

func (c *Coordinator) completeTask(taskID uint32) {
	t, ok := c.active.RemoveByID(taskID)
	if !ok {
		// Benign race with deadline expiry, or a retried/duplicate signal:
		// spec.md §7 says silently ignore.
		return
	}

	t.CompletionTime = c.kernel.Now()
	c.completed.Push(t)
	if err := c.kernel.Destroy(t.Handle); err != nil {
		c.log.Warn().Err(err).Uint32("task_id", taskID).Msg("destroying completed job's host context failed")
	}

	c.completes.Add(1)
	c.updatePriorities()
	c.arm()
}

func (c *Coordinator) checkDeadlines() {
	for {
		head, ok := c.active.Head()
		if !ok {
			return
		}
		now := c.kernel.Now()
		if !head.Overdue(now) {
			return
		}

		t, _ := c.active.RemoveByID(head.TaskID)
		if err := c.kernel.Destroy(t.Handle); err != nil {
			c.log.Warn().Err(err).Uint32("task_id", t.TaskID).Msg("destroying overdue job's host context failed")
		}
		if c.activity != nil {
			c.activity(t.UserTaskID, false)
		}
		t.CompletionTime = 0
		c.overdue.Push(t)

		c.overdueCnt.Add(1)
		c.log.Info().
			Uint32("task_id", t.TaskID).
			Uint32("deadline", uint32(t.AbsoluteDeadline)).
			Uint32("now", uint32(now)).
			Msg("job missed its deadline")

		c.updatePriorities()
		c.arm()
	}
}

func (c *Coordinator) serviceSnapshots() {
	serviceOne(c.activeReqCh, &c.active)
	serviceOne(c.completedReqCh, &c.completed)
	serviceOne(c.overdueReqCh, &c.overdue)
}

func serviceOne(reqCh chan SnapshotRequest, list *tasklist.List) {
	for {
		select {
		case req := <-reqCh:
			req.Reply <- list.Iter()
		default:
			return
		}
	}
}

// updatePriorities is spec.md §4.D's priority-update algorithm: the active
// head gets ActiveUser priority, every other active job gets IdleUser. A
// host-kernel rejection of any of these assignments is fatal (invariant 5
// can no longer be guaranteed), so Run halts immediately after recording it.
func (c *Coordinator) updatePriorities() {
	head, ok := c.active.Head()
	if !ok {
		return
	}

	for _, t := range c.active.Iter() {
		prio := c.cfg.Priorities.IdleUser
		if t.TaskID == head.TaskID {
			prio = c.cfg.Priorities.ActiveUser
		}
		if err := c.kernel.SetPriority(t.Handle, prio); err != nil {
			c.fail(fmt.Errorf("%w: task %d: %v", ErrPriorityChangeFailed, t.TaskID, err))
			return
		}
	}
}

func (c *Coordinator) arm() {
	if c.armFn != nil {
		c.armFn()
	}
}

func (c *Coordinator) fail(err error) {
	c.halted = true
	c.log.Error().Err(err).Msg("fatal: host kernel priority change failed, scheduler halting")
	select {
	case c.fatalCh <- err:
	default:
	}
}
