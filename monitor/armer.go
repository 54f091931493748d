// Package monitor implements the on-demand snapshot printer described in
// spec.md §4.E: a level-triggered, coalescing consumer that the DDS
// coordinator arms whenever a completion or a deadline miss changes list
// contents, and that prints a report of all three lists and goes back to
// sleep.
//
// The single dedicated goroutine, started lazily on first arm and fed by a
// buffered channel that silently coalesces redundant signals, is grounded on
// the teacher's reorderer: one goroutine, one input channel, no channel
// ownership beyond what it reads.
package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/tasklist"
)

// Client is the subset of the boundary API (spec.md §4.F) the monitor needs
// to pull a snapshot of each list. *scheduler.Scheduler implements this.
type Client interface {
	GetActiveList(ctx context.Context) ([]tasklist.Task, error)
	GetCompletedList(ctx context.Context) ([]tasklist.Task, error)
	GetOverdueList(ctx context.Context) ([]tasklist.Task, error)
}

// Clock supplies the current tick for the report header.
type Clock interface {
	Now() host.Tick
}

// Armer is the monitor's lazily-created consumer. Construct one per
// Scheduler lifetime and pass its Arm method to dds.NewCoordinator as the
// arm callback.
type Armer struct {
	ctx context.Context

	client       Client
	clock        Clock
	tickDuration time.Duration
	out          io.Writer
	log          zerolog.Logger

	mu      sync.Mutex
	started bool
	armCh   chan struct{}
	wg      sync.WaitGroup
}

// NewArmer constructs an Armer bound to ctx: the goroutine it lazily starts
// on first Arm exits when ctx is canceled, mirroring the original firmware's
// monitor task living for the lifetime of the scheduler once created.
// tickDuration converts a host.Tick into the milliseconds the report prints,
// matching the original's pdTICKS_TO_MS macro; out is where the report text
// is written (typically os.Stdout).
func NewArmer(ctx context.Context, client Client, clock Clock, tickDuration time.Duration, out io.Writer, log zerolog.Logger) *Armer {
	if tickDuration <= 0 {
		tickDuration = time.Millisecond
	}
	return &Armer{
		ctx:          ctx,
		client:       client,
		clock:        clock,
		tickDuration: tickDuration,
		out:          out,
		log:          log.With().Str("component", "monitor").Logger(),
		armCh:        make(chan struct{}, 1),
	}
}

// Arm signals the monitor to produce a report. The first call lazily starts
// the monitor's goroutine (spec.md §4.E: "initially does not exist"); every
// call thereafter is a non-blocking, coalescing signal — multiple arms that
// arrive before the monitor gets around to running collapse into a single
// report, same as the original's level-triggered binary semaphore.
func (a *Armer) Arm() {
	a.mu.Lock()
	if !a.started {
		a.started = true
		a.wg.Add(1)
		go a.run()
	}
	a.mu.Unlock()

	select {
	case a.armCh <- struct{}{}:
	default:
	}
}

// Wait blocks until the monitor's goroutine has exited (ctx canceled). It is
// a no-op if the monitor was never armed.
func (a *Armer) Wait() {
	a.wg.Wait()
}

func (a *Armer) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.armCh:
			a.report()
		}
	}
}

func (a *Armer) report() {
	now := a.clock.Now()

	active, err := a.client.GetActiveList(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("snapshot timed out; reporting empty active list")
		active = nil
	}
	completed, err := a.client.GetCompletedList(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("snapshot timed out; reporting empty completed list")
		completed = nil
	}
	overdue, err := a.client.GetOverdueList(a.ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("snapshot timed out; reporting empty overdue list")
		overdue = nil
	}

	report := Format(now, a.tickDuration, active, completed, overdue)
	if _, err := io.WriteString(a.out, report); err != nil {
		a.log.Warn().Err(err).Msg("failed to write monitor report")
	}
}
