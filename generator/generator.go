// Package generator implements the periodic release timers described in
// spec.md §4.B: one generator per configured periodic workload, firing
// every Period ticks and emitting a ReleaseRequest that the DDS coordinator
// will assign a task id to on acceptance.
//
// The channel-centric, bounded-timeout send here is grounded on the
// teacher's boundary-API style (workers.go's AddTask / RunAll's enqueue
// loop): a release that cannot be accepted within SendTimeout is dropped
// and an error counter advances; deadlines are never adjusted to
// compensate, matching spec.md §4.B's failure semantics exactly.
package generator

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/metrics"
	"github.com/samuel-barrett/ddsched/tasklist"
)

// ReleaseRequest is what a generator (or a caller releasing an aperiodic
// job) sends toward the DDS coordinator. TaskID is deliberately absent: the
// coordinator assigns it on acceptance.
type ReleaseRequest struct {
	Kind             tasklist.Kind
	UserTaskID       uint32
	AbsoluteDeadline host.Tick
	ExecTicks        host.Tick
}

// Config describes one periodic workload.
type Config struct {
	UserTaskID uint32
	Period     host.Tick
	ExecTicks  host.Tick
}

// Generator periodically builds and emits ReleaseRequest values for one
// configured periodic workload.
type Generator struct {
	cfg         Config
	clock       host.Kernel
	out         chan<- ReleaseRequest
	sendTimeout time.Duration
	tickUnit    time.Duration

	metrics metrics.Provider
	log     zerolog.Logger

	dropped metrics.Counter
}

// New constructs a Generator for cfg, sending accepted releases on out.
// sendTimeout bounds how long a blocked send is tolerated before the
// release is dropped (spec.md §4.B); tickUnit converts one host.Tick into
// real time so the generator's period actually elapses in wall-clock time
// when driven by a real clock.
func New(
	cfg Config,
	clock host.Kernel,
	out chan<- ReleaseRequest,
	sendTimeout time.Duration,
	tickUnit time.Duration,
	provider metrics.Provider,
	log zerolog.Logger,
) *Generator {
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}

	return &Generator{
		cfg:         cfg,
		clock:       clock,
		out:         out,
		sendTimeout: sendTimeout,
		tickUnit:    tickUnit,
		metrics:     provider,
		log:         log.With().Uint32("user_task_id", cfg.UserTaskID).Logger(),
		dropped: provider.Counter(
			"generator_releases_dropped",
			metrics.WithDescription("releases dropped because the new-task queue did not drain in time"),
			metrics.WithAttributes(map[string]string{"user_task_id": strconv.FormatUint(uint64(cfg.UserTaskID), 10)}),
		),
	}
}

// Run fires every cfg.Period ticks until ctx is canceled, building a
// PERIODIC ReleaseRequest with an implicit deadline (AbsoluteDeadline =
// now + Period, preserved verbatim from the original firmware per
// SPEC_FULL.md's Open Question 1) and attempting to send it within
// sendTimeout.
func (g *Generator) Run(ctx context.Context) {
	period := time.Duration(g.cfg.Period) * g.tickUnit
	if period <= 0 {
		period = time.Millisecond
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.fire()
		}
	}
}

func (g *Generator) fire() {
	now := g.clock.Now()
	req := ReleaseRequest{
		Kind:             tasklist.KindPeriodic,
		UserTaskID:       g.cfg.UserTaskID,
		AbsoluteDeadline: now + g.cfg.Period,
		ExecTicks:        g.cfg.ExecTicks,
	}

	timer := time.NewTimer(g.sendTimeout)
	defer timer.Stop()

	select {
	case g.out <- req:
	case <-timer.C:
		g.dropped.Add(1)
		g.log.Warn().
			Uint32("deadline", uint32(req.AbsoluteDeadline)).
			Msg("dropped release: new-task queue did not drain within timeout")
	}
}
