package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samuel-barrett/ddsched/dds"
	"github.com/samuel-barrett/ddsched/generator"
	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/monitor"
	"github.com/samuel-barrett/ddsched/tasklist"
)

// Scheduler is the facade over the coordination core: it wires a
// dds.Coordinator, one generator.Generator per configured Workload, and a
// monitor.Armer together, and exposes the five-call boundary API.
//
// Scheduler is not started automatically; call Start(ctx) once. A Scheduler
// satisfies monitor.Client, so it can pass itself to its own monitor.Armer.
type Scheduler struct {
	cfg    Config
	kernel host.Kernel

	startOnce sync.Once
	started   bool

	coordinator *dds.Coordinator
	armer       *monitor.Armer
	lifecycle   *lifecycleCoordinator
}

// New constructs a Scheduler from an explicit Config. A nil cfg uses
// defaultConfig(). The Scheduler is not started; call Start.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		d := defaultConfig()
		cfg = &d
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	kernel := cfg.Kernel
	if kernel == nil {
		kernel = host.NewRealKernel(cfg.TickDuration, 0)
	}

	return &Scheduler{cfg: *cfg, kernel: kernel}, nil
}

// Start wires and launches the coordinator, one generator per configured
// workload, and the monitor's armer. Start may be called only once; later
// calls are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)

		s.armer = monitor.NewArmer(runCtx, s, s.kernel, s.cfg.TickDuration, s.cfg.MonitorOutput, s.cfg.Logger)

		ddsCfg := dds.DefaultConfig()
		ddsCfg.Priorities = s.cfg.Priorities
		ddsCfg.NewTaskQueueCap = s.cfg.QueueCapacity
		ddsCfg.CompleteQueueCap = s.cfg.QueueCapacity
		ddsCfg.SnapshotQueueCap = s.cfg.QueueCapacity
		ddsCfg.MaxActive = s.cfg.MaxActive
		ddsCfg.CompleteSendTimeout = s.cfg.SendTimeout

		s.coordinator = dds.NewCoordinator(s.kernel, ddsCfg, s.cfg.ActivityIndicator, s.armer.Arm, s.cfg.MetricsProvider, s.cfg.Logger)

		var wg sync.WaitGroup

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.coordinator.Run(runCtx)
		}()

		// A fatal host-kernel priority-change failure stops the coordinator;
		// propagate that to the generators and the monitor too, rather than
		// leaving them running against a dead coordinator.
		go func() {
			select {
			case <-s.coordinator.Fatal():
				cancel()
			case <-runCtx.Done():
			}
		}()

		for _, wl := range s.cfg.Workloads {
			g := generator.New(
				generator.Config{UserTaskID: wl.UserTaskID, Period: wl.Period, ExecTicks: wl.ExecTicks},
				s.kernel,
				s.coordinator.NewTaskChan(),
				s.cfg.SendTimeout,
				s.cfg.TickDuration,
				s.cfg.MetricsProvider,
				s.cfg.Logger,
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				g.Run(runCtx)
			}()
		}

		var waitKernel func()
		if rk, ok := s.kernel.(*host.RealKernel); ok {
			waitKernel = rk.Wait
		}

		s.lifecycle = newLifecycleCoordinator(cancel, &wg, s.armer.Wait, waitKernel)
		s.started = true
	})
}

// Close runs the shutdown sequence: cancels the run context, waits for the
// coordinator, generators, and monitor to return, and (for a real kernel)
// waits for in-flight jobs to return. Close is a no-op if Start was never
// called.
func (s *Scheduler) Close() {
	if s.lifecycle != nil {
		s.lifecycle.Close()
	}
}

// Fatal reports a host-kernel priority-change failure, if one ever occurs
// (spec.md §4.D: fatal, the scheduler halts). Before Start it returns a nil
// channel, on which a receive blocks forever.
func (s *Scheduler) Fatal() <-chan error {
	if s.coordinator == nil {
		return nil
	}
	return s.coordinator.Fatal()
}

// Release submits a new job (spec.md §4.F). For APERIODIC releases the
// caller supplies both the absolute deadline and the nominal execution
// ticks directly, since the scheduler has no generator configured for
// user_task_id 0 to supply them (spec.md §9's Open Question: aperiodic
// release policy is left to the caller).
func (s *Scheduler) Release(kind tasklist.Kind, userTaskID uint32, deadline, execTicks host.Tick) error {
	if !s.started {
		return ErrNotStarted
	}

	req := generator.ReleaseRequest{
		Kind:             kind,
		UserTaskID:       userTaskID,
		AbsoluteDeadline: deadline,
		ExecTicks:        execTicks,
	}

	timer := time.NewTimer(s.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case s.coordinator.NewTaskChan() <- req:
		return nil
	case <-timer.C:
		return newTaggedError(fmt.Errorf("%w: release dropped", ErrSendTimeout)).withUserTaskID(userTaskID)
	}
}

// Complete reports a job's completion directly through the boundary API.
// Workers spawned by the scheduler itself use dds.Coordinator.CompleteFunc
// instead; Complete exists for callers (and tests) driving completion from
// outside the spawned job.
func (s *Scheduler) Complete(taskID uint32) error {
	if !s.started {
		return ErrNotStarted
	}

	timer := time.NewTimer(s.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case s.coordinator.CompleteChan() <- taskID:
		return nil
	case <-timer.C:
		return newTaggedError(fmt.Errorf("%w: completion dropped", ErrSendTimeout)).withTaskID(taskID)
	}
}

// GetActiveList, GetCompletedList, and GetOverdueList implement
// monitor.Client and the three remaining boundary-API calls.
func (s *Scheduler) GetActiveList(ctx context.Context) ([]tasklist.Task, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.snapshot(ctx, s.coordinator.ActiveRequests())
}

func (s *Scheduler) GetCompletedList(ctx context.Context) ([]tasklist.Task, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.snapshot(ctx, s.coordinator.CompletedRequests())
}

func (s *Scheduler) GetOverdueList(ctx context.Context) ([]tasklist.Task, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.snapshot(ctx, s.coordinator.OverdueRequests())
}

func (s *Scheduler) snapshot(ctx context.Context, reqCh chan<- dds.SnapshotRequest) ([]tasklist.Task, error) {
	if !s.started {
		return nil, ErrNotStarted
	}

	req := dds.SnapshotRequest{Reply: make(chan []tasklist.Task, 1)}

	sendTimer := time.NewTimer(s.cfg.SendTimeout)
	defer sendTimer.Stop()

	select {
	case reqCh <- req:
	case <-sendTimer.C:
		return nil, fmt.Errorf("%w: snapshot request send timed out", ErrSendTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	replyTimer := time.NewTimer(s.cfg.SendTimeout)
	defer replyTimer.Stop()

	select {
	case list := <-req.Reply:
		return list, nil
	case <-replyTimer.C:
		return nil, fmt.Errorf("%w: snapshot reply timed out", ErrSendTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
