package scheduler

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/dds"
	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/metrics"
)

// Workload describes one periodic workload a Scheduler should generate
// releases for (spec.md §4.B). UserTaskID must be nonzero; 0 is reserved for
// aperiodic releases made directly through Release.
type Workload struct {
	UserTaskID uint32
	Period     host.Tick
	ExecTicks  host.Tick
}

// Config holds Scheduler configuration.
type Config struct {
	// Workloads are the periodic generators started by Start. Aperiodic jobs
	// are released directly via Release and need no entry here.
	Workloads []Workload

	// TickDuration is how much wall-clock time one host.Tick represents.
	// Default: 1ms (ticks=ms, matching the bench presets in spec.md §6).
	TickDuration time.Duration

	// QueueCapacity bounds the release, completion, and snapshot-request
	// queues. spec.md §6 requires capacity >= 100 for the host queue
	// primitive the core assumes.
	QueueCapacity int

	// SendTimeout bounds Release, Complete, and snapshot calls (spec.md
	// §4.F: "design value: 1s in host-ticks").
	SendTimeout time.Duration

	// MaxActive bounds the active list; a release beyond it is dropped
	// straight to overdue (spec.md §4.D). Zero means unbounded.
	MaxActive int

	// Priorities is the host-priority hierarchy the coordinator assigns.
	Priorities dds.Priorities

	// ActivityIndicator is invoked true/false around a job's execution
	// window and on forced overdue deletion -- the LED-equivalent side
	// channel from the original firmware. May be nil.
	ActivityIndicator func(userTaskID uint32, on bool)

	// MonitorOutput is where the monitor's periodic report is written.
	// Default: os.Stdout.
	MonitorOutput io.Writer

	// Logger is used for structured event logging throughout the
	// scheduler. Default: a disabled zerolog.Logger.
	Logger zerolog.Logger

	// MetricsProvider backs every counter the scheduler records. Default:
	// a no-op provider.
	MetricsProvider metrics.Provider

	// Kernel is the host-kernel implementation to drive. Default: a
	// host.RealKernel paced by TickDuration. Tests typically supply a
	// *host.FakeKernel here.
	Kernel host.Kernel
}
