// Package scheduler is a user-space Earliest-Deadline-First coordination
// layer for a host kernel that only natively supports fixed-priority
// preemptive scheduling. A Scheduler accepts release requests for periodic
// and aperiodic jobs carrying an absolute deadline, orders them by deadline,
// and continuously rewrites the host kernel's task priorities so the job
// with the earliest deadline always runs. Completed jobs and jobs that
// missed their deadline are tracked separately and exposed to an observer
// (the monitor, or any other caller of the snapshot calls).
//
// Constructors
//   - New(*Config): accepts an explicit Config.
//   - NewOptions(opts ...Option): options-based constructor; prefer this in
//     new code, including the bench presets (WithBench1/2/3).
//
// Defaults
// Unless overridden, defaultConfig applies:
//   - TickDuration: 1ms (one host tick equals one millisecond of wall time)
//   - QueueCapacity: 100 (spec requires capacity >= 100 for the host queue primitive)
//   - SendTimeout: 1s
//   - Priorities: dds.DefaultPriorities()
//   - MonitorOutput: os.Stdout
//   - Logger: a disabled zerolog.Logger
//   - MetricsProvider: a no-op metrics.Provider
//   - Kernel: a host.RealKernel paced by TickDuration
//
// The coordination core lives in the dds, generator, shim, monitor,
// tasklist, and host subpackages; Scheduler is the facade that wires them
// together and exposes the five-call boundary API (Release, Complete,
// GetActiveList, GetCompletedList, GetOverdueList).
package scheduler
