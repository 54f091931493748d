package scheduler

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/dds"
	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/metrics"
)

// Option configures a Scheduler. Use NewOptions(opts...) to construct one.
type Option func(*Config)

// WithWorkload adds one periodic workload (spec.md §4.B).
func WithWorkload(userTaskID uint32, period, execTicks host.Tick) Option {
	return func(c *Config) {
		c.Workloads = append(c.Workloads, Workload{UserTaskID: userTaskID, Period: period, ExecTicks: execTicks})
	}
}

// WithTickDuration sets how much wall-clock time one host.Tick represents.
func WithTickDuration(d time.Duration) Option {
	return func(c *Config) { c.TickDuration = d }
}

// WithQueueCapacity sets the release/completion/snapshot queue capacity.
func WithQueueCapacity(n int) Option {
	return func(c *Config) { c.QueueCapacity = n }
}

// WithSendTimeout sets the bounded timeout for Release, Complete, and
// snapshot calls.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Config) { c.SendTimeout = d }
}

// WithMaxActive bounds the active list.
func WithMaxActive(n int) Option {
	return func(c *Config) { c.MaxActive = n }
}

// WithPriorities overrides the host-priority hierarchy.
func WithPriorities(p dds.Priorities) Option {
	return func(c *Config) { c.Priorities = p }
}

// WithActivityIndicator installs the LED-equivalent activity callback.
func WithActivityIndicator(f func(userTaskID uint32, on bool)) Option {
	return func(c *Config) { c.ActivityIndicator = f }
}

// WithMonitorOutput redirects the monitor's report.
func WithMonitorOutput(w io.Writer) Option {
	return func(c *Config) { c.MonitorOutput = w }
}

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetricsProvider installs a metrics.Provider.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(c *Config) { c.MetricsProvider = p }
}

// WithKernel installs a host.Kernel, typically a *host.FakeKernel in tests.
func WithKernel(k host.Kernel) Option {
	return func(c *Config) { c.Kernel = k }
}

// NewOptions builds a Scheduler from functional options, starting from
// defaultConfig.
func NewOptions(opts ...Option) (*Scheduler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			panic("nil scheduler option")
		}
		opt(&cfg)
	}
	return New(&cfg)
}
