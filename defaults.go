package scheduler

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuel-barrett/ddsched/dds"
	"github.com/samuel-barrett/ddsched/metrics"
)

// defaultConfig centralizes default values for Config.
// These defaults are applied by both New (when cfg is nil) and NewOptions
// (options builder base).
func defaultConfig() Config {
	return Config{
		TickDuration:    time.Millisecond,
		QueueCapacity:   100,
		SendTimeout:     time.Second,
		MaxActive:       0,
		Priorities:      dds.DefaultPriorities(),
		MonitorOutput:   os.Stdout,
		Logger:          zerolog.Nop(),
		MetricsProvider: metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariant checks.
func validateConfig(cfg *Config) error {
	if cfg.TickDuration <= 0 {
		return fmt.Errorf("%w: TickDuration must be positive", ErrInvalidConfig)
	}
	if cfg.QueueCapacity <= 0 {
		return fmt.Errorf("%w: QueueCapacity must be positive", ErrInvalidConfig)
	}
	if cfg.SendTimeout <= 0 {
		return fmt.Errorf("%w: SendTimeout must be positive", ErrInvalidConfig)
	}
	for _, wl := range cfg.Workloads {
		if wl.UserTaskID == 0 {
			return fmt.Errorf("%w: workload UserTaskID 0 is reserved for aperiodic releases", ErrInvalidConfig)
		}
		if wl.Period == 0 {
			return fmt.Errorf("%w: workload %d has a zero Period", ErrInvalidConfig, wl.UserTaskID)
		}
	}
	return nil
}
