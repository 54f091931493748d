package scheduler

// The three named test benches from the original firmware's
// #ifdef TEST_BENCH_N blocks (spec.md §6), preserved verbatim as selectable
// presets. All periods and execution times are in ticks, and ticks=ms under
// the default TickDuration.

// WithBench1 adds Bench 1's three workloads: P1=500/C1=95, P2=500/C2=150,
// P3=750/C3=250. Total utilization 0.82: expected to run with zero overdue.
func WithBench1() Option {
	return func(c *Config) {
		c.Workloads = append(c.Workloads,
			Workload{UserTaskID: 1, Period: 500, ExecTicks: 95},
			Workload{UserTaskID: 2, Period: 500, ExecTicks: 150},
			Workload{UserTaskID: 3, Period: 750, ExecTicks: 250},
		)
	}
}

// WithBench2 adds Bench 2's three workloads: P1=250/C1=95, P2=500/C2=150,
// P3=750/C3=250.
func WithBench2() Option {
	return func(c *Config) {
		c.Workloads = append(c.Workloads,
			Workload{UserTaskID: 1, Period: 250, ExecTicks: 95},
			Workload{UserTaskID: 2, Period: 500, ExecTicks: 150},
			Workload{UserTaskID: 3, Period: 750, ExecTicks: 250},
		)
	}
}

// WithBench3 adds Bench 3's three workloads: P1=500/C1=100, P2=500/C2=200,
// P3=500/C3=200. Total utilization 1.0: expected to produce overdue jobs.
func WithBench3() Option {
	return func(c *Config) {
		c.Workloads = append(c.Workloads,
			Workload{UserTaskID: 1, Period: 500, ExecTicks: 100},
			Workload{UserTaskID: 2, Period: 500, ExecTicks: 200},
			Workload{UserTaskID: 3, Period: 500, ExecTicks: 200},
		)
	}
}
