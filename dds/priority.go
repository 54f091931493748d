package dds

// Priorities is the strict hierarchy spec.md §4.D/§5 requires:
// MonitorActive > DDS > ActiveUser > IdleUser >= MonitorIdle. Values are
// host-kernel priority numbers (higher runs first), handed straight to
// host.Kernel.SetPriority.
type Priorities struct {
	MonitorActive int
	DDS           int
	ActiveUser    int
	IdleUser      int
	MonitorIdle   int
}

// DefaultPriorities returns a hierarchy satisfying the strict ordering with
// headroom between every level, named rather than derived from arithmetic
// on a single base constant (spec.md §9 flags "implicit priority arithmetic"
// as a redesign target).
func DefaultPriorities() Priorities {
	return Priorities{
		MonitorActive: 50,
		DDS:           40,
		ActiveUser:    30,
		IdleUser:      20,
		MonitorIdle:   20,
	}
}
