package scheduler

import "errors"

const Namespace = "scheduler"

var (
	// ErrInvalidConfig is returned by New/NewOptions when Config fails
	// validation.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrSendTimeout is the underlying cause of every bounded-timeout
	// boundary-API failure (Release, Complete, the three snapshot calls):
	// spec.md §7 disposes of each one differently, but they all originate
	// here. Use errors.Is to detect the class, ExtractTaskID/
	// ExtractUserTaskID to recover correlation metadata.
	ErrSendTimeout = errors.New(Namespace + ": queue send timed out")

	// ErrNotStarted is returned by boundary calls made before Start.
	ErrNotStarted = errors.New(Namespace + ": scheduler has not been started")
)
