package dds

import "errors"

const Namespace = "dds"

// ErrPriorityChangeFailed is the cause reported on Coordinator's Fatal
// channel when the host kernel rejects a priority change. spec.md §4.D
// treats this as fatal: the scheduler halts rather than continuing with a
// stale priority assignment.
var ErrPriorityChangeFailed = errors.New(Namespace + ": host kernel rejected a priority change")
