package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/tasklist"
)

const separator = "----------------------------------------"

// Format renders the exact three-list report spec.md §6 describes: a header
// with the current time in milliseconds, then the Active, Completed, and
// Overdue lists in that order, each with a size and a row per task, followed
// by a separator line.
func Format(now host.Tick, tickDuration time.Duration, active, completed, overdue []tasklist.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monitor Task | Current Time: %d\n", ticksToMs(now, tickDuration))
	writeList(&b, "Active", active, tickDuration)
	writeList(&b, "Completed", completed, tickDuration)
	writeList(&b, "Overdue", overdue, tickDuration)
	b.WriteString(separator)
	b.WriteString("\n")
	return b.String()
}

func writeList(b *strings.Builder, name string, tasks []tasklist.Task, tickDuration time.Duration) {
	fmt.Fprintf(b, "%s task list: (size: %d)\n", name, len(tasks))
	b.WriteString("UserTID  Release  Deadline  Completion\n")
	for _, t := range tasks {
		fmt.Fprintf(b, "  %-7d%-9d%-10d%-10d\n",
			t.UserTaskID,
			ticksToMs(t.ReleaseTime, tickDuration),
			ticksToMs(t.AbsoluteDeadline, tickDuration),
			ticksToMs(t.CompletionTime, tickDuration),
		)
	}
}

func ticksToMs(t host.Tick, tickDuration time.Duration) int64 {
	return (time.Duration(t) * tickDuration).Milliseconds()
}
