package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/tasklist"
)

type fakeClock struct{ now host.Tick }

func (c *fakeClock) Now() host.Tick { return c.now }

type fakeClient struct {
	mu        sync.Mutex
	active    []tasklist.Task
	completed []tasklist.Task
	overdue   []tasklist.Task
	failNext  error
	calls     int
}

func (c *fakeClient) GetActiveList(context.Context) ([]tasklist.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.failNext != nil {
		err := c.failNext
		c.failNext = nil
		return nil, err
	}
	return c.active, nil
}

func (c *fakeClient) GetCompletedList(context.Context) ([]tasklist.Task, error) {
	return c.completed, nil
}

func (c *fakeClient) GetOverdueList(context.Context) ([]tasklist.Task, error) {
	return c.overdue, nil
}

type syncWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestArmer_FirstArmStartsMonitorAndPrintsReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{active: []tasklist.Task{{UserTaskID: 1, ReleaseTime: 0, AbsoluteDeadline: 500, CompletionTime: 0}}}
	out := &syncWriter{}

	a := NewArmer(ctx, client, &fakeClock{now: 120}, time.Millisecond, out, zerolog.Nop())
	a.Arm()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Monitor Task | Current Time: 120")
	}, time.Second, time.Millisecond)

	report := out.String()
	require.Contains(t, report, "Active task list: (size: 1)")
	require.Contains(t, report, "Completed task list: (size: 0)")
	require.Contains(t, report, "Overdue task list: (size: 0)")
	require.True(t, strings.HasSuffix(strings.TrimRight(report, "\n"), separator))
}

func TestArmer_CoalescesRepeatedArmsIntoFewerReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{}
	out := &syncWriter{}
	a := NewArmer(ctx, client, &fakeClock{}, time.Millisecond, out, zerolog.Nop())

	for i := 0; i < 10; i++ {
		a.Arm()
	}

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "Monitor Task") >= 1
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	reports := strings.Count(out.String(), "Monitor Task")
	require.Less(t, reports, 10, "repeated arms before the monitor runs must coalesce into far fewer reports")
}

func TestArmer_SnapshotTimeoutPrintsEmptyListAndLogs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{failNext: errors.New("snapshot timed out")}
	out := &syncWriter{}
	a := NewArmer(ctx, client, &fakeClock{}, time.Millisecond, out, zerolog.Nop())
	a.Arm()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Active task list: (size: 0)")
	}, time.Second, time.Millisecond)
}

func TestFormat_MatchesDocumentedLayout(t *testing.T) {
	report := Format(100, time.Millisecond,
		[]tasklist.Task{{UserTaskID: 2, ReleaseTime: 10, AbsoluteDeadline: 510, CompletionTime: 0}},
		nil,
		nil,
	)

	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	require.Equal(t, "Monitor Task | Current Time: 100", lines[0])
	require.Equal(t, "Active task list: (size: 1)", lines[1])
	require.Equal(t, "UserTID  Release  Deadline  Completion", lines[2])
	require.Contains(t, lines[3], "2")
	require.Equal(t, "Completed task list: (size: 0)", lines[4])
	require.Equal(t, "Overdue task list: (size: 0)", lines[6])
	require.Equal(t, separator, lines[len(lines)-1])
}
