package dds

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/samuel-barrett/ddsched/generator"
	"github.com/samuel-barrett/ddsched/host"
	"github.com/samuel-barrett/ddsched/metrics"
	"github.com/samuel-barrett/ddsched/tasklist"
)

func newTestCoordinator(t *testing.T, k *host.FakeKernel) (*Coordinator, func(userTaskID uint32, on bool) bool) {
	t.Helper()

	activityEvents := make(chan struct {
		userTaskID uint32
		on         bool
	}, 64)
	activity := func(userTaskID uint32, on bool) {
		activityEvents <- struct {
			userTaskID uint32
			on         bool
		}{userTaskID, on}
	}

	c := NewCoordinator(k, DefaultConfig(), activity, nil, metrics.NewNoopProvider(), zerolog.Nop())

	sawActivity := func(userTaskID uint32, on bool) bool {
		for {
			select {
			case ev := <-activityEvents:
				if ev.userTaskID == userTaskID && ev.on == on {
					return true
				}
			default:
				return false
			}
		}
	}

	return c, sawActivity
}

func snapshot(t *testing.T, reqCh chan<- SnapshotRequest) []tasklist.Task {
	t.Helper()
	req := SnapshotRequest{Reply: make(chan []tasklist.Task, 1)}
	reqCh <- req
	select {
	case got := <-req.Reply:
		return got
	case <-time.After(time.Second):
		t.Fatal("snapshot request timed out")
		return nil
	}
}

func TestCoordinator_ReleaseAssignsMonotonicTaskIDs(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	for i := 0; i < 3; i++ {
		c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 1, AbsoluteDeadline: 1000, ExecTicks: 1}
	}

	require.Eventually(t, func() bool {
		return len(snapshot(t, c.ActiveRequests())) == 3
	}, time.Second, time.Millisecond)

	active := snapshot(t, c.ActiveRequests())
	require.Len(t, active, 3)
	require.Equal(t, uint32(0), active[0].TaskID)
	require.Equal(t, uint32(1), active[1].TaskID)
	require.Equal(t, uint32(2), active[2].TaskID)
}

func TestCoordinator_ActiveListStaysSortedByDeadline(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 1, AbsoluteDeadline: 500, ExecTicks: 1}
	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 2, AbsoluteDeadline: 100, ExecTicks: 1}
	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 3, AbsoluteDeadline: 300, ExecTicks: 1}

	var active []tasklist.Task
	require.Eventually(t, func() bool {
		active = snapshot(t, c.ActiveRequests())
		return len(active) == 3
	}, time.Second, time.Millisecond)

	require.Equal(t, uint32(2), active[0].UserTaskID)
	require.Equal(t, uint32(3), active[1].UserTaskID)
	require.Equal(t, uint32(1), active[2].UserTaskID)
}

func TestCoordinator_ActiveHeadHasStrictlyHigherPriority(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 1, AbsoluteDeadline: 500, ExecTicks: 1}
	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 2, AbsoluteDeadline: 100, ExecTicks: 1}

	var active []tasklist.Task
	require.Eventually(t, func() bool {
		active = snapshot(t, c.ActiveRequests())
		return len(active) == 2
	}, time.Second, time.Millisecond)

	headPrio := k.Priority(active[0].Handle)
	otherPrio := k.Priority(active[1].Handle)
	require.Greater(t, headPrio, otherPrio)
	require.Equal(t, DefaultPriorities().ActiveUser, headPrio)
	require.Equal(t, DefaultPriorities().IdleUser, otherPrio)
}

func TestCoordinator_CompleteMovesToCompletedAndDestroysHandle(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 1, AbsoluteDeadline: 500, ExecTicks: 1}

	var active []tasklist.Task
	require.Eventually(t, func() bool {
		active = snapshot(t, c.ActiveRequests())
		return len(active) == 1
	}, time.Second, time.Millisecond)

	h := active[0].Handle
	c.CompleteChan() <- active[0].TaskID

	require.Eventually(t, func() bool {
		return len(snapshot(t, c.CompletedRequests())) == 1
	}, time.Second, time.Millisecond)

	require.Empty(t, snapshot(t, c.ActiveRequests()))
	require.True(t, k.Destroyed(h))
}

func TestCoordinator_UnknownCompletionIsSilentlyIgnored(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.CompleteChan() <- 999

	require.Never(t, func() bool {
		return len(snapshot(t, c.CompletedRequests())) != 0
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCoordinator_DeadlineExpiryMovesToOverdueDestroysAndClearsActivity(t *testing.T) {
	k := host.NewFakeKernel()
	c, sawActivity := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 7, AbsoluteDeadline: 5, ExecTicks: 100}

	var active []tasklist.Task
	require.Eventually(t, func() bool {
		active = snapshot(t, c.ActiveRequests())
		return len(active) == 1
	}, time.Second, time.Millisecond)
	h := active[0].Handle

	k.SetNow(10)

	require.Eventually(t, func() bool {
		return len(snapshot(t, c.OverdueRequests())) == 1
	}, time.Second, time.Millisecond)

	require.Empty(t, snapshot(t, c.ActiveRequests()))
	require.True(t, k.Destroyed(h))
	require.Eventually(t, func() bool { return sawActivity(7, false) }, time.Second, time.Millisecond)
}

func TestCoordinator_FatalOnPriorityChangeFailureHaltsTheLoop(t *testing.T) {
	k := host.NewFakeKernel()
	c, _ := newTestCoordinator(t, k)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	k.FailSetPriority = context.DeadlineExceeded
	c.NewTaskChan() <- generator.ReleaseRequest{Kind: tasklist.KindAperiodic, UserTaskID: 1, AbsoluteDeadline: 500, ExecTicks: 1}

	select {
	case err := <-c.Fatal():
		require.ErrorIs(t, err, ErrPriorityChangeFailed)
	case <-time.After(time.Second):
		t.Fatal("expected a fatal error after a rejected priority change")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a fatal error")
	}
}
