package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRealKernel_SpawnRunsEntryAndDestroyCancels(t *testing.T) {
	k := NewRealKernel(time.Millisecond, 0)

	started := make(chan struct{})
	canceled := make(chan struct{})

	h, err := k.Spawn(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	}, 1)
	require.NoError(t, err)

	<-started
	require.NoError(t, k.Destroy(h))
	<-canceled

	k.Wait()
	require.Equal(t, int64(0), k.Inflight())
}

func TestRealKernel_SetPriorityUnknownHandle(t *testing.T) {
	k := NewRealKernel(time.Millisecond, 0)
	err := k.SetPriority(9999, 5)
	require.Error(t, err)
}

func TestRealKernel_PriorityRoundTrip(t *testing.T) {
	k := NewRealKernel(time.Millisecond, 2)
	h, err := k.Spawn(func(ctx context.Context) { <-ctx.Done() }, 1)
	require.NoError(t, err)

	require.NoError(t, k.SetPriority(h, 3))
	got, ok := k.Priority(h)
	require.True(t, ok)
	require.Equal(t, 3, got)

	require.NoError(t, k.Destroy(h))
	_, ok = k.Priority(h)
	require.False(t, ok, "priority bookkeeping must be dropped after Destroy")
}

func TestRealKernel_NowAdvances(t *testing.T) {
	k := NewRealKernel(time.Millisecond, 0)
	start := k.Now()
	time.Sleep(5 * time.Millisecond)
	require.Greater(t, k.Now(), start)
}

func TestFakeKernel_RecordsPriorityChangesInOrder(t *testing.T) {
	k := NewFakeKernel()
	h1, _ := k.Spawn(nil, 0)
	h2, _ := k.Spawn(nil, 0)

	require.NoError(t, k.SetPriority(h1, 2))
	require.NoError(t, k.SetPriority(h2, 0))

	changes := k.Changes()
	require.Equal(t, []PriorityChange{{Handle: h1, Priority: 2}, {Handle: h2, Priority: 0}}, changes)
}

func TestFakeKernel_FailSetPriority(t *testing.T) {
	k := NewFakeKernel()
	h, _ := k.Spawn(nil, 0)
	k.FailSetPriority = context.DeadlineExceeded

	require.Error(t, k.SetPriority(h, 1))
}

func TestFakeKernel_DestroyMarksHandle(t *testing.T) {
	k := NewFakeKernel()
	h, _ := k.Spawn(nil, 0)
	require.False(t, k.Destroyed(h))
	require.NoError(t, k.Destroy(h))
	require.True(t, k.Destroyed(h))
}
