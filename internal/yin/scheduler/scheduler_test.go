package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonwh98/yin/internal/yin/stream"
	"github.com/sonwh98/yin/internal/yin/value"
)

// TestProducerWokenWhenCapacityFrees reproduces a producer parked on a
// full capacity-1 stream; a consumer reads, freeing capacity; the wake
// check resumes the producer.
func TestProducerWokenWhenCapacityFrees(t *testing.T) {
	s := stream.New(stream.NewMemoryStorage(), 1)
	status, ok := s.Put(value.Number(1))
	require.True(t, ok)
	require.Equal(t, stream.PutOK, status)

	sched := New()
	sched.ParkPut("producer-k", "producer-env", 0, value.Number(2))
	require.Len(t, sched.WaitSet, 1)

	streams := map[int64]*stream.Stream{0: s}

	// Consumer reads the only value and evicts it, freeing capacity.
	v, status := stream.Next(stream.NewCursor(0), s)
	require.Equal(t, stream.NextOK, status)
	require.True(t, value.Equal(value.Number(1), v))
	s.Evict(1)

	sched.WakeCheck(streams)
	require.Empty(t, sched.WaitSet)
	require.Len(t, sched.RunQueue, 1)

	entry, ok := sched.PopRun()
	require.True(t, ok)
	require.Equal(t, "producer-k", entry.Continuation)
	require.Equal(t, 2, s.Length())
}

func TestCloseWakesAllNextWaiters(t *testing.T) {
	s := stream.New(stream.NewMemoryStorage(), stream.Unbounded)
	sched := New()
	sched.ParkNext("k1", "env1", 0, stream.NewCursor(0))
	sched.ParkNext("k2", "env2", 0, stream.NewCursor(0))
	require.Len(t, sched.WaitSet, 2)

	s.Close()
	sched.ClosePropagate(0)

	require.Empty(t, sched.WaitSet)
	require.Len(t, sched.RunQueue, 2)
	want := value.PairOf(value.Nil(), value.CursorRef(0, 0))
	for _, e := range sched.RunQueue {
		require.True(t, value.Equal(want, e.Value))
	}
}

func TestClosingAgainIsNoOp(t *testing.T) {
	s := stream.New(stream.NewMemoryStorage(), stream.Unbounded)
	s.Close()
	s.Close()
	require.True(t, s.Closed())
}

func TestWakeCheckResumesNextOnData(t *testing.T) {
	s := stream.New(stream.NewMemoryStorage(), stream.Unbounded)
	sched := New()
	sched.ParkNext("k", "env", 0, stream.NewCursor(0))

	s.Put(value.Number(7))
	sched.WakeCheck(map[int64]*stream.Stream{0: s})

	require.Empty(t, sched.WaitSet)
	entry, ok := sched.PopRun()
	require.True(t, ok)
	want := value.PairOf(value.Number(7), value.CursorRef(0, 1))
	require.True(t, value.Equal(want, entry.Value))
}
