package integration

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/scheduler"
	"github.com/sonwh98/yin/internal/yin/stream"
	"github.com/sonwh98/yin/internal/yin/value"
	"github.com/stretchr/testify/require"
)

// TestCursorObservesAppendsInOrder exercises the "no skips" ordering
// guarantee: a cursor that reads position p then p+1 sees values in
// append order regardless of how many other appends happened between
// the two reads.
func TestCursorObservesAppendsInOrder(t *testing.T) {
	streams := cesk.NewStreamTable()
	store := cesk.NewStore()
	id := streams.Create(stream.New(stream.NewMemoryStorage(), stream.Unbounded))

	for i := 1; i <= 3; i++ {
		eff := module.StreamPutEffect(value.StreamRef(id), value.Number(float64(i))).Effect
		_, park, err := cesk.ApplyEffect(0, eff, store, streams)
		require.NoError(t, err)
		require.Nil(t, park)
	}

	var seen []float64
	cursorID := int64(0)
	for {
		eff := module.StreamNextEffect(value.CursorRef(id, cursorID)).Effect
		result, park, err := cesk.ApplyEffect(0, eff, store, streams)
		require.NoError(t, err)
		require.Nil(t, park)
		v, next := result.Pair[0], result.Pair[1]
		if v.Kind == value.KindNil {
			break
		}
		seen = append(seen, v.Number)
		cursorID = next.CursorID
		if len(seen) == 3 {
			break
		}
	}

	require.Equal(t, []float64{1, 2, 3}, seen)
}

// TestCloseIsObservedAfterPriorAppends checks that a cursor draining a
// stream sees every append made before Close, then sees end-of-stream,
// never a gap or early truncation.
func TestCloseIsObservedAfterPriorAppends(t *testing.T) {
	streams := cesk.NewStreamTable()
	store := cesk.NewStore()
	id := streams.Create(stream.New(stream.NewMemoryStorage(), stream.Unbounded))

	put := func(v float64) {
		eff := module.StreamPutEffect(value.StreamRef(id), value.Number(v)).Effect
		_, park, err := cesk.ApplyEffect(0, eff, store, streams)
		require.NoError(t, err)
		require.Nil(t, park)
	}
	put(1)
	put(2)

	closeEff := module.StreamCloseEffect(value.StreamRef(id)).Effect
	_, park, err := cesk.ApplyEffect(0, closeEff, store, streams)
	require.NoError(t, err)
	require.Nil(t, park)

	next := func(cursorID int64) (value.Value, int64) {
		eff := module.StreamNextEffect(value.CursorRef(id, cursorID)).Effect
		result, park, err := cesk.ApplyEffect(0, eff, store, streams)
		require.NoError(t, err)
		require.Nil(t, park)
		return result.Pair[0], result.Pair[1].CursorID
	}

	v, c := next(0)
	require.Equal(t, value.Number(1), v)
	v, c = next(c)
	require.Equal(t, value.Number(2), v)
	v, _ = next(c)
	require.Equal(t, value.KindNil, v.Kind)
}

// TestParkedPutIsServedOnWakeCheck confirms a producer parked on a
// full stream lands once a consumer's eviction frees capacity.
func TestParkedPutIsServedOnWakeCheck(t *testing.T) {
	streams := cesk.NewStreamTable()
	store := cesk.NewStore()
	s := stream.New(stream.NewMemoryStorage(), 1)
	id := streams.Create(s)
	sched := scheduler.New()

	firstPut := module.StreamPutEffect(value.StreamRef(id), value.Number(1)).Effect
	_, park, err := cesk.ApplyEffect(0, firstPut, store, streams)
	require.NoError(t, err)
	require.Nil(t, park)

	secondPut := module.StreamPutEffect(value.StreamRef(id), value.Number(2)).Effect
	_, park, err = cesk.ApplyEffect(0, secondPut, store, streams)
	require.NoError(t, err)
	require.NotNil(t, park)
	sched.ParkPut("cont", nil, park.StreamID, park.Pending)
	require.Len(t, sched.WaitSet, 1)

	s.Evict(1)
	sched.WakeCheck(streams.All())

	require.Len(t, sched.WaitSet, 0)
	entry, ok := sched.PopRun()
	require.True(t, ok)
	require.Equal(t, value.Nil(), entry.Value)
	require.Equal(t, 2, s.Length())
}
