package cesk

import (
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/stream"
	"github.com/sonwh98/yin/internal/yin/value"
)

// ParkReason mirrors scheduler.WaitReason without importing the
// scheduler package from cesk, keeping the dependency direction
// store/streams -> effects -> (VMs use scheduler directly).
type ParkReason int

const (
	ParkNext ParkReason = iota
	ParkPut
)

// ParkRequest tells the caller it must suspend the active computation
// and enqueue it on the scheduler's wait-set instead of resuming with
// a value.
type ParkRequest struct {
	Reason   ParkReason
	StreamID int64
	Cursor   stream.Cursor
	Pending  value.Value
}

// ApplyEffect interprets one of the core effect tags against store and
// streams, returning either a resume value, a park request, or a fatal
// error. Unknown tags are fatal.
func ApplyEffect(offset int64, eff *value.Effect, store *Store, streams *StreamTable) (value.Value, *ParkRequest, error) {
	switch eff.Tag {
	case module.EffectStorePut:
		key := eff.Args[0].Str
		store.Put(key, eff.Args[1])
		return value.Nil(), nil, nil

	case module.EffectStreamMake:
		capacity := stream.Unbounded
		if len(eff.Args) > 0 && eff.Args[0].Kind == value.KindNumber {
			capacity = int(eff.Args[0].Number)
		}
		s := stream.New(stream.NewMemoryStorage(), capacity)
		id := streams.Create(s)
		return value.StreamRef(id), nil, nil

	case module.EffectStreamPut:
		target := eff.Args[0]
		v := eff.Args[1]
		s, ok := streams.Get(target.StreamID)
		if !ok {
			return value.Value{}, nil, Fatal("unknown-stream", offset, "stream/put targets an unknown stream")
		}
		if s.Closed() {
			return value.Value{}, nil, PutOnClosedStream(offset, target.StreamID)
		}
		status, _ := s.Put(v)
		if status == stream.PutFull {
			return value.Value{}, &ParkRequest{Reason: ParkPut, StreamID: target.StreamID, Pending: v}, nil
		}
		return value.Nil(), nil, nil

	case module.EffectStreamCursor:
		source := eff.Args[0]
		return value.CursorRef(source.StreamID, 0), nil, nil

	case module.EffectStreamNext:
		c := eff.Args[0]
		cur := stream.Cursor{StreamID: c.StreamID, Position: int(c.CursorID)}
		s, ok := streams.Get(c.StreamID)
		if !ok {
			return value.Value{}, nil, Fatal("unknown-stream", offset, "stream/next targets an unknown stream")
		}
		v, status := stream.Next(cur, s)
		switch status {
		case stream.NextOK:
			next := value.CursorRef(c.StreamID, int64(cur.Position+1))
			return value.PairOf(v, next), nil, nil
		case stream.NextEnd:
			return value.PairOf(value.Nil(), c), nil, nil
		case stream.NextBlocked:
			return value.Value{}, &ParkRequest{Reason: ParkNext, StreamID: c.StreamID, Cursor: cur}, nil
		default: // NextGap
			return value.Value{}, nil, Fatal("stream-gap", offset, "cursor position was evicted")
		}

	case module.EffectStreamClose:
		source := eff.Args[0]
		s, ok := streams.Get(source.StreamID)
		if !ok {
			return value.Value{}, nil, Fatal("unknown-stream", offset, "stream/close targets an unknown stream")
		}
		s.Close()
		return value.Nil(), nil, nil

	default:
		return value.Value{}, nil, UnknownEffectTag(offset, eff.Tag)
	}
}
