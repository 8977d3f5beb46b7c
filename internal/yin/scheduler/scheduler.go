// Package scheduler implements the cooperative run-queue/wait-set pair
// every VM backend carries alongside its CESK state. Continuations and
// environments are opaque to the scheduler — each backend has its own
// representation — so this package threads them through as
// interface{} payloads rather than naming a concrete type.
package scheduler

import (
	"github.com/sonwh98/yin/internal/yin/log"
	"github.com/sonwh98/yin/internal/yin/stream"
	"github.com/sonwh98/yin/internal/yin/value"
)

// WaitReason is why a continuation is parked.
type WaitReason int

const (
	WaitNext WaitReason = iota
	WaitPut
)

// RunEntry is a runnable frame: a continuation, the environment it
// should resume in, and the value to resume it with.
type RunEntry struct {
	Continuation interface{}
	Env          interface{}
	Value        value.Value
}

// WaitEntry is a parked frame.
type WaitEntry struct {
	Continuation interface{}
	Env          interface{}
	Reason       WaitReason
	StreamID     int64
	Cursor       stream.Cursor // meaningful when Reason == WaitNext
	Pending      value.Value   // meaningful when Reason == WaitPut
}

// Scheduler is the run-queue + wait-set pair a VM owns exclusively.
type Scheduler struct {
	RunQueue []RunEntry
	WaitSet  []WaitEntry

	log log.Logger
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{log: log.New("component", "scheduler")}
}

// ParkNext appends a continuation blocked on stream/next.
func (s *Scheduler) ParkNext(cont, env interface{}, streamID int64, cursor stream.Cursor) {
	s.log.Debugw("park", "reason", "next", "stream", streamID, "position", cursor.Position)
	s.WaitSet = append(s.WaitSet, WaitEntry{
		Continuation: cont, Env: env, Reason: WaitNext, StreamID: streamID, Cursor: cursor,
	})
}

// ParkPut appends a continuation blocked on stream/put (stream full).
func (s *Scheduler) ParkPut(cont, env interface{}, streamID int64, pending value.Value) {
	s.log.Debugw("park", "reason", "put", "stream", streamID)
	s.WaitSet = append(s.WaitSet, WaitEntry{
		Continuation: cont, Env: env, Reason: WaitPut, StreamID: streamID, Pending: pending,
	})
}

// WakeCheck scans the wait-set, moving every runnable entry to the
// run-queue. A :next entry is runnable when its stream has data at the
// cursor position or is closed; a :put entry is runnable when its
// stream is no longer at capacity, in which case the pending value is
// appended as part of waking it.
func (s *Scheduler) WakeCheck(streams map[int64]*stream.Stream) {
	remaining := s.WaitSet[:0]
	for _, w := range s.WaitSet {
		st := streams[w.StreamID]
		switch w.Reason {
		case WaitNext:
			v, status := stream.Next(w.Cursor, st)
			switch status {
			case stream.NextOK:
				next := value.CursorRef(w.Cursor.StreamID, int64(w.Cursor.Position+1))
				s.wake(w, value.PairOf(v, next))
				continue
			case stream.NextEnd:
				same := value.CursorRef(w.Cursor.StreamID, int64(w.Cursor.Position))
				s.wake(w, value.PairOf(value.Nil(), same))
				continue
			}
		case WaitPut:
			if !st.AtCapacity() {
				status, ok := st.Put(w.Pending)
				if ok && status == stream.PutOK {
					s.wake(w, value.Nil())
					continue
				}
			}
		}
		remaining = append(remaining, w)
	}
	s.WaitSet = remaining
}

// ClosePropagate moves every :next wait-set entry blocked on streamID
// to the run-queue, regardless of cursor position: a closed stream
// can never produce more data, so every waiter on it is unblockable
// and must be woken rather than left parked forever.
func (s *Scheduler) ClosePropagate(streamID int64) {
	remaining := s.WaitSet[:0]
	for _, w := range s.WaitSet {
		if w.Reason == WaitNext && w.StreamID == streamID {
			same := value.CursorRef(w.Cursor.StreamID, int64(w.Cursor.Position))
			s.wake(w, value.PairOf(value.Nil(), same))
			continue
		}
		remaining = append(remaining, w)
	}
	s.WaitSet = remaining
}

func (s *Scheduler) wake(w WaitEntry, resume value.Value) {
	s.log.Debugw("wake", "stream", w.StreamID)
	s.RunQueue = append(s.RunQueue, RunEntry{Continuation: w.Continuation, Env: w.Env, Value: resume})
}

// PopRun removes and returns the head of the run-queue.
func (s *Scheduler) PopRun() (RunEntry, bool) {
	if len(s.RunQueue) == 0 {
		return RunEntry{}, false
	}
	head := s.RunQueue[0]
	s.RunQueue = s.RunQueue[1:]
	return head, true
}

// Idle reports whether both the run-queue and wait-set are empty.
func (s *Scheduler) Idle() bool {
	return len(s.RunQueue) == 0 && len(s.WaitSet) == 0
}
