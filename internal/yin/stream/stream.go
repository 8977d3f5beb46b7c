package stream

import "github.com/sonwh98/yin/internal/yin/value"

// Unbounded marks a Stream with no capacity limit.
const Unbounded = -1

// Stream is {storage, capacity, closed?}. Streams carry
// no identity of their own; identity is assigned by whatever table
// (the VM's store) owns the map from stream id to *Stream.
type Stream struct {
	storage     Storage
	capacity    int
	closed      bool
	evictBefore int
}

// New creates a stream over storage with the given capacity
// (Unbounded for no limit).
func New(storage Storage, capacity int) *Stream {
	return &Stream{storage: storage, capacity: capacity}
}

// PutStatus is the outcome of a Put.
type PutStatus int

const (
	PutOK PutStatus = iota
	PutFull
)

// Put appends v, returning PutFull without mutating the stream if it
// is at capacity. Putting to a closed stream is a caller error, fatal
// at the VM level; Put itself reports it via ok=false so the caller
// can raise the appropriate fatal descriptor.
func (s *Stream) Put(v value.Value) (status PutStatus, ok bool) {
	if s.closed {
		return PutOK, false
	}
	if s.AtCapacity() {
		return PutFull, true
	}
	s.storage.Append(v)
	return PutOK, true
}

// Close marks the stream closed. Idempotent.
func (s *Stream) Close() {
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	return s.closed
}

// Length returns the current number of appended values.
func (s *Stream) Length() int {
	return s.storage.Length()
}

// AtCapacity reports whether the stream currently has no room for
// another Put. Occupancy is appended-count minus evicted-prefix, so a
// consumer that evicts a consumed prefix frees capacity for producers
// without the storage backend itself needing to shuffle memory.
func (s *Stream) AtCapacity() bool {
	return s.capacity != Unbounded && s.storage.Length()-s.evictBefore >= s.capacity
}

// Evict marks every position before upTo as no longer retained,
// freeing capacity for producers. It is not called automatically by
// Next or the scheduler; capacity/back-pressure policy is left to a
// higher layer, and the core only guarantees that once evicted, Next
// on a cursor at an evicted position reports NextGap rather than
// silently skipping.
func (s *Stream) Evict(upTo int) {
	if upTo > s.evictBefore {
		s.evictBefore = upTo
	}
}

// Cursor is an external, value-typed read pointer into a stream:
// multiple cursors advance independently and reads do not consume.
type Cursor struct {
	StreamID int64
	Position int
}

// NewCursor returns a cursor at position 0 for streamID.
func NewCursor(streamID int64) Cursor {
	return Cursor{StreamID: streamID, Position: 0}
}

// Seek returns a copy of c repositioned to pos.
func (c Cursor) Seek(pos int) Cursor {
	return Cursor{StreamID: c.StreamID, Position: pos}
}

// Advance returns a copy of c one position further.
func (c Cursor) Advance() Cursor {
	return Cursor{StreamID: c.StreamID, Position: c.Position + 1}
}

// NextStatus is the outcome of Next.
type NextStatus int

const (
	NextOK NextStatus = iota
	NextBlocked
	NextEnd
	NextGap
)

// Next reads the value at c's position from s. It never blocks itself;
// NextBlocked simply reports that nothing is available yet so the
// scheduler can park the caller.
func Next(c Cursor, s *Stream) (value.Value, NextStatus) {
	if c.Position < s.evictBefore {
		return value.Value{}, NextGap
	}
	if c.Position < s.storage.Length() {
		v, ok := s.storage.ReadAt(c.Position)
		if !ok {
			return value.Value{}, NextGap
		}
		return v, NextOK
	}
	if s.closed {
		return value.Nil(), NextEnd
	}
	return value.Value{}, NextBlocked
}
