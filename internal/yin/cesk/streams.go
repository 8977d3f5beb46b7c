package cesk

import "github.com/sonwh98/yin/internal/yin/stream"

// StreamTable is the per-VM table of live streams, addressed by the
// ids carried in KindStreamRef/KindCursorRef values. Owned exclusively
// by one VM instance.
type StreamTable struct {
	streams map[int64]*stream.Stream
	next    int64
}

func NewStreamTable() *StreamTable {
	return &StreamTable{streams: make(map[int64]*stream.Stream)}
}

// Create allocates a fresh stream id and stores s under it.
func (t *StreamTable) Create(s *stream.Stream) int64 {
	id := t.next
	t.next++
	t.streams[id] = s
	return id
}

// Get returns the stream for id.
func (t *StreamTable) Get(id int64) (*stream.Stream, bool) {
	s, ok := t.streams[id]
	return s, ok
}

// All returns the id->stream map, used by the scheduler's wake check.
func (t *StreamTable) All() map[int64]*stream.Stream {
	return t.streams
}
