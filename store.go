package canplot

import (
	"slices"
	"sync"
)

// Point is one (timestamp, position) pair of a channel series.
type Point struct {
	Timestamp uint64
	Position  float64
}

// Sink consumes decoded samples.
type Sink interface {
	Append(s Sample)
}

// Store keeps the most recent points of every channel seen so far.
//
// Channels are registered lazily on first append and never removed. Each
// channel holds at most Capacity points; appending to a full channel
// evicts its oldest point. A single lock guards the whole store so readers
// never observe a half-applied append.
type Store struct {
	mu        sync.RWMutex
	maxPoints int
	channels  map[uint32]*ring
	evicted   uint64
}

// NewStore returns an empty store retaining maxPoints points per channel.
// A non-positive maxPoints selects DefaultMaxPoints.
func NewStore(maxPoints int) *Store {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Store{
		maxPoints: maxPoints,
		channels:  make(map[uint32]*ring),
	}
}

// Capacity returns the per-channel point limit.
func (s *Store) Capacity() int { return s.maxPoints }

// Append records the sample's point on its channel.
func (s *Store) Append(sample Sample) {
	s.AppendPoint(sample.Channel, sample.Point())
}

// AppendPoint records p on channel id, registering the channel if needed.
func (s *Store) AppendPoint(id uint32, p Point) {
	s.mu.Lock()
	r := s.channelLocked(id)
	if r.push(p) {
		s.evicted++
	}
	s.mu.Unlock()
}

// Register makes id known with an empty series if it is not already.
func (s *Store) Register(id uint32) {
	s.mu.Lock()
	s.channelLocked(id)
	s.mu.Unlock()
}

func (s *Store) channelLocked(id uint32) *ring {
	r, ok := s.channels[id]
	if !ok {
		r = newRing(s.maxPoints)
		s.channels[id] = r
	}
	return r
}

// Snapshot returns a copy of channel id's points, oldest first. It returns
// nil for unknown channels and an empty slice for registered channels
// without points.
func (s *Store) Snapshot(id uint32) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.channels[id]
	if !ok {
		return nil
	}
	return r.snapshot()
}

// SnapshotAll returns a copy of every channel's points taken under one
// lock acquisition.
func (s *Store) SnapshotAll() map[uint32][]Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint32][]Point, len(s.channels))
	for id, r := range s.channels {
		out[id] = r.snapshot()
	}
	return out
}

// ChannelIDs returns the known channel identifiers in ascending order.
func (s *Store) ChannelIDs() []uint32 {
	s.mu.RLock()
	ids := make([]uint32, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Len returns the number of points held for channel id.
func (s *Store) Len(id uint32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.channels[id]; ok {
		return r.len()
	}
	return 0
}

// Latest returns the most recent point of channel id.
func (s *Store) Latest(id uint32) (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.channels[id]; ok {
		return r.last()
	}
	return Point{}, false
}

// Evicted returns how many points have been dropped to respect Capacity.
func (s *Store) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
