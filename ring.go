package canplot

// ring is a fixed-capacity FIFO of points. Pushing onto a full ring
// overwrites the oldest point in O(1).
type ring struct {
	buf  []Point
	head int // index of the oldest point once the ring is full
	cap  int
}

func newRing(capacity int) *ring {
	size := capacity
	if size > DefaultMaxPoints {
		size = DefaultMaxPoints
	}
	return &ring{buf: make([]Point, 0, size), cap: capacity}
}

// push appends p and reports whether the oldest point was evicted.
func (r *ring) push(p Point) bool {
	if len(r.buf) < r.cap {
		r.buf = append(r.buf, p)
		return false
	}
	r.buf[r.head] = p
	r.head++
	if r.head == r.cap {
		r.head = 0
	}
	return true
}

func (r *ring) len() int { return len(r.buf) }

// last returns the most recently pushed point.
func (r *ring) last() (Point, bool) {
	n := len(r.buf)
	if n == 0 {
		return Point{}, false
	}
	if n < r.cap || r.head == 0 {
		return r.buf[n-1], true
	}
	return r.buf[r.head-1], true
}

// snapshot copies the points oldest first.
func (r *ring) snapshot() []Point {
	out := make([]Point, len(r.buf))
	n := copy(out, r.buf[r.head:])
	copy(out[n:], r.buf[:r.head])
	return out
}
