package otel

import (
	"strings"
	"sync"
)

// DefaultRingSize is the capacity used when NewRingBuffer gets size <= 0.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events in a fixed-size circular slice.
// Goroutine-safe.
type RingBuffer struct {
	mu    sync.Mutex
	slots []Event
	next  int // index of the next write
	n     int // valid entries, at most len(slots)
}

// NewRingBuffer creates a ring buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{slots: make([]Event, size)}
}

// Push appends e, evicting the oldest event when full. Extra is copied so
// later mutation by the caller is not visible through the buffer.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		extra := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}

	r.mu.Lock()
	r.slots[r.next] = e
	r.next = (r.next + 1) % len(r.slots)
	if r.n < len(r.slots) {
		r.n++
	}
	r.mu.Unlock()
}

// oldest returns the slot index of the oldest valid event. Caller holds mu.
func (r *RingBuffer) oldest() int {
	if r.n < len(r.slots) {
		return 0
	}
	return r.next
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Last returns up to n of the newest events, oldest first. Returns nil when
// n <= 0 or the buffer is empty.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.n == 0 {
		return nil
	}
	if n > r.n {
		n = r.n
	}

	out := make([]Event, n)
	size := len(r.slots)
	first := (r.next - n + size) % size
	for i := range out {
		out[i] = r.slots[(first+i)%size]
	}
	return out
}

// Filter returns buffered events whose kind starts with prefix, oldest first.
// A prefix of "poll." selects every polling event.
func (r *RingBuffer) Filter(prefix string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	start := r.oldest()
	for i := 0; i < r.n; i++ {
		e := r.slots[(start+i)%len(r.slots)]
		if strings.HasPrefix(string(e.Kind), prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.slots)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	start := r.oldest()
	for i := 0; i < r.n; i++ {
		counts[r.slots[(start+i)%len(r.slots)].Kind]++
	}
	return counts
}
