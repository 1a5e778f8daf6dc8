package history

import "github.com/df-mc/worldedit/server/edit/changeset"

// ring is a fixed-capacity stack of change sets. Pushing onto a full ring
// evicts the oldest entry.
type ring struct {
	buf  []*changeset.ChangeSet
	head int // index of the oldest entry
	n    int
}

func newRing(capacity int) ring {
	return ring{buf: make([]*changeset.ChangeSet, capacity)}
}

// push adds cs on top of the ring. The oldest entry is returned if it had to
// be evicted.
func (r *ring) push(cs *changeset.ChangeSet) (evicted *changeset.ChangeSet) {
	if len(r.buf) == 0 {
		return cs
	}
	if r.n == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = cs
		r.head = (r.head + 1) % len(r.buf)
		return evicted
	}
	r.buf[(r.head+r.n)%len(r.buf)] = cs
	r.n++
	return nil
}

// peek returns the newest entry without removing it.
func (r *ring) peek() (*changeset.ChangeSet, bool) {
	if r.n == 0 {
		return nil, false
	}
	return r.buf[(r.head+r.n-1)%len(r.buf)], true
}

// pop removes and returns the newest entry.
func (r *ring) pop() (*changeset.ChangeSet, bool) {
	cs, ok := r.peek()
	if !ok {
		return nil, false
	}
	r.buf[(r.head+r.n-1)%len(r.buf)] = nil
	r.n--
	return cs, true
}

// clear removes all entries.
func (r *ring) clear() {
	clear(r.buf)
	r.head, r.n = 0, 0
}

// entries returns all entries, oldest first.
func (r *ring) entries() []*changeset.ChangeSet {
	s := make([]*changeset.ChangeSet, r.n)
	for i := range r.n {
		s[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return s
}

// resize changes the capacity of the ring, keeping the newest entries.
func (r *ring) resize(capacity int) {
	entries := r.entries()
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	*r = newRing(capacity)
	for _, cs := range entries {
		r.push(cs)
	}
}
