package world

import "sync"

// Palette assigns runtime IDs to BlockStates. Runtime ID 0 is always air.
// Palette is safe for concurrent use.
type Palette struct {
	mu     sync.RWMutex
	states []BlockState
	// byHash indexes runtime IDs by BlockState.Hash. Colliding states share a
	// bucket.
	byHash map[uint64][]uint32
}

// NewPalette creates a Palette holding only air.
func NewPalette() *Palette {
	p := &Palette{byHash: make(map[uint64][]uint32)}
	p.states = append(p.states, Air)
	p.byHash[Air.Hash()] = []uint32{0}
	return p
}

// RuntimeID returns the runtime ID of the BlockState passed, registering it if
// it did not have one yet.
func (p *Palette) RuntimeID(s BlockState) uint32 {
	h := s.Hash()
	p.mu.RLock()
	if rid, ok := p.lookup(h, s); ok {
		p.mu.RUnlock()
		return rid
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if rid, ok := p.lookup(h, s); ok {
		return rid
	}
	rid := uint32(len(p.states))
	p.states = append(p.states, s)
	p.byHash[h] = append(p.byHash[h], rid)
	return rid
}

func (p *Palette) lookup(h uint64, s BlockState) (uint32, bool) {
	for _, rid := range p.byHash[h] {
		if p.states[rid] == s {
			return rid, true
		}
	}
	return 0, false
}

// State returns the BlockState with the runtime ID passed. If no such state
// exists, false is returned.
func (p *Palette) State(rid uint32) (BlockState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if int(rid) >= len(p.states) {
		return Air, false
	}
	return p.states[rid], true
}

// Len returns the amount of states registered.
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.states)
}
