package lock

import (
	"maps"
	"slices"
	"sync"

	"github.com/df-mc/worldedit/server/block/cube"
)

// DefaultMaxChunks is the number of chunks Metrics keeps counters for if no
// other limit is passed to NewMetrics.
const DefaultMaxChunks = 4096

// Metrics tracks lock counters per chunk for observability. Counters are kept
// for at most a fixed number of chunks: once full, the least active half is
// dropped. Totals are never dropped.
type Metrics struct {
	mu sync.Mutex

	max    int
	chunks map[cube.ChunkID]*ChunkStats
	totals Totals
}

// Totals holds the number of requests granted, queued and refused over the
// lifetime of a Metrics.
type Totals struct {
	Grants    uint64
	Waits     uint64
	Conflicts uint64
}

// NewMetrics creates an empty metrics registry keeping counters for at most
// maxChunks chunks. If maxChunks is zero or lower, DefaultMaxChunks is used.
func NewMetrics(maxChunks int) *Metrics {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Metrics{max: maxChunks, chunks: make(map[cube.ChunkID]*ChunkStats)}
}

// IncGrants counts a granted request over the chunks passed.
func (m *Metrics) IncGrants(ids []cube.ChunkID) {
	m.inc(ids, func(s *ChunkStats) { s.Grants++ }, &m.totals.Grants)
}

// IncWaits counts a queued request over the chunks passed.
func (m *Metrics) IncWaits(ids []cube.ChunkID) {
	m.inc(ids, func(s *ChunkStats) { s.Waits++ }, &m.totals.Waits)
}

// IncConflicts counts a refused request over the chunks passed.
func (m *Metrics) IncConflicts(ids []cube.ChunkID) {
	m.inc(ids, func(s *ChunkStats) { s.Conflicts++ }, &m.totals.Conflicts)
}

func (m *Metrics) inc(ids []cube.ChunkID, f func(s *ChunkStats), total *uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*total++
	for _, id := range ids {
		s, ok := m.chunks[id]
		if !ok {
			if len(m.chunks) >= m.max {
				m.prune()
			}
			s = &ChunkStats{Chunk: id}
			m.chunks[id] = s
		}
		f(s)
	}
}

// prune drops the counters of the least active half of the chunks.
func (m *Metrics) prune() {
	stats := slices.Collect(maps.Values(m.chunks))
	slices.SortFunc(stats, func(a, b *ChunkStats) int {
		switch at, bt := a.total(), b.total(); {
		case at < bt:
			return -1
		case at > bt:
			return 1
		}
		return compareMorton(a.Chunk, b.Chunk)
	})
	for _, s := range stats[:max(len(stats)/2, 1)] {
		delete(m.chunks, s.Chunk)
	}
}

// ChunkStats holds the counters of a single chunk.
type ChunkStats struct {
	Chunk     cube.ChunkID
	Grants    uint64
	Waits     uint64
	Conflicts uint64
}

func (s *ChunkStats) total() uint64 {
	return s.Grants + s.Waits + s.Conflicts
}

// Snapshot returns the counters of every chunk currently tracked, in Morton
// order.
func (m *Metrics) Snapshot() []ChunkStats {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make([]ChunkStats, 0, len(m.chunks))
	for _, id := range slices.SortedFunc(maps.Keys(m.chunks), compareMorton) {
		stats = append(stats, *m.chunks[id])
	}
	return stats
}

// Tracked returns the number of chunks counters are currently kept for.
func (m *Metrics) Tracked() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// Totals returns the request counters over the lifetime of the Metrics.
func (m *Metrics) Totals() Totals {
	if m == nil {
		return Totals{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

func compareMorton(a, b cube.ChunkID) int {
	ma, mb := a.Morton(), b.Morton()
	switch {
	case ma < mb:
		return -1
	case ma > mb:
		return 1
	}
	return 0
}
