// Package lock grants advisory ownership over the chunk columns an edit
// touches, so that edits on overlapping areas of a world never interleave.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/df-mc/worldedit/server/block/cube"
)

// ConcurrentRegionConflictError is returned when a lease could not be granted
// because another edit holds an overlapping area, and waiting was either
// disabled or timed out.
type ConcurrentRegionConflictError struct {
	World string
	Box   cube.Box
}

// Error ...
func (e *ConcurrentRegionConflictError) Error() string {
	return fmt.Sprintf("region %v in world %q is being edited concurrently", e.Box, e.World)
}

// Config holds the parameters of a Manager.
type Config struct {
	// Log is the Logger used to log debug messages. If nil, slog.Default() is
	// used.
	Log *slog.Logger
	// Timeout is the maximum time Acquire waits for a lease. Zero or lower
	// waits until the context passed is done.
	Timeout time.Duration
	// DisableQueueing makes Acquire fail right away if the area requested is
	// not free.
	DisableQueueing bool
	// Metrics receives the per-chunk counters of the Manager. If nil, a new
	// Metrics is created.
	Metrics *Metrics
}

// New creates a Manager using the Config.
func (conf Config) New() *Manager {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics(DefaultMaxChunks)
	}
	return &Manager{conf: conf, worlds: make(map[string]*worldLocks)}
}

// Manager hands out leases over sets of chunk columns, per world. A lease is
// granted all at once or not at all. Requests that overlap a held lease, or a
// request that is already waiting, wait in the order they were made. Requests
// that do not overlap never wait for each other.
type Manager struct {
	conf Config

	mu     sync.Mutex
	worlds map[string]*worldLocks
	nextID uint64
}

type worldLocks struct {
	held    map[cube.ChunkID]uint64
	waiters []*waiter
}

type waiter struct {
	id      uint64
	chunks  []cube.ChunkID
	ready   chan struct{}
	granted bool
}

// Metrics returns the Metrics of the Manager.
func (m *Manager) Metrics() *Metrics {
	return m.conf.Metrics
}

// Acquire acquires a lease over all chunk columns that hold part of box in the
// world passed. If part of the area is leased, Acquire waits until it is
// released, unless queueing is disabled. A *ConcurrentRegionConflictError is
// returned if queueing is disabled or the timeout expires, and the context
// error if ctx is done first.
func (m *Manager) Acquire(ctx context.Context, world string, box cube.Box) (*Lease, error) {
	chunks := box.Chunks()
	slices.SortFunc(chunks, compareMorton)

	m.mu.Lock()
	wl, ok := m.worlds[world]
	if !ok {
		wl = &worldLocks{held: make(map[cube.ChunkID]uint64)}
		m.worlds[world] = wl
	}
	m.nextID++
	w := &waiter{id: m.nextID, chunks: chunks, ready: make(chan struct{})}
	if wl.available(chunks) && !wl.claimed(chunks) {
		wl.grant(w)
		m.mu.Unlock()
		m.conf.Metrics.IncGrants(chunks)
		return m.lease(world, box, w), nil
	}
	if m.conf.DisableQueueing {
		m.dropIfIdle(world, wl)
		m.mu.Unlock()
		m.conf.Metrics.IncConflicts(chunks)
		return nil, &ConcurrentRegionConflictError{World: world, Box: box}
	}
	wl.waiters = append(wl.waiters, w)
	m.mu.Unlock()
	m.conf.Metrics.IncWaits(chunks)
	m.conf.Log.Debug("Waiting for region lock.", "world", world, "box", box, "chunks", len(chunks))

	var timeout <-chan time.Time
	if m.conf.Timeout > 0 {
		t := time.NewTimer(m.conf.Timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-w.ready:
		m.conf.Metrics.IncGrants(chunks)
		return m.lease(world, box, w), nil
	case <-ctx.Done():
		m.abandon(world, w)
		return nil, ctx.Err()
	case <-timeout:
		m.abandon(world, w)
		m.conf.Metrics.IncConflicts(chunks)
		return nil, &ConcurrentRegionConflictError{World: world, Box: box}
	}
}

func (m *Manager) lease(world string, box cube.Box, w *waiter) *Lease {
	return &Lease{m: m, world: world, box: box, w: w}
}

// abandon removes a waiter that gave up. If it was granted in the meantime,
// its chunks are released again.
func (m *Manager) abandon(world string, w *waiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wl := m.worlds[world]
	if w.granted {
		wl.release(w)
	} else {
		wl.waiters = slices.DeleteFunc(wl.waiters, func(o *waiter) bool { return o == w })
	}
	wl.promote()
	m.dropIfIdle(world, wl)
}

// release releases the chunks of a granted waiter and grants waiters that
// became free.
func (m *Manager) release(world string, w *waiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wl := m.worlds[world]
	wl.release(w)
	wl.promote()
	m.dropIfIdle(world, wl)
}

func (m *Manager) dropIfIdle(world string, wl *worldLocks) {
	if len(wl.held) == 0 && len(wl.waiters) == 0 {
		delete(m.worlds, world)
	}
}

// Held returns the number of chunk columns currently leased in a world.
func (m *Manager) Held(world string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wl, ok := m.worlds[world]; ok {
		return len(wl.held)
	}
	return 0
}

// available checks if none of chunks is held.
func (wl *worldLocks) available(chunks []cube.ChunkID) bool {
	for _, c := range chunks {
		if _, ok := wl.held[c]; ok {
			return false
		}
	}
	return true
}

// claimed checks if one of chunks is requested by a waiter.
func (wl *worldLocks) claimed(chunks []cube.ChunkID) bool {
	for _, w := range wl.waiters {
		for _, c := range w.chunks {
			if slices.Contains(chunks, c) {
				return true
			}
		}
	}
	return false
}

func (wl *worldLocks) grant(w *waiter) {
	for _, c := range w.chunks {
		wl.held[c] = w.id
	}
	w.granted = true
	close(w.ready)
}

func (wl *worldLocks) release(w *waiter) {
	for _, c := range w.chunks {
		if wl.held[c] == w.id {
			delete(wl.held, c)
		}
	}
}

// promote grants every waiter, in order, whose chunks are free and not
// claimed by a waiter before it.
func (wl *worldLocks) promote() {
	blocked := make(map[cube.ChunkID]struct{})
	remaining := wl.waiters[:0]
	for _, w := range wl.waiters {
		if wl.available(w.chunks) && !overlaps(w.chunks, blocked) {
			wl.grant(w)
			continue
		}
		for _, c := range w.chunks {
			blocked[c] = struct{}{}
		}
		remaining = append(remaining, w)
	}
	clear(wl.waiters[len(remaining):])
	wl.waiters = remaining
}

func overlaps(chunks []cube.ChunkID, set map[cube.ChunkID]struct{}) bool {
	for _, c := range chunks {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}

// Lease is advisory ownership over a set of chunk columns in a world.
type Lease struct {
	m     *Manager
	world string
	box   cube.Box
	w     *waiter
	once  sync.Once
}

// World returns the name of the world the Lease was granted in.
func (l *Lease) World() string {
	return l.world
}

// Box returns the box the Lease was requested for.
func (l *Lease) Box() cube.Box {
	return l.box
}

// Chunks returns the chunk columns covered by the Lease, in Morton order.
func (l *Lease) Chunks() []cube.ChunkID {
	return slices.Clone(l.w.chunks)
}

// Release releases the Lease. Calling Release more than once has no effect.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.m.release(l.world, l.w)
	})
}
