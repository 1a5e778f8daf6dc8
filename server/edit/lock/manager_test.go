package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/worldedit/server/block/cube"
)

func newTestManager(conf Config) *Manager {
	conf.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return conf.New()
}

func box(x0, z0, x1, z1 int) cube.Box {
	return cube.NewBox(cube.Pos{x0, 0, z0}, cube.Pos{x1, 10, z1})
}

func TestNonOverlappingIndependent(t *testing.T) {
	m := newTestManager(Config{DisableQueueing: true})
	a, err := m.Acquire(context.Background(), "world", box(0, 0, 15, 15))
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer a.Release()
	b, err := m.Acquire(context.Background(), "world", box(32, 32, 40, 40))
	if err != nil {
		t.Fatalf("expected non-overlapping lease to be granted, got %v", err)
	}
	defer b.Release()
	// The same area in another world never conflicts.
	c, err := m.Acquire(context.Background(), "nether", box(0, 0, 15, 15))
	if err != nil {
		t.Fatalf("expected lease in other world to be granted, got %v", err)
	}
	c.Release()
}

func TestOverlapConflictWithoutQueueing(t *testing.T) {
	m := newTestManager(Config{DisableQueueing: true})
	a, err := m.Acquire(context.Background(), "world", box(0, 0, 20, 20))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, err = m.Acquire(context.Background(), "world", box(18, 18, 30, 30))
	var conflict *ConcurrentRegionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConcurrentRegionConflictError, got %v", err)
	}
	if conflict.World != "world" {
		t.Fatalf("expected conflict in world %q, got %q", "world", conflict.World)
	}
	a.Release()
	a.Release()
	if n := m.Held("world"); n != 0 {
		t.Fatalf("expected no held chunks after release, got %d", n)
	}
	if _, err := m.Acquire(context.Background(), "world", box(18, 18, 30, 30)); err != nil {
		t.Fatalf("expected lease after release, got %v", err)
	}
}

func TestOverlappingNeverInterleave(t *testing.T) {
	m := newTestManager(Config{})
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every request overlaps chunk 0,0.
			l, err := m.Acquire(context.Background(), "world", box(0, 0, i*16, 15))
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			l.Release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected overlapping leases never to be held together, saw %d", maxSeen)
	}
}

func TestFIFOAmongOverlapping(t *testing.T) {
	m := newTestManager(Config{})
	first, _ := m.Acquire(context.Background(), "world", box(0, 0, 31, 0))

	order := make(chan string, 2)
	started := make(chan struct{})
	go func() {
		close(started)
		// Waits for the first lease on chunks 0 and 1.
		l, err := m.Acquire(context.Background(), "world", box(0, 0, 31, 0))
		if err != nil {
			t.Errorf("acquire second: %v", err)
			return
		}
		order <- "second"
		time.Sleep(5 * time.Millisecond)
		l.Release()
	}()
	<-started
	waitForWaiters(t, m, "world", 1)

	go func() {
		// Only overlaps chunk 1, which is free of leases but claimed by the
		// waiting second request, so it must queue behind it.
		l, err := m.Acquire(context.Background(), "world", box(16, 0, 16, 0))
		if err != nil {
			t.Errorf("acquire third: %v", err)
			return
		}
		order <- "third"
		l.Release()
	}()
	waitForWaiters(t, m, "world", 2)

	first.Release()
	if got := <-order; got != "second" {
		t.Fatalf("expected second request to be granted first, got %s", got)
	}
	if got := <-order; got != "third" {
		t.Fatalf("expected third request to be granted last, got %s", got)
	}
}

func waitForWaiters(t *testing.T, m *Manager, world string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		m.mu.Lock()
		got := 0
		if wl, ok := m.worlds[world]; ok {
			got = len(wl.waiters)
		}
		m.mu.Unlock()
		if got >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d waiters, got %d", n, got)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTimeout(t *testing.T) {
	m := newTestManager(Config{Timeout: 10 * time.Millisecond})
	a, _ := m.Acquire(context.Background(), "world", box(0, 0, 0, 0))
	defer a.Release()

	_, err := m.Acquire(context.Background(), "world", box(0, 0, 0, 0))
	var conflict *ConcurrentRegionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConcurrentRegionConflictError after timeout, got %v", err)
	}
	stats := m.Metrics().Snapshot()
	if len(stats) != 1 || stats[0].Conflicts != 1 || stats[0].Waits != 1 || stats[0].Grants != 1 {
		t.Fatalf("unexpected metrics %+v", stats)
	}
}

func TestMetricsBounded(t *testing.T) {
	m := NewMetrics(8)
	hot := cube.ChunkID{X: 100, Z: 100}
	for range 5 {
		m.IncGrants([]cube.ChunkID{hot})
	}
	for i := range 100 {
		m.IncGrants([]cube.ChunkID{{X: int32(i), Z: 0}})
	}
	if n := m.Tracked(); n > 8 {
		t.Fatalf("expected at most 8 tracked chunks, got %d", n)
	}
	if totals := m.Totals(); totals.Grants != 105 {
		t.Fatalf("expected 105 grants in total, got %d", totals.Grants)
	}
	found := false
	for _, s := range m.Snapshot() {
		found = found || (s.Chunk == hot && s.Grants == 5)
	}
	if !found {
		t.Fatalf("expected the most active chunk to be kept")
	}
}

func TestContextCancelled(t *testing.T) {
	m := newTestManager(Config{})
	a, _ := m.Acquire(context.Background(), "world", box(0, 0, 0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, "world", box(0, 0, 0, 0)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	a.Release()
	if n := m.Held("world"); n != 0 {
		t.Fatalf("expected abandoned request not to hold chunks, got %d", n)
	}
}

func TestLeaseChunksMortonOrdered(t *testing.T) {
	m := newTestManager(Config{})
	l, _ := m.Acquire(context.Background(), "world", box(-16, -16, 31, 31))
	defer l.Release()
	chunks := l.Chunks()
	if len(chunks) != 9 {
		t.Fatalf("expected 9 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i-1].Morton() >= chunks[i].Morton() {
			t.Fatalf("chunks not in Morton order: %v", chunks)
		}
	}
}
