package changeset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/region"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/world"
)

var (
	stone = world.MustParseBlockState("stone")
	dirt  = world.MustParseBlockState("dirt")
	glass = world.MustParseBlockState("glass")
)

// memWorld is an in-memory world implementing Reader and Writer.
type memWorld struct {
	blocks  map[cube.Pos]world.BlockState
	reads   int
	writes  int
	failAt  int
	relight int
}

func newMemWorld() *memWorld {
	return &memWorld{blocks: make(map[cube.Pos]world.BlockState), failAt: -1}
}

func (m *memWorld) Range() cube.Range { return cube.Range{-64, 319} }

func (m *memWorld) Block(pos cube.Pos) (world.BlockState, error) {
	m.reads++
	return m.blocks[pos], nil
}

func (m *memWorld) SetBlock(pos cube.Pos, s world.BlockState) error {
	if m.failAt >= 0 && m.writes == m.failAt {
		m.writes++
		return errors.New("storage unavailable")
	}
	m.writes++
	if s.Air() {
		delete(m.blocks, pos)
		return nil
	}
	m.blocks[pos] = s
	return nil
}

func (m *memWorld) Validate(cube.Pos)         {}
func (m *memWorld) Relight(cube.Pos)          { m.relight++ }
func (m *memWorld) NotifyNeighbours(cube.Pos) {}
func (m *memWorld) UpdateEntityAI(cube.Pos)   {}
func (m *memWorld) UpdateBlock(cube.Pos)      {}

func (m *memWorld) snapshot() map[cube.Pos]world.BlockState {
	c := make(map[cube.Pos]world.BlockState, len(m.blocks))
	for k, v := range m.blocks {
		c[k] = v
	}
	return c
}

func equalSnapshots(a, b map[cube.Pos]world.BlockState) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func quietBuilder() Builder {
	return Builder{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestBuildSkipsUnchanged(t *testing.T) {
	w := newMemWorld()
	w.blocks[cube.Pos{0, 0, 0}] = stone
	r := region.CuboidFromCorners(cube.Pos{0, 0, 0}, cube.Pos{1, 0, 1})

	cs, err := quietBuilder().Build(context.Background(), "world", w, r, Set(stone))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cs.Len() != 3 {
		t.Fatalf("expected 3 deltas, got %d", cs.Len())
	}
	if _, ok := cs.Delta(cube.Pos{0, 0, 0}); ok {
		t.Fatalf("expected unchanged position to be skipped")
	}
	if w.writes != 0 {
		t.Fatalf("expected build not to write, got %d writes", w.writes)
	}
	if !cs.Sealed() {
		t.Fatalf("expected built change set to be sealed")
	}
	if err := cs.Record(BlockDelta{}); !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
}

func TestApplyThenInverseRestores(t *testing.T) {
	w := newMemWorld()
	w.blocks[cube.Pos{1, 1, 1}] = dirt
	w.blocks[cube.Pos{2, 2, 2}] = glass
	before := w.snapshot()

	r := region.CuboidFromCorners(cube.Pos{0, 0, 0}, cube.Pos{3, 3, 3})
	cs, err := quietBuilder().Build(context.Background(), "world", w, r, Set(stone))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctrl := sideeffect.Controller{Supported: sideeffect.All()}
	if _, err := cs.Apply(context.Background(), w, ctrl, sideeffect.Defaults()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if w.blocks[cube.Pos{1, 1, 1}] != stone {
		t.Fatalf("expected change set to be applied")
	}
	if _, err := cs.Inverse().Apply(context.Background(), w, ctrl, sideeffect.Defaults()); err != nil {
		t.Fatalf("apply inverse: %v", err)
	}
	if !equalSnapshots(before, w.snapshot()) {
		t.Fatalf("expected inverse to restore the world")
	}
}

func TestInverseOrder(t *testing.T) {
	cs := New("world")
	_ = cs.Record(BlockDelta{Pos: cube.Pos{0, 0, 0}, Previous: world.Air, Next: stone})
	_ = cs.Record(BlockDelta{Pos: cube.Pos{1, 0, 0}, Previous: dirt, Next: glass})
	inv := cs.Inverse()

	var got []BlockDelta
	for d := range inv.Deltas() {
		got = append(got, d)
	}
	want := []BlockDelta{
		{Pos: cube.Pos{1, 0, 0}, Previous: glass, Next: dirt},
		{Pos: cube.Pos{0, 0, 0}, Previous: stone, Next: world.Air},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if d, ok := inv.Delta(cube.Pos{1, 0, 0}); !ok || d != want[0] {
		t.Fatalf("expected index of inverse to point at %v, got %v", want[0], d)
	}
}

func TestRecordComposes(t *testing.T) {
	cs := New("world")
	pos := cube.Pos{4, 5, 6}
	_ = cs.Record(BlockDelta{Pos: pos, Previous: dirt, Next: stone})
	_ = cs.Record(BlockDelta{Pos: pos, Previous: stone, Next: glass})
	if cs.Len() != 1 {
		t.Fatalf("expected composed delta, got %d deltas", cs.Len())
	}
	d, _ := cs.Delta(pos)
	if d.Previous != dirt || d.Next != glass {
		t.Fatalf("expected first previous and last next, got %v", d)
	}
}

func TestRecordOutOfBounds(t *testing.T) {
	cs := New("world")
	_ = cs.Record(BlockDelta{Pos: cube.Pos{0, 0, 0}, Previous: dirt, Next: stone})
	err := cs.Record(BlockDelta{Pos: cube.Pos{0, 4096, 0}, Previous: stone, Next: dirt})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if cs.Len() != 1 {
		t.Fatalf("expected a single delta, got %d", cs.Len())
	}
	if d, _ := cs.Delta(cube.Pos{0, 0, 0}); d.Next != stone {
		t.Fatalf("expected delta at y=0 to be left alone, got %v", d)
	}
	if _, ok := cs.Delta(cube.Pos{0, 4096, 0}); ok {
		t.Fatalf("expected no delta for an unpackable position")
	}
}

func TestBuildRejectsUnaddressableRegion(t *testing.T) {
	w := newMemWorld()
	r := region.CuboidFromCorners(cube.Pos{1<<25 - 1, 0, 0}, cube.Pos{1 << 25, 0, 0})
	_, err := quietBuilder().Build(context.Background(), "world", w, r, Set(stone))
	var invalid *region.InvalidRegionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRegionError, got %v", err)
	}
	if w.reads != 0 {
		t.Fatalf("expected no reads, got %d", w.reads)
	}
}

func TestApplyRollsBack(t *testing.T) {
	w := newMemWorld()
	w.blocks[cube.Pos{0, 0, 0}] = dirt
	before := w.snapshot()

	r := region.CuboidFromCorners(cube.Pos{0, 0, 0}, cube.Pos{3, 0, 0})
	cs, err := quietBuilder().Build(context.Background(), "world", w, r, Set(stone))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	w.failAt = 2
	_, err = cs.Apply(context.Background(), w, sideeffect.Controller{Supported: sideeffect.All()}, sideeffect.Defaults())
	if err == nil {
		t.Fatalf("expected apply to fail")
	}
	if !equalSnapshots(before, w.snapshot()) {
		t.Fatalf("expected failed apply to be rolled back, got %v", w.snapshot())
	}
	if w.relight != 0 {
		t.Fatalf("expected no side effects after a failed apply")
	}
}

func TestBuildRegionTooLarge(t *testing.T) {
	w := newMemWorld()
	r := region.CuboidFromCorners(cube.Pos{0, 0, 0}, cube.Pos{9, 9, 9})
	b := quietBuilder()
	b.Limit = 999

	_, err := b.Build(context.Background(), "world", w, r, Set(stone))
	var tooLarge *RegionTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected RegionTooLargeError, got %v", err)
	}
	if tooLarge.Count != 1000 || tooLarge.Limit != 999 {
		t.Fatalf("expected count 1000 and limit 999, got %d and %d", tooLarge.Count, tooLarge.Limit)
	}
	if w.reads != 0 {
		t.Fatalf("expected no reads before rejecting, got %d", w.reads)
	}
}

type tickCounter int

func (c *tickCounter) Tick() { *c++ }

func TestBuildCancelled(t *testing.T) {
	w := newMemWorld()
	r := region.CuboidFromCorners(cube.Pos{0, 0, 0}, cube.Pos{15, 15, 15})
	ctx, cancel := context.WithCancel(context.Background())

	var ticks tickCounter
	b := quietBuilder()
	b.CheckInterval = 64
	b.Watchdog = &ticks
	m := Func(func(pos cube.Pos, _ world.BlockState) world.BlockState {
		if pos[1] == 8 {
			cancel()
		}
		return stone
	})
	cs, err := b.Build(ctx, "world", w, r, m)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cs != nil {
		t.Fatalf("expected no change set after cancellation")
	}
	if ticks == 0 {
		t.Fatalf("expected watchdog to be ticked")
	}
}

func TestBuildSparseRegionCancelled(t *testing.T) {
	// One block per row, but 20000 rows: cancellation must still be noticed
	// within a single check interval.
	r, err := region.NewPolygon([]region.Point{{0, 0}, {20000, 20000}, {1, 0}}, 0, 0)
	if err != nil {
		t.Fatalf("new polygon: %v", err)
	}
	w := newMemWorld()
	ctx, cancel := context.WithCancel(context.Background())
	b := quietBuilder()
	b.CheckInterval = 64
	m := Func(func(cube.Pos, world.BlockState) world.BlockState {
		cancel()
		return stone
	})
	if _, err := b.Build(ctx, "world", w, r, m); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if w.reads > b.CheckInterval {
		t.Fatalf("expected at most %d reads after cancelling, got %d", b.CheckInterval, w.reads)
	}

	b.Limit = 100
	if _, err := b.Build(ctx, "world", w, r, Set(stone)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected size check to be cancelled, got %v", err)
	}
}

func TestApplyTicksWatchdog(t *testing.T) {
	deltas := make([]BlockDelta, 25)
	for i := range deltas {
		deltas[i] = BlockDelta{Pos: cube.Pos{i, 0, 0}, Next: stone}
	}
	cs := FromDeltas("world", deltas)

	var ticks tickCounter
	b := quietBuilder()
	b.CheckInterval = 10
	b.Watchdog = &ticks
	ctrl := sideeffect.Controller{Supported: sideeffect.All()}
	if _, err := b.Apply(context.Background(), cs, newMemWorld(), ctrl, sideeffect.Defaults()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Deltas 10 and 20 tick once while writing and once while post-processing.
	if ticks != 4 {
		t.Fatalf("expected 4 ticks, got %d", ticks)
	}
}

func TestBuildSkipsOutOfRange(t *testing.T) {
	w := newMemWorld()
	r := region.CuboidFromCorners(cube.Pos{0, 318, 0}, cube.Pos{0, 321, 0})
	cs, err := quietBuilder().Build(context.Background(), "world", w, r, Set(stone))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cs.Len() != 2 {
		t.Fatalf("expected 2 deltas inside the world range, got %d", cs.Len())
	}
}

func TestReplace(t *testing.T) {
	m := Replace([]world.BlockState{dirt}, stone)
	if got := m.Mutate(cube.Pos{}, dirt); got != stone {
		t.Fatalf("expected dirt to be replaced, got %v", got)
	}
	if got := m.Mutate(cube.Pos{}, glass); got != glass {
		t.Fatalf("expected glass to be kept, got %v", got)
	}
	nonAir := Replace(nil, stone)
	if got := nonAir.Mutate(cube.Pos{}, world.Air); !got.Air() {
		t.Fatalf("expected air to be kept, got %v", got)
	}
	if got := nonAir.Mutate(cube.Pos{}, glass); got != stone {
		t.Fatalf("expected non-air block to be replaced, got %v", got)
	}
}
