package history

import (
	"fmt"
	"testing"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/world"
	"github.com/google/uuid"
)

var stone = world.MustParseBlockState("stone")

func testSet(x int) *changeset.ChangeSet {
	return changeset.FromDeltas("world", []changeset.BlockDelta{
		{Pos: cube.Pos{x, 0, 0}, Previous: world.Air, Next: stone},
	})
}

func TestCommitUndoRedo(t *testing.T) {
	s := NewStack(5)
	a := testSet(1)
	s.Commit(a)

	undone, ok := s.Undo()
	if !ok {
		t.Fatalf("expected undo to succeed")
	}
	if undone != a.Inverse() {
		t.Fatalf("expected undo to return the inverse of the commit")
	}
	redone, ok := s.Redo()
	if !ok {
		t.Fatalf("expected redo to succeed")
	}
	if redone != a {
		t.Fatalf("expected redo to return the committed change set")
	}
	if u, r := s.Len(); u != 1 || r != 0 {
		t.Fatalf("expected 1 undo and 0 redo entries, got %d and %d", u, r)
	}
}

func TestAppliedOnlyMovesPeekedEntry(t *testing.T) {
	s := NewStack(5)
	a, b := testSet(1), testSet(2)
	s.Commit(a)

	peeked, _ := s.PeekUndo()
	s.Commit(b)
	if s.UndoApplied(peeked) {
		t.Fatalf("expected stale undo entry not to be moved")
	}
	if u, r := s.Len(); u != 2 || r != 0 {
		t.Fatalf("expected history to be left alone, got %d undo and %d redo entries", u, r)
	}

	peeked, _ = s.PeekUndo()
	if !s.UndoApplied(peeked) || peeked != b.Inverse() {
		t.Fatalf("expected newest entry to be undone")
	}
	redo, _ := s.PeekRedo()
	if redo != b {
		t.Fatalf("expected redo to return the undone change set")
	}
	s.Clear()
	if s.RedoApplied(redo) {
		t.Fatalf("expected redo on a cleared stack to fail")
	}
}

func TestUndoEmptyIsNoOp(t *testing.T) {
	s := NewStack(5)
	for range 3 {
		if cs, ok := s.Undo(); ok || cs != nil {
			t.Fatalf("expected undo on empty stack to report nothing, got %v", cs)
		}
	}
	if u, r := s.Len(); u != 0 || r != 0 {
		t.Fatalf("expected empty stack, got %d undo and %d redo entries", u, r)
	}
	if _, ok := s.Redo(); ok {
		t.Fatalf("expected redo on empty stack to report nothing")
	}
}

func TestCommitClearsRedo(t *testing.T) {
	s := NewStack(5)
	s.Commit(testSet(1))
	s.Undo()
	if _, r := s.Len(); r != 1 {
		t.Fatalf("expected a redo entry after undo, got %d", r)
	}
	s.Commit(testSet(2))
	if _, ok := s.Redo(); ok {
		t.Fatalf("expected commit to clear the redo stack")
	}
}

func TestEvictsOldestFirst(t *testing.T) {
	s := NewStack(3)
	sets := make([]*changeset.ChangeSet, 5)
	for i := range sets {
		sets[i] = testSet(i)
		s.Commit(sets[i])
	}
	undo, _ := s.Entries()
	if len(undo) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(undo))
	}
	for i, cs := range undo {
		if cs != sets[i+2] {
			t.Fatalf("entry %d: expected %v, got %v", i, sets[i+2], cs)
		}
	}
	for i := 4; i >= 2; i-- {
		cs, ok := s.Undo()
		if !ok || cs != sets[i].Inverse() {
			t.Fatalf("expected undo %d to revert commit %d", 4-i, i)
		}
	}
	if _, ok := s.Undo(); ok {
		t.Fatalf("expected evicted entries not to be undoable")
	}
}

func TestPeekDoesNotChangeState(t *testing.T) {
	s := NewStack(2)
	a := testSet(1)
	s.Commit(a)
	if cs, ok := s.PeekUndo(); !ok || cs != a.Inverse() {
		t.Fatalf("expected peek to return the inverse of the newest commit")
	}
	if u, _ := s.Len(); u != 1 {
		t.Fatalf("expected peek not to pop, got %d entries", u)
	}
	s.Undo()
	if cs, ok := s.PeekRedo(); !ok || cs != a {
		t.Fatalf("expected peek redo to return the commit")
	}
}

func TestResizeKeepsNewest(t *testing.T) {
	s := NewStack(5)
	for i := range 5 {
		s.Commit(testSet(i))
	}
	s.Resize(2)
	undo, _ := s.Entries()
	if len(undo) != 2 {
		t.Fatalf("expected 2 entries after resize, got %d", len(undo))
	}
	if d, _ := undo[1].Delta(cube.Pos{4, 0, 0}); d.Next != stone {
		t.Fatalf("expected newest entry to survive the resize")
	}
}

func TestArenaIsolatesActors(t *testing.T) {
	a := NewArena(4)
	alice, bob := uuid.New(), uuid.New()
	a.Commit(alice, testSet(1))
	if _, ok := a.Undo(bob); ok {
		t.Fatalf("expected bob to have nothing to undo")
	}
	if _, ok := a.Undo(alice); !ok {
		t.Fatalf("expected alice to be able to undo")
	}
	if got := len(a.Actors()); got != 1 {
		t.Fatalf("expected 1 actor with history, got %d", got)
	}
	a.Drop(alice)
	if _, ok := a.Redo(alice); ok {
		t.Fatalf("expected dropped history to be gone")
	}
}

func TestArenaResize(t *testing.T) {
	a := NewArena(4)
	actor := uuid.New()
	for i := range 4 {
		a.Commit(actor, testSet(i))
	}
	a.Resize(1)
	if u, _ := a.Stack(actor).Len(); u != 1 {
		t.Fatalf("expected 1 entry after resize, got %d", u)
	}
	if a.Stack(uuid.New()).Depth() != 1 {
		t.Fatalf("expected new stacks to use the new depth")
	}
}

func ExampleStack() {
	s := NewStack(10)
	s.Commit(testSet(1))
	cs, _ := s.Undo()
	d, _ := cs.Delta(cube.Pos{1, 0, 0})
	fmt.Println(d.Previous, "->", d.Next)
	// Output: minecraft:stone -> minecraft:air
}
