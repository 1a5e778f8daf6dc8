package history

import (
	"maps"
	"slices"
	"sync"

	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/google/uuid"
)

// Arena holds the history Stack of every actor.
type Arena struct {
	mu     sync.Mutex
	depth  int
	stacks map[uuid.UUID]*Stack
}

// NewArena creates an Arena in which every Stack holds at most depth change
// sets.
func NewArena(depth int) *Arena {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Arena{depth: depth, stacks: make(map[uuid.UUID]*Stack)}
}

// Stack returns the Stack of an actor, creating it if it did not yet exist.
func (a *Arena) Stack(actor uuid.UUID) *Stack {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.stacks[actor]
	if !ok {
		s = NewStack(a.depth)
		a.stacks[actor] = s
	}
	return s
}

// Lookup returns the Stack of an actor if it exists.
func (a *Arena) Lookup(actor uuid.UUID) (*Stack, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.stacks[actor]
	return s, ok
}

// Commit commits a change set to the Stack of an actor.
func (a *Arena) Commit(actor uuid.UUID, cs *changeset.ChangeSet) {
	a.Stack(actor).Commit(cs)
}

// Undo undoes the newest change set of an actor. See Stack.Undo.
func (a *Arena) Undo(actor uuid.UUID) (*changeset.ChangeSet, bool) {
	s, ok := a.Lookup(actor)
	if !ok {
		return nil, false
	}
	return s.Undo()
}

// Redo redoes the newest undone change set of an actor. See Stack.Redo.
func (a *Arena) Redo(actor uuid.UUID) (*changeset.ChangeSet, bool) {
	s, ok := a.Lookup(actor)
	if !ok {
		return nil, false
	}
	return s.Redo()
}

// Drop removes the Stack of an actor.
func (a *Arena) Drop(actor uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.stacks, actor)
}

// Actors returns the ids of all actors with a Stack, sorted.
func (a *Arena) Actors() []uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.SortedFunc(maps.Keys(a.stacks), func(x, y uuid.UUID) int {
		return slices.Compare(x[:], y[:])
	})
}

// Depth returns the depth new stacks are created with.
func (a *Arena) Depth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.depth
}

// Resize changes the depth of every Stack in the Arena, including stacks
// created later.
func (a *Arena) Resize(depth int) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.depth = depth
	for _, s := range a.stacks {
		s.Resize(depth)
	}
}
