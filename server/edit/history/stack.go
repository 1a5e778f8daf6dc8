// Package history keeps the undo and redo history of actors.
package history

import (
	"sync"

	"github.com/df-mc/worldedit/server/edit/changeset"
)

// DefaultDepth is the number of change sets a Stack holds if no depth is
// configured.
const DefaultDepth = 15

// Stack holds the undo and redo history of a single actor. Both stacks share
// the depth of the Stack: committing to a full Stack evicts the oldest change
// set. Stack is safe for concurrent use.
type Stack struct {
	mu         sync.Mutex
	undo, redo ring
	depth      int
}

// NewStack creates an empty Stack holding at most depth change sets. If
// depth is zero or lower, DefaultDepth is used.
func NewStack(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{undo: newRing(depth), redo: newRing(depth), depth: depth}
}

// Commit pushes a change set that was just applied onto the undo stack and
// clears the redo stack. Empty change sets are not recorded.
func (s *Stack) Commit(cs *changeset.ChangeSet) {
	if cs.Empty() {
		return
	}
	cs.Seal()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redo.clear()
	s.undo.push(cs)
}

// PeekUndo returns the change set that a call to Undo would return, without
// changing the Stack.
func (s *Stack) PeekUndo() (*changeset.ChangeSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.undo.peek()
	if !ok {
		return nil, false
	}
	return cs.Inverse(), true
}

// Undo pops the newest change set A off the undo stack, pushes its inverse
// onto the redo stack and returns the inverse. Applying the result reverts A.
// False is returned, and the Stack left unchanged, if there is nothing to
// undo.
func (s *Stack) Undo() (*changeset.ChangeSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.undo.pop()
	if !ok {
		return nil, false
	}
	inv := cs.Inverse()
	s.redo.push(inv)
	return inv, true
}

// PeekRedo returns the change set that a call to Redo would return, without
// changing the Stack.
func (s *Stack) PeekRedo() (*changeset.ChangeSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.redo.peek()
	if !ok {
		return nil, false
	}
	return cs.Inverse(), true
}

// Redo pops the newest change set off the redo stack, pushes its inverse back
// onto the undo stack and returns that inverse: the change set that was
// undone. False is returned, and the Stack left unchanged, if there is
// nothing to redo.
func (s *Stack) Redo() (*changeset.ChangeSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.redo.pop()
	if !ok {
		return nil, false
	}
	fwd := cs.Inverse()
	s.undo.push(fwd)
	return fwd, true
}

// UndoApplied performs Undo only if applied is the change set PeekUndo
// currently returns, so that a change set peeked and applied earlier is moved
// only if the Stack did not change in between. It reports if the Stack was
// changed.
func (s *Stack) UndoApplied(applied *changeset.ChangeSet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.undo.peek()
	if !ok || cs.Inverse() != applied {
		return false
	}
	s.undo.pop()
	s.redo.push(applied)
	return true
}

// RedoApplied performs Redo only if applied is the change set PeekRedo
// currently returns. It reports if the Stack was changed.
func (s *Stack) RedoApplied(applied *changeset.ChangeSet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.redo.peek()
	if !ok || cs.Inverse() != applied {
		return false
	}
	s.redo.pop()
	s.undo.push(applied)
	return true
}

// Clear removes all history from the Stack.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo.clear()
	s.redo.clear()
}

// Len returns the number of change sets that may be undone and redone.
func (s *Stack) Len() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.n, s.redo.n
}

// Depth returns the maximum number of change sets the Stack holds.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// Resize changes the depth of the Stack. If the new depth is smaller than the
// number of change sets held, the oldest ones are dropped.
func (s *Stack) Resize(depth int) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth = depth
	s.undo.resize(depth)
	s.redo.resize(depth)
}

// Entries returns the change sets of the undo and redo stack, oldest first.
// The undo entries are the change sets as they were applied, the redo entries
// their inverses.
func (s *Stack) Entries() (undo, redo []*changeset.ChangeSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.entries(), s.redo.entries()
}

// Restore replaces the contents of the Stack with the entries passed, oldest
// first, as returned by Entries. Entries beyond the depth of the Stack are
// dropped, oldest first.
func (s *Stack) Restore(undo, redo []*changeset.ChangeSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo.clear()
	s.redo.clear()
	for _, cs := range undo {
		cs.Seal()
		s.undo.push(cs)
	}
	for _, cs := range redo {
		cs.Seal()
		s.redo.push(cs)
	}
}
