package edit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/edit/history"
	"github.com/df-mc/worldedit/server/edit/region"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/platform"
)

// Result is the outcome of an edit, undo or redo.
type Result struct {
	// Changed is the number of blocks changed.
	Changed int
	// Effects holds the side effects that were performed.
	Effects sideeffect.Set
	// NoOp is true if nothing was done, for example because there was
	// nothing to undo.
	NoOp bool
}

// Session holds the state of a single actor: its selection, the world it
// edits, its side effect preferences and its history. All operations on a
// Session are serialised.
type Session struct {
	e     *Engine
	actor platform.ActorRef
	// fixed is the actor of the Session if it is not a player.
	fixed platform.Actor
	log   *slog.Logger

	mu         sync.Mutex
	closed     bool
	world      *platform.WorldRef
	selection  region.Region
	pos1, pos2 *cube.Pos
	effects    sideeffect.Set
}

// Actor returns a reference to the actor of the Session.
func (s *Session) Actor() platform.ActorRef {
	return s.actor
}

// Select changes the selection of the Session.
func (s *Session) Select(r region.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.selection = r
	s.pos1, s.pos2 = nil, nil
	return nil
}

// Selection returns the current selection of the Session.
func (s *Session) Selection() (region.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.selection != nil
}

// SetPos1 sets the first corner of a cuboid selection. Once both corners are
// set, the selection becomes the cuboid between them.
func (s *Session) SetPos1(pos cube.Pos) (region.Region, error) {
	return s.setCorner(pos, true)
}

// SetPos2 sets the second corner of a cuboid selection. Once both corners are
// set, the selection becomes the cuboid between them.
func (s *Session) SetPos2(pos cube.Pos) (region.Region, error) {
	return s.setCorner(pos, false)
}

func (s *Session) setCorner(pos cube.Pos, first bool) (region.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if first {
		s.pos1 = &pos
	} else {
		s.pos2 = &pos
	}
	if s.pos1 == nil || s.pos2 == nil {
		return nil, nil
	}
	s.selection = region.CuboidFromCorners(*s.pos1, *s.pos2)
	return s.selection, nil
}

// SetWorld makes the Session edit the world with the name passed, rather
// than the world its player is in. An empty name resets this.
func (s *Session) SetWorld(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if name == "" {
		s.world = nil
		return nil
	}
	if _, ok := s.e.conf.Platform.MatchWorld(platform.WorldRef{Name: name}); !ok {
		return fmt.Errorf("set world %q: %w", name, ErrWorldUnavailable)
	}
	s.world = &platform.WorldRef{Name: name}
	return nil
}

// SetSideEffects changes the side effects requested for edits of the
// Session.
func (s *Session) SetSideEffects(effects sideeffect.Set) {
	s.mu.Lock()
	s.effects = effects
	s.mu.Unlock()
}

// SideEffects returns the side effects requested for edits of the Session
// and those of them the platform supports.
func (s *Session) SideEffects() (requested, effective sideeffect.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effects, s.e.controller().Effective(s.effects)
}

// History returns the history of the actor of the Session.
func (s *Session) History() *history.Stack {
	return s.e.arena.Stack(s.actor.ID)
}

// CheckPermission returns a *PermissionDeniedError if the actor of the
// Session does not hold the permission passed.
func (s *Session) CheckPermission(perm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	a, err := s.resolveActor()
	if err != nil {
		return err
	}
	return s.checkPermission(a, perm)
}

// Edit applies m to every block of the selection, after checking that the
// actor holds perm. The area of the selection is locked while the edit is
// built and applied. The change is added to the history of the actor.
func (s *Session) Edit(ctx context.Context, perm string, m changeset.Mutator) (Result, error) {
	return s.edit(ctx, perm, nil, m)
}

// EditRegion applies m to every block of r like Edit, without using or
// changing the selection.
func (s *Session) EditRegion(ctx context.Context, perm string, r region.Region, m changeset.Mutator) (Result, error) {
	return s.edit(ctx, perm, r, m)
}

func (s *Session) edit(ctx context.Context, perm string, r region.Region, m changeset.Mutator) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrSessionClosed
	}
	a, err := s.resolveActor()
	if err != nil {
		return Result{}, err
	}
	if err := s.checkPermission(a, perm); err != nil {
		return Result{}, err
	}
	if r == nil {
		if r = s.selection; r == nil {
			return Result{}, ErrNoSelection
		}
	}
	w, err := s.resolveWorld(a)
	if err != nil {
		return Result{}, err
	}
	if limit := s.e.conf.MaxVolume; limit > 0 {
		n, err := region.Count(ctx, r, s.e.conf.CheckInterval)
		if err != nil {
			return Result{}, fmt.Errorf("edit %v: %w", r, err)
		}
		if n > limit {
			return Result{}, &changeset.RegionTooLargeError{Count: n, Limit: limit}
		}
	}

	lease, err := s.e.locks.Acquire(ctx, w.Name(), r.BoundingBox())
	if err != nil {
		return Result{}, fmt.Errorf("edit %v: %w", r, err)
	}
	defer lease.Release()

	var (
		cs      *changeset.ChangeSet
		applied sideeffect.Set
	)
	err = w.Exec(ctx, func(tx platform.Tx) error {
		var err error
		b := s.e.builder()
		if cs, err = b.Build(ctx, w.Name(), tx, r, m); err != nil {
			return err
		}
		applied, err = b.Apply(ctx, cs, tx, s.e.controller(), s.effects)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("edit %v: %w", r, err)
	}
	if cs.Empty() {
		return Result{NoOp: true}, nil
	}
	s.e.arena.Commit(s.actor.ID, cs)
	s.log.Debug("Applied edit.", "world", w.Name(), "region", r, "changed", cs.Len(), "effects", applied)
	return Result{Changed: cs.Len(), Effects: applied}, nil
}

// Undo reverts the most recent edit of the actor. If there is nothing to
// undo, a Result with NoOp set is returned.
func (s *Session) Undo(ctx context.Context) (Result, error) {
	return s.replay(ctx, "undo", (*history.Stack).PeekUndo, (*history.Stack).UndoApplied)
}

// Redo re-applies the most recently undone edit of the actor. If there is
// nothing to redo, a Result with NoOp set is returned.
func (s *Session) Redo(ctx context.Context) (Result, error) {
	return s.replay(ctx, "redo", (*history.Stack).PeekRedo, (*history.Stack).RedoApplied)
}

// replay applies the change set returned by peek and only moves it in the
// history using pop once it was applied successfully. pop leaves the history
// alone if it changed while the change set was applied.
func (s *Session) replay(ctx context.Context, op string, peek func(*history.Stack) (*changeset.ChangeSet, bool), pop func(*history.Stack, *changeset.ChangeSet) bool) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrSessionClosed
	}
	stack, ok := s.e.arena.Lookup(s.actor.ID)
	if !ok {
		return Result{NoOp: true}, nil
	}
	cs, ok := peek(stack)
	if !ok {
		return Result{NoOp: true}, nil
	}
	w, ok := s.e.conf.Platform.MatchWorld(platform.WorldRef{Name: cs.World()})
	if !ok {
		return Result{}, fmt.Errorf("%s in world %q: %w", op, cs.World(), ErrWorldUnavailable)
	}
	box, _ := cs.Box()
	lease, err := s.e.locks.Acquire(ctx, w.Name(), box)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	defer lease.Release()

	var applied sideeffect.Set
	if err := w.Exec(ctx, func(tx platform.Tx) error {
		var err error
		applied, err = s.e.builder().Apply(ctx, cs, tx, s.e.controller(), s.effects)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if !pop(stack, cs) {
		s.log.Warn("History changed while replaying, not moving the entry applied.", "op", op, "world", w.Name())
	}
	s.log.Debug("Replayed history.", "op", op, "world", w.Name(), "changed", cs.Len())
	return Result{Changed: cs.Len(), Effects: applied}, nil
}

// ClearHistory drops the undo and redo history of the actor.
func (s *Session) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.e.arena.Stack(s.actor.ID).Clear()
	return nil
}

// ExportHistory stores the history of the actor in the history store of the
// Engine.
func (s *Session) ExportHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.e.conf.History == nil {
		return ErrNoHistoryStore
	}
	return s.e.conf.History.Export(s.actor.ID, s.e.arena.Stack(s.actor.ID))
}

// ImportHistory replaces the history of the actor with the history last
// exported to the history store of the Engine. The number of undo and redo
// entries imported is returned.
func (s *Session) ImportHistory() (undo, redo int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrSessionClosed
	}
	if s.e.conf.History == nil {
		return 0, 0, ErrNoHistoryStore
	}
	stack := s.e.arena.Stack(s.actor.ID)
	imported, err := s.e.conf.History.Import(s.actor.ID, stack.Depth())
	if err != nil {
		return 0, 0, err
	}
	stack.Restore(imported.Entries())
	undo, redo = stack.Len()
	return undo, redo, nil
}

// Close ends the Session, dropping the history of the actor unless it was
// exported. Calling Close more than once has no effect.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.e.arena.Drop(s.actor.ID)
	s.e.removeSession(s.actor.ID)
	s.log.Debug("Closed session.")
}

// Closed reports if the Session was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// resolveActor matches the actor of the Session to a live actor.
func (s *Session) resolveActor() (platform.Actor, error) {
	if s.fixed != nil {
		return s.fixed, nil
	}
	if p, ok := s.e.conf.Platform.MatchPlayer(s.actor); ok {
		return p, nil
	}
	return nil, fmt.Errorf("resolve %v: %w", s.actor, ErrActorOffline)
}

func (s *Session) checkPermission(a platform.Actor, perm string) error {
	if perm == "" || s.e.conf.Platform.HasPermission(a, perm) {
		return nil
	}
	return &PermissionDeniedError{Actor: s.actor, Permission: perm}
}

// resolveWorld matches the world edited by the Session to a live world. This
// is the world set using SetWorld, or the world the player is in.
func (s *Session) resolveWorld(a platform.Actor) (platform.World, error) {
	ref := s.world
	if ref == nil {
		p, ok := a.(platform.Player)
		if !ok {
			return nil, fmt.Errorf("%v has no world set: %w", s.actor, ErrWorldUnavailable)
		}
		r := p.World()
		ref = &r
	}
	w, ok := s.e.conf.Platform.MatchWorld(*ref)
	if !ok {
		return nil, fmt.Errorf("world %q: %w", ref.Name, ErrWorldUnavailable)
	}
	return w, nil
}
