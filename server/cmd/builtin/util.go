package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/edit"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/edit/lock"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/platform"
	"github.com/df-mc/worldedit/server/world"
)

// ActorSource is a cmd.Source that runs commands on behalf of an actor of
// the platform.
type ActorSource interface {
	cmd.Source
	Actor() platform.Actor
}

// Source returns an ActorSource for the actor passed. The output of commands
// is sent to the actor as messages.
func Source(a platform.Actor) ActorSource {
	return actorSource{a: a}
}

type actorSource struct {
	a platform.Actor
}

// Name ...
func (s actorSource) Name() string { return s.a.Name() }

// Actor ...
func (s actorSource) Actor() platform.Actor { return s.a }

// SendCommandOutput ...
func (s actorSource) SendCommandOutput(o *cmd.Output) {
	for _, msg := range o.Messages() {
		s.a.SendMessage(msg)
	}
	for _, err := range o.Errors() {
		s.a.SendMessage(err.Error())
	}
}

// actorOf returns the actor behind a command source.
func actorOf(src cmd.Source) (platform.Actor, bool) {
	s, ok := src.(ActorSource)
	if !ok {
		return nil, false
	}
	return s.Actor(), true
}

// playerOf returns the player behind a command source.
func playerOf(src cmd.Source) (platform.Player, bool) {
	a, ok := actorOf(src)
	if !ok {
		return nil, false
	}
	p, ok := a.(platform.Player)
	return p, ok
}

// consoleOnly may be embedded in a Runnable to keep players from running it.
type consoleOnly struct{}

// Allow ...
func (consoleOnly) Allow(src cmd.Source) bool {
	a, ok := actorOf(src)
	if !ok {
		return false
	}
	_, player := a.(platform.Player)
	return !player
}

// session returns the edit session of the actor behind src.
func session(srv serverAdapter, src cmd.Source, o *cmd.Output) (*edit.Session, bool) {
	a, ok := actorOf(src)
	if !ok {
		o.Error("This command can only be run by a player or the console.")
		return nil, false
	}
	return srv.Engine().Session(a), true
}

const messageRegionTooLarge cmd.Translation = "The region holds %d blocks, more than the limit of %d."

// reportError adds a readable message for an error returned by the engine to
// the output.
func reportError(o *cmd.Output, err error) {
	var (
		denied   *edit.PermissionDeniedError
		large    *changeset.RegionTooLargeError
		conflict *lock.ConcurrentRegionConflictError
	)
	switch {
	case errors.As(err, &denied):
		o.Errort(cmd.MessageNoPermission)
	case errors.As(err, &large):
		o.Errort(messageRegionTooLarge, large.Count, large.Limit)
	case errors.As(err, &conflict):
		o.Errorf("Another edit is running near %v. Try again shortly.", conflict.Box)
	case errors.Is(err, edit.ErrNoSelection):
		o.Error("Make a region selection first.")
	case errors.Is(err, edit.ErrWorldUnavailable):
		o.Error("The world of this edit is not available.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		o.Error("The edit was cancelled before it finished.")
	default:
		o.Error(err)
	}
}

// reportResult prints the result of an edit, undo or redo.
func reportResult(o *cmd.Output, what string, res edit.Result) {
	if res.NoOp {
		o.Printf("Nothing to %s.", what)
		return
	}
	o.Printf("%d blocks changed.", res.Changed)
	if !res.Effects.Empty() {
		o.Printf("Side effects: %s", strings.Join(res.Effects.Strings(), ", "))
	}
}

// parseStates parses a comma separated list of block states. Commas inside
// the properties of a state do not separate states.
func parseStates(s string) ([]world.BlockState, error) {
	var (
		states []world.BlockState
		depth  int
		start  int
	)
	for i, r := range s + "," {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth != 0 {
				continue
			}
			state, err := world.ParseBlockState(s[start:i])
			if err != nil {
				return nil, err
			}
			states = append(states, state)
			start = i + 1
		}
	}
	return states, nil
}

// direction is a horizontal or vertical direction used to expand or contract
// selections.
type direction string

// Type ...
func (direction) Type() string { return "Direction" }

// Options ...
func (direction) Options(cmd.Source) []string {
	return []string{"up", "down", "north", "south", "east", "west"}
}

// offset returns the offset of n blocks in the direction.
func (d direction) offset(n int) cube.Pos {
	switch d {
	case "up":
		return cube.Pos{0, n, 0}
	case "down":
		return cube.Pos{0, -n, 0}
	case "north":
		return cube.Pos{0, 0, -n}
	case "south":
		return cube.Pos{0, 0, n}
	case "east":
		return cube.Pos{n, 0, 0}
	default:
		return cube.Pos{-n, 0, 0}
	}
}

// sideEffectName is the name of a side effect.
type sideEffectName string

// Type ...
func (sideEffectName) Type() string { return "SideEffect" }

// Options ...
func (sideEffectName) Options(cmd.Source) []string {
	return sideeffect.All().Strings()
}

// toggle is either on or off.
type toggle string

// Type ...
func (toggle) Type() string { return "State" }

// Options ...
func (toggle) Options(cmd.Source) []string { return []string{"on", "off"} }
