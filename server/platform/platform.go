// Package platform describes the host an edit engine runs in. The engine only
// reaches host players and worlds through these interfaces and only keeps
// host-neutral references to them between commands.
package platform

import (
	"context"
	"fmt"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Platform is the host of the engine.
type Platform interface {
	// Name returns the name of the platform.
	Name() string
	// Version returns the version of the platform.
	Version() string
	// Worlds returns all worlds currently loaded by the host.
	Worlds() []World
	// MatchPlayer resolves a reference to a live Player. False is returned if
	// the player is not online.
	MatchPlayer(ref ActorRef) (Player, bool)
	// MatchWorld resolves a reference to a live World. False is returned if
	// the world is not loaded.
	MatchWorld(ref WorldRef) (World, bool)
	// SupportedSideEffects returns the side effects the host can perform.
	SupportedSideEffects() sideeffect.Set
	// Watchdog returns the watchdog of the host, if it has one.
	Watchdog() (Watchdog, bool)
	// ConnectedUsers returns every Actor currently connected.
	ConnectedUsers() []Actor
	// HasPermission reports if an Actor holds a permission node.
	HasPermission(a Actor, node string) bool
	// Capabilities returns how much the platform wants to provide each
	// Capability.
	Capabilities() map[Capability]Preference
}

// Actor is anything that may run commands, such as a player or the console.
type Actor interface {
	// UUID returns the unique id of the Actor.
	UUID() uuid.UUID
	// Name returns the display name of the Actor.
	Name() string
	// SendMessage sends a message to the Actor.
	SendMessage(msg string)
}

// Player is an Actor with a presence in a World.
type Player interface {
	Actor
	// World returns a reference to the World the Player is in.
	World() WorldRef
	// Position returns the position of the Player.
	Position() mgl64.Vec3
	// Operator reports if the Player may run operator commands.
	Operator() bool
	// Creative reports if the Player is in creative mode.
	Creative() bool
}

// World is a world of the host.
type World interface {
	// Name returns the host-neutral name of the World.
	Name() string
	// Range returns the height range of the World.
	Range() cube.Range
	// Exec runs f in a transaction on the World and returns the error it
	// returned. If ctx is done before f could be started, f is not run and
	// the context error is returned.
	Exec(ctx context.Context, f func(tx Tx) error) error
}

// Tx is a transaction on a World. It is only valid inside the function passed
// to World.Exec.
type Tx interface {
	sideeffect.Host
	// Range returns the height range of the World.
	Range() cube.Range
	// Block returns the state of the block at pos.
	Block(pos cube.Pos) (world.BlockState, error)
	// SetBlock writes s to pos without performing any post-write
	// operations.
	SetBlock(pos cube.Pos, s world.BlockState) error
}

// Watchdog is notified during long operations so that the host does not
// consider itself stalled.
type Watchdog interface {
	Tick()
}

// ActorRef is a host-neutral reference to an Actor.
type ActorRef struct {
	ID   uuid.UUID
	Name string
}

// RefOf returns a reference to a.
func RefOf(a Actor) ActorRef {
	return ActorRef{ID: a.UUID(), Name: a.Name()}
}

// String ...
func (r ActorRef) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ID)
}

// WorldRef is a host-neutral reference to a World.
type WorldRef struct {
	Name string
}

// Capability is a feature a platform may provide.
type Capability uint8

const (
	CapabilityConfiguration Capability = iota
	CapabilityWorldEditCUI
	CapabilityGameHooks
	CapabilityPermissions
	CapabilityUserCommands
	CapabilityWorldEditing
)

var capabilityNames = [...]string{"configuration", "worldedit_cui", "game_hooks", "permissions", "user_commands", "world_editing"}

// String ...
func (c Capability) String() string {
	if int(c) < len(capabilityNames) {
		return capabilityNames[c]
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// Preference is how much a platform wants to provide a Capability.
type Preference uint8

const (
	PreferenceDisable Preference = iota
	PreferenceOthers
	PreferenceNormal
	PreferencePreferred
)

var preferenceNames = [...]string{"disable", "prefer_others", "normal", "preferred"}

// String ...
func (p Preference) String() string {
	if int(p) < len(preferenceNames) {
		return preferenceNames[p]
	}
	return fmt.Sprintf("preference(%d)", uint8(p))
}
