package platform

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// maxMessages is the number of messages a LocalPlayer remembers.
const maxMessages = 64

// LocalPlayer is a Player registered with a Local platform.
type LocalPlayer struct {
	id   uuid.UUID
	name string
	log  *slog.Logger

	world    atomic.Pointer[WorldRef]
	op       atomic.Bool
	creative atomic.Bool

	mu       sync.Mutex
	pos      mgl64.Vec3
	messages []string
}

// UUID ...
func (p *LocalPlayer) UUID() uuid.UUID {
	return p.id
}

// Name ...
func (p *LocalPlayer) Name() string {
	return p.name
}

// World ...
func (p *LocalPlayer) World() WorldRef {
	return *p.world.Load()
}

// SetWorld moves the player to another world.
func (p *LocalPlayer) SetWorld(w WorldRef) {
	p.world.Store(&w)
}

// Position ...
func (p *LocalPlayer) Position() mgl64.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Teleport moves the player to pos.
func (p *LocalPlayer) Teleport(pos mgl64.Vec3) {
	p.mu.Lock()
	p.pos = pos
	p.mu.Unlock()
}

// Operator ...
func (p *LocalPlayer) Operator() bool {
	return p.op.Load()
}

// SetOperator changes the operator status of the player.
func (p *LocalPlayer) SetOperator(op bool) {
	p.op.Store(op)
}

// Creative ...
func (p *LocalPlayer) Creative() bool {
	return p.creative.Load()
}

// SetCreative changes if the player is in creative mode.
func (p *LocalPlayer) SetCreative(creative bool) {
	p.creative.Store(creative)
}

// SendMessage ...
func (p *LocalPlayer) SendMessage(msg string) {
	p.log.Info(msg)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) == maxMessages {
		p.messages = slices.Delete(p.messages, 0, 1)
	}
	p.messages = append(p.messages, msg)
}

// Messages returns the most recent messages sent to the player, oldest
// first.
func (p *LocalPlayer) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}

// Console is the Actor of commands entered on the server console.
type Console struct {
	Log *slog.Logger
}

// consoleID is the fixed id of the console actor.
var consoleID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("console"))

// UUID ...
func (Console) UUID() uuid.UUID {
	return consoleID
}

// Name ...
func (Console) Name() string {
	return "Console"
}

// SendMessage ...
func (c Console) SendMessage(msg string) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info(msg)
}
