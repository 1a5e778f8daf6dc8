package platform

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/permission"
	"github.com/df-mc/worldedit/server/world"
	"github.com/google/uuid"
)

// Config holds the parameters of a Local platform.
type Config struct {
	// Log is the Logger used to log debug messages. If nil, slog.Default() is
	// used.
	Log *slog.Logger
	// Name and Version are returned by Local.Name and Local.Version. Name
	// defaults to "Local".
	Name, Version string
	// Dedicated specifies if the host is a dedicated server. Only dedicated
	// hosts have a Watchdog.
	Dedicated bool
	// ExtendedHooks specifies if the host supports the extended chunk hooks
	// needed for block updates, selecting the extended side effect profile
	// over the basic one.
	ExtendedHooks bool
	// SideEffects holds the side effect profiles of the host. If nil,
	// sideeffect.DefaultTable() is used.
	SideEffects sideeffect.Table
	// Permissions decides the permissions of players. If nil, a
	// permission.Vanilla provider without Service is used.
	Permissions permission.Provider
	// Hooks is notified of the events of every world added while game hooks
	// are enabled. If nil, world.NopHandler is used.
	Hooks world.Handler
	// Reload is called by Local.Reload to re-read the host configuration.
	Reload func() error
}

// New creates a Local platform using the Config.
func (conf Config) New() (*Local, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		conf.Name = "Local"
	}
	if conf.SideEffects == nil {
		conf.SideEffects = sideeffect.DefaultTable()
	}
	if conf.Permissions == nil {
		conf.Permissions = permission.NewVanilla(nil, nil)
	}
	if conf.Hooks == nil {
		conf.Hooks = world.NopHandler{}
	}
	profile := sideeffect.ProfileBasic
	if conf.ExtendedHooks {
		profile = sideeffect.ProfileExtended
	}
	supported, err := conf.SideEffects.Profile(profile)
	if err != nil {
		return nil, fmt.Errorf("select side effect profile: %w", err)
	}
	l := &Local{
		conf:      conf,
		log:       conf.Log.With("platform", conf.Name),
		supported: supported,
		players:   make(map[uuid.UUID]*LocalPlayer),
	}
	if conf.Dedicated {
		l.dog = &watchdog{}
	}
	return l, nil
}

// Local is a Platform running in the same process as a set of
// *world.World values. Players are registered using Join and Quit.
type Local struct {
	conf      Config
	log       *slog.Logger
	supported sideeffect.Set
	dog       *watchdog

	gameHooks atomic.Bool

	mu      sync.RWMutex
	worlds  []localWorld
	players map[uuid.UUID]*LocalPlayer
}

// Name ...
func (l *Local) Name() string {
	return l.conf.Name
}

// Version ...
func (l *Local) Version() string {
	return l.conf.Version
}

// AddWorld makes w available to the engine. Worlds with a name already added
// are replaced.
func (l *Local) AddWorld(w *world.World) World {
	lw := localWorld{w: w}
	w.Handle(hookHandler{l: l})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.worlds = slices.DeleteFunc(l.worlds, func(o localWorld) bool { return o.Name() == w.Name() })
	l.worlds = append(l.worlds, lw)
	l.log.Debug("Added world.", "world", w.Name())
	return lw
}

// Worlds ...
func (l *Local) Worlds() []World {
	l.mu.RLock()
	defer l.mu.RUnlock()
	worlds := make([]World, len(l.worlds))
	for i, w := range l.worlds {
		worlds[i] = w
	}
	return worlds
}

// Join registers a player so that it may be matched. The player returned is
// placed in the World passed.
func (l *Local) Join(id uuid.UUID, name string, w World) *LocalPlayer {
	p := &LocalPlayer{id: id, name: name, log: l.log.With("player", name)}
	p.world.Store(&WorldRef{Name: w.Name()})

	l.mu.Lock()
	l.players[id] = p
	l.mu.Unlock()
	l.log.Debug("Player joined.", "player", name, "id", id)
	return p
}

// Quit unregisters the player with the id passed.
func (l *Local) Quit(id uuid.UUID) {
	l.mu.Lock()
	p, ok := l.players[id]
	delete(l.players, id)
	l.mu.Unlock()
	if ok {
		l.log.Debug("Player quit.", "player", p.name, "id", id)
	}
}

// MatchPlayer resolves ref by its id, falling back to its name if no player
// with that id is online.
func (l *Local) MatchPlayer(ref ActorRef) (Player, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.players[ref.ID]; ok {
		return p, true
	}
	for _, p := range l.players {
		if ref.Name != "" && p.name == ref.Name {
			return p, true
		}
	}
	return nil, false
}

// MatchWorld resolves ref by name.
func (l *Local) MatchWorld(ref WorldRef) (World, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, w := range l.worlds {
		if w.Name() == ref.Name {
			return w, true
		}
	}
	return nil, false
}

// SupportedSideEffects ...
func (l *Local) SupportedSideEffects() sideeffect.Set {
	return l.supported
}

// Watchdog returns the watchdog of the host if it is dedicated.
func (l *Local) Watchdog() (Watchdog, bool) {
	if l.dog == nil {
		return nil, false
	}
	return l.dog, true
}

// WatchdogTicks returns the number of times the watchdog was ticked and the
// time of the last tick.
func (l *Local) WatchdogTicks() (uint64, time.Time) {
	if l.dog == nil {
		return 0, time.Time{}
	}
	return l.dog.ticks.Load(), time.Unix(0, l.dog.last.Load())
}

// ConnectedUsers returns every registered player, sorted by name.
func (l *Local) ConnectedUsers() []Actor {
	l.mu.RLock()
	players := slices.Collect(maps.Values(l.players))
	l.mu.RUnlock()
	slices.SortFunc(players, func(a, b *LocalPlayer) int {
		if a.name < b.name {
			return -1
		} else if a.name > b.name {
			return 1
		}
		return 0
	})
	actors := make([]Actor, len(players))
	for i, p := range players {
		actors[i] = p
	}
	return actors
}

// HasPermission checks the permissions of players through the permission
// Provider. Actors that are not players, such as the console, hold every
// permission.
func (l *Local) HasPermission(a Actor, node string) bool {
	if s, ok := a.(permission.Subject); ok {
		return l.conf.Permissions.HasPermission(s, node)
	}
	return a != nil
}

// Capabilities ...
func (l *Local) Capabilities() map[Capability]Preference {
	return map[Capability]Preference{
		CapabilityConfiguration: PreferenceOthers,
		CapabilityWorldEditCUI:  PreferenceNormal,
		CapabilityGameHooks:     PreferenceNormal,
		CapabilityPermissions:   PreferenceNormal,
		CapabilityUserCommands:  PreferenceNormal,
		CapabilityWorldEditing:  PreferencePreferred,
	}
}

// SetGameHooksEnabled enables or disables forwarding world events to the
// Hooks handler.
func (l *Local) SetGameHooksEnabled(enabled bool) {
	l.gameHooks.Store(enabled)
}

// GameHooksEnabled reports if game hooks are enabled.
func (l *Local) GameHooksEnabled() bool {
	return l.gameHooks.Load()
}

func (l *Local) hooks() (world.Handler, bool) {
	return l.conf.Hooks, l.gameHooks.Load()
}

// Reload re-reads the host configuration.
func (l *Local) Reload() error {
	if l.conf.Reload == nil {
		return nil
	}
	if err := l.conf.Reload(); err != nil {
		return fmt.Errorf("reload platform: %w", err)
	}
	l.log.Info("Reloaded configuration.")
	return nil
}

// watchdog is the Watchdog of dedicated hosts.
type watchdog struct {
	ticks atomic.Uint64
	last  atomic.Int64
}

// Tick ...
func (w *watchdog) Tick() {
	w.ticks.Add(1)
	w.last.Store(time.Now().UnixNano())
}

// Compile time check to make sure Local implements Platform.
var _ Platform = (*Local)(nil)
