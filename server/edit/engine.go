// Package edit ties regions, change sets, side effects, history and region
// locks together into edits performed on behalf of actors of a platform.
package edit

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/edit/history"
	"github.com/df-mc/worldedit/server/edit/history/historydb"
	"github.com/df-mc/worldedit/server/edit/lock"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/platform"
	"github.com/google/uuid"
)

var (
	// ErrNoSelection is returned when an edit is made without a selection.
	ErrNoSelection = errors.New("no region selected")
	// ErrActorOffline is returned when the actor of a session could not be
	// matched to a live actor of the platform.
	ErrActorOffline = errors.New("actor is not online")
	// ErrWorldUnavailable is returned when the world of an edit could not be
	// matched to a live world of the platform.
	ErrWorldUnavailable = errors.New("world is not available")
	// ErrSessionClosed is returned when a closed Session is used.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNoHistoryStore is returned when history is exported or imported
	// without a history store configured.
	ErrNoHistoryStore = errors.New("no history store configured")
)

// PermissionDeniedError is returned when an actor lacks the permission needed
// for an operation.
type PermissionDeniedError struct {
	Actor      platform.ActorRef
	Permission string
}

// Error ...
func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%v lacks permission %s", e.Actor, e.Permission)
}

// DefaultMaxVolume is the maximum number of blocks a single edit may touch
// when Config.MaxVolume is not set.
const DefaultMaxVolume = 1 << 22

// Config holds the parameters of an Engine.
type Config struct {
	// Log is the Logger used to log debug messages. If nil, slog.Default() is
	// used.
	Log *slog.Logger
	// Platform is the host the Engine edits worlds of. Platform must not be
	// nil.
	Platform platform.Platform
	// MaxVolume is the maximum volume of a region that may be edited at once.
	// If zero, DefaultMaxVolume is used. If negative, there is no limit.
	MaxVolume int
	// HistoryDepth is the number of edits each actor can undo. If zero or
	// lower, history.DefaultDepth is used.
	HistoryDepth int
	// CheckInterval is the number of blocks visited between two checks for
	// cancellation while an edit is built. If zero or lower,
	// changeset.DefaultCheckInterval is used.
	CheckInterval int
	// LockTimeout is the maximum time an edit waits for an overlapping edit
	// to finish. Zero or lower waits until the context of the edit is done.
	LockTimeout time.Duration
	// DisableQueueing makes edits fail right away if an overlapping edit is
	// running.
	DisableQueueing bool
	// DefaultSideEffects is the set of side effects requested by new
	// sessions. If zero, sideeffect.Defaults() is used.
	DefaultSideEffects sideeffect.Set
	// LockMetrics receives the per-chunk counters of region locks. If nil, a
	// new lock.Metrics is created.
	LockMetrics *lock.Metrics
	// History is the store that history is exported to and imported from. It
	// may be nil.
	History *historydb.DB
}

// New creates an Engine using the Config.
func (conf Config) New() *Engine {
	if conf.Platform == nil {
		panic("edit: Config.Platform must not be nil")
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.MaxVolume == 0 {
		conf.MaxVolume = DefaultMaxVolume
	}
	if conf.HistoryDepth <= 0 {
		conf.HistoryDepth = history.DefaultDepth
	}
	if conf.CheckInterval <= 0 {
		conf.CheckInterval = changeset.DefaultCheckInterval
	}
	if conf.DefaultSideEffects.Empty() {
		conf.DefaultSideEffects = sideeffect.Defaults()
	}
	e := &Engine{
		conf:     conf,
		log:      conf.Log,
		arena:    history.NewArena(conf.HistoryDepth),
		sessions: make(map[uuid.UUID]*Session),
	}
	e.locks = lock.Config{
		Log:             conf.Log,
		Timeout:         conf.LockTimeout,
		DisableQueueing: conf.DisableQueueing,
		Metrics:         conf.LockMetrics,
	}.New()
	return e
}

// Engine performs edits on the worlds of a Platform. Every actor has a single
// Session holding its selection, preferences and history.
type Engine struct {
	conf  Config
	log   *slog.Logger
	locks *lock.Manager
	arena *history.Arena

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// Platform returns the Platform of the Engine.
func (e *Engine) Platform() platform.Platform {
	return e.conf.Platform
}

// Locks returns the lock.Manager guarding the regions edited.
func (e *Engine) Locks() *lock.Manager {
	return e.locks
}

// Arena returns the history of all actors.
func (e *Engine) Arena() *history.Arena {
	return e.arena
}

// Session returns the Session of the actor passed, creating it if it does not
// yet exist. Players are matched through the Platform on every operation, so
// only a reference to them is kept. Other actors, such as the console, are
// kept as they are.
func (e *Engine) Session(a platform.Actor) *Session {
	ref := platform.RefOf(a)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[ref.ID]; ok {
		return s
	}
	s := &Session{
		e:       e,
		actor:   ref,
		log:     e.log.With("actor", ref.Name),
		effects: e.conf.DefaultSideEffects,
	}
	if _, isPlayer := a.(platform.Player); !isPlayer {
		s.fixed = a
	}
	e.sessions[ref.ID] = s
	e.log.Debug("Created session.", "actor", ref.Name, "id", ref.ID)
	return s
}

// Lookup returns the Session of an actor if it exists.
func (e *Engine) Lookup(id uuid.UUID) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// Sessions returns all open sessions, sorted by actor name.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	sessions := slices.Collect(maps.Values(e.sessions))
	e.mu.Unlock()
	slices.SortFunc(sessions, func(a, b *Session) int {
		if a.actor.Name < b.actor.Name {
			return -1
		} else if a.actor.Name > b.actor.Name {
			return 1
		}
		return 0
	})
	return sessions
}

// SetHistoryDepth changes the number of edits each actor can undo. Existing
// history beyond the new depth is dropped, oldest first.
func (e *Engine) SetHistoryDepth(depth int) {
	if depth <= 0 {
		depth = history.DefaultDepth
	}
	e.arena.Resize(depth)
}

// Close closes every Session of the Engine.
func (e *Engine) Close() {
	for _, s := range e.Sessions() {
		s.Close()
	}
}

func (e *Engine) removeSession(id uuid.UUID) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// builder returns the changeset.Builder used for edits.
func (e *Engine) builder() changeset.Builder {
	b := changeset.Builder{
		Limit:         e.conf.MaxVolume,
		CheckInterval: e.conf.CheckInterval,
		Log:           e.log,
	}
	if dog, ok := e.conf.Platform.Watchdog(); ok {
		b.Watchdog = dog
	}
	return b
}

// controller returns the sideeffect.Controller of the Platform.
func (e *Engine) controller() sideeffect.Controller {
	return sideeffect.Controller{Supported: e.conf.Platform.SupportedSideEffects()}
}
