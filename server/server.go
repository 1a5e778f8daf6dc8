// Package server wires a world, the in-process platform, permissions, the
// history store and the edit engine into a single edit server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/cmd/builtin"
	"github.com/df-mc/worldedit/server/edit"
	"github.com/df-mc/worldedit/server/edit/history/historydb"
	"github.com/df-mc/worldedit/server/permission"
	"github.com/df-mc/worldedit/server/platform"
	"github.com/df-mc/worldedit/server/world"
	"github.com/google/uuid"
)

// Server holds the world edited, the platform exposing it and the edit
// engine. Players are added using Join and removed using Quit.
type Server struct {
	conf    Config
	started time.Time

	world  *world.World
	local  *platform.Local
	perms  *permission.Vanilla
	engine *edit.Engine

	once   sync.Once
	closed chan struct{}
}

// New creates a Server using fields of conf. The world is created right away
// and the built-in commands are registered.
func (conf Config) New() (*Server, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		conf.Name = "WorldEdit"
	}
	if !conf.Range.Packable() {
		return nil, fmt.Errorf("world height range %v exceeds [%d, %d]", conf.Range, cube.MinPackedY, cube.MaxPackedY)
	}
	if conf.Generator == nil {
		conf.Generator = world.NewFlat([]world.BlockState{
			world.MustParseBlockState("grass_block"),
			world.MustParseBlockState("dirt"),
			world.MustParseBlockState("dirt"),
			world.MustParseBlockState("bedrock"),
		})
	}
	srv := &Server{conf: conf, started: time.Now(), closed: make(chan struct{})}

	var service permission.Service
	if conf.Grants != nil {
		service = conf.Grants
	}
	srv.perms = permission.NewVanilla(conf.PermissionTable, service)
	srv.perms.SetCheatMode(conf.CheatMode)
	srv.perms.SetCreativeEnabled(conf.CreativeOverride)

	local, err := platform.Config{
		Log:           conf.Log,
		Name:          conf.Name,
		Version:       Version,
		Dedicated:     conf.Dedicated,
		ExtendedHooks: conf.ExtendedHooks,
		SideEffects:   conf.SideEffects,
		Permissions:   srv.perms,
		Reload:        srv.reload,
	}.New()
	if err != nil {
		return nil, fmt.Errorf("create platform: %w", err)
	}
	srv.local = local

	srv.world = world.Config{
		Log:       conf.Log,
		Range:     conf.Range,
		ReadOnly:  conf.ReadOnlyWorld,
		Provider:  conf.WorldProvider,
		Generator: conf.Generator,
	}.New()
	local.AddWorld(srv.world)

	srv.engine = edit.Config{
		Log:                conf.Log,
		Platform:           local,
		MaxVolume:          conf.MaxVolume,
		HistoryDepth:       conf.HistoryDepth,
		CheckInterval:      conf.CheckInterval,
		LockTimeout:        conf.LockTimeout,
		DisableQueueing:    conf.DisableQueueing,
		DefaultSideEffects: conf.DefaultSideEffects,
		History:            conf.History,
	}.New()

	builtin.Register(srv)
	conf.Log.Info("Server created.", "name", conf.Name, "world", srv.world.Name(), "side_effects", local.SupportedSideEffects())
	return srv, nil
}

// Version is the version of the platform reported to actors.
const Version = "7.3.0"

// Engine returns the edit engine of the Server.
func (srv *Server) Engine() *edit.Engine {
	return srv.engine
}

// Platform returns the platform that exposes the world of the Server.
func (srv *Server) Platform() *platform.Local {
	return srv.local
}

// Grants returns the permission keys granted to players. It is nil if no
// grants file was configured.
func (srv *Server) Grants() *permission.Grants {
	return srv.conf.Grants
}

// World returns the world edited.
func (srv *Server) World() *world.World {
	return srv.world
}

// Worlds returns every world of the Server.
func (srv *Server) Worlds() []*world.World {
	return []*world.World{srv.world}
}

// StartTime returns the time the Server was created.
func (srv *Server) StartTime() time.Time {
	return srv.started
}

// Join adds a player to the Server, placing it in the world of the Server.
// If history was exported for the player before, it is imported.
func (srv *Server) Join(id uuid.UUID, name string) *platform.LocalPlayer {
	p := srv.local.Join(id, name, srv.local.Worlds()[0])
	if srv.conf.History == nil {
		return p
	}
	undo, redo, err := srv.engine.Session(p).ImportHistory()
	switch {
	case errors.Is(err, historydb.ErrNotFound):
	case err != nil:
		srv.conf.Log.Error("Import history.", "player", name, "error", err)
	default:
		srv.conf.Log.Debug("Imported history.", "player", name, "undo", undo, "redo", redo)
	}
	return p
}

// Quit removes a player from the Server. Its history is exported if a
// history store is configured, and its edit session is closed.
func (srv *Server) Quit(id uuid.UUID) {
	if s, ok := srv.engine.Lookup(id); ok {
		srv.closeSession(s)
	}
	srv.local.Quit(id)
}

func (srv *Server) closeSession(s *edit.Session) {
	if srv.conf.History != nil {
		if err := s.ExportHistory(); err != nil {
			srv.conf.Log.Error("Export history.", "actor", s.Actor(), "error", err)
		}
	}
	s.Close()
}

// ExecuteCommand executes a command line on behalf of the actor passed.
func (srv *Server) ExecuteCommand(ctx context.Context, a platform.Actor, commandLine string) {
	cmd.ExecuteLine(ctx, builtin.Source(a), commandLine, nil)
}

// Reload re-reads the configuration file of the Server and the permission
// grants. The history depth and permission switches are applied right away.
func (srv *Server) Reload() error {
	return srv.local.Reload()
}

func (srv *Server) reload() error {
	if g := srv.conf.Grants; g != nil {
		if err := g.Reload(); err != nil {
			return fmt.Errorf("reload grants: %w", err)
		}
	}
	if srv.conf.File == "" {
		return nil
	}
	uc, err := LoadConfig(srv.conf.File)
	if err != nil {
		return err
	}
	srv.engine.SetHistoryDepth(uc.History.Depth)
	srv.perms.SetCheatMode(uc.Permissions.CheatMode)
	srv.perms.SetCreativeEnabled(uc.Permissions.CreativeOverride)
	return nil
}

// CloseOnProgramEnd closes the server right before the program ends, so that
// all data of the server are saved properly.
func (srv *Server) CloseOnProgramEnd() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			if err := srv.Close(); err != nil {
				srv.conf.Log.Error("Close server.", "error", err)
			}
		case <-srv.closed:
		}
		signal.Stop(c)
	}()
}

// Closed returns a channel that is closed once the Server is closed.
func (srv *Server) Closed() <-chan struct{} {
	return srv.closed
}

// Close exports the history of every session, closes the world and the
// history store. Calling Close more than once has no effect.
func (srv *Server) Close() error {
	var err error
	srv.once.Do(func() {
		srv.conf.Log.Info("Closing server...")
		for _, s := range srv.engine.Sessions() {
			srv.closeSession(s)
		}
		srv.engine.Close()
		if werr := srv.world.Close(); werr != nil {
			err = fmt.Errorf("close world: %w", werr)
		}
		if h := srv.conf.History; h != nil {
			if herr := h.Close(); herr != nil {
				err = errors.Join(err, fmt.Errorf("close history store: %w", herr))
			}
		}
		close(srv.closed)
	})
	return err
}
