package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/history/historydb"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/permission"
	"github.com/df-mc/worldedit/server/world"
	"github.com/df-mc/worldedit/server/world/worlddb"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Config contains options for starting an edit server.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Name is the name of the platform, shown by the about command. If empty,
	// "WorldEdit" is used.
	Name string
	// Dedicated specifies if the server runs as a dedicated host. Only
	// dedicated hosts have a watchdog that long edits keep alive.
	Dedicated bool
	// ExtendedHooks specifies if the host is able to perform block updates on
	// edited blocks. It selects the extended side effect profile.
	ExtendedHooks bool
	// SideEffects is the table of side effect profiles. If nil,
	// sideeffect.DefaultTable() is used.
	SideEffects sideeffect.Table

	// WorldProvider is the world.Provider used for storing and loading world
	// data. If left as nil, world data will be newly created every time and
	// columns will always be newly generated when loaded.
	WorldProvider world.Provider
	// ReadOnlyWorld specifies if the world should be read only. If set to
	// true, the WorldProvider won't be saved to at all.
	ReadOnlyWorld bool
	// Generator is the world.Generator used for columns not found in the
	// WorldProvider. If nil, a flat world of grass, dirt and bedrock is
	// generated.
	Generator world.Generator
	// Range is the height range of the world. If zero, [-64, 319] is used.
	Range cube.Range

	// MaxVolume is the maximum number of blocks a single edit may touch. If
	// zero, edit.DefaultMaxVolume is used. If negative, there is no limit.
	MaxVolume int
	// CheckInterval is the number of blocks visited between two checks for
	// cancellation while an edit is built.
	CheckInterval int
	// HistoryDepth is the number of edits each actor can undo.
	HistoryDepth int
	// History is the store history is exported to. If nil, history cannot be
	// exported and is lost when a player quits.
	History *historydb.DB
	// LockTimeout is the maximum time an edit waits for an overlapping edit
	// to finish. Zero waits until the edit is cancelled.
	LockTimeout time.Duration
	// DisableQueueing makes edits fail right away if an overlapping edit is
	// running.
	DisableQueueing bool
	// DefaultSideEffects is the set of side effects requested by new
	// sessions. If zero, sideeffect.Defaults() is used.
	DefaultSideEffects sideeffect.Set

	// PermissionTable maps permission nodes to the keys granted to players.
	// If nil, permission.DefaultTable() is used.
	PermissionTable permission.Table
	// Grants holds the keys granted to players by name. It may be nil, in
	// which case only operators may edit.
	Grants *permission.Grants
	// CheatMode grants every permission to every player.
	CheatMode bool
	// CreativeOverride grants every permission to players in creative mode.
	CreativeOverride bool

	// File is the path of the UserConfig the Config was created from. If set,
	// Server.Reload re-reads it.
	File string
}

// UserConfig is the user configuration of an edit server. It may be
// serialised as TOML or YAML and can be converted to a Config by calling
// UserConfig.Config().
type UserConfig struct {
	Server struct {
		// Name is the name of the platform.
		Name string
		// Dedicated specifies if the server runs as a dedicated host.
		Dedicated bool
		// ExtendedHooks specifies if the host can perform block updates on
		// edited blocks.
		ExtendedHooks bool
	}
	World struct {
		// SaveData controls whether the world's data will be saved and
		// loaded. If true, the LevelDB world provider is used.
		SaveData bool
		// Folder is the folder that the data of the world resides in.
		Folder string
		// Name is the name given to a newly created world.
		Name string
		// MinY and MaxY are the inclusive height bounds of the world.
		MinY, MaxY int
		// Layers are the block states of a flat world, top layer first.
		Layers []string
	}
	Edit struct {
		// MaxVolume is the maximum number of blocks a single edit may touch.
		// Set to -1 to remove the limit.
		MaxVolume int
		// CheckInterval is the number of blocks visited between two checks
		// for cancellation.
		CheckInterval int
	}
	History struct {
		// Depth is the number of edits each actor can undo.
		Depth int
		// Export enables storing history, so that it survives quitting and
		// restarts.
		Export bool
		// Folder is the folder exported history is stored in.
		Folder string
	}
	Locks struct {
		// Timeout is the maximum time an edit waits for an overlapping edit,
		// such as "30s". Leave empty to wait until the edit is cancelled.
		Timeout string
		// DisableQueueing makes overlapping edits fail right away.
		DisableQueueing bool
	}
	SideEffects struct {
		// Defaults are the side effects requested by new sessions.
		Defaults []string
		// ProfileFile is an optional TOML file replacing the built-in side
		// effect profiles.
		ProfileFile string
	}
	Permissions struct {
		// TableFile is an optional TOML file with permission mappings that
		// override the built-in ones.
		TableFile string
		// GrantsFile is the TOML file storing the keys granted to players.
		GrantsFile string
		// CheatMode grants every permission to every player.
		CheatMode bool
		// CreativeOverride grants every permission to players in creative
		// mode.
		CreativeOverride bool
	}
}

// Config converts a UserConfig to a Config, so that it may be used for creating
// a Server. An error is returned if creating data providers or loading tables
// failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	conf := Config{
		Log:              log,
		Name:             uc.Server.Name,
		Dedicated:        uc.Server.Dedicated,
		ExtendedHooks:    uc.Server.ExtendedHooks,
		MaxVolume:        uc.Edit.MaxVolume,
		CheckInterval:    uc.Edit.CheckInterval,
		HistoryDepth:     uc.History.Depth,
		DisableQueueing:  uc.Locks.DisableQueueing,
		CheatMode:        uc.Permissions.CheatMode,
		CreativeOverride: uc.Permissions.CreativeOverride,
	}
	if uc.World.MinY != 0 || uc.World.MaxY != 0 {
		if uc.World.MinY > uc.World.MaxY {
			return conf, fmt.Errorf("world height range [%d, %d] is empty", uc.World.MinY, uc.World.MaxY)
		}
		conf.Range = cube.Range{uc.World.MinY, uc.World.MaxY}
		if !conf.Range.Packable() {
			return conf, fmt.Errorf("world height range [%d, %d] exceeds [%d, %d]", uc.World.MinY, uc.World.MaxY, cube.MinPackedY, cube.MaxPackedY)
		}
	}
	if len(uc.World.Layers) != 0 {
		layers := make([]world.BlockState, len(uc.World.Layers))
		for i, l := range uc.World.Layers {
			s, err := world.ParseBlockState(l)
			if err != nil {
				return conf, fmt.Errorf("world layer %d: %w", i, err)
			}
			layers[i] = s
		}
		conf.Generator = world.NewFlat(layers)
	}
	if t := strings.TrimSpace(uc.Locks.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return conf, fmt.Errorf("lock timeout: %w", err)
		}
		conf.LockTimeout = d
	}
	effects, err := sideeffect.ParseSet(uc.SideEffects.Defaults)
	if err != nil {
		return conf, fmt.Errorf("default side effects: %w", err)
	}
	conf.DefaultSideEffects = effects
	if f := uc.SideEffects.ProfileFile; f != "" {
		data, err := os.ReadFile(f)
		if err != nil {
			return conf, fmt.Errorf("read side effect profiles: %w", err)
		}
		if conf.SideEffects, err = sideeffect.DecodeTable(data); err != nil {
			return conf, err
		}
	}
	if conf.PermissionTable, err = permission.LoadTable(uc.Permissions.TableFile); err != nil {
		return conf, fmt.Errorf("load permission table: %w", err)
	}
	grantsFile := strings.TrimSpace(uc.Permissions.GrantsFile)
	if grantsFile == "" {
		grantsFile = "grants.toml"
	}
	if conf.Grants, err = permission.LoadGrants(grantsFile); err != nil {
		return conf, fmt.Errorf("load grants: %w", err)
	}
	if uc.World.SaveData {
		db, err := worlddb.Config{Log: log, Name: uc.World.Name}.Open(uc.World.Folder)
		if err != nil {
			return conf, fmt.Errorf("create world provider: %w", err)
		}
		conf.WorldProvider = db
	}
	if uc.History.Export {
		db, err := historydb.Config{Log: log}.Open(uc.History.Folder)
		if err != nil {
			if conf.WorldProvider != nil {
				_ = conf.WorldProvider.Close()
			}
			return conf, fmt.Errorf("create history store: %w", err)
		}
		conf.History = db
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Server.Name = "WorldEdit"
	c.Server.Dedicated = true
	c.World.SaveData = true
	c.World.Folder = "world"
	c.World.Name = "World"
	c.World.MinY, c.World.MaxY = -64, 319
	c.World.Layers = []string{"grass_block", "dirt", "dirt", "bedrock"}
	c.Edit.MaxVolume = 1 << 22
	c.Edit.CheckInterval = 4096
	c.History.Depth = 15
	c.History.Export = true
	c.History.Folder = "history"
	c.Locks.Timeout = "30s"
	c.SideEffects.Defaults = sideeffect.Defaults().Strings()
	c.Permissions.GrantsFile = "grants.toml"
	return c
}

// LoadConfig reads a UserConfig from the file at path. Files ending in .yaml
// or .yml are decoded as YAML, others as TOML. If the file does not exist, it
// is created holding DefaultConfig().
func LoadConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if data, err = encodeConfig(path, c); err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		return c, nil
	} else if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := decodeConfig(path, data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func yamlFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func encodeConfig(path string, c UserConfig) ([]byte, error) {
	if yamlFile(path) {
		return yaml.Marshal(c)
	}
	return toml.Marshal(c)
}

func decodeConfig(path string, data []byte, c *UserConfig) error {
	if yamlFile(path) {
		return yaml.Unmarshal(data, c)
	}
	return toml.Unmarshal(data, c)
}
