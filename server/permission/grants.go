package permission

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
)

var (
	// ErrInvalidName is returned when an empty player name is passed to a
	// Grants operation.
	ErrInvalidName = errors.New("invalid player name")
	// ErrInvalidKey is returned when an empty permission key is passed to a
	// Grants operation.
	ErrInvalidKey = errors.New("invalid permission key")
)

// Grants is a Service that grants permission keys to players by name. Entries
// are persisted in a TOML file. A key ending in ".*" grants every key that
// starts with the part before the asterisk, and "*" grants every key.
type Grants struct {
	mu       sync.RWMutex
	players  map[string]grantEntry
	filePath string
}

type grantEntry struct {
	name string
	keys []string
}

type grantsFile struct {
	Players map[string][]string `toml:"players"`
}

// LoadGrants loads the grants stored in the file at the path passed. If the
// file does not exist yet, it is created without any grants.
func LoadGrants(path string) (*Grants, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("grants path must not be empty")
	}
	g := &Grants{players: make(map[string]grantEntry), filePath: path}
	if err := g.Reload(); err != nil {
		return nil, err
	}
	return g, nil
}

// Granted reports if the key passed, or a wildcard covering it, was granted
// to the Subject.
func (g *Grants) Granted(s Subject, key string) bool {
	if g == nil || s == nil {
		return false
	}
	g.mu.RLock()
	e, ok := g.players[normalizeName(s.Name())]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	for _, k := range e.keys {
		if k == "*" || k == key {
			return true
		}
		if prefix, ok := strings.CutSuffix(k, "*"); ok && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Grant grants a key to the player with the name passed. The returned bool
// indicates if the key was newly granted.
func (g *Grants) Grant(name, key string) (bool, error) {
	trimmed, normalized, key, err := g.check(name, key)
	if err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	original, exists := g.players[normalized]
	if slices.Contains(original.keys, key) {
		return false, nil
	}
	e := grantEntry{name: trimmed, keys: append(slices.Clone(original.keys), key)}
	slices.Sort(e.keys)
	g.players[normalized] = e
	if err := g.writeLocked(); err != nil {
		if exists {
			g.players[normalized] = original
		} else {
			delete(g.players, normalized)
		}
		return false, err
	}
	return true, nil
}

// Revoke revokes a key from the player with the name passed. The returned
// bool indicates if the key was granted before the call.
func (g *Grants) Revoke(name, key string) (bool, error) {
	_, normalized, key, err := g.check(name, key)
	if err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	original, exists := g.players[normalized]
	if !exists || !slices.Contains(original.keys, key) {
		return false, nil
	}
	e := grantEntry{name: original.name, keys: slices.DeleteFunc(slices.Clone(original.keys), func(k string) bool { return k == key })}
	if len(e.keys) == 0 {
		delete(g.players, normalized)
	} else {
		g.players[normalized] = e
	}
	if err := g.writeLocked(); err != nil {
		g.players[normalized] = original
		return false, err
	}
	return true, nil
}

// Keys returns the keys granted to the player with the name passed, sorted.
func (g *Grants) Keys(name string) []string {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.players[normalizeName(name)].keys)
}

// Reload re-reads the grants from disk.
func (g *Grants) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reloadLocked()
}

func (g *Grants) check(name, key string) (trimmed, normalized, trimmedKey string, err error) {
	if g == nil {
		return "", "", "", errors.New("grants are not configured")
	}
	trimmed = strings.TrimSpace(name)
	if trimmed == "" {
		return "", "", "", ErrInvalidName
	}
	trimmedKey = strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", "", "", ErrInvalidKey
	}
	return trimmed, normalizeName(trimmed), trimmedKey, nil
}

func (g *Grants) reloadLocked() error {
	data := grantsFile{}
	contents, err := os.ReadFile(g.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.players = make(map[string]grantEntry)
			return g.writeLocked()
		}
		return fmt.Errorf("read grants: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &data); err != nil {
			return fmt.Errorf("decode grants: %w", err)
		}
	}
	g.players = make(map[string]grantEntry, len(data.Players))
	for name, keys := range data.Players {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		e := grantEntry{name: trimmed}
		for _, k := range keys {
			if k = strings.TrimSpace(k); k != "" && !slices.Contains(e.keys, k) {
				e.keys = append(e.keys, k)
			}
		}
		slices.Sort(e.keys)
		g.players[normalizeName(trimmed)] = e
	}
	return nil
}

func (g *Grants) writeLocked() error {
	dir := filepath.Dir(g.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create grants directory: %w", err)
		}
	}
	data := grantsFile{Players: make(map[string][]string, len(g.players))}
	for _, e := range g.players {
		data.Players[e.name] = e.keys
	}
	encoded, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode grants: %w", err)
	}
	if err := os.WriteFile(g.filePath, encoded, 0644); err != nil {
		return fmt.Errorf("write grants: %w", err)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Compile time check to make sure Grants implements Service.
var _ Service = (*Grants)(nil)
