package cmd

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	commandMu sync.RWMutex
	commands  = map[string]Command{}
)

// Register registers a Command so that it may be found by its name and
// aliases. Registering a Command with an alias already in use replaces the
// Command registered before for that alias.
func Register(c Command) {
	commandMu.Lock()
	defer commandMu.Unlock()
	for _, alias := range c.aliases {
		commands[strings.ToLower(alias)] = c
	}
}

// ByAlias looks up a Command by one of its aliases.
func ByAlias(alias string) (Command, bool) {
	commandMu.RLock()
	defer commandMu.RUnlock()
	c, ok := commands[strings.ToLower(alias)]
	return c, ok
}

// Commands returns every registered Command once, sorted by name.
func Commands() []Command {
	commandMu.RLock()
	defer commandMu.RUnlock()
	byName := make(map[string]Command, len(commands))
	for _, c := range commands {
		byName[c.name] = c
	}
	names := slices.Sorted(maps.Keys(byName))
	out := make([]Command, len(names))
	for i, name := range names {
		out[i] = byName[name]
	}
	return out
}
