package sideeffect

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/pelletier/go-toml"
)

const (
	// ProfileBasic is the profile of hosts without extended chunk hooks.
	ProfileBasic = "basic"
	// ProfileExtended is the profile of hosts that are able to perform block
	// updates on edited blocks.
	ProfileExtended = "extended"
)

//go:embed profiles.toml
var defaultProfiles []byte

// Table maps profile names to the side effects a host with that profile
// supports.
type Table map[string]Set

type tableFile struct {
	Profiles map[string][]string `toml:"profiles"`
}

// DecodeTable decodes a Table from a TOML document in the form
//
//	[profiles]
//	basic = ["validation", "lighting"]
func DecodeTable(data []byte) (Table, error) {
	var f tableFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode side effect table: %w", err)
	}
	t := make(Table, len(f.Profiles))
	for name, effects := range f.Profiles {
		s, err := ParseSet(effects)
		if err != nil {
			return nil, fmt.Errorf("decode side effect profile %q: %w", name, err)
		}
		t[name] = s
	}
	return t, nil
}

// DefaultTable returns the built-in Table holding the basic and extended
// profiles.
func DefaultTable() Table {
	t, err := DecodeTable(defaultProfiles)
	if err != nil {
		panic(err)
	}
	return t
}

// Profile returns the Set of the profile passed.
func (t Table) Profile(name string) (Set, error) {
	s, ok := t[name]
	if !ok {
		return 0, fmt.Errorf("unknown side effect profile %q (known: %v)", name, slices.Sorted(maps.Keys(t)))
	}
	return s, nil
}

// Encode encodes the Table to a TOML document accepted by DecodeTable.
func (t Table) Encode() ([]byte, error) {
	f := tableFile{Profiles: make(map[string][]string, len(t))}
	for name, s := range t {
		f.Profiles[name] = s.Strings()
	}
	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode side effect table: %w", err)
	}
	return data, nil
}
