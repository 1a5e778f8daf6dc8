package world

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"
)

// BlockState is an immutable block state, such as minecraft:stone or
// minecraft:oak_log[axis=y]. BlockStates are comparable: two states are equal
// if their names and properties are equal. The zero value is air.
type BlockState struct {
	name  string
	props string
}

// Air is the BlockState of an empty position.
var Air = BlockState{}

const airName = "minecraft:air"

// NewBlockState creates a BlockState from a name and a set of properties. A
// name without a namespace is placed in the minecraft namespace. Property
// values are formatted using fmt.
func NewBlockState(name string, properties map[string]any) BlockState {
	name = qualify(name)
	if name == airName && len(properties) == 0 {
		return Air
	}
	if len(properties) == 0 {
		return BlockState{name: name}
	}
	keys := slices.Sorted(maps.Keys(properties))
	var b strings.Builder
	for i, k := range keys {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fmt.Sprint(properties[k]))
	}
	return BlockState{name: name, props: b.String()}
}

// ParseBlockState parses a BlockState in the format name[key=value,...]. The
// properties part is optional.
func ParseBlockState(s string) (BlockState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Air, fmt.Errorf("parse block state: empty string")
	}
	name, rest, hasProps := strings.Cut(s, "[")
	if !hasProps {
		return NewBlockState(name, nil), nil
	}
	body, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return Air, fmt.Errorf("parse block state %q: missing closing bracket", s)
	}
	props := make(map[string]any)
	if body != "" {
		for _, pair := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(pair, "=")
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if !ok || k == "" || v == "" {
				return Air, fmt.Errorf("parse block state %q: invalid property %q", s, pair)
			}
			props[k] = v
		}
	}
	return NewBlockState(name, props), nil
}

// MustParseBlockState parses a BlockState like ParseBlockState and panics if
// the state is invalid.
func MustParseBlockState(s string) BlockState {
	state, err := ParseBlockState(s)
	if err != nil {
		panic(err)
	}
	return state
}

func qualify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return airName
	}
	if !strings.Contains(name, ":") {
		return "minecraft:" + name
	}
	return name
}

// Name returns the namespaced name of the BlockState.
func (s BlockState) Name() string {
	if s.name == "" {
		return airName
	}
	return s.name
}

// Properties returns the properties of the BlockState. The map returned is a
// copy and may be modified.
func (s BlockState) Properties() map[string]string {
	m := make(map[string]string)
	if s.props == "" {
		return m
	}
	for _, pair := range strings.Split(s.props, ",") {
		k, v, _ := strings.Cut(pair, "=")
		m[k] = v
	}
	return m
}

// Air checks if the BlockState is air.
func (s BlockState) Air() bool {
	return s == Air
}

// Hash returns a 64-bit hash of the BlockState, stable across processes.
func (s BlockState) Hash() uint64 {
	h := fnv1a.HashString64(s.Name())
	return fnv1a.AddString64(h, s.props)
}

// String returns the BlockState in the same format accepted by
// ParseBlockState.
func (s BlockState) String() string {
	if s.props == "" {
		return s.Name()
	}
	return s.Name() + "[" + s.props + "]"
}
