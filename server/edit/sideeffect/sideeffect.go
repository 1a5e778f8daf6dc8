// Package sideeffect controls which post-write operations a host performs
// after a block was changed by an edit.
package sideeffect

import (
	"fmt"
	"strings"
)

// SideEffect is a host operation that may run after a block is written.
type SideEffect uint8

const (
	// Validation checks the written block against the rules of the host and
	// corrects invalid states.
	Validation SideEffect = iota
	// EntityAI has entities near the written block re-evaluate their
	// behaviour.
	EntityAI
	// Lighting recalculates light around the written block.
	Lighting
	// Neighbours notifies the blocks around the written block of the change.
	Neighbours
	// Update performs a block update on the written block itself, for example
	// making sand fall.
	Update

	sideEffectCount
)

var names = [...]string{
	Validation: "validation",
	EntityAI:   "entity_ai",
	Lighting:   "lighting",
	Neighbours: "neighbors",
	Update:     "update",
}

// String returns the configuration name of the SideEffect.
func (s SideEffect) String() string {
	if s >= sideEffectCount {
		return fmt.Sprintf("SideEffect(%d)", uint8(s))
	}
	return names[s]
}

// Parse parses a SideEffect from its name. Names are case-insensitive and
// "neighbours" is accepted as an alternative spelling.
func Parse(name string) (SideEffect, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "neighbours" {
		return Neighbours, nil
	}
	for i, s := range names {
		if s == n {
			return SideEffect(i), nil
		}
	}
	return 0, fmt.Errorf("unknown side effect %q", name)
}

// Set is a set of side effects.
type Set uint8

// NewSet creates a Set holding the side effects passed.
func NewSet(effects ...SideEffect) Set {
	return Set(0).With(effects...)
}

// All returns a Set holding every SideEffect.
func All() Set {
	return Set(1<<sideEffectCount - 1)
}

// Defaults returns the side effects applied when an actor did not change its
// settings: everything but EntityAI.
func Defaults() Set {
	return All().Without(EntityAI)
}

// ParseSet parses a Set from a list of side effect names.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, n := range names {
		e, err := Parse(n)
		if err != nil {
			return 0, err
		}
		s = s.With(e)
	}
	return s, nil
}

// With returns a copy of s that also holds the effects passed.
func (s Set) With(effects ...SideEffect) Set {
	for _, e := range effects {
		s |= 1 << e
	}
	return s
}

// Without returns a copy of s that does not hold the effects passed.
func (s Set) Without(effects ...SideEffect) Set {
	for _, e := range effects {
		s &^= 1 << e
	}
	return s
}

// Has checks if s holds e.
func (s Set) Has(e SideEffect) bool {
	return s&(1<<e) != 0
}

// Intersect returns the effects held by both s and o.
func (s Set) Intersect(o Set) Set {
	return s & o
}

// Empty checks if s holds no effects at all.
func (s Set) Empty() bool {
	return s&All() == 0
}

// Slice returns the effects of s in the order they are applied.
func (s Set) Slice() []SideEffect {
	effects := make([]SideEffect, 0, sideEffectCount)
	for e := range sideEffectCount {
		if s.Has(e) {
			effects = append(effects, e)
		}
	}
	return effects
}

// Strings returns the names of the effects of s.
func (s Set) Strings() []string {
	effects := s.Slice()
	str := make([]string, len(effects))
	for i, e := range effects {
		str[i] = e.String()
	}
	return str
}

// String ...
func (s Set) String() string {
	if s.Empty() {
		return "none"
	}
	return strings.Join(s.Strings(), ",")
}
