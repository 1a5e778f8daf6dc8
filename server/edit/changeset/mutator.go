package changeset

import (
	"slices"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/world"
)

// Mutator computes the desired state of a block from its current state.
// Mutators must be pure: the same input always produces the same output.
type Mutator interface {
	Mutate(pos cube.Pos, current world.BlockState) world.BlockState
}

// Func is a Mutator implemented by a function.
type Func func(pos cube.Pos, current world.BlockState) world.BlockState

// Mutate ...
func (f Func) Mutate(pos cube.Pos, current world.BlockState) world.BlockState {
	return f(pos, current)
}

// Set returns a Mutator that sets every block to s.
func Set(s world.BlockState) Mutator {
	return Func(func(cube.Pos, world.BlockState) world.BlockState {
		return s
	})
}

// Replace returns a Mutator that replaces blocks matching one of from with
// to. If from is empty, every block that is not air is replaced.
func Replace(from []world.BlockState, to world.BlockState) Mutator {
	from = slices.Clone(from)
	return Func(func(_ cube.Pos, current world.BlockState) world.BlockState {
		if len(from) == 0 {
			if current.Air() {
				return current
			}
			return to
		}
		if slices.Contains(from, current) {
			return to
		}
		return current
	})
}
