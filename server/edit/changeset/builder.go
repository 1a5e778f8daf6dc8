package changeset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/region"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
)

// DefaultCheckInterval is the number of positions visited between two checks
// for cancellation when Builder.CheckInterval is not set.
const DefaultCheckInterval = 4096

// RegionTooLargeError is returned when an edit would touch more blocks than
// allowed.
type RegionTooLargeError struct {
	Count int
	Limit int
}

// Error ...
func (e *RegionTooLargeError) Error() string {
	return fmt.Sprintf("region of %d blocks exceeds the limit of %d blocks", e.Count, e.Limit)
}

// Watchdog is notified regularly during long builds so that a host does not
// consider itself stalled.
type Watchdog interface {
	Tick()
}

// Builder builds ChangeSets by comparing the current state of a world with the
// state computed by a Mutator.
type Builder struct {
	// Limit is the maximum volume of a region passed to Build. Zero or lower
	// means there is no limit.
	Limit int
	// CheckInterval is the number of positions visited between two checks for
	// context cancellation and two watchdog ticks. If zero or lower,
	// DefaultCheckInterval is used.
	CheckInterval int
	// Watchdog is ticked every CheckInterval positions if not nil. Apply
	// ticks it every CheckInterval deltas.
	Watchdog Watchdog
	// Log is the Logger used to log debug messages. If nil, slog.Default() is
	// used.
	Log *slog.Logger
}

// Build visits every position of reg in canonical order, reads its current
// state from r and records a delta wherever m produces a different state.
// Positions outside the height range of the world are skipped. Build never
// writes to the world.
//
// A *RegionTooLargeError is returned before any block is read if the volume
// of reg exceeds the Limit, and a *region.InvalidRegionError if reg holds
// positions that cannot be recorded. If ctx is cancelled during the build, the
// context error is returned and no ChangeSet is produced. Every row of the
// bounding box of reg counts as a visited position, so that sparse regions
// are checked for cancellation as often as dense ones.
func (b Builder) Build(ctx context.Context, worldName string, r Reader, reg region.Region, m Mutator) (*ChangeSet, error) {
	if b.Log == nil {
		b.Log = slog.Default()
	}
	if b.CheckInterval <= 0 {
		b.CheckInterval = DefaultCheckInterval
	}
	if err := region.CheckBounds(reg); err != nil {
		return nil, fmt.Errorf("build change set: %w", err)
	}
	if b.Limit > 0 {
		vol, err := region.Count(ctx, reg, b.CheckInterval)
		if err != nil {
			return nil, fmt.Errorf("build change set: %w", err)
		}
		if vol > b.Limit {
			return nil, &RegionTooLargeError{Count: vol, Limit: b.Limit}
		}
	}

	ra := r.Range()
	cs := New(worldName)
	visited := 0
	step := func() error {
		if visited%b.CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				b.Log.Debug("Change set build cancelled.", "world", worldName, "visited", visited)
				return fmt.Errorf("build change set: %w", err)
			}
			if b.Watchdog != nil && visited != 0 {
				b.Watchdog.Tick()
			}
		}
		visited++
		return nil
	}
	for row := range reg.Rows() {
		if err := step(); err != nil {
			return nil, err
		}
		if row.Y < ra.Min() || row.Y > ra.Max() {
			continue
		}
		for _, span := range row.Spans {
			for x := span.MinX; x <= span.MaxX; x++ {
				if err := step(); err != nil {
					return nil, err
				}
				pos := cube.Pos{x, row.Y, row.Z}
				current, err := r.Block(pos)
				if err != nil {
					return nil, fmt.Errorf("build change set: read %v: %w", pos, err)
				}
				if next := m.Mutate(pos, current); next != current {
					_ = cs.Record(BlockDelta{Pos: pos, Previous: current, Next: next})
				}
			}
		}
	}
	cs.Seal()
	b.Log.Debug("Built change set.", "world", worldName, "region", reg, "visited", visited, "changed", cs.Len())
	return cs, nil
}

// Apply applies cs to w like ChangeSet.Apply, ticking the Watchdog every
// CheckInterval deltas written and post-processed.
func (b Builder) Apply(ctx context.Context, cs *ChangeSet, w Writer, c sideeffect.Controller, effects sideeffect.Set) (sideeffect.Set, error) {
	if b.CheckInterval <= 0 {
		b.CheckInterval = DefaultCheckInterval
	}
	return cs.apply(ctx, w, c, effects, b.Watchdog, b.CheckInterval)
}
