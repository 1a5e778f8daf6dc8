package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/edit/region"
)

const (
	permSelection = "worldedit.selection.pos"
	permExpand    = "worldedit.selection.expand"
	permContract  = "worldedit.selection.contract"
	permSize      = "worldedit.selection.size"
)

type posCommand struct {
	srv   serverAdapter
	first bool
}

type posAtCommand struct {
	srv   serverAdapter
	first bool
	X     int `cmd:"x"`
	Y     int `cmd:"y"`
	Z     int `cmd:"z"`
}

func newPosCommand(srv serverAdapter, first bool) cmd.Command {
	name, desc := "/pos2", "Sets the second corner of the selection."
	if first {
		name, desc = "/pos1", "Sets the first corner of the selection."
	}
	return cmd.New(name, desc, nil, posCommand{srv: srv, first: first}, posAtCommand{srv: srv, first: first})
}

func (c posCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	p, ok := playerOf(src)
	if !ok {
		o.Error("Give a position when running this from the console.")
		return
	}
	setCorner(c.srv, src, o, c.first, cube.PosFromVec3(p.Position()))
}

func (c posAtCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	setCorner(c.srv, src, o, c.first, cube.Pos{c.X, c.Y, c.Z})
}

func setCorner(srv serverAdapter, src cmd.Source, o *cmd.Output, first bool, pos cube.Pos) {
	s, ok := session(srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permSelection); err != nil {
		reportError(o, err)
		return
	}
	set, corner := s.SetPos2, "Second"
	if first {
		set, corner = s.SetPos1, "First"
	}
	r, err := set(pos)
	if err != nil {
		reportError(o, err)
		return
	}
	o.Printf("%s position set to %v.", corner, pos)
	if r != nil {
		o.Printf("Selected %v (%d blocks).", r, r.Volume())
	}
}

type selShowCommand struct {
	srv serverAdapter
}

type selClearCommand struct {
	srv   serverAdapter
	Clear cmd.SubCommand `cmd:"clear"`
}

func newSelCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/sel", "Shows or clears the selection.", []string{"/desel"}, selShowCommand{srv: srv}, selClearCommand{srv: srv})
}

func (c selShowCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	r, ok := s.Selection()
	if !ok {
		o.Print("Nothing is selected.")
		return
	}
	o.Printf("Selected %v (%d blocks).", r, r.Volume())
}

func (c selClearCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.Select(nil); err != nil {
		reportError(o, err)
		return
	}
	o.Print("Selection cleared.")
}

type polyCommand struct {
	srv    serverAdapter
	MinY   int         `cmd:"minY"`
	MaxY   int         `cmd:"maxY"`
	Points cmd.Varargs `cmd:"points"`
}

func newPolyCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/poly", "Selects a polygon extruded between two heights.", nil, polyCommand{srv: srv})
}

func (c polyCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permSelection); err != nil {
		reportError(o, err)
		return
	}
	points, err := parsePoints(string(c.Points))
	if err != nil {
		o.Error(err)
		return
	}
	p, err := region.NewPolygon(points, c.MinY, c.MaxY)
	if err != nil {
		o.Error(err)
		return
	}
	if err := s.Select(p); err != nil {
		reportError(o, err)
		return
	}
	o.Printf("Selected %v (%d blocks).", p, p.Volume())
}

func parsePoints(s string) ([]region.Point, error) {
	var points []region.Point
	for _, word := range strings.Fields(s) {
		xs, zs, ok := strings.Cut(word, ",")
		x, errX := strconv.Atoi(xs)
		z, errZ := strconv.Atoi(zs)
		if !ok || errX != nil || errZ != nil {
			return nil, fmt.Errorf("invalid point %q, expected x,z", word)
		}
		points = append(points, region.Point{x, z})
	}
	return points, nil
}

type expandCommand struct {
	srv       serverAdapter
	Amount    int       `cmd:"amount"`
	Direction direction `cmd:"direction"`
}

type contractCommand struct {
	srv       serverAdapter
	Amount    int       `cmd:"amount"`
	Direction direction `cmd:"direction"`
}

func newExpandCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/expand", "Grows a cuboid selection in a direction.", nil, expandCommand{srv: srv})
}

func newContractCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/contract", "Shrinks a cuboid selection from a direction.", nil, contractCommand{srv: srv})
}

func (c expandCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	resizeCuboid(c.srv, src, o, permExpand, func(cu region.Cuboid) region.Cuboid {
		return cu.Expand(c.Direction.offset(c.Amount))
	})
}

func (c contractCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	resizeCuboid(c.srv, src, o, permContract, func(cu region.Cuboid) region.Cuboid {
		return cu.Contract(c.Direction.offset(c.Amount))
	})
}

func resizeCuboid(srv serverAdapter, src cmd.Source, o *cmd.Output, perm string, f func(region.Cuboid) region.Cuboid) {
	s, ok := session(srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(perm); err != nil {
		reportError(o, err)
		return
	}
	r, ok := s.Selection()
	if !ok {
		o.Error("Make a region selection first.")
		return
	}
	cu, ok := r.(region.Cuboid)
	if !ok {
		o.Error("Only cuboid selections can be resized.")
		return
	}
	resized := f(cu)
	if err := s.Select(resized); err != nil {
		reportError(o, err)
		return
	}
	o.Printf("Selected %v (%d blocks).", resized, resized.Volume())
}

type sizeCommand struct {
	srv serverAdapter
}

func newSizeCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/size", "Shows the size of the selection.", []string{"/count"}, sizeCommand{srv: srv})
}

func (c sizeCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permSize); err != nil {
		reportError(o, err)
		return
	}
	r, ok := s.Selection()
	if !ok {
		o.Error("Make a region selection first.")
		return
	}
	box := r.BoundingBox()
	o.Printf("Region: %v", r)
	o.Printf("Bounds: %v to %v", box.Min(), box.Max())
	o.Printf("Blocks: %d", r.Volume())
}

type worldCommand struct {
	srv  serverAdapter
	Name string `cmd:"world,optional"`
}

func newWorldCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/world", "Sets the world edited, or resets it to the world you are in.", nil, worldCommand{srv: srv})
}

func (c worldCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.SetWorld(c.Name); err != nil {
		reportError(o, err)
		return
	}
	if c.Name == "" {
		o.Print("Editing the world you are in.")
		return
	}
	o.Printf("Editing world %s.", c.Name)
}
