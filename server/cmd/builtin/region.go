package builtin

import (
	"context"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/edit/region"
	"github.com/df-mc/worldedit/server/world"
)

const (
	permSet      = "worldedit.region.set"
	permReplace  = "worldedit.region.replace"
	permCylinder = "worldedit.generation.cylinder"
)

type setCommand struct {
	srv   serverAdapter
	Block string `cmd:"block"`
}

func newSetCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/set", "Sets every block of the selection.", nil, setCommand{srv: srv})
}

func (c setCommand) Run(ctx context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	state, err := world.ParseBlockState(c.Block)
	if err != nil {
		o.Errort(cmd.MessageParameterInvalid, c.Block)
		return
	}
	res, err := s.Edit(ctx, permSet, changeset.Set(state))
	if err != nil {
		reportError(o, err)
		return
	}
	reportResult(o, "change", res)
}

type replaceCommand struct {
	srv  serverAdapter
	From string `cmd:"from"`
	To   string `cmd:"to"`
}

func newReplaceCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/replace", "Replaces blocks of the selection.", []string{"/re", "/rep"}, replaceCommand{srv: srv})
}

func (c replaceCommand) Run(ctx context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	from, err := parseStates(c.From)
	if err != nil {
		o.Errort(cmd.MessageParameterInvalid, c.From)
		return
	}
	to, err := world.ParseBlockState(c.To)
	if err != nil {
		o.Errort(cmd.MessageParameterInvalid, c.To)
		return
	}
	res, err := s.Edit(ctx, permReplace, changeset.Replace(from, to))
	if err != nil {
		reportError(o, err)
		return
	}
	reportResult(o, "change", res)
}

type cylCommand struct {
	srv    serverAdapter
	Block  string  `cmd:"block"`
	Radius float64 `cmd:"radius"`
	Height int     `cmd:"height,optional"`
}

func newCylCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/cyl", "Generates a cylinder at your position.", nil, cylCommand{srv: srv})
}

func (c cylCommand) Run(ctx context.Context, src cmd.Source, o *cmd.Output) {
	p, ok := playerOf(src)
	if !ok {
		o.Error("Only players can generate a cylinder at their position.")
		return
	}
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	state, err := world.ParseBlockState(c.Block)
	if err != nil {
		o.Errort(cmd.MessageParameterInvalid, c.Block)
		return
	}
	height := c.Height
	if height == 0 {
		height = 1
	}
	cyl, err := region.NewCylinder(cube.PosFromVec3(p.Position()), c.Radius, height)
	if err != nil {
		o.Error(err)
		return
	}
	res, err := s.EditRegion(ctx, permCylinder, cyl, changeset.Set(state))
	if err != nil {
		reportError(o, err)
		return
	}
	reportResult(o, "change", res)
}
