package builtin

import (
	"context"

	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
)

const (
	permFast        = "worldedit.fast"
	permSideEffects = "worldedit.perf"
)

type fastCommand struct {
	srv serverAdapter
}

func newFastCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/fast", "Toggles applying edits without side effects.", nil, fastCommand{srv: srv})
}

func (c fastCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permFast); err != nil {
		reportError(o, err)
		return
	}
	if requested, _ := s.SideEffects(); requested.Empty() {
		s.SetSideEffects(sideeffect.Defaults())
		o.Print("Fast mode disabled.")
		return
	}
	s.SetSideEffects(sideeffect.NewSet())
	o.Print("Fast mode enabled. Edits will not apply side effects.")
}

type sideEffectsShowCommand struct {
	srv serverAdapter
}

type sideEffectsSetCommand struct {
	srv    serverAdapter
	Set    cmd.SubCommand `cmd:"set"`
	Effect sideEffectName `cmd:"effect"`
	State  toggle         `cmd:"state"`
}

func newSideEffectsCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/sideeffects", "Shows or changes the side effects applied by your edits.", []string{"/perf"},
		sideEffectsShowCommand{srv: srv},
		sideEffectsSetCommand{srv: srv},
	)
}

func (c sideEffectsShowCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	requested, effective := s.SideEffects()
	supported := c.srv.Engine().Platform().SupportedSideEffects()
	for _, e := range sideeffect.All().Slice() {
		switch {
		case effective.Has(e):
			o.Printf("%s: on", e)
		case requested.Has(e) && !supported.Has(e):
			o.Printf("%s: on, not supported", e)
		default:
			o.Printf("%s: off", e)
		}
	}
}

func (c sideEffectsSetCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permSideEffects); err != nil {
		reportError(o, err)
		return
	}
	e, err := sideeffect.Parse(string(c.Effect))
	if err != nil {
		o.Error(err)
		return
	}
	requested, _ := s.SideEffects()
	if c.State == "on" {
		requested = requested.With(e)
	} else {
		requested = requested.Without(e)
	}
	s.SetSideEffects(requested)
	o.Printf("Side effect %s turned %s.", e, c.State)
	if !c.srv.Engine().Platform().SupportedSideEffects().Has(e) {
		o.Print("This server does not support it, so it will not be applied.")
	}
}
