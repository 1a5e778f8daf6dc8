package builtin

import (
	"context"

	"github.com/df-mc/worldedit/server/cmd"
)

type stopCommand struct {
	consoleOnly
	srv serverAdapter
}

func newStopCommand(srv serverAdapter) cmd.Command {
	return cmd.New("stop", "Stops the server.", nil, stopCommand{srv: srv})
}

func (s stopCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	o.Print("Stopping server...")
	if err := s.srv.Close(); err != nil {
		o.Error(err)
	}
}
