package builtin

import (
	"context"
	"strings"

	"github.com/df-mc/worldedit/server/cmd"
)

type listCommand struct {
	srv serverAdapter
}

func newListCommand(srv serverAdapter) cmd.Command {
	return cmd.New("list", "Lists players currently online.", []string{"players"}, listCommand{srv: srv})
}

func (l listCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	users := l.srv.Engine().Platform().ConnectedUsers()
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name())
	}
	o.Printf("There are %d players online.", len(names))
	if len(names) != 0 {
		o.Print(strings.Join(names, ", "))
	}
}
