package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/permission"
)

type permGrantCommand struct {
	consoleOnly
	srv   serverAdapter
	Grant cmd.SubCommand `cmd:"grant"`
	Name  string         `cmd:"player"`
	Key   string         `cmd:"key"`
}

type permRevokeCommand struct {
	consoleOnly
	srv    serverAdapter
	Revoke cmd.SubCommand `cmd:"revoke"`
	Name   string         `cmd:"player"`
	Key    string         `cmd:"key"`
}

type permListCommand struct {
	consoleOnly
	srv  serverAdapter
	List cmd.SubCommand `cmd:"list"`
	Name string         `cmd:"player"`
}

func newPermCommand(srv serverAdapter) cmd.Command {
	return cmd.New(
		"perm",
		"Manages the permission keys granted to players.",
		nil,
		permGrantCommand{srv: srv},
		permRevokeCommand{srv: srv},
		permListCommand{srv: srv},
	)
}

func (c permGrantCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	added, err := c.srv.Grants().Grant(c.Name, c.Key)
	if err != nil {
		reportGrantError(o, err, c.Name, c.Key)
		return
	}
	if added {
		o.Printf("Granted %s to %s.", c.Key, c.Name)
		return
	}
	o.Printf("%s already holds %s.", c.Name, c.Key)
}

func (c permRevokeCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	removed, err := c.srv.Grants().Revoke(c.Name, c.Key)
	if err != nil {
		reportGrantError(o, err, c.Name, c.Key)
		return
	}
	if removed {
		o.Printf("Revoked %s from %s.", c.Key, c.Name)
		return
	}
	o.Printf("%s does not hold %s.", c.Name, c.Key)
}

func (c permListCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	keys := c.srv.Grants().Keys(c.Name)
	o.Printf("%s holds %d key(s).", c.Name, len(keys))
	if len(keys) != 0 {
		o.Print(strings.Join(keys, ", "))
	}
}

func reportGrantError(o *cmd.Output, err error, name, key string) {
	switch {
	case errors.Is(err, permission.ErrInvalidName):
		o.Errort(cmd.MessageParameterInvalid, name)
	case errors.Is(err, permission.ErrInvalidKey):
		o.Errort(cmd.MessageParameterInvalid, key)
	default:
		o.Error(err)
	}
}
