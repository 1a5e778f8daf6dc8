package builtin

import (
	"context"
	"strings"

	"github.com/df-mc/worldedit/server/cmd"
)

type helpCommand struct {
	Command string `cmd:"command,optional"`
}

func newHelpCommand() cmd.Command {
	return cmd.New("help", "Shows available commands and their usage.", []string{"?", "/help"}, helpCommand{})
}

func (h helpCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	if h.Command != "" {
		name := strings.ToLower(strings.TrimPrefix(h.Command, "/"))
		command, found := cmd.ByAlias(name)
		if !found {
			command, found = cmd.ByAlias("/" + name)
		}
		if !found || len(command.Runnables(src)) == 0 {
			o.Errort(cmd.MessageUnknown, name)
			return
		}
		if desc := command.Description(); desc != "" {
			o.Print(desc)
		}
		for _, line := range strings.Split(command.Usage(), "\n") {
			o.Print(line)
		}
		return
	}

	var available []cmd.Command
	for _, command := range cmd.Commands() {
		if len(command.Runnables(src)) != 0 {
			available = append(available, command)
		}
	}
	if len(available) == 0 {
		o.Print("No commands available.")
		return
	}
	o.Printf("Available commands (%d):", len(available))
	for _, command := range available {
		line := "/" + command.Name()
		if desc := command.Description(); desc != "" {
			line += " - " + desc
		}
		o.Print(line)
	}
}
