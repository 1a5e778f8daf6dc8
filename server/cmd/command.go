// Package cmd implements commands that actors may run. A Command is made of
// one or more Runnable overloads. The exported fields of a Runnable are its
// parameters and are filled from the arguments of the command line before
// it is run.
package cmd

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Source is the source of a command execution, such as a player or the
// console.
type Source interface {
	// Name returns the name of the Source.
	Name() string
	// SendCommandOutput sends the Output of a command to the Source.
	SendCommandOutput(o *Output)
}

// Runnable is a single overload of a Command. The exported fields of the
// struct implementing it are parsed from the arguments passed to the
// command, in the order they are declared.
type Runnable interface {
	Run(ctx context.Context, src Source, o *Output)
}

// Allower may be implemented by a Runnable to limit the sources that may run
// it.
type Allower interface {
	Allow(src Source) bool
}

// Command is a command that may be executed by a Source.
type Command struct {
	name        string
	description string
	aliases     []string
	v           []reflect.Value
}

// New creates a Command with a name, description, optional aliases and at
// least one Runnable. New panics if a Runnable is not a struct or has fields
// of an unsupported type.
func New(name, description string, aliases []string, r ...Runnable) Command {
	if len(r) == 0 {
		panic("cmd.New: at least one Runnable must be passed")
	}
	v := make([]reflect.Value, len(r))
	for i, runnable := range r {
		rv := reflect.ValueOf(runnable)
		if rv.Kind() != reflect.Struct {
			panic(fmt.Sprintf("cmd.New: Runnable %T must be a struct", runnable))
		}
		if err := verifyParameters(rv.Type()); err != nil {
			panic(fmt.Sprintf("cmd.New: %v", err))
		}
		v[i] = rv
	}
	if !slices.Contains(aliases, name) {
		aliases = append([]string{name}, aliases...)
	}
	return Command{name: name, description: description, aliases: aliases, v: v}
}

// Name returns the name of the Command.
func (c Command) Name() string {
	return c.name
}

// Description returns the description of the Command.
func (c Command) Description() string {
	return c.description
}

// Aliases returns the names the Command may be run with, including its
// name.
func (c Command) Aliases() []string {
	return slices.Clone(c.aliases)
}

// Runnables returns the Runnables of the Command that src may run.
func (c Command) Runnables(src Source) []Runnable {
	var runnables []Runnable
	for _, v := range c.v {
		r := v.Interface().(Runnable)
		if a, ok := r.(Allower); ok && !a.Allow(src) {
			continue
		}
		runnables = append(runnables, r)
	}
	return runnables
}

// Usage returns the usage of every overload of the Command, one per line.
func (c Command) Usage() string {
	lines := make([]string, len(c.v))
	for i, v := range c.v {
		parts := []string{"/" + c.name}
		for _, p := range parameters(v.Type()) {
			parts = append(parts, p.usage())
		}
		lines[i] = strings.Join(parts, " ")
	}
	return strings.Join(lines, "\n")
}

// Execute executes the Command on behalf of src with the arguments passed.
// The first overload whose parameters match the arguments runs. If none
// match, the error of the overload that got furthest is sent to src.
func (c Command) Execute(ctx context.Context, args string, src Source) {
	o := &Output{}
	defer src.SendCommandOutput(o)

	var (
		best    error
		bestPos = -1
		allowed bool
	)
	words := strings.Fields(args)
	for _, v := range c.v {
		if a, ok := v.Interface().(Allower); ok && !a.Allow(src) {
			continue
		}
		allowed = true
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		if pos, err := parseArguments(cp, words, src); err != nil {
			if pos >= bestPos {
				best, bestPos = err, pos
			}
			continue
		}
		cp.Interface().(Runnable).Run(ctx, src, o)
		return
	}
	if !allowed {
		o.Errort(MessageNoPermission)
		return
	}
	o.Error(best)
	o.Errort(MessageUsage, c.Usage())
}

// String ...
func (c Command) String() string {
	return fmt.Sprintf("/%s: %s", c.name, c.description)
}
