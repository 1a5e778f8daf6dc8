// Package console reads command lines from a terminal and runs them on behalf
// of the console actor.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/platform"
)

// Console provides a simple CLI backed command source that reads commands from
// an io.Reader (defaulting to os.Stdin) and executes them as the console
// actor.
type Console struct {
	log    *slog.Logger
	reader io.Reader
}

// New returns a Console that reads from os.Stdin and writes command output to
// the supplied logger.
func New(log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		log:    log,
		reader: os.Stdin,
	}
}

// WithReader sets a custom reader for the console input. It enables testing the
// console without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Actor returns the actor commands of the Console run as.
func (c *Console) Actor() platform.Actor {
	return platform.Console{Log: c.log}
}

// Run starts consuming commands from the console. It blocks until the context
// is cancelled or the underlying reader reaches EOF. Every command runs with
// ctx, so cancelling it also cancels running edits.
func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	src := &consoleSource{log: c.log, actor: c.Actor()}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("Console input error.", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			line = "/" + line
		}
		cmd.ExecuteLine(ctx, src, line, nil)
	}
}

type consoleSource struct {
	log   *slog.Logger
	actor platform.Actor
}

func (c *consoleSource) Name() string { return c.actor.Name() }

func (c *consoleSource) Actor() platform.Actor { return c.actor }

func (c *consoleSource) SendCommandOutput(o *cmd.Output) {
	for _, msg := range o.Messages() {
		c.log.Info(msg)
	}
	for _, err := range o.Errors() {
		c.log.Error(err.Error())
	}
}
