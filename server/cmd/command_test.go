package cmd

import (
	"context"
	"strings"
	"testing"
)

type testSource struct {
	name   string
	output []*Output
}

func (s *testSource) Name() string                { return s.name }
func (s *testSource) SendCommandOutput(o *Output) { s.output = append(s.output, o) }

func (s *testSource) last(t *testing.T) *Output {
	t.Helper()
	if len(s.output) == 0 {
		t.Fatalf("expected command output")
	}
	return s.output[len(s.output)-1]
}

type mode string

func (mode) Type() string            { return "Mode" }
func (mode) Options(Source) []string { return []string{"on", "off"} }

type cylinderCommand struct {
	Block  string
	Radius float64
	Height int `cmd:"height,optional"`
}

func (c cylinderCommand) Run(_ context.Context, _ Source, o *Output) {
	o.Printf("%s %.1f %d", c.Block, c.Radius, c.Height)
}

type exportCommand struct {
	Export SubCommand `cmd:"export"`
}

func (exportCommand) Run(_ context.Context, _ Source, o *Output) {
	o.Print("exported")
}

type toggleCommand struct {
	Mode mode
	Rest Varargs `cmd:"effects,optional"`
}

func (c toggleCommand) Run(_ context.Context, _ Source, o *Output) {
	o.Printf("%s [%s]", c.Mode, c.Rest)
}

type consoleOnly struct{}

func (consoleOnly) Run(_ context.Context, _ Source, o *Output) { o.Print("ran") }
func (consoleOnly) Allow(src Source) bool                      { return src.Name() == "Console" }

func TestExecuteParameters(t *testing.T) {
	c := New("/cyl", "Generates a cylinder.", nil, cylinderCommand{})
	src := &testSource{name: "Steve"}

	c.Execute(context.Background(), "stone 2.5 3", src)
	if msgs := src.last(t).Messages(); len(msgs) != 1 || msgs[0] != "stone 2.5 3" {
		t.Fatalf("unexpected messages %v", msgs)
	}
	c.Execute(context.Background(), "stone 4", src)
	if msgs := src.last(t).Messages(); len(msgs) != 1 || msgs[0] != "stone 4.0 0" {
		t.Fatalf("expected optional parameter to be left zero, got %v", msgs)
	}
	c.Execute(context.Background(), "stone wide", src)
	if errs := src.last(t).Errors(); len(errs) != 2 || !strings.Contains(errs[0].Error(), "not a number") {
		t.Fatalf("expected parse error and usage, got %v", errs)
	}
	c.Execute(context.Background(), "stone 1 2 3", src)
	if errs := src.last(t).Errors(); len(errs) == 0 || !strings.Contains(errs[0].Error(), "unexpected argument") {
		t.Fatalf("expected unexpected argument error, got %v", errs)
	}
}

func TestExecuteOverloads(t *testing.T) {
	c := New("history", "Manages history.", []string{"hist"}, exportCommand{}, toggleCommand{})
	src := &testSource{name: "Steve"}

	c.Execute(context.Background(), "EXPORT", src)
	if msgs := src.last(t).Messages(); len(msgs) != 1 || msgs[0] != "exported" {
		t.Fatalf("expected sub command to run, got %v", msgs)
	}
	c.Execute(context.Background(), "on lighting neighbors", src)
	if msgs := src.last(t).Messages(); len(msgs) != 1 || msgs[0] != "on [lighting neighbors]" {
		t.Fatalf("expected enum and varargs overload to run, got %v", msgs)
	}
	c.Execute(context.Background(), "maybe", src)
	if errs := src.last(t).Errors(); len(errs) == 0 || !strings.Contains(errs[0].Error(), "invalid Mode") {
		t.Fatalf("expected invalid enum error, got %v", errs)
	}
	if usage := c.Usage(); usage != "/history export\n/history <Mode> [effects...]" {
		t.Fatalf("unexpected usage %q", usage)
	}
}

func TestAllower(t *testing.T) {
	c := New("stop", "Stops the server.", nil, consoleOnly{})
	player := &testSource{name: "Steve"}
	c.Execute(context.Background(), "", player)
	if errs := player.last(t).Errors(); len(errs) != 1 || errs[0].Error() != string(MessageNoPermission) {
		t.Fatalf("expected permission error, got %v", errs)
	}
	if len(c.Runnables(player)) != 0 {
		t.Fatalf("expected no runnables for player")
	}
	console := &testSource{name: "Console"}
	c.Execute(context.Background(), "", console)
	if msgs := console.last(t).Messages(); len(msgs) != 1 {
		t.Fatalf("expected console to run command, got %v", msgs)
	}
}

func TestExecuteLine(t *testing.T) {
	Register(New("/size", "Shows the selection size.", []string{"/count"}, exportCommand{}))
	src := &testSource{name: "Steve"}

	ExecuteLine(context.Background(), src, "//COUNT export", nil)
	if msgs := src.last(t).Messages(); len(msgs) != 1 || msgs[0] != "exported" {
		t.Fatalf("expected command to run by alias, got %v", msgs)
	}
	ExecuteLine(context.Background(), src, "//unknown", nil)
	if errs := src.last(t).Errors(); len(errs) != 1 || !strings.Contains(errs[0].Error(), "Unknown command: /unknown") {
		t.Fatalf("expected unknown command error, got %v", errs)
	}
	n := len(src.output)
	ExecuteLine(context.Background(), src, "size export", nil)
	if len(src.output) != n {
		t.Fatalf("expected line without slash to be ignored")
	}
	ExecuteLine(context.Background(), src, "//size export", func(Command, []string) bool { return false })
	if len(src.output) != n {
		t.Fatalf("expected before to stop execution")
	}
	found := false
	for _, c := range Commands() {
		found = found || c.Name() == "/size"
	}
	if !found {
		t.Fatalf("expected /size in registered commands")
	}
}

func TestOutputNumberGrouping(t *testing.T) {
	o := &Output{}
	o.Printf("%d blocks changed.", 1234567)
	if got := o.Messages()[0]; got != "1,234,567 blocks changed." {
		t.Fatalf("expected grouped number, got %q", got)
	}
}

func TestNewPanicsOnUnsupportedField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected New to panic")
		}
	}()
	New("bad", "", nil, badCommand{})
}

type badCommand struct {
	Values []string
}

func (badCommand) Run(context.Context, Source, *Output) {}
