package builtin

import (
	"context"
	"maps"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"github.com/df-mc/worldedit/server/cmd"
)

type aboutCommand struct {
	srv serverAdapter
}

func newAboutCommand(srv serverAdapter) cmd.Command {
	return cmd.New("about", "Displays platform and build information.", []string{"/version", "version"}, aboutCommand{srv: srv})
}

func (a aboutCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	p := a.srv.Engine().Platform()
	o.Printf("%s %s", p.Name(), p.Version())

	info, ok := debug.ReadBuildInfo()
	goVersion := runtime.Version()
	if ok && info != nil && info.GoVersion != "" {
		goVersion = info.GoVersion
	}
	o.Printf("Go runtime: %s", goVersion)

	if info != nil {
		revision := ""
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				revision = setting.Value
				break
			}
		}
		if revision != "" {
			o.Printf("Commit: %s", revision)
		}
	}

	caps := p.Capabilities()
	for _, c := range slices.Sorted(maps.Keys(caps)) {
		o.Printf("Capability %s: %s", c, caps[c])
	}

	if started := a.srv.StartTime(); !started.IsZero() {
		o.Printf("Uptime: %s", time.Since(started).Round(time.Second))
	}
}
