package builtin

import (
	"context"
	"fmt"
	"runtime"
	"runtime/metrics"
	"sync"
	"time"

	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/platform"
)

type statusCommand struct {
	srv serverAdapter
}

func newStatusCommand(srv serverAdapter) cmd.Command {
	return cmd.New("status", "Displays server and edit statistics.", []string{"/perfstats"}, statusCommand{srv: srv})
}

func (s statusCommand) Run(_ context.Context, _ cmd.Source, o *cmd.Output) {
	start := s.srv.StartTime()
	if !start.IsZero() {
		o.Printf("Uptime: %s", time.Since(start).Round(time.Second))
	}

	e := s.srv.Engine()
	o.Printf("Players: %d | Edit sessions: %d | History actors: %d", len(e.Platform().ConnectedUsers()), len(e.Sessions()), len(e.Arena().Actors()))
	for _, w := range s.srv.Worlds() {
		st := w.Stats()
		o.Printf("World: %s | Columns: %d | Locked chunks: %d", w.Name(), st.LoadedColumns, e.Locks().Held(w.Name()))
		o.Printf("  Updates: %d light, %d neighbour, %d block, %d entity", st.LightUpdates, st.NeighbourUpdates, st.BlockUpdates, st.EntityUpdates)
	}

	metrics := e.Locks().Metrics()
	totals := metrics.Totals()
	o.Printf("Region locks: %d granted, %d waited, %d conflicted over %d tracked chunks", totals.Grants, totals.Waits, totals.Conflicts, metrics.Tracked())

	if l, ok := e.Platform().(*platform.Local); ok {
		if ticks, last := l.WatchdogTicks(); ticks > 0 {
			o.Printf("Watchdog: %d ticks, last %s ago", ticks, time.Since(last).Round(time.Millisecond))
		}
	}

	if cpuLoad, ready := sampleAverageCPULoad(); ready {
		o.Printf("CPU load (per core): %.2f%% across %d cores", cpuLoad, runtime.NumCPU())
	} else {
		o.Print("CPU load: collecting baseline, try again shortly.")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	heapAlloc := bytesToMiB(mem.HeapAlloc)
	heapSys := bytesToMiB(mem.HeapSys)
	lastGC := "never"
	if mem.LastGC != 0 {
		lastGC = fmt.Sprintf("%s ago", time.Since(time.Unix(0, int64(mem.LastGC))).Round(time.Second))
	}
	o.Printf("Memory: %.2f MiB heap used / %.2f MiB reserved", heapAlloc, heapSys)
	o.Printf("Goroutines: %d | GOMAXPROCS: %d | GC cycles: %d | Last GC: %s", runtime.NumGoroutine(), runtime.GOMAXPROCS(0), mem.NumGC, lastGC)
}

var (
	cpuSampleMu       sync.Mutex
	cpuSampleLastTime time.Time
	cpuSampleLastUsed float64
)

func sampleAverageCPULoad() (float64, bool) {
	samples := []metrics.Sample{
		{Name: "/sched/cpu_seconds_total"},
	}
	metrics.Read(samples)
	total := samples[0].Value.Float64()
	now := time.Now()

	cpuSampleMu.Lock()
	defer cpuSampleMu.Unlock()

	ready := !cpuSampleLastTime.IsZero()
	deltaTime := now.Sub(cpuSampleLastTime).Seconds()
	deltaUsed := total - cpuSampleLastUsed

	cpuSampleLastTime = now
	cpuSampleLastUsed = total

	if !ready || deltaTime <= 0 || deltaUsed < 0 {
		return 0, false
	}

	usage := (deltaUsed / deltaTime / float64(runtime.NumCPU())) * 100
	if usage < 0 {
		usage = 0
	}
	if usage > 100 {
		usage = 100
	}
	return usage, true
}

func bytesToMiB(v uint64) float64 {
	return float64(v) / (1024 * 1024)
}
