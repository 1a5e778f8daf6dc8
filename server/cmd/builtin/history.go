package builtin

import (
	"context"
	"errors"

	"github.com/df-mc/worldedit/server/cmd"
	"github.com/df-mc/worldedit/server/edit"
	"github.com/df-mc/worldedit/server/edit/history/historydb"
)

const (
	permUndo         = "worldedit.history.undo"
	permRedo         = "worldedit.history.redo"
	permClearHistory = "worldedit.history.clear"
)

type undoCommand struct {
	srv   serverAdapter
	Times int `cmd:"times,optional"`
}

type redoCommand struct {
	srv   serverAdapter
	Times int `cmd:"times,optional"`
}

func newUndoCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/undo", "Undoes your most recent edits.", []string{"undo"}, undoCommand{srv: srv})
}

func newRedoCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/redo", "Redoes your most recently undone edits.", []string{"redo"}, redoCommand{srv: srv})
}

func (c undoCommand) Run(ctx context.Context, src cmd.Source, o *cmd.Output) {
	replay(ctx, c.srv, src, o, "undo", permUndo, c.Times, (*edit.Session).Undo)
}

func (c redoCommand) Run(ctx context.Context, src cmd.Source, o *cmd.Output) {
	replay(ctx, c.srv, src, o, "redo", permRedo, c.Times, (*edit.Session).Redo)
}

// replay runs an undo or redo up to times times, stopping early once there
// is nothing left to replay.
func replay(ctx context.Context, srv serverAdapter, src cmd.Source, o *cmd.Output, what, perm string, times int, f func(*edit.Session, context.Context) (edit.Result, error)) {
	s, ok := session(srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(perm); err != nil {
		reportError(o, err)
		return
	}
	times = max(times, 1)
	edits, changed := 0, 0
	for range times {
		res, err := f(s, ctx)
		if err != nil {
			reportError(o, err)
			break
		}
		if res.NoOp {
			break
		}
		edits++
		changed += res.Changed
	}
	if edits == 0 {
		o.Printf("Nothing to %s.", what)
		return
	}
	o.Printf("Replayed %d %s operations, %d blocks changed.", edits, what, changed)
}

type clearHistoryCommand struct {
	srv serverAdapter
}

func newClearHistoryCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/clearhistory", "Clears your history.", []string{"clearhistory"}, clearHistoryCommand{srv: srv})
}

func (c clearHistoryCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.CheckPermission(permClearHistory); err != nil {
		reportError(o, err)
		return
	}
	if err := s.ClearHistory(); err != nil {
		reportError(o, err)
		return
	}
	o.Print("History cleared.")
}

type historyExportCommand struct {
	srv    serverAdapter
	Export cmd.SubCommand `cmd:"export"`
}

type historyImportCommand struct {
	srv    serverAdapter
	Import cmd.SubCommand `cmd:"import"`
}

type historyShowCommand struct {
	srv serverAdapter
}

func newHistoryCommand(srv serverAdapter) cmd.Command {
	return cmd.New("/history", "Shows, exports or imports your history.", nil,
		historyShowCommand{srv: srv},
		historyExportCommand{srv: srv},
		historyImportCommand{srv: srv},
	)
}

func (c historyShowCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	stack := s.History()
	undo, redo := stack.Len()
	o.Printf("History: %d to undo, %d to redo, holding at most %d.", undo, redo, stack.Depth())
}

func (c historyExportCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	if err := s.ExportHistory(); err != nil {
		reportHistoryError(o, err)
		return
	}
	o.Print("History exported.")
}

func (c historyImportCommand) Run(_ context.Context, src cmd.Source, o *cmd.Output) {
	s, ok := session(c.srv, src, o)
	if !ok {
		return
	}
	undo, redo, err := s.ImportHistory()
	if err != nil {
		reportHistoryError(o, err)
		return
	}
	o.Printf("History imported: %d to undo, %d to redo.", undo, redo)
}

func reportHistoryError(o *cmd.Output, err error) {
	switch {
	case errors.Is(err, edit.ErrNoHistoryStore):
		o.Error("History cannot be stored on this server.")
	case errors.Is(err, historydb.ErrNotFound):
		o.Error("No exported history was found.")
	case errors.Is(err, historydb.ErrCorrupt):
		o.Error("The exported history is damaged and could not be read.")
	default:
		reportError(o, err)
	}
}
