package historydb

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/edit/history"
	"github.com/df-mc/worldedit/server/world"
	"github.com/google/uuid"
)

var (
	stone  = world.MustParseBlockState("minecraft:stone")
	oakLog = world.MustParseBlockState("minecraft:oak_log[axis=y]")
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func set(deltas ...changeset.BlockDelta) *changeset.ChangeSet {
	return changeset.FromDeltas("world", deltas)
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	actor := uuid.New()

	s := history.NewStack(10)
	s.Commit(set(
		changeset.BlockDelta{Pos: cube.Pos{1, 2, 3}, Previous: world.Air, Next: stone},
		changeset.BlockDelta{Pos: cube.Pos{-4, -64, 9}, Previous: stone, Next: oakLog},
	))
	s.Commit(set(changeset.BlockDelta{Pos: cube.Pos{0, 0, 0}, Previous: world.Air, Next: oakLog}))
	s.Undo()

	db := openTestDB(t, dir)
	if err := db.Export(actor, s); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	got, err := db.Import(actor, 10)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if undo, redo := got.Len(); undo != 1 || redo != 1 {
		t.Fatalf("expected 1 undo and 1 redo entry, got %d and %d", undo, redo)
	}
	wantUndo, wantRedo := s.Entries()
	gotUndo, gotRedo := got.Entries()
	compareSets(t, wantUndo[0], gotUndo[0])
	compareSets(t, wantRedo[0], gotRedo[0])

	actors, err := db.Actors()
	if err != nil {
		t.Fatalf("actors: %v", err)
	}
	if len(actors) != 1 || actors[0] != actor {
		t.Fatalf("expected actors [%v], got %v", actor, actors)
	}
}

func compareSets(t *testing.T, want, got *changeset.ChangeSet) {
	t.Helper()
	if want.World() != got.World() || want.Len() != got.Len() {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for d := range want.Deltas() {
		o, ok := got.Delta(d.Pos)
		if !ok || o != d {
			t.Fatalf("expected delta %+v, got %+v", d, o)
		}
	}
}

func TestImportTruncatesToDepth(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	actor := uuid.New()

	s := history.NewStack(10)
	for i := range 5 {
		s.Commit(set(changeset.BlockDelta{Pos: cube.Pos{i, 0, 0}, Previous: world.Air, Next: stone}))
	}
	if err := db.Export(actor, s); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := db.Import(actor, 2)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	undo, _ := got.Entries()
	if len(undo) != 2 {
		t.Fatalf("expected 2 undo entries, got %d", len(undo))
	}
	// The newest entries are kept.
	if _, ok := undo[1].Delta(cube.Pos{4, 0, 0}); !ok {
		t.Fatalf("expected newest change set to be kept, got %v", undo[1])
	}
}

func TestImportNotFound(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	if _, err := db.Import(uuid.New(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()
	actor := uuid.New()
	s := history.NewStack(1)
	s.Commit(set(changeset.BlockDelta{Pos: cube.Pos{}, Previous: world.Air, Next: stone}))
	if err := db.Export(actor, s); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := db.Delete(actor); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Import(actor, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestImportCorrupt(t *testing.T) {
	dir := t.TempDir()
	actor := uuid.New()
	db := openTestDB(t, dir)
	s := history.NewStack(1)
	s.Commit(set(changeset.BlockDelta{Pos: cube.Pos{}, Previous: world.Air, Next: stone}))
	if err := db.Export(actor, s); err != nil {
		t.Fatalf("export: %v", err)
	}
	_ = db.Close()

	ldb, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	v, _ := ldb.Get(key(actor), nil)
	v[len(v)-1] ^= 0xff
	_ = ldb.Put(key(actor), v, nil)
	_ = ldb.Close()

	db = openTestDB(t, dir)
	defer db.Close()
	if _, err := db.Import(actor, 1); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
