package worlddb

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/world"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Name: "test"}.Open(dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestColumnRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)

	log := world.NewBlockState("oak_log", map[string]any{"axis": "x"})
	col := &world.ColumnData{Entries: []world.ColumnEntry{
		{Index: 1, State: world.MustParseBlockState("stone")},
		{Index: 300, State: log},
		{Index: 301, State: log},
	}}
	pos := cube.ChunkID{X: -3, Z: 7}
	if err := db.StoreColumn(pos, col); err != nil {
		t.Fatalf("store column: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	if db.Settings().Name != "test" {
		t.Fatalf("expected settings name %q, got %q", "test", db.Settings().Name)
	}
	got, err := db.LoadColumn(pos)
	if err != nil {
		t.Fatalf("load column: %v", err)
	}
	if len(got.Entries) != len(col.Entries) {
		t.Fatalf("expected %d entries, got %d", len(col.Entries), len(got.Entries))
	}
	for i, e := range got.Entries {
		if e != col.Entries[i] {
			t.Fatalf("entry %d: expected %v, got %v", i, col.Entries[i], e)
		}
	}
	if _, err := db.LoadColumn(cube.ChunkID{}); !errors.Is(err, world.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestCorruptColumn(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	pos := cube.ChunkID{X: 1, Z: 1}
	if err := db.ldb.Put(columnKey(pos), []byte("definitely not a column"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := db.LoadColumn(pos); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestWorldWithDB(t *testing.T) {
	dir := t.TempDir()
	stone := world.MustParseBlockState("stone")
	pos := cube.Pos{20, 64, -20}

	db := openTestDB(t, dir)
	w := world.Config{Provider: db}.New()
	<-w.Exec(func(tx *world.Tx) {
		if err := tx.SetBlock(pos, stone, nil); err != nil {
			t.Errorf("set block: %v", err)
		}
	})
	if err := w.Close(); err != nil {
		t.Fatalf("close world: %v", err)
	}

	db = openTestDB(t, dir)
	w = world.Config{Provider: db}.New()
	defer w.Close()
	<-w.Exec(func(tx *world.Tx) {
		if got, err := tx.Block(pos); err != nil || got != stone {
			t.Errorf("expected %v after reopening, got %v (%v)", stone, got, err)
		}
	})
}
