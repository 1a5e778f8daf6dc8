package world

import (
	"context"
	"errors"
	"testing"

	"github.com/df-mc/worldedit/server/block/cube"
)

type countingHandler struct {
	NopHandler
	neighbours, updates, ai int
	closed                  bool
}

func (h *countingHandler) HandleNeighbourUpdate(*Tx, cube.Pos, cube.Pos) { h.neighbours++ }
func (h *countingHandler) HandleBlockUpdate(*Tx, cube.Pos, BlockState)   { h.updates++ }
func (h *countingHandler) HandleEntityAI(*Tx, cube.Pos)                  { h.ai++ }
func (h *countingHandler) HandleClose(*Tx)                               { h.closed = true }

type memProvider struct {
	NopProvider
	columns map[cube.ChunkID]*ColumnData
	loadErr error
}

func (m *memProvider) LoadColumn(pos cube.ChunkID) (*ColumnData, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if c, ok := m.columns[pos]; ok {
		return c, nil
	}
	return nil, ErrColumnNotFound
}

func (m *memProvider) StoreColumn(pos cube.ChunkID, data *ColumnData) error {
	m.columns[pos] = data
	return nil
}

func newTestWorld(t *testing.T, conf Config) *World {
	t.Helper()
	w := conf.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})
	return w
}

func TestWorldSetBlockRoundTrip(t *testing.T) {
	w := newTestWorld(t, Config{})
	stone := MustParseBlockState("stone")
	pos := cube.Pos{-17, 12, 40}

	<-w.Exec(func(tx *Tx) {
		if err := tx.SetBlock(pos, stone, nil); err != nil {
			t.Errorf("set block: %v", err)
		}
	})
	<-w.Exec(func(tx *Tx) {
		got, err := tx.Block(pos)
		if err != nil {
			t.Errorf("block: %v", err)
		}
		if got != stone {
			t.Errorf("expected %v, got %v", stone, got)
		}
		if h, _ := tx.HighestBlock(pos[0], pos[2]); h != pos[1] {
			t.Errorf("expected highest block %v, got %v", pos[1], h)
		}
	})
}

func TestWorldSetBlockOutOfBounds(t *testing.T) {
	w := newTestWorld(t, Config{Range: cube.Range{0, 15}})
	<-w.Exec(func(tx *Tx) {
		err := tx.SetBlock(cube.Pos{0, 16, 0}, MustParseBlockState("stone"), nil)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("expected ErrOutOfBounds, got %v", err)
		}
	})
}

func TestWorldSetOptsDisableUpdates(t *testing.T) {
	w := newTestWorld(t, Config{})
	h := &countingHandler{}
	w.Handle(h)

	<-w.Exec(func(tx *Tx) {
		_ = tx.SetBlock(cube.Pos{0, 0, 0}, MustParseBlockState("dirt"), &SetOpts{DisableBlockUpdates: true, DisableLighting: true})
	})
	if h.neighbours != 0 || h.updates != 0 {
		t.Fatalf("expected no updates, got %d neighbour and %d block updates", h.neighbours, h.updates)
	}
	<-w.Exec(func(tx *Tx) {
		_ = tx.SetBlock(cube.Pos{0, 0, 0}, MustParseBlockState("stone"), nil)
	})
	if h.neighbours != 6 || h.updates != 1 {
		t.Fatalf("expected 6 neighbour and 1 block update, got %d and %d", h.neighbours, h.updates)
	}
}

func TestWorldValidate(t *testing.T) {
	bedrock := MustParseBlockState("bedrock")
	w := newTestWorld(t, Config{Validator: func(s BlockState) bool { return s != bedrock }})
	pos := cube.Pos{3, 3, 3}
	<-w.Exec(func(tx *Tx) {
		_ = tx.SetBlock(pos, bedrock, &SetOpts{DisableBlockUpdates: true})
		tx.Validate(pos)
		if got, _ := tx.Block(pos); !got.Air() {
			t.Errorf("expected invalid block to be replaced with air, got %v", got)
		}
	})
}

func TestWorldSaveAndReload(t *testing.T) {
	prov := &memProvider{columns: map[cube.ChunkID]*ColumnData{}}
	stone := MustParseBlockState("stone")
	pos := cube.Pos{5, 70, 5}

	w := Config{Provider: prov}.New()
	<-w.Exec(func(tx *Tx) {
		_ = tx.SetBlock(pos, stone, nil)
	})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := prov.columns[pos.Chunk()]; !ok {
		t.Fatalf("expected column %v to be stored", pos.Chunk())
	}

	w = newTestWorld(t, Config{Provider: prov})
	<-w.Exec(func(tx *Tx) {
		if got, _ := tx.Block(pos); got != stone {
			t.Errorf("expected %v after reload, got %v", stone, got)
		}
	})
}

func TestWorldBrokenColumnIsNotSaved(t *testing.T) {
	prov := &memProvider{columns: map[cube.ChunkID]*ColumnData{}, loadErr: errors.New("disk on fire")}
	w := newTestWorld(t, Config{Provider: prov})
	<-w.Exec(func(tx *Tx) {
		if _, err := tx.Block(cube.Pos{}); err == nil {
			t.Errorf("expected load error")
		}
		if err := tx.SetBlock(cube.Pos{}, MustParseBlockState("stone"), nil); err == nil {
			t.Errorf("expected set block to fail on broken column")
		}
	})
	w.Save()
	if len(prov.columns) != 0 {
		t.Fatalf("expected broken column not to be stored, got %d columns", len(prov.columns))
	}
}

func TestWorldExecContextCancelled(t *testing.T) {
	w := newTestWorld(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Block the transaction goroutine so that queueing cannot succeed.
	release := make(chan struct{})
	started := make(chan struct{})
	go w.Exec(func(*Tx) {
		close(started)
		<-release
	})
	<-started
	defer close(release)

	ran := false
	if err := w.ExecContext(ctx, func(*Tx) { ran = true }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Fatalf("expected transaction not to run")
	}
}

func TestTxUseAfterClosePanics(t *testing.T) {
	w := newTestWorld(t, Config{})
	var leaked *Tx
	<-w.Exec(func(tx *Tx) { leaked = tx })

	defer func() {
		if r := recover(); r != ClosedPanicMessage {
			t.Fatalf("expected closed transaction panic, got %v", r)
		}
	}()
	_, _ = leaked.Block(cube.Pos{})
}

func TestConfigRejectsUnaddressableRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected New to panic")
		}
	}()
	_ = Config{Range: cube.Range{-64, 4096}}.New()
}

func TestFlatGenerator(t *testing.T) {
	grass, dirt := MustParseBlockState("grass_block"), MustParseBlockState("dirt")
	w := newTestWorld(t, Config{Range: cube.Range{0, 63}, Generator: NewFlat([]BlockState{grass, dirt})})
	<-w.Exec(func(tx *Tx) {
		if got, _ := tx.Block(cube.Pos{1, 1, 1}); got != grass {
			t.Errorf("expected top layer %v, got %v", grass, got)
		}
		if got, _ := tx.Block(cube.Pos{1, 0, 1}); got != dirt {
			t.Errorf("expected bottom layer %v, got %v", dirt, got)
		}
		if h, _ := tx.HighestBlock(1, 1); h != 1 {
			t.Errorf("expected highest block 1, got %v", h)
		}
	})
}

func TestWorldHandleClose(t *testing.T) {
	w := Config{}.New()
	h := &countingHandler{}
	w.Handle(h)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !h.closed {
		t.Fatalf("expected HandleClose to be called")
	}
}
