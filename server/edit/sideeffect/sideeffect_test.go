package sideeffect

import (
	"slices"
	"testing"

	"github.com/df-mc/worldedit/server/block/cube"
)

type recordingHost struct {
	calls []string
}

func (h *recordingHost) Validate(cube.Pos)         { h.calls = append(h.calls, "validate") }
func (h *recordingHost) Relight(cube.Pos)          { h.calls = append(h.calls, "relight") }
func (h *recordingHost) NotifyNeighbours(cube.Pos) { h.calls = append(h.calls, "neighbours") }
func (h *recordingHost) UpdateEntityAI(cube.Pos)   { h.calls = append(h.calls, "ai") }
func (h *recordingHost) UpdateBlock(cube.Pos)      { h.calls = append(h.calls, "update") }

func TestControllerApplyOrder(t *testing.T) {
	h := &recordingHost{}
	c := Controller{Supported: All()}
	got := c.Apply(h, cube.Pos{}, All())
	if got != All() {
		t.Fatalf("expected all effects to be applied, got %v", got)
	}
	want := []string{"validate", "relight", "neighbours", "ai", "update"}
	if !slices.Equal(h.calls, want) {
		t.Fatalf("expected calls %v, got %v", want, h.calls)
	}
}

func TestControllerUnsupportedDropped(t *testing.T) {
	table := DefaultTable()
	basic, err := table.Profile(ProfileBasic)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	h := &recordingHost{}
	got := Controller{Supported: basic}.Apply(h, cube.Pos{}, NewSet(Update, Neighbours))
	if got != NewSet(Neighbours) {
		t.Fatalf("expected only neighbours to be applied, got %v", got)
	}
	if !slices.Equal(h.calls, []string{"neighbours"}) {
		t.Fatalf("expected a single neighbour notification, got %v", h.calls)
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	basic, _ := table.Profile(ProfileBasic)
	extended, _ := table.Profile(ProfileExtended)
	if basic != NewSet(Validation, EntityAI, Lighting, Neighbours) {
		t.Fatalf("unexpected basic profile %v", basic)
	}
	if extended != basic.With(Update) {
		t.Fatalf("unexpected extended profile %v", extended)
	}
	if _, err := table.Profile("unknown"); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestTableEncodeRoundTrip(t *testing.T) {
	table := Table{"custom": NewSet(Lighting, Update)}
	data, err := table.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTable(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["custom"] != table["custom"] {
		t.Fatalf("expected %v, got %v", table["custom"], decoded["custom"])
	}
}

func TestParse(t *testing.T) {
	for _, e := range All().Slice() {
		got, err := Parse(e.String())
		if err != nil || got != e {
			t.Fatalf("parse %q: expected %v, got %v (%v)", e.String(), e, got, err)
		}
	}
	if got, _ := Parse("Neighbours"); got != Neighbours {
		t.Fatalf("expected british spelling to parse, got %v", got)
	}
	if _, err := Parse("explosions"); err == nil {
		t.Fatalf("expected error for unknown side effect")
	}
	if Defaults().Has(EntityAI) || !Defaults().Has(Update) {
		t.Fatalf("unexpected defaults %v", Defaults())
	}
}
