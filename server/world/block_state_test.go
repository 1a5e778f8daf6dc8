package world

import "testing"

func TestParseBlockState(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stone", "minecraft:stone"},
		{"minecraft:oak_log[axis=y]", "minecraft:oak_log[axis=y]"},
		{"Oak_Stairs[half=top, facing=north]", "minecraft:oak_stairs[facing=north,half=top]"},
		{"air", "minecraft:air"},
		{"custom:thing[]", "custom:thing"},
	}
	for _, tt := range tests {
		s, err := ParseBlockState(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if s.String() != tt.want {
			t.Errorf("parse %q: expected %q, got %q", tt.in, tt.want, s.String())
		}
	}
	for _, in := range []string{"", "stone[axis=y", "stone[axis]"} {
		if _, err := ParseBlockState(in); err == nil {
			t.Errorf("expected error parsing %q", in)
		}
	}
}

func TestBlockStateEquality(t *testing.T) {
	a := NewBlockState("oak_log", map[string]any{"axis": "y"})
	b := MustParseBlockState("minecraft:oak_log[axis=y]")
	if a != b || a.Hash() != b.Hash() {
		t.Fatalf("expected %v and %v to be equal", a, b)
	}
	if !MustParseBlockState("air").Air() {
		t.Fatalf("expected minecraft:air to be the zero state")
	}
	if a.Properties()["axis"] != "y" {
		t.Fatalf("expected axis=y, got %v", a.Properties())
	}
}

func TestPaletteRuntimeIDs(t *testing.T) {
	p := NewPalette()
	if rid := p.RuntimeID(Air); rid != 0 {
		t.Fatalf("expected air to have runtime ID 0, got %v", rid)
	}
	stone := MustParseBlockState("stone")
	rid := p.RuntimeID(stone)
	if again := p.RuntimeID(stone); again != rid {
		t.Fatalf("expected stable runtime ID %v, got %v", rid, again)
	}
	if s, ok := p.State(rid); !ok || s != stone {
		t.Fatalf("expected %v for runtime ID %v, got %v", stone, rid, s)
	}
	if _, ok := p.State(100); ok {
		t.Fatalf("expected unknown runtime ID to be reported")
	}
}
