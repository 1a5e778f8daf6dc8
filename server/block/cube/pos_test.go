package cube

import "testing"

func TestPosPackRoundTrip(t *testing.T) {
	cases := []Pos{
		{0, 0, 0},
		{1, -64, 1},
		{-1, 319, -1},
		{30000000, 100, -30000000},
		{-16, -2048, 15},
		{123, 2047, -456},
	}
	for _, pos := range cases {
		if got := Unpack(pos.Pack()); got != pos {
			t.Fatalf("Unpack(%v.Pack()) = %v", pos, got)
		}
	}
}

func TestBoxChunks(t *testing.T) {
	b := NewBox(Pos{-1, 0, 0}, Pos{16, 10, 15})
	chunks := b.Chunks()
	want := []ChunkID{{X: -1, Z: 0}, {X: 0, Z: 0}, {X: 1, Z: 0}}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d (%v)", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d: expected %v, got %v", i, want[i], chunks[i])
		}
	}
}

func TestBoxIntersects(t *testing.T) {
	a := NewBox(Pos{0, 0, 0}, Pos{4, 4, 4})
	cases := []struct {
		b    Box
		want bool
	}{
		{NewBox(Pos{4, 4, 4}, Pos{8, 8, 8}), true},
		{NewBox(Pos{5, 0, 0}, Pos{8, 4, 4}), false},
		{NewBox(Pos{-3, -3, -3}, Pos{0, 0, 0}), true},
		{NewBox(Pos{0, 5, 0}, Pos{4, 9, 4}), false},
	}
	for _, c := range cases {
		if got := a.Intersects(c.b); got != c.want {
			t.Fatalf("%v.Intersects(%v) = %v, want %v", a, c.b, got, c.want)
		}
	}
}

func TestMortonOrdersNegativeBeforePositive(t *testing.T) {
	if (ChunkID{X: -1, Z: -1}).Morton() >= (ChunkID{X: 0, Z: 0}).Morton() {
		t.Fatalf("expected negative chunk to sort before origin")
	}
}

func TestPackable(t *testing.T) {
	tests := []struct {
		pos  Pos
		want bool
	}{
		{Pos{0, 0, 0}, true},
		{Pos{MaxPackedXZ, MaxPackedY, MinPackedXZ}, true},
		{Pos{MinPackedXZ, MinPackedY, MaxPackedXZ}, true},
		{Pos{1 << 25, 0, 0}, false},
		{Pos{0, 4096, 0}, false},
		{Pos{0, MinPackedY - 1, 0}, false},
		{Pos{0, 0, MinPackedXZ - 1}, false},
	}
	for _, tt := range tests {
		if got := tt.pos.Packable(); got != tt.want {
			t.Errorf("%v: expected packable %v, got %v", tt.pos, tt.want, got)
		}
		if tt.want && Unpack(tt.pos.Pack()) != tt.pos {
			t.Errorf("%v: packable position did not round trip", tt.pos)
		}
	}
	if !(Range{-64, 319}).Packable() || (Range{-4096, 0}).Packable() || (Range{0, 2048}).Packable() {
		t.Fatalf("unexpected range packability")
	}
}
