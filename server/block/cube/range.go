package cube

// Range represents the height range of a world. The first value is the
// minimum Y of the range, the second the maximum Y. Both are inclusive.
type Range [2]int

// Min returns the minimum Y value of the Range.
func (r Range) Min() int {
	return r[0]
}

// Max returns the maximum Y value of the Range.
func (r Range) Max() int {
	return r[1]
}

// Height returns the total height of the Range, the difference between Max
// and Min.
func (r Range) Height() int {
	return r[1] - r[0]
}

// Packable checks if every y value of the Range is kept by Pos.Pack.
func (r Range) Packable() bool {
	return r[0] >= MinPackedY && r[1] <= MaxPackedY
}
