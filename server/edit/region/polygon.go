package region

import (
	"fmt"
	"iter"
	"slices"

	"github.com/df-mc/worldedit/server/block/cube"
)

// Point is a position in the horizontal plane: an x and a z coordinate.
type Point [2]int

// Polygon is a vertical prism: a simple polygon in the x/z plane extruded
// between two inclusive y levels.
//
// Positions on the boundary of the polygon follow a half-open rule: points
// on edges at the minimum x or z side of the polygon are inside, points on
// edges at the maximum x or z side are outside. Two polygons sharing an edge
// therefore never share a position.
type Polygon struct {
	points     []Point
	minY, maxY int
	box        cube.Box
}

// NewPolygon creates a Polygon from at least three vertices that are not all
// collinear. minY must not exceed maxY.
func NewPolygon(vertices []Point, minY, maxY int) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, invalid("polygon", "%d vertices, at least 3 required", len(vertices))
	}
	if minY > maxY {
		return Polygon{}, invalid("polygon", "min y %d exceeds max y %d", minY, maxY)
	}
	collinear := true
	a, b := vertices[0], vertices[1]
	for _, c := range vertices[2:] {
		if cross2(a, b, c) != 0 {
			collinear = false
			break
		}
	}
	if collinear {
		return Polygon{}, invalid("polygon", "all vertices are collinear")
	}
	lo, hi := vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		lo = Point{min(lo[0], v[0]), min(lo[1], v[1])}
		hi = Point{max(hi[0], v[0]), max(hi[1], v[1])}
	}
	// The maximum x and z edges are excluded, so no integer position at
	// those coordinates can be inside.
	box := cube.NewBox(cube.Pos{lo[0], minY, lo[1]}, cube.Pos{hi[0] - 1, maxY, hi[1] - 1})
	if err := checkBounds("polygon", cube.NewBox(cube.Pos{lo[0], minY, lo[1]}, cube.Pos{hi[0], maxY, hi[1]})); err != nil {
		return Polygon{}, err
	}
	return Polygon{points: slices.Clone(vertices), minY: minY, maxY: maxY, box: box}, nil
}

func cross2(a, b, c Point) int64 {
	return int64(b[0]-a[0])*int64(c[1]-a[1]) - int64(b[1]-a[1])*int64(c[0]-a[0])
}

// Vertices returns a copy of the vertices of the Polygon.
func (p Polygon) Vertices() []Point { return slices.Clone(p.points) }

// MinY returns the lowest y level of the Polygon.
func (p Polygon) MinY() int { return p.minY }

// MaxY returns the highest y level of the Polygon.
func (p Polygon) MaxY() int { return p.maxY }

// inside performs an even-odd ray crossing test for the point x, z using only
// integer arithmetic.
func (p Polygon) inside(x, z int) bool {
	in := false
	px, pz := int64(x), int64(z)
	for i, j := 0, len(p.points)-1; i < len(p.points); j, i = i, i+1 {
		xi, zi := int64(p.points[i][0]), int64(p.points[i][1])
		xj, zj := int64(p.points[j][0]), int64(p.points[j][1])
		if (zi > pz) == (zj > pz) {
			continue
		}
		// The edge crosses the horizontal line through z. The point lies left
		// of the crossing if px < xi + (xj-xi)*(pz-zi)/(zj-zi).
		lhs := (px - xi) * (zj - zi)
		rhs := (xj - xi) * (pz - zi)
		if zj-zi < 0 {
			lhs, rhs = -lhs, -rhs
		}
		if lhs < rhs {
			in = !in
		}
	}
	return in
}

// Contains ...
func (p Polygon) Contains(pos cube.Pos) bool {
	if pos[1] < p.minY || pos[1] > p.maxY {
		return false
	}
	return p.inside(pos[0], pos[2])
}

// BoundingBox ...
func (p Polygon) BoundingBox() cube.Box {
	return p.box
}

// Volume ...
func (p Polygon) Volume() int {
	return prismVolume(p, p.minY)
}

// Positions ...
func (p Polygon) Positions() iter.Seq[cube.Pos] {
	return positions(p)
}

// Rows ...
func (p Polygon) Rows() iter.Seq[Row] {
	return rows(p)
}

// spans computes the inside runs of the row at z from the edges crossing it,
// using the same crossing rule as inside. An edge is counted for every x
// smaller than its crossing, so each crossing yields the largest such x. With
// these thresholds sorted, x is inside between every other pair of them.
func (p Polygon) spans(y, z int, dst []Span) []Span {
	if y < p.minY || y > p.maxY {
		return dst
	}
	var (
		buf [8]int64
		ts  = buf[:0]
	)
	pz := int64(z)
	for i, j := 0, len(p.points)-1; i < len(p.points); j, i = i, i+1 {
		xi, zi := int64(p.points[i][0]), int64(p.points[i][1])
		xj, zj := int64(p.points[j][0]), int64(p.points[j][1])
		if (zi > pz) == (zj > pz) {
			continue
		}
		num, den := xi*(zj-zi)+(xj-xi)*(pz-zi), zj-zi
		if den < 0 {
			num, den = -num, -den
		}
		ts = append(ts, ceilDiv(num, den)-1)
	}
	slices.Sort(ts)
	lo, hi := int64(p.box.Min()[0]), int64(p.box.Max()[0])
	for k := 0; k+1 < len(ts); k += 2 {
		minX, maxX := max(ts[k]+1, lo), min(ts[k+1], hi)
		if minX <= maxX {
			dst = append(dst, Span{MinX: int(minX), MaxX: int(maxX)})
		}
	}
	return dst
}

// Shift ...
func (p Polygon) Shift(off cube.Pos) Region {
	points := make([]Point, len(p.points))
	for i, v := range p.points {
		points[i] = Point{v[0] + off[0], v[1] + off[2]}
	}
	return Polygon{points: points, minY: p.minY + off[1], maxY: p.maxY + off[1], box: p.box.Translate(off)}
}

// String ...
func (p Polygon) String() string {
	return fmt.Sprintf("polygon %v y %d..%d", p.points, p.minY, p.maxY)
}
