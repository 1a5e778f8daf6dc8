package region

import (
	"fmt"
	"iter"
	"slices"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxConvexVertices is the maximum number of vertices a Convex region may be
// built from. Hull construction visits every vertex triple.
const MaxConvexVertices = 64

// halfSpace is the set of points p for which n·p <= d.
type halfSpace struct {
	n [3]int64
	d int64
}

func (h halfSpace) holds(x, y, z int64) bool {
	return h.n[0]*x+h.n[1]*y+h.n[2]*z <= h.d
}

// Convex is the convex hull of a set of vertices. Positions on the faces of
// the hull are inside.
type Convex struct {
	vertices []cube.Pos
	faces    []halfSpace
	box      cube.Box
}

// NewConvex creates the convex hull of at least four vertices that are not
// all coplanar.
func NewConvex(vertices []cube.Pos) (Convex, error) {
	if len(vertices) < 4 {
		return Convex{}, invalid("convex", "%d vertices, at least 4 required", len(vertices))
	}
	if len(vertices) > MaxConvexVertices {
		return Convex{}, invalid("convex", "%d vertices, at most %d allowed", len(vertices), MaxConvexVertices)
	}
	box := cube.NewBox(vertices[0], vertices[0])
	for _, v := range vertices[1:] {
		box = box.Extend(v)
	}
	if err := checkBounds("convex", box); err != nil {
		return Convex{}, err
	}
	faces := hullFaces(vertices)
	if len(faces) == 0 {
		return Convex{}, invalid("convex", "all vertices are coplanar")
	}
	return Convex{vertices: slices.Clone(vertices), faces: faces, box: box}, nil
}

// hullFaces returns the outward half-spaces bounding the hull of vertices. A
// plane through three vertices is a face if no vertex lies in front of it.
// No faces are returned if all vertices are coplanar.
func hullFaces(vertices []cube.Pos) []halfSpace {
	seen := make(map[halfSpace]struct{})
	var faces []halfSpace
	for i := range vertices {
		for j := i + 1; j < len(vertices); j++ {
			for k := j + 1; k < len(vertices); k++ {
				n := normal(vertices[i], vertices[j], vertices[k])
				if n == ([3]int64{}) {
					continue
				}
				d := dot(n, vertices[i])
				front, back := false, false
				for _, v := range vertices {
					switch s := dot(n, v); {
					case s > d:
						front = true
					case s < d:
						back = true
					}
				}
				if front && back {
					continue
				}
				if !front && !back {
					// Every vertex lies on this plane.
					return nil
				}
				if front {
					n, d = [3]int64{-n[0], -n[1], -n[2]}, -d
				}
				h := reduce(halfSpace{n: n, d: d})
				if _, ok := seen[h]; !ok {
					seen[h] = struct{}{}
					faces = append(faces, h)
				}
			}
		}
	}
	return faces
}

func normal(a, b, c cube.Pos) [3]int64 {
	u := [3]int64{int64(b[0] - a[0]), int64(b[1] - a[1]), int64(b[2] - a[2])}
	v := [3]int64{int64(c[0] - a[0]), int64(c[1] - a[1]), int64(c[2] - a[2])}
	return [3]int64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
}

func dot(n [3]int64, p cube.Pos) int64 {
	return n[0]*int64(p[0]) + n[1]*int64(p[1]) + n[2]*int64(p[2])
}

// reduce divides a half-space by the greatest common divisor of its normal so
// that equal planes compare equal.
func reduce(h halfSpace) halfSpace {
	g := gcd(gcd(cube.Abs(h.n[0]), cube.Abs(h.n[1])), cube.Abs(h.n[2]))
	if g <= 1 || h.d%g != 0 {
		return h
	}
	return halfSpace{n: [3]int64{h.n[0] / g, h.n[1] / g, h.n[2] / g}, d: h.d / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Vertices returns a copy of the vertices the Convex was built from.
func (c Convex) Vertices() []cube.Pos { return slices.Clone(c.vertices) }

// Centroid returns the average of the vertices of the Convex.
func (c Convex) Centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range c.vertices {
		sum = sum.Add(v.Vec3())
	}
	return sum.Mul(1 / float64(len(c.vertices)))
}

// Contains ...
func (c Convex) Contains(pos cube.Pos) bool {
	if !c.box.Contains(pos) {
		return false
	}
	x, y, z := int64(pos[0]), int64(pos[1]), int64(pos[2])
	for _, f := range c.faces {
		if !f.holds(x, y, z) {
			return false
		}
	}
	return true
}

// BoundingBox ...
func (c Convex) BoundingBox() cube.Box {
	return c.box
}

// Volume ...
func (c Convex) Volume() int {
	n := 0
	for row := range c.Rows() {
		n += row.Len()
	}
	return n
}

// Positions ...
func (c Convex) Positions() iter.Seq[cube.Pos] {
	return positions(c)
}

// Rows ...
func (c Convex) Rows() iter.Seq[Row] {
	return rows(c)
}

// spans intersects the horizontal line at y, z with every face of the hull.
func (c Convex) spans(y, z int, dst []Span) []Span {
	lo, hi := int64(c.box.Min()[0]), int64(c.box.Max()[0])
	py, pz := int64(y), int64(z)
	for _, f := range c.faces {
		rest := f.d - f.n[1]*py - f.n[2]*pz
		switch {
		case f.n[0] > 0:
			hi = min(hi, floorDiv(rest, f.n[0]))
		case f.n[0] < 0:
			lo = max(lo, ceilDiv(rest, f.n[0]))
		case rest < 0:
			return dst
		}
		if lo > hi {
			return dst
		}
	}
	return append(dst, Span{MinX: int(lo), MaxX: int(hi)})
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

// Shift ...
func (c Convex) Shift(off cube.Pos) Region {
	vertices := make([]cube.Pos, len(c.vertices))
	for i, v := range c.vertices {
		vertices[i] = v.Add(off)
	}
	faces := make([]halfSpace, len(c.faces))
	for i, f := range c.faces {
		faces[i] = halfSpace{n: f.n, d: f.d + dot(f.n, off)}
	}
	return Convex{vertices: vertices, faces: faces, box: c.box.Translate(off)}
}

// String ...
func (c Convex) String() string {
	return fmt.Sprintf("convex %d vertices %d faces %v", len(c.vertices), len(c.faces), c.box)
}
