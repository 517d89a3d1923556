package core

import "math"

// Planar geometry for footprint math. All coordinates are metres after unit
// normalization; the vertical coordinate has already been discarded.

// Vec2 is a point in the horizontal plane.
type Vec2 struct {
	X, Y float64
}

// degenerateArea is the signed-area magnitude below which a polygon is
// treated as degenerate (collinear or coincident vertices). Degenerate
// triangles contribute exactly 0 and are excluded before the union step.
const degenerateArea = 1e-12

// signedArea returns the signed area of a polygon via the shoelace formula.
// Positive for counter-clockwise winding.
func signedArea(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// cross returns the z-component of (b-a) × (p-a): positive when p lies to
// the left of the directed edge a→b.
func cross(a, b, p Vec2) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// clipHalfPlane keeps the part of a convex polygon on the left of the
// directed edge a→b (Sutherland–Hodgman, single clip edge).
func clipHalfPlane(poly []Vec2, a, b Vec2) []Vec2 {
	if len(poly) < 3 {
		return nil
	}
	out := make([]Vec2, 0, len(poly)+1)
	for i, cur := range poly {
		next := poly[(i+1)%len(poly)]
		curIn := cross(a, b, cur) >= -degenerateArea
		nextIn := cross(a, b, next) >= -degenerateArea

		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			if p, ok := lineIntersect(cur, next, a, b); ok {
				out = append(out, p)
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// lineIntersect returns the intersection of segment p1→p2 with the infinite
// line through a→b. ok is false when the segment is parallel to the line.
func lineIntersect(p1, p2, a, b Vec2) (Vec2, bool) {
	d1 := cross(a, b, p1)
	d2 := cross(a, b, p2)
	denom := d1 - d2
	if denom == 0 {
		return Vec2{}, false
	}
	t := d1 / denom
	return Vec2{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}, true
}

// subtractConvex returns the parts of a convex polygon that lie outside the
// convex clip polygon, decomposed into convex pieces. Both inputs must wind
// counter-clockwise. The returned pieces are disjoint.
func subtractConvex(subject, clip []Vec2) [][]Vec2 {
	remaining := subject
	var pieces [][]Vec2
	for i, a := range clip {
		b := clip[(i+1)%len(clip)]

		// The part of remaining strictly right of a→b is outside clip.
		outside := clipHalfPlane(remaining, b, a)
		if math.Abs(signedArea(outside)) > degenerateArea {
			pieces = append(pieces, outside)
		}

		remaining = clipHalfPlane(remaining, a, b)
		if len(remaining) < 3 {
			break
		}
	}
	// Whatever is left lies inside the clip polygon and is dropped.
	return pieces
}

// ccw normalizes a triangle to counter-clockwise winding. ok is false when
// the triangle is degenerate.
func ccw(t [3]Vec2) ([]Vec2, bool) {
	area := signedArea(t[:])
	if math.Abs(area) <= degenerateArea {
		return nil, false
	}
	if area < 0 {
		return []Vec2{t[0], t[2], t[1]}, true
	}
	return []Vec2{t[0], t[1], t[2]}, true
}

// UnionArea computes the area of the union of a triangle soup. Meshes
// routinely contain duplicate or overlapping triangles (coincident top and
// bottom faces of a slab, for example); summing raw triangle areas would
// overcount, so each triangle only contributes the part not already covered.
// Degenerate triangles contribute 0 and never fail the computation.
func UnionArea(tris [][3]Vec2) float64 {
	total := 0.0
	// covered holds disjoint convex pieces whose union equals the union of
	// all triangles processed so far.
	var covered [][]Vec2

	for _, t := range tris {
		tri, ok := ccw(t)
		if !ok {
			continue
		}
		pieces := [][]Vec2{tri}
		for _, c := range covered {
			var next [][]Vec2
			for _, p := range pieces {
				next = append(next, subtractConvex(p, c)...)
			}
			pieces = next
			if len(pieces) == 0 {
				break
			}
		}
		for _, p := range pieces {
			total += math.Abs(signedArea(p))
			covered = append(covered, p)
		}
	}
	return total
}

// ValidTriangles counts the non-degenerate triangles in a soup. The
// footprint estimator uses it to decide between the geometric result and
// the attribute fallback.
func ValidTriangles(tris [][3]Vec2) int {
	n := 0
	for _, t := range tris {
		if _, ok := ccw(t); ok {
			n++
		}
	}
	return n
}

// Triangulate decomposes a simple polygon into triangles by ear clipping.
// The closing point may be repeated; winding direction is irrelevant. A
// polygon too degenerate to triangulate yields nil.
func Triangulate(pts []Vec2) [][3]Vec2 {
	ring := append([]Vec2(nil), pts...)
	// Drop a repeated closing point.
	for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil
	}
	if signedArea(ring) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	var tris [][3]Vec2
	for len(ring) > 3 {
		clipped := false
		for i := range ring {
			prev := ring[(i+len(ring)-1)%len(ring)]
			cur := ring[i]
			next := ring[(i+1)%len(ring)]
			if !isEar(ring, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]Vec2{prev, cur, next})
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Remaining ring is degenerate (collinear chain); nothing
			// more to emit.
			return tris
		}
	}
	last := [3]Vec2{ring[0], ring[1], ring[2]}
	if _, ok := ccw(last); ok {
		tris = append(tris, last)
	}
	return tris
}

// isEar reports whether the corner prev→cur→next is convex and contains no
// other ring vertex.
func isEar(ring []Vec2, prev, cur, next Vec2) bool {
	if cross(prev, cur, next) <= degenerateArea {
		return false
	}
	for _, p := range ring {
		if p == prev || p == cur || p == next {
			continue
		}
		if pointInTriangle(p, prev, cur, next) {
			return false
		}
	}
	return true
}

// pointInTriangle tests containment in a counter-clockwise triangle,
// boundary included.
func pointInTriangle(p, a, b, c Vec2) bool {
	return cross(a, b, p) >= -degenerateArea &&
		cross(b, c, p) >= -degenerateArea &&
		cross(c, a, p) >= -degenerateArea
}
