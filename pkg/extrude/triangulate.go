package extrude

import "github.com/chisel-cad/chisel/pkg/geom"

// triangulate ear-clips a simple CCW polygon into triangles, returned
// as index triples into the input slice. Concave polygons are handled;
// self-intersecting input degrades to a fan rather than failing.
func triangulate(poly []geom.Vec2) [][3]int {
	n := len(poly)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var tris [][3]int
	guard := 0
	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			prev := idx[(i+len(idx)-1)%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]
			if isEar(poly, idx, prev, cur, next) {
				tris = append(tris, [3]int{prev, cur, next})
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
		}
		if !clipped {
			// Degenerate or self-intersecting remainder: fan it out.
			for i := 1; i+1 < len(idx); i++ {
				tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
			}
			return tris
		}
		guard++
		if guard > n*n {
			break
		}
	}
	tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	return tris
}

// isEar reports whether vertex cur forms a convex ear containing no
// other remaining vertex.
func isEar(poly []geom.Vec2, remaining []int, prev, cur, next int) bool {
	a, b, c := poly[prev], poly[cur], poly[next]
	if cross2(b.X-a.X, b.Y-a.Y, c.X-b.X, c.Y-b.Y) <= 0 {
		return false // reflex corner
	}
	for _, r := range remaining {
		if r == prev || r == cur || r == next {
			continue
		}
		if pointInTriangle(poly[r], a, b, c) {
			return false
		}
	}
	return true
}

func cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}

// pointInTriangle tests containment with inclusive edges.
func pointInTriangle(p, a, b, c geom.Vec2) bool {
	d1 := cross2(b.X-a.X, b.Y-a.Y, p.X-a.X, p.Y-a.Y)
	d2 := cross2(c.X-b.X, c.Y-b.Y, p.X-b.X, p.Y-b.Y)
	d3 := cross2(a.X-c.X, a.Y-c.Y, p.X-c.X, p.Y-c.Y)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
