// Package extrude converts closed 2D profiles into solid prism meshes
// with optional cap beveling, merges per-shape solids into one indexed
// mesh, and recomputes derived attributes (normals, bounds).
package extrude

import (
	"fmt"
	"math"

	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/profile"
	"github.com/chisel-cad/chisel/pkg/sketch"
)

// circleSegments is the ring sampling density when a circle shape is
// expanded into a polygon profile.
const circleSegments = 32

// Skip records one shape that could not be extruded. Skips are
// warnings, never fatal: the batch continues without the shape.
type Skip struct {
	ShapeID string `json:"shapeId"`
	Reason  string `json:"reason"`
}

// Extrude builds one solid mesh from all valid shapes. Open shapes are
// skipped; shapes whose profile cannot be flattened (collinear points)
// are skipped with a warning. If no shape survives, the fixed unit-cube
// fallback is returned so callers always receive renderable geometry.
func Extrude(shapes []sketch.Shape, set Settings) (*kernel.Mesh, []Skip) {
	var solids []*kernel.Mesh
	var skips []Skip

	for i := range shapes {
		sh := &shapes[i]
		if !sh.Valid() {
			skips = append(skips, Skip{ShapeID: sh.ID, Reason: "shape is open or has too few points"})
			continue
		}
		prof, err := profile.Flatten(sh.ProfilePoints(circleSegments))
		if err != nil {
			skips = append(skips, Skip{ShapeID: sh.ID, Reason: fmt.Sprintf("degenerate profile: %v", err)})
			continue
		}
		solids = append(solids, Solid(prof, set))
	}

	if len(solids) == 0 {
		return UnitCube(), skips
	}

	out := kernel.Merge(solids...)
	out.RecomputeNormals()
	out.ComputeBounds()
	return out, skips
}

// ring describes one cross-section of the prism: the profile polygon
// inset inward by Inset, placed at height Z along the profile normal.
type ring struct {
	Inset float64
	Z     float64
}

// Solid extrudes a single flattened profile into a world-space prism
// mesh. The profile is normalized to CCW winding first so caps and
// walls wind outward consistently.
func Solid(p *profile.Profile, set Settings) *kernel.Mesh {
	p.EnsureCCW()
	rings := ringStack(set)
	poly := p.Points
	n := len(poly)

	m := &kernel.Mesh{}
	for _, r := range rings {
		inset := insetPolygon(poly, r.Inset)
		for _, q := range inset {
			w := p.To3D(q.X, q.Y, r.Z)
			m.Vertices = append(m.Vertices, float32(w.X), float32(w.Y), float32(w.Z))
		}
	}

	// Walls between consecutive rings.
	for r := 0; r+1 < len(rings); r++ {
		base := uint32(r * n)
		next := uint32((r + 1) * n)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			a := base + uint32(i)
			b := base + uint32(j)
			c := next + uint32(j)
			d := next + uint32(i)
			m.Indices = append(m.Indices, a, b, c, a, c, d)
		}
	}

	// Caps on the first and last rings. The cap triangulation is done
	// on the uninset polygon; indices are valid for every ring since
	// insetting preserves vertex order.
	top := uint32((len(rings) - 1) * n)
	for _, t := range triangulate(poly) {
		// Bottom cap faces -N: reverse the CCW triangles.
		m.Indices = append(m.Indices, uint32(t[0]), uint32(t[2]), uint32(t[1]))
		// Top cap faces +N.
		m.Indices = append(m.Indices, top+uint32(t[0]), top+uint32(t[1]), top+uint32(t[2]))
	}
	return m
}

// ringStack lays out the cross-sections from the bottom cap to the top
// cap. Without bevel there are exactly two rings. With bevel, each cap
// is inset by BevelSize and connected to the full profile through
// BevelSegments interpolated rings (0 segments gives a single chamfer).
func ringStack(set Settings) []ring {
	depth := set.Depth
	if !set.BevelEnabled || set.BevelThickness <= 0 && set.BevelSize <= 0 {
		return []ring{{0, 0}, {0, depth}}
	}

	bt := set.BevelThickness
	if bt > depth/2 {
		bt = depth / 2
	}
	bs := set.BevelSize
	steps := set.BevelSegments + 1

	var rings []ring
	// Bottom: inset cap at z=0 rising to the full profile at z=bt.
	for k := 0; k <= steps; k++ {
		t := float64(k) / float64(steps)
		rings = append(rings, ring{Inset: bs * (1 - t), Z: bt * t})
	}
	// Top: full profile at z=depth-bt closing to the inset cap at
	// z=depth. The full-profile ring is emitted even when it coincides
	// with the bottom bevel's end, so the straight wall section between
	// the two transition zones is preserved.
	for k := 0; k <= steps; k++ {
		t := float64(k) / float64(steps)
		rings = append(rings, ring{Inset: bs * t, Z: depth - bt + bt*t})
	}
	return rings
}

// insetPolygon offsets every vertex of a CCW polygon inward by dist
// along the average of its adjacent edge inward normals. Zero distance
// returns the input unchanged. This is a local approximation, not a
// straight-skeleton offset; bevel sizes are expected to be small
// relative to edge lengths.
func insetPolygon(poly []geom.Vec2, dist float64) []geom.Vec2 {
	if dist == 0 {
		return poly
	}
	n := len(poly)
	out := make([]geom.Vec2, n)
	for i := 0; i < n; i++ {
		prev := poly[(i+n-1)%n]
		cur := poly[i]
		next := poly[(i+1)%n]
		n1 := edgeInwardNormal(prev, cur)
		n2 := edgeInwardNormal(cur, next)
		dx, dy := n1.X+n2.X, n1.Y+n2.Y
		l := hypot2(dx, dy)
		if l < 1e-12 {
			out[i] = cur
			continue
		}
		out[i] = geom.Vec2{X: cur.X + dx/l*dist, Y: cur.Y + dy/l*dist}
	}
	return out
}

// edgeInwardNormal returns the unit left normal of edge a→b, which
// points into the interior of a CCW polygon.
func edgeInwardNormal(a, b geom.Vec2) geom.Vec2 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := hypot2(dx, dy)
	if l < 1e-12 {
		return geom.Vec2{}
	}
	return geom.Vec2{X: -dy / l, Y: dx / l}
}

func hypot2(x, y float64) float64 {
	return math.Hypot(x, y)
}

// UnitCube returns the fixed fallback solid: a unit cube with its
// minimum corner at the origin, built with per-face vertices so the
// normals stay crisp. Returned when an extrusion request has no valid
// shapes.
func UnitCube() *kernel.Mesh {
	corners := [8][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	// Quads wound CCW viewed from outside.
	faces := [6][4]int{
		{0, 3, 2, 1}, // -z
		{4, 5, 6, 7}, // +z
		{0, 1, 5, 4}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	}
	m := &kernel.Mesh{Name: "fallback-cube"}
	for _, f := range faces {
		base := uint32(m.VertexCount())
		for _, ci := range f {
			c := corners[ci]
			m.Vertices = append(m.Vertices, c[0], c[1], c[2])
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.RecomputeNormals()
	m.ComputeBounds()
	return m
}
