// Package offset displaces mesh vertices along normals to inflate or
// deflate a single face or a whole solid. Both operations are pure:
// the input buffer is cloned, never mutated, and identical inputs
// produce identical outputs.
//
// OffsetBody is a best-effort shell displacement. It does not detect or
// resolve self-intersections that occur when the distance is large
// relative to local curvature; callers are expected to use small
// distances.
package offset

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/chisel-cad/chisel/pkg/kernel"
)

// Face displaces the three vertices of triangle faceIndex along the
// face normal by distance, regenerating side walls between the
// displaced face and its original boundary so the solid stays closed.
// The face's vertices are duplicated first, so neighboring triangles
// keep their original positions.
//
// An out-of-range face index is a hard error, unlike per-shape
// extrusion failures which are recoverable.
func Face(m *kernel.Mesh, faceIndex int, distance float64) (*kernel.Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("malformed mesh: %w", err)
	}
	if faceIndex < 0 || faceIndex >= m.TriangleCount() {
		return nil, fmt.Errorf("invalid face index %d (mesh has %d faces)", faceIndex, m.TriangleCount())
	}

	out := m.Clone()
	n := out.FaceNormal(faceIndex)
	d := float32(distance)
	move := [3]float32{n[0] * d, n[1] * d, n[2] * d}

	orig := [3]int{}
	orig[0], orig[1], orig[2] = out.Triangle(faceIndex)

	// Duplicate the face's vertices and displace the copies.
	dup := [3]uint32{}
	for k, vi := range orig {
		p := out.Position(vi)
		dup[k] = uint32(out.VertexCount())
		out.Vertices = append(out.Vertices,
			p[0]+move[0], p[1]+move[1], p[2]+move[2])
		out.Normals = append(out.Normals, n[0], n[1], n[2])
	}

	// Retarget the face to the displaced copies.
	out.Indices[faceIndex*3] = dup[0]
	out.Indices[faceIndex*3+1] = dup[1]
	out.Indices[faceIndex*3+2] = dup[2]

	// Side walls: one quad per edge between the original ring and the
	// displaced ring, wound to face outward for a positive distance.
	for k := 0; k < 3; k++ {
		j := (k + 1) % 3
		a := uint32(orig[k])
		b := uint32(orig[j])
		out.Indices = append(out.Indices,
			a, b, dup[j],
			a, dup[j], dup[k])
	}

	out.RecomputeNormals()
	out.ComputeBounds()
	return out, nil
}

// Body displaces every vertex along its averaged vertex normal by
// distance, uniformly inflating (positive) or deflating (negative) the
// whole solid. Vertex normals are accumulated by position so that
// unwelded duplicate vertices move together instead of tearing the
// shell open.
func Body(m *kernel.Mesh, distance float64) (*kernel.Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("malformed mesh: %w", err)
	}

	out := m.Clone()
	if out.IsEmpty() {
		return out, nil
	}

	normals := weldedVertexNormals(out)
	d := float32(distance)
	for i := 0; i < out.VertexCount(); i++ {
		n := normals[i]
		p := out.Position(i)
		out.SetPosition(i, [3]float32{
			p[0] + n[0]*d,
			p[1] + n[1]*d,
			p[2] + n[2]*d,
		})
	}

	out.RecomputeNormals()
	out.ComputeBounds()
	return out, nil
}

// weldedVertexNormals computes unit per-vertex normals, averaging
// area-weighted face normals across all vertices sharing a position.
func weldedVertexNormals(m *kernel.Mesh) [][3]float32 {
	type key [3]float32
	accum := make(map[key][3]float32)

	for f := 0; f < m.TriangleCount(); f++ {
		a, b, c := m.Triangle(f)
		pa, pb, pc := m.Position(a), m.Position(b), m.Position(c)
		e1 := [3]float32{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
		e2 := [3]float32{pc[0] - pa[0], pc[1] - pa[1], pc[2] - pa[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, p := range [][3]float32{pa, pb, pc} {
			k := key(p)
			acc := accum[k]
			accum[k] = [3]float32{acc[0] + n[0], acc[1] + n[1], acc[2] + n[2]}
		}
	}

	out := make([][3]float32, m.VertexCount())
	for i := range out {
		n := accum[key(m.Position(i))]
		l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l > 0 {
			out[i] = [3]float32{n[0] / l, n[1] / l, n[2] / l}
		}
	}
	return out
}
