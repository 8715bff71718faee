package kernel

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Mesh is an indexed triangle mesh suitable for rendering.
// All arrays are flat: Vertices has 3 floats per vertex (x,y,z),
// Normals has 3 floats per vertex, Indices has 3 uint32s per triangle.
// Min and Max hold the axis-aligned bounding box after ComputeBounds.
type Mesh struct {
	Vertices []float32  `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32  `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32   `json:"indices"`  // [i0,i1,i2, ...] triangles
	Min      [3]float32 `json:"min"`      // AABB minimum corner
	Max      [3]float32 `json:"max"`      // AABB maximum corner
	Name     string     `json:"name"`     // which solid/shape this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) [3]float32 {
	return [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// SetPosition overwrites the position of vertex i.
func (m *Mesh) SetPosition(i int, p [3]float32) {
	m.Vertices[i*3] = p[0]
	m.Vertices[i*3+1] = p[1]
	m.Vertices[i*3+2] = p[2]
}

// Triangle returns the three vertex indices of triangle f.
func (m *Mesh) Triangle(f int) (a, b, c int) {
	return int(m.Indices[f*3]), int(m.Indices[f*3+1]), int(m.Indices[f*3+2])
}

// Clone returns a deep copy of the mesh. Offset operations clone their
// input so the original buffer is never mutated.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		Normals:  append([]float32(nil), m.Normals...),
		Indices:  append([]uint32(nil), m.Indices...),
		Min:      m.Min,
		Max:      m.Max,
		Name:     m.Name,
	}
}

// FaceNormal returns the unit normal of triangle f from its winding.
// Degenerate triangles yield the zero vector.
func (m *Mesh) FaceNormal(f int) [3]float32 {
	a, b, c := m.Triangle(f)
	return normalize3(m.faceCross(a, b, c))
}

// faceCross returns the unnormalized cross product of triangle edges
// (b-a) × (c-a); its magnitude is twice the triangle area.
func (m *Mesh) faceCross(a, b, c int) [3]float32 {
	pa, pb, pc := m.Position(a), m.Position(b), m.Position(c)
	e1 := [3]float32{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
	e2 := [3]float32{pc[0] - pa[0], pc[1] - pa[1], pc[2] - pa[2]}
	return [3]float32{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
}

// RecomputeNormals rebuilds per-vertex normals by accumulating the face
// normal of every triangle touching each vertex. The cross product
// magnitude carries the area weighting, so no explicit weights are needed.
func (m *Mesh) RecomputeNormals() {
	m.Normals = make([]float32, len(m.Vertices))
	for f := 0; f < m.TriangleCount(); f++ {
		a, b, c := m.Triangle(f)
		n := m.faceCross(a, b, c)
		for _, i := range []int{a, b, c} {
			m.Normals[i*3] += n[0]
			m.Normals[i*3+1] += n[1]
			m.Normals[i*3+2] += n[2]
		}
	}
	for i := 0; i < m.VertexCount(); i++ {
		n := normalize3([3]float32{m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]})
		m.Normals[i*3] = n[0]
		m.Normals[i*3+1] = n[1]
		m.Normals[i*3+2] = n[2]
	}
}

// ComputeBounds recomputes the axis-aligned bounding box from the
// vertex positions. An empty mesh gets a zero box.
func (m *Mesh) ComputeBounds() {
	if m.IsEmpty() {
		m.Min = [3]float32{}
		m.Max = [3]float32{}
		return
	}
	min := m.Position(0)
	max := min
	for i := 1; i < m.VertexCount(); i++ {
		p := m.Position(i)
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], p[k])
			max[k] = math32.Max(max[k], p[k])
		}
	}
	m.Min = min
	m.Max = max
}

// Validate checks buffer consistency: index ranges, triangle-aligned
// index count, and vertex-aligned position count. Malformed buffers are
// rejected before offset operations.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("vertex buffer length %d is not a multiple of 3", len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index buffer length %d is not a multiple of 3", len(m.Indices))
	}
	vc := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= vc {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, vc)
		}
	}
	return nil
}

// Merge concatenates meshes into a single indexed mesh, offsetting the
// index buffers. Coincident vertices across inputs are not welded.
// Normals and bounds are not recomputed; callers do that once at the end.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}

func normalize3(n [3]float32) [3]float32 {
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
