package geom

import "math"

// worldUp and worldRight are the fixed reference axes for basis
// construction. worldRight is the fallback when the plane normal is
// nearly vertical, avoiding a near-zero cross product.
var (
	worldUp    = Vec3{0, 1, 0}
	worldRight = Vec3{1, 0, 0}
)

// verticalThreshold is the |N·up| value above which the normal is
// considered nearly vertical and the fallback axis is used.
const verticalThreshold = 0.99

// PlaneBasis constructs a deterministic right-handed orthonormal frame
// for a unit normal n. It returns u and v such that {u, v, n} is
// right-handed (v = n × u). The reference axis is world-up unless n is
// nearly vertical, in which case world-right is used; the choice is a
// fixed rule so repeated calls with the same normal agree exactly.
func PlaneBasis(n Vec3) (u, v Vec3) {
	ref := worldUp
	if math.Abs(n.Dot(worldUp)) > verticalThreshold {
		ref = worldRight
	}
	// Project the N component out of the reference axis.
	u = ref.Sub(n.Scale(ref.Dot(n))).Normalize()
	v = n.Cross(u)
	return u, v
}

// Ray is a half-line with unit direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// IntersectPlane returns the point where r meets the plane through
// origin with normal n, and false if the ray is parallel to the plane
// or the plane lies behind the ray origin.
func (r Ray) IntersectPlane(origin, n Vec3) (Vec3, bool) {
	denom := r.Dir.Dot(n)
	if math.Abs(denom) < Epsilon {
		return Vec3{}, false
	}
	t := origin.Sub(r.Origin).Dot(n) / denom
	if t < 0 {
		return Vec3{}, false
	}
	return r.Origin.Add(r.Dir.Scale(t)), true
}

// IntersectTriangle performs a Möller–Trumbore ray/triangle test.
// It returns the distance along the ray and true on a front- or
// back-face hit with t > 0.
func (r Ray) IntersectTriangle(a, b, c Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < Epsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}

// TriangleNormal returns the unit normal of triangle (a, b, c) using
// counter-clockwise winding. Degenerate triangles yield the zero vector.
func TriangleNormal(a, b, c Vec3) Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// SnapToGrid rounds each component of a local 2D point to the nearest
// multiple of grid. A non-positive grid returns p unchanged.
func SnapToGrid(p Vec2, grid float64) Vec2 {
	if grid <= 0 {
		return p
	}
	return Vec2{
		X: math.Round(p.X/grid) * grid,
		Y: math.Round(p.Y/grid) * grid,
	}
}
