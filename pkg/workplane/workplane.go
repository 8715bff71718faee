// Package workplane anchors a 2D sketching plane in 3D space and
// acquires it from pointer rays: either by picking a surface of an
// existing solid or at a fixed distance in front of the camera.
package workplane

import (
	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
)

// Mode selects how the workplane is acquired.
type Mode int

const (
	// ModeSurface anchors the plane on a picked solid surface.
	ModeSurface Mode = iota
	// ModePlane anchors the plane at a fixed distance facing the camera.
	ModePlane
	// ModeFree defers plane acquisition to the point-picking logic.
	ModeFree
)

func (m Mode) String() string {
	switch m {
	case ModeSurface:
		return "surface"
	case ModePlane:
		return "plane"
	case ModeFree:
		return "free"
	default:
		return "unknown"
	}
}

// Workplane is a plane with a right-handed orthonormal frame
// {U, V, Normal}. It is owned by a single sketch session.
type Workplane struct {
	Origin geom.Vec3 `json:"origin"`
	Normal geom.Vec3 `json:"normal"`
	U      geom.Vec3 `json:"basisU"`
	V      geom.Vec3 `json:"basisV"`
}

// New builds a workplane at origin with the given normal. The normal is
// normalized and the basis is constructed deterministically, with a
// fixed fallback axis when the normal is nearly vertical.
func New(origin, normal geom.Vec3) *Workplane {
	n := normal.Normalize()
	u, v := geom.PlaneBasis(n)
	return &Workplane{Origin: origin, Normal: n, U: u, V: v}
}

// FromView builds a workplane at distance along the camera's forward
// direction, oriented to face the camera. It always succeeds.
func FromView(camPos, camForward geom.Vec3, distance float64) *Workplane {
	fwd := camForward.Normalize()
	return New(camPos.Add(fwd.Scale(distance)), fwd.Neg())
}

// FromSurface ray-picks the given solid meshes and builds a workplane
// at the nearest hit, oriented along the hit triangle's normal. It
// returns false when no solid is hit; the caller may retry.
func FromSurface(ray geom.Ray, solids []*kernel.Mesh) (*Workplane, bool) {
	hit, normal, ok := PickSurface(ray, solids)
	if !ok {
		return nil, false
	}
	return New(hit, normal), true
}

// PickSurface intersects the ray against every triangle of the given
// meshes and returns the nearest hit point and its face normal.
func PickSurface(ray geom.Ray, solids []*kernel.Mesh) (point, normal geom.Vec3, ok bool) {
	best := -1.0
	for _, m := range solids {
		if m == nil {
			continue
		}
		for f := 0; f < m.TriangleCount(); f++ {
			ai, bi, ci := m.Triangle(f)
			a := vec3At(m, ai)
			b := vec3At(m, bi)
			c := vec3At(m, ci)
			t, hit := ray.IntersectTriangle(a, b, c)
			if !hit {
				continue
			}
			if best < 0 || t < best {
				best = t
				point = ray.Origin.Add(ray.Dir.Scale(t))
				normal = geom.TriangleNormal(a, b, c)
				// Orient toward the ray origin so sketches sit on the
				// visible side regardless of triangle winding.
				if normal.Dot(ray.Dir) > 0 {
					normal = normal.Neg()
				}
			}
		}
	}
	return point, normal, best >= 0
}

// IntersectRay returns the world-space point where the ray crosses the
// workplane, or false if the ray is parallel or points away.
func (w *Workplane) IntersectRay(ray geom.Ray) (geom.Vec3, bool) {
	return ray.IntersectPlane(w.Origin, w.Normal)
}

// ToLocal projects a world-space point into workplane-local 2D
// coordinates, discarding the out-of-plane component.
func (w *Workplane) ToLocal(p geom.Vec3) geom.Vec2 {
	d := p.Sub(w.Origin)
	return geom.Vec2{X: d.Dot(w.U), Y: d.Dot(w.V)}
}

// ToWorld lifts a workplane-local 2D point back to world space.
func (w *Workplane) ToWorld(p geom.Vec2) geom.Vec3 {
	return w.Origin.Add(w.U.Scale(p.X)).Add(w.V.Scale(p.Y))
}

// Snap rounds a world-space point on the plane to the nearest grid
// intersection in local coordinates. A non-positive grid size returns
// the point reprojected but unsnapped.
func (w *Workplane) Snap(p geom.Vec3, grid float64) geom.Vec3 {
	return w.ToWorld(geom.SnapToGrid(w.ToLocal(p), grid))
}

func vec3At(m *kernel.Mesh, i int) geom.Vec3 {
	p := m.Position(i)
	return geom.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}
