package workplane

import (
	"math"
	"testing"

	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
)

// unitSquare is a two-triangle square in the z=0 plane, normals +z.
func unitSquare() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestNewFrameIsRightHanded(t *testing.T) {
	wp := New(geom.Vec3{X: 1, Y: 2, Z: 3}, geom.Vec3{X: 0, Y: 0, Z: 2})
	if math.Abs(wp.Normal.Length()-1) > 1e-9 {
		t.Error("normal not normalized")
	}
	if !wp.U.Cross(wp.V).ApproxEqual(wp.Normal, 1e-9) {
		t.Errorf("U×V = %v, want %v", wp.U.Cross(wp.V), wp.Normal)
	}
}

func TestFromView(t *testing.T) {
	cam := geom.Vec3{X: 0, Y: 0, Z: 10}
	fwd := geom.Vec3{X: 0, Y: 0, Z: -1}
	wp := FromView(cam, fwd, 4)
	if !wp.Origin.ApproxEqual(geom.Vec3{X: 0, Y: 0, Z: 6}, 1e-9) {
		t.Errorf("origin = %v, want (0,0,6)", wp.Origin)
	}
	// The plane faces the camera.
	if !wp.Normal.ApproxEqual(geom.Vec3{X: 0, Y: 0, Z: 1}, 1e-9) {
		t.Errorf("normal = %v, want +z", wp.Normal)
	}
}

func TestFromSurface(t *testing.T) {
	solids := []*kernel.Mesh{unitSquare()}

	t.Run("hit", func(t *testing.T) {
		ray := geom.Ray{Origin: geom.Vec3{X: 0.5, Y: 0.5, Z: 5}, Dir: geom.Vec3{X: 0, Y: 0, Z: -1}}
		wp, ok := FromSurface(ray, solids)
		if !ok {
			t.Fatal("expected surface hit")
		}
		if !wp.Origin.ApproxEqual(geom.Vec3{X: 0.5, Y: 0.5, Z: 0}, 1e-6) {
			t.Errorf("origin = %v", wp.Origin)
		}
		// Normal points back toward the camera side.
		if wp.Normal.Dot(ray.Dir) >= 0 {
			t.Errorf("normal %v faces away from viewer", wp.Normal)
		}
	})

	t.Run("miss is a no-op", func(t *testing.T) {
		ray := geom.Ray{Origin: geom.Vec3{X: 5, Y: 5, Z: 5}, Dir: geom.Vec3{X: 0, Y: 0, Z: -1}}
		if _, ok := FromSurface(ray, solids); ok {
			t.Error("expected miss")
		}
	})

	t.Run("nearest of several", func(t *testing.T) {
		far := unitSquare()
		for i := 0; i < far.VertexCount(); i++ {
			p := far.Position(i)
			far.SetPosition(i, [3]float32{p[0], p[1], p[2] - 3})
		}
		ray := geom.Ray{Origin: geom.Vec3{X: 0.5, Y: 0.5, Z: 5}, Dir: geom.Vec3{X: 0, Y: 0, Z: -1}}
		wp, ok := FromSurface(ray, []*kernel.Mesh{far, unitSquare()})
		if !ok {
			t.Fatal("expected hit")
		}
		if math.Abs(wp.Origin.Z) > 1e-6 {
			t.Errorf("picked far surface, origin = %v", wp.Origin)
		}
	})
}

func TestLocalWorldRoundTrip(t *testing.T) {
	wp := New(geom.Vec3{X: 1, Y: 2, Z: 3}, geom.Vec3{X: 1, Y: 1, Z: 0})
	pts := []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0.5, Y: -2.25}, {X: -3, Y: 7}}
	for _, p := range pts {
		w := wp.ToWorld(p)
		back := wp.ToLocal(w)
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %v -> %v", p, back)
		}
	}
}

func TestSnap(t *testing.T) {
	wp := New(geom.Vec3{}, geom.Vec3{X: 0, Y: 0, Z: 1})
	p := wp.ToWorld(geom.Vec2{X: 0.3, Y: 0.7})
	snapped := wp.Snap(p, 0.5)
	local := wp.ToLocal(snapped)
	if math.Abs(local.X-0.5) > 1e-9 || math.Abs(local.Y-0.5) > 1e-9 {
		t.Errorf("snapped local = %v, want (0.5, 0.5)", local)
	}
}

func TestIntersectRay(t *testing.T) {
	wp := New(geom.Vec3{}, geom.Vec3{X: 0, Y: 0, Z: 1})
	p, ok := wp.IntersectRay(geom.Ray{Origin: geom.Vec3{X: 2, Y: 3, Z: 4}, Dir: geom.Vec3{X: 0, Y: 0, Z: -1}})
	if !ok {
		t.Fatal("expected intersection")
	}
	if !p.ApproxEqual(geom.Vec3{X: 2, Y: 3, Z: 0}, 1e-9) {
		t.Errorf("intersection = %v", p)
	}
	if _, ok := wp.IntersectRay(geom.Ray{Origin: geom.Vec3{X: 0, Y: 0, Z: 4}, Dir: geom.Vec3{X: 1, Y: 0, Z: 0}}); ok {
		t.Error("parallel ray should not intersect")
	}
}

func TestModeString(t *testing.T) {
	if ModeSurface.String() != "surface" || ModePlane.String() != "plane" || ModeFree.String() != "free" {
		t.Error("unexpected mode names")
	}
}
