package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/chisel-cad/chisel/pkg/geom"
)

func TestFlattenTriangle(t *testing.T) {
	pts := []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	p, err := Flatten(pts)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if !p.Normal.ApproxEqual(geom.Vec3{X: 0, Y: 0, Z: 1}, 1e-9) {
		t.Errorf("normal = %v, want +z", p.Normal)
	}
	want := []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	for i, q := range p.Points {
		if math.Abs(q.X-want[i].X) > 1e-9 || math.Abs(q.Y-want[i].Y) > 1e-9 {
			t.Errorf("point %d = %v, want %v", i, q, want[i])
		}
	}
}

func TestFlattenDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []geom.Vec3
	}{
		{"collinear", []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}},
		{"too few", []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}},
		{"repeated", []geom.Vec3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Flatten(tt.pts); !errors.Is(err, ErrDegenerate) {
				t.Errorf("Flatten() error = %v, want ErrDegenerate", err)
			}
		})
	}
}

// The estimator must skip collinear leading triples and use the first
// stable one.
func TestEstimateNormalSkipsCollinearTriples(t *testing.T) {
	pts := []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0}}
	n, err := EstimateNormal(pts)
	if err != nil {
		t.Fatalf("EstimateNormal() error = %v", err)
	}
	if !n.ApproxEqual(geom.Vec3{X: 0, Y: 0, Z: 1}, 1e-9) {
		t.Errorf("normal = %v, want +z", n)
	}
}

// Flattening and lifting back at depth 0 must reproduce the input for
// any planar loop in an arbitrary plane.
func TestProjectionRoundTrip(t *testing.T) {
	origin := geom.Vec3{X: 3, Y: -2, Z: 5}
	n := geom.Vec3{X: 1, Y: 2, Z: -1}.Normalize()
	u, v := geom.PlaneBasis(n)

	var pts []geom.Vec3
	locals := []geom.Vec2{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2.5, Y: 1.75}, {X: 1, Y: 3}, {X: -0.5, Y: 1}}
	for _, l := range locals {
		pts = append(pts, origin.Add(u.Scale(l.X)).Add(v.Scale(l.Y)))
	}

	p, err := Flatten(pts)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	for i, l := range p.Points {
		back := p.To3D(l.X, l.Y, 0)
		if !back.ApproxEqual(pts[i], 1e-9) {
			t.Errorf("point %d round trip = %v, want %v", i, back, pts[i])
		}
	}
	if p.MaxResidual > 1e-9 {
		t.Errorf("planar input has residual %v", p.MaxResidual)
	}
}

func TestTo3DDepth(t *testing.T) {
	pts := []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	p, err := Flatten(pts)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	top := p.To3D(0, 0, 2)
	if !top.ApproxEqual(geom.Vec3{X: 0, Y: 0, Z: 2}, 1e-9) {
		t.Errorf("To3D depth = %v, want (0,0,2)", top)
	}
}

func TestPlanarTolerance(t *testing.T) {
	pts := []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0.05}}

	// Silent by default: residual recorded, no error.
	p, err := Flatten(pts)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if p.MaxResidual < 0.01 {
		t.Errorf("MaxResidual = %v, expected the lifted corner to register", p.MaxResidual)
	}

	// Explicit tolerance rejects.
	if _, err := FlattenWith(pts, Options{PlanarTolerance: 0.01}); !errors.Is(err, ErrNonPlanar) {
		t.Errorf("error = %v, want ErrNonPlanar", err)
	}
	// Loose tolerance accepts.
	if _, err := FlattenWith(pts, Options{PlanarTolerance: 0.1}); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestSignedAreaAndWinding(t *testing.T) {
	ccw := &Profile{Points: []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}
	if a := ccw.SignedArea(); math.Abs(a-0.5) > 1e-12 {
		t.Errorf("SignedArea = %v, want 0.5", a)
	}
	cw := &Profile{Points: []geom.Vec2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}}}
	if a := cw.SignedArea(); math.Abs(a+0.5) > 1e-12 {
		t.Errorf("SignedArea = %v, want -0.5", a)
	}
	cw.EnsureCCW()
	if a := cw.SignedArea(); a <= 0 {
		t.Errorf("EnsureCCW left area %v", a)
	}
}
