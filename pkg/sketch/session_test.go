package sketch

import (
	"errors"
	"math"
	"testing"

	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/workplane"
)

// testCam looks straight down the -z axis from z=10, so plane mode
// yields the z=5 plane facing +z. Tests read picks back through the
// workplane's ToLocal rather than assuming a basis orientation.
var testCam = Camera{Position: geom.Vec3{X: 0, Y: 0, Z: 10}, Forward: geom.Vec3{X: 0, Y: 0, Z: -1}}

// dropRay aims straight down at (x, y).
func dropRay(x, y float64) geom.Ray {
	return geom.Ray{Origin: geom.Vec3{X: x, Y: y, Z: 10}, Dir: geom.Vec3{X: 0, Y: 0, Z: -1}}
}

func newTestSession() *Session {
	s := NewSession(nil)
	s.SetSnap(false)
	return s
}

// recordSink captures preview side effects.
type recordSink struct {
	committed []Shape
	previews  int
	cleared   int
}

func (r *recordSink) ShapeCommitted(s Shape) { r.committed = append(r.committed, s) }

func (r *recordSink) PreviewChanged([]geom.Vec3, bool) { r.previews++ }

func (r *recordSink) PreviewCleared() { r.cleared++ }

func TestLineTwoPicks(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolLine)

	if s.State() != StateIdle {
		t.Fatalf("initial state = %v", s.State())
	}
	if err := s.PointerDown(dropRay(0, 0), testCam); err != nil {
		t.Fatalf("first pick: %v", err)
	}
	if s.State() != StateDrawing {
		t.Fatalf("state after first pick = %v", s.State())
	}
	if err := s.PointerDown(dropRay(1, 0), testCam); err != nil {
		t.Fatalf("second pick: %v", err)
	}
	if s.State() != StateWorkplaneActive {
		t.Fatalf("state after completion = %v", s.State())
	}

	shapes := s.Shapes()
	if len(shapes) != 1 {
		t.Fatalf("shapes = %d, want 1", len(shapes))
	}
	sh := shapes[0]
	if sh.Type != ToolLine || sh.Closed || len(sh.Points) != 2 {
		t.Errorf("line shape = %+v", sh)
	}
	if sh.Valid() {
		t.Error("open line must not be valid for extrusion")
	}
}

func TestRectangleExpandsToFourCorners(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolRectangle)

	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(2, 1))

	shapes := s.Shapes()
	if len(shapes) != 1 {
		t.Fatalf("shapes = %d, want 1", len(shapes))
	}
	sh := shapes[0]
	if !sh.Closed || len(sh.Points) != 4 {
		t.Fatalf("rectangle shape = %+v", sh)
	}
	if !sh.Valid() {
		t.Error("rectangle must be valid for extrusion")
	}

	// Corners are axis-aligned in workplane-local space.
	wp := s.Workplane()
	l0 := wp.ToLocal(sh.Points[0].Position)
	l1 := wp.ToLocal(sh.Points[1].Position)
	l2 := wp.ToLocal(sh.Points[2].Position)
	l3 := wp.ToLocal(sh.Points[3].Position)
	if math.Abs(l0.Y-l1.Y) > 1e-9 || math.Abs(l1.X-l2.X) > 1e-9 ||
		math.Abs(l2.Y-l3.Y) > 1e-9 || math.Abs(l3.X-l0.X) > 1e-9 {
		t.Errorf("corners not axis aligned: %v %v %v %v", l0, l1, l2, l3)
	}
}

func TestCircleTwoPicks(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolCircle)

	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(1, 0))

	shapes := s.Shapes()
	if len(shapes) != 1 {
		t.Fatalf("shapes = %d, want 1", len(shapes))
	}
	sh := shapes[0]
	if !sh.Closed || len(sh.Points) != 2 {
		t.Fatalf("circle shape = %+v", sh)
	}
	if !sh.Valid() {
		t.Error("circle must be valid for extrusion via its sampled ring")
	}
	ring := sh.ProfilePoints(16)
	if len(ring) != 16 {
		t.Fatalf("ring points = %d, want 16", len(ring))
	}
	center := sh.Points[0].Position
	for i, p := range ring {
		if r := p.Distance(center); math.Abs(r-1) > 1e-9 {
			t.Errorf("ring point %d radius = %v, want 1", i, r)
		}
	}
}

func TestPolygonFinish(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolPolygon)

	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(1, 0))
	mustPick(t, s, dropRay(0, 1))
	if s.State() != StateDrawing {
		t.Fatalf("state = %v, want drawing", s.State())
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	shapes := s.Shapes()
	if len(shapes) != 1 || !shapes[0].Closed || len(shapes[0].Points) != 3 {
		t.Fatalf("polygon shapes = %+v", shapes)
	}
}

func TestPolygonFinishTooFewPoints(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolPolygon)

	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(1, 0))
	if err := s.Finish(); !errors.Is(err, ErrNotEnoughPoints) {
		t.Fatalf("Finish() error = %v, want ErrNotEnoughPoints", err)
	}
	if len(s.Shapes()) != 0 {
		t.Error("unfinished polygon must be discarded, not committed")
	}
}

func TestSplineFinishOpenAndClosed(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		s := newTestSession()
		s.SetTool(ToolSpline)
		mustPick(t, s, dropRay(0, 0))
		mustPick(t, s, dropRay(1, 0))
		mustPick(t, s, dropRay(2, 1))
		if err := s.Finish(); err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		if sh := s.Shapes()[0]; sh.Closed {
			t.Error("plain finish must leave the spline open")
		}
	})
	t.Run("closed", func(t *testing.T) {
		s := newTestSession()
		s.SetTool(ToolSpline)
		mustPick(t, s, dropRay(0, 0))
		mustPick(t, s, dropRay(1, 0))
		mustPick(t, s, dropRay(2, 1))
		if err := s.FinishClosed(); err != nil {
			t.Fatalf("FinishClosed() error = %v", err)
		}
		if sh := s.Shapes()[0]; !sh.Closed {
			t.Error("FinishClosed must close the spline")
		}
	})
}

func TestSnapping(t *testing.T) {
	s := NewSession(nil)
	s.SetTool(ToolLine)
	s.SetSnap(true)
	s.SetGridSize(0.5)

	mustPick(t, s, dropRay(0.25, 0.12))
	mustPick(t, s, dropRay(1.1, 0.9))

	wp := s.Workplane()
	for _, sh := range s.Shapes() {
		for _, p := range sh.Points {
			l := wp.ToLocal(p.Position)
			for _, c := range []float64{l.X, l.Y} {
				mult := c / 0.5
				if math.Abs(mult-math.Round(mult)) > 1e-9 {
					t.Errorf("coordinate %v not on 0.5 grid", c)
				}
			}
		}
	}
}

func TestToolSwitchDiscardsInProgress(t *testing.T) {
	s := newTestSession()
	sink := &recordSink{}
	s.SetPreviewSink(sink)
	s.SetTool(ToolPolygon)

	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(1, 0))
	s.SetTool(ToolLine)

	if len(s.Shapes()) != 0 {
		t.Error("tool switch must discard the in-progress shape")
	}
	if s.State() != StateWorkplaneActive {
		t.Errorf("state = %v, want workplane-active", s.State())
	}
	if sink.cleared == 0 {
		t.Error("preview must be cleared on discard")
	}
}

func TestModeSwitchDropsWorkplane(t *testing.T) {
	s := newTestSession()
	mustPick(t, s, dropRay(0, 0))
	if s.Workplane() == nil {
		t.Fatal("expected workplane after first pick")
	}
	s.SetMode(workplane.ModeFree)
	if s.Workplane() != nil {
		t.Error("mode switch must drop the workplane")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestClear(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolLine)
	mustPick(t, s, dropRay(0, 0))
	mustPick(t, s, dropRay(1, 0))
	s.Clear()
	if len(s.Shapes()) != 0 || s.Workplane() != nil || s.State() != StateIdle {
		t.Error("Clear must reset shapes, workplane and state")
	}
}

func TestSurfaceModeRequiresHit(t *testing.T) {
	square := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
	s := NewSession(func() []*kernel.Mesh { return []*kernel.Mesh{square} })
	s.SetSnap(false)
	s.SetMode(workplane.ModeSurface)

	if err := s.PointerDown(dropRay(5, 5), testCam); !errors.Is(err, ErrNoWorkplane) {
		t.Fatalf("miss error = %v, want ErrNoWorkplane", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state after miss = %v, want idle", s.State())
	}

	if err := s.PointerDown(dropRay(0.5, 0.5), testCam); err != nil {
		t.Fatalf("hit error = %v", err)
	}
	if s.Workplane() == nil {
		t.Fatal("expected workplane from surface hit")
	}
	sh := currentPoints(s)
	if len(sh) != 1 || !sh[0].OnSurface || sh[0].SurfaceNormal == nil {
		t.Errorf("surface pick metadata = %+v", sh)
	}
}

func TestPointerMoveUpdatesPreview(t *testing.T) {
	s := newTestSession()
	sink := &recordSink{}
	s.SetPreviewSink(sink)
	s.SetTool(ToolLine)

	s.PointerMove(dropRay(1, 1)) // not drawing yet: no preview
	if sink.previews != 0 {
		t.Error("preview emitted before drawing started")
	}
	mustPick(t, s, dropRay(0, 0))
	s.PointerMove(dropRay(1, 1))
	s.PointerMove(dropRay(2, 1))
	if sink.previews != 2 {
		t.Errorf("previews = %d, want 2", sink.previews)
	}
}

func TestPointIDsUnique(t *testing.T) {
	s := newTestSession()
	s.SetTool(ToolPolygon)
	for i := 0; i < 5; i++ {
		mustPick(t, s, dropRay(float64(i), float64(i%2)))
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	seen := map[string]bool{}
	for _, sh := range s.Shapes() {
		if seen[sh.ID] {
			t.Errorf("duplicate shape id %s", sh.ID)
		}
		seen[sh.ID] = true
		for _, p := range sh.Points {
			if seen[p.ID] {
				t.Errorf("duplicate point id %s", p.ID)
			}
			seen[p.ID] = true
		}
	}
}

func mustPick(t *testing.T, s *Session, ray geom.Ray) {
	t.Helper()
	if err := s.PointerDown(ray, testCam); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
}

func currentPoints(s *Session) []Point {
	if s.current == nil {
		return nil
	}
	return s.current.Points
}
