package sketch

import (
	"errors"

	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/workplane"
)

// ErrNoWorkplane is returned when a pick cannot acquire or reach a
// workplane. The operation is a no-op; the caller may retry.
var ErrNoWorkplane = errors.New("no workplane")

// ErrNotEnoughPoints is returned by Finish when the in-progress shape
// has too few points to close.
var ErrNotEnoughPoints = errors.New("not enough points to finish shape")

// State enumerates the capture state machine states.
type State int

const (
	StateIdle State = iota
	StateWorkplaneActive
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWorkplaneActive:
		return "workplane-active"
	case StateDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Camera carries the view state needed for plane-mode acquisition.
type Camera struct {
	Position geom.Vec3
	Forward  geom.Vec3
}

// PlaneDistance is the fixed offset along the camera forward direction
// used for plane-mode workplane acquisition.
const PlaneDistance = 5.0

// PreviewSink receives visual side effects from the session. The
// geometry kernel never touches the scene graph directly; a thin
// adapter implements this interface on top of the renderer.
type PreviewSink interface {
	// ShapeCommitted is called once per completed shape.
	ShapeCommitted(s Shape)
	// PreviewChanged replaces the transient in-progress preview.
	PreviewChanged(points []geom.Vec3, closed bool)
	// PreviewCleared discards the transient preview.
	PreviewCleared()
}

// nopSink is used when no preview sink is attached.
type nopSink struct{}

func (nopSink) ShapeCommitted(Shape) {}

func (nopSink) PreviewChanged([]geom.Vec3, bool) {}

func (nopSink) PreviewCleared() {}

// splinePreviewSamples is the per-span sampling density for spline
// previews and closed-spline profiles.
const splinePreviewSamples = 8

// Session is the sketch capture state machine. It is driven by
// serialized pointer events and is not safe for concurrent use.
type Session struct {
	state State
	tool  Tool
	mode  workplane.Mode

	gridSize  float64
	snap      bool
	showPlane bool

	plane   *workplane.Workplane
	shapes  []Shape
	current *Shape

	// solids returns the pickable solid meshes for surface-mode
	// acquisition. Sketch helper geometry is never included.
	solids func() []*kernel.Mesh

	sink PreviewSink
}

// NewSession creates an idle session. solids may be nil when surface
// mode is never used.
func NewSession(solids func() []*kernel.Mesh) *Session {
	return &Session{
		tool:     ToolLine,
		mode:     workplane.ModePlane,
		gridSize: 0.25,
		snap:     true,
		solids:   solids,
		sink:     nopSink{},
	}
}

// SetPreviewSink attaches the renderer adapter. A nil sink detaches.
func (s *Session) SetPreviewSink(sink PreviewSink) {
	if sink == nil {
		s.sink = nopSink{}
		return
	}
	s.sink = sink
}

// State returns the current machine state.
func (s *Session) State() State { return s.state }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// Mode returns the active sketch mode.
func (s *Session) Mode() workplane.Mode { return s.mode }

// Workplane returns the active workplane, or nil before acquisition.
func (s *Session) Workplane() *workplane.Workplane { return s.plane }

// GridSize returns the snapping grid spacing.
func (s *Session) GridSize() float64 { return s.gridSize }

// SetTool switches the active tool, discarding any in-progress shape.
func (s *Session) SetTool(t Tool) {
	s.tool = t
	s.discardCurrent()
}

// SetMode switches the sketch mode. The workplane belongs to the mode,
// so it is discarded along with any in-progress shape.
func (s *Session) SetMode(m workplane.Mode) {
	s.mode = m
	s.discardCurrent()
	s.plane = nil
	s.state = StateIdle
}

// SetGridSize updates the snapping grid spacing; it takes effect on the
// next pick.
func (s *Session) SetGridSize(g float64) {
	if g > 0 {
		s.gridSize = g
	}
}

// SetSnap toggles snap-to-grid.
func (s *Session) SetSnap(on bool) { s.snap = on }

// SetWorkplaneVisible toggles workplane visibility. The flag is a
// renderer concern the session merely stores.
func (s *Session) SetWorkplaneVisible(on bool) { s.showPlane = on }

// WorkplaneVisible reports the stored visibility flag.
func (s *Session) WorkplaneVisible() bool { return s.showPlane }

// Shapes returns a copy of the completed shape list.
func (s *Session) Shapes() []Shape {
	return append([]Shape(nil), s.shapes...)
}

// Clear discards all completed shapes, the in-progress shape, and the
// workplane, returning the session to idle.
func (s *Session) Clear() {
	s.discardCurrent()
	s.shapes = nil
	s.plane = nil
	s.state = StateIdle
}

// PointerDown processes a pick. The workplane is acquired lazily on the
// first pick according to the active mode; ErrNoWorkplane is returned
// when acquisition or the plane intersection fails (a no-op, retryable).
func (s *Session) PointerDown(ray geom.Ray, cam Camera) error {
	if err := s.ensureWorkplane(ray, cam); err != nil {
		return err
	}
	p, ok := s.plane.IntersectRay(ray)
	if !ok {
		return ErrNoWorkplane
	}
	if s.snap {
		p = s.plane.Snap(p, s.gridSize)
	}

	pt := Point{ID: newID(), Position: p}
	if s.mode == workplane.ModeSurface {
		pt.OnSurface = true
		n := s.plane.Normal
		pt.SurfaceNormal = &n
	}

	s.appendPick(pt)
	return nil
}

// PointerMove updates the transient preview while drawing. It never
// mutates the in-progress shape.
func (s *Session) PointerMove(ray geom.Ray) {
	if s.state != StateDrawing || s.current == nil || s.plane == nil {
		return
	}
	hover, ok := s.plane.IntersectRay(ray)
	if !ok {
		return
	}
	if s.snap {
		hover = s.plane.Snap(hover, s.gridSize)
	}
	s.sink.PreviewChanged(s.previewPoints(hover), s.current.Type == ToolRectangle || s.current.Type == ToolCircle)
}

// Finish completes the in-progress polygon or spline. Polygons close;
// splines stay open. Two-pick tools complete on their second pick and
// have nothing to finish.
func (s *Session) Finish() error {
	return s.finish(false)
}

// FinishClosed completes the in-progress spline as a closed loop, or a
// polygon as usual.
func (s *Session) FinishClosed() error {
	return s.finish(true)
}

func (s *Session) finish(closeSpline bool) error {
	if s.current == nil {
		return nil
	}
	sh := s.current
	switch sh.Type {
	case ToolPolygon:
		if len(sh.Points) < 3 {
			s.discardCurrent()
			return ErrNotEnoughPoints
		}
		sh.Closed = true
	case ToolSpline:
		if len(sh.Points) < 2 {
			s.discardCurrent()
			return ErrNotEnoughPoints
		}
		sh.Closed = closeSpline
	default:
		// Two-pick tools never have an unfinished shape here.
		s.discardCurrent()
		return nil
	}
	s.commit(*sh)
	return nil
}

// ensureWorkplane acquires the workplane on first use.
func (s *Session) ensureWorkplane(ray geom.Ray, cam Camera) error {
	if s.plane != nil {
		return nil
	}
	switch s.mode {
	case workplane.ModeSurface:
		wp, ok := workplane.FromSurface(ray, s.pickable())
		if !ok {
			return ErrNoWorkplane
		}
		s.plane = wp
	case workplane.ModePlane:
		s.plane = workplane.FromView(cam.Position, cam.Forward, PlaneDistance)
	case workplane.ModeFree:
		// Free mode constrains nothing: prefer a surface under the
		// cursor, fall back to a camera-facing plane.
		if wp, ok := workplane.FromSurface(ray, s.pickable()); ok {
			s.plane = wp
		} else {
			s.plane = workplane.FromView(cam.Position, cam.Forward, PlaneDistance)
		}
	}
	s.state = StateWorkplaneActive
	return nil
}

func (s *Session) pickable() []*kernel.Mesh {
	if s.solids == nil {
		return nil
	}
	return s.solids()
}

// appendPick routes a snapped pick into the in-progress shape.
func (s *Session) appendPick(pt Point) {
	if s.current == nil {
		s.current = &Shape{
			ID:          newID(),
			Type:        s.tool,
			Points:      []Point{pt},
			PlaneNormal: s.plane.Normal,
		}
		s.state = StateDrawing
		return
	}

	sh := s.current
	sh.Points = append(sh.Points, pt)
	if !sh.Type.twoPick() {
		return
	}

	// Second pick completes line, rectangle and circle.
	switch sh.Type {
	case ToolRectangle:
		sh.Points = s.rectangleCorners(sh.Points[0], sh.Points[1])
		sh.Closed = true
	case ToolCircle:
		sh.Closed = true
	case ToolLine:
		sh.Closed = false
	}
	s.commit(*sh)
}

// rectangleCorners expands two opposite corners into the four corners
// of an axis-aligned rectangle in workplane-local space.
func (s *Session) rectangleCorners(a, b Point) []Point {
	la := s.plane.ToLocal(a.Position)
	lb := s.plane.ToLocal(b.Position)
	corners := []geom.Vec2{
		{X: la.X, Y: la.Y},
		{X: lb.X, Y: la.Y},
		{X: lb.X, Y: lb.Y},
		{X: la.X, Y: lb.Y},
	}
	pts := make([]Point, 4)
	for i, c := range corners {
		pts[i] = Point{
			ID:            newID(),
			Position:      s.plane.ToWorld(c),
			OnSurface:     a.OnSurface,
			SurfaceNormal: a.SurfaceNormal,
		}
	}
	return pts
}

// commit appends a completed shape, clears the transient preview, and
// notifies the sink.
func (s *Session) commit(sh Shape) {
	s.shapes = append(s.shapes, sh)
	s.current = nil
	s.state = StateWorkplaneActive
	s.sink.PreviewCleared()
	s.sink.ShapeCommitted(sh)
}

// discardCurrent drops the in-progress shape without committing it.
func (s *Session) discardCurrent() {
	if s.current == nil {
		return
	}
	s.current = nil
	s.sink.PreviewCleared()
	if s.plane != nil {
		s.state = StateWorkplaneActive
	} else {
		s.state = StateIdle
	}
}

// previewPoints builds the transient preview polyline for the current
// shape plus a hover point.
func (s *Session) previewPoints(hover geom.Vec3) []geom.Vec3 {
	sh := s.current
	switch sh.Type {
	case ToolRectangle:
		la := s.plane.ToLocal(sh.Points[0].Position)
		lb := s.plane.ToLocal(hover)
		return []geom.Vec3{
			s.plane.ToWorld(geom.Vec2{X: la.X, Y: la.Y}),
			s.plane.ToWorld(geom.Vec2{X: lb.X, Y: la.Y}),
			s.plane.ToWorld(geom.Vec2{X: lb.X, Y: lb.Y}),
			s.plane.ToWorld(geom.Vec2{X: la.X, Y: lb.Y}),
		}
	case ToolCircle:
		return circleRing(sh.Points[0].Position, hover, s.plane.Normal, 32)
	case ToolSpline:
		ctrl := append(sh.Positions(), hover)
		return SampleSpline(ctrl, false, splinePreviewSamples)
	default:
		return append(sh.Positions(), hover)
	}
}
