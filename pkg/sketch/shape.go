// Package sketch turns serialized pointer picks into ordered 3D point
// sequences (shapes) on an active workplane. The session state machine
// owns the workplane and the in-progress shape; completed shapes
// accumulate until cleared or consumed by extrusion.
package sketch

import (
	"math"

	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/google/uuid"
)

// Tool enumerates the sketch tools.
type Tool int

const (
	ToolLine Tool = iota
	ToolRectangle
	ToolCircle
	ToolPolygon
	ToolSpline
)

func (t Tool) String() string {
	switch t {
	case ToolLine:
		return "line"
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolPolygon:
		return "polygon"
	case ToolSpline:
		return "spline"
	default:
		return "unknown"
	}
}

// twoPick reports whether the tool completes on its second pick.
func (t Tool) twoPick() bool {
	return t == ToolLine || t == ToolRectangle || t == ToolCircle
}

// Point is a single pick on the workplane. Immutable once appended.
type Point struct {
	ID            string     `json:"id"`
	Position      geom.Vec3  `json:"position"`
	OnSurface     bool       `json:"onSurface"`
	SurfaceNormal *geom.Vec3 `json:"surfaceNormal,omitempty"`
}

// Shape is an ordered sequence of sketch points.
//
// PlaneNormal is the workplane normal captured at commit time; circle
// and spline sampling needs it to reconstruct the drawing plane.
type Shape struct {
	ID          string    `json:"id"`
	Type        Tool      `json:"type"`
	Points      []Point   `json:"points"`
	Closed      bool      `json:"closed"`
	PlaneNormal geom.Vec3 `json:"planeNormal"`
}

// newID allocates a session-unique identifier.
func newID() string {
	return uuid.NewString()
}

// NewPoint creates a sketch point with a fresh identifier. Used by
// callers that build shapes programmatically instead of through the
// interactive session.
func NewPoint(pos geom.Vec3) Point {
	return Point{ID: newID(), Position: pos}
}

// NewShape creates a completed shape with a fresh identifier.
func NewShape(t Tool, points []Point, closed bool, planeNormal geom.Vec3) Shape {
	return Shape{
		ID:          newID(),
		Type:        t,
		Points:      points,
		Closed:      closed,
		PlaneNormal: planeNormal,
	}
}

// Valid reports whether the shape can be used as an extrusion profile:
// it must be closed with at least 3 profile points. Circles pass via
// their sampled ring.
func (s *Shape) Valid() bool {
	if !s.Closed {
		return false
	}
	if s.Type == ToolCircle {
		return len(s.Points) == 2
	}
	return len(s.Points) >= 3
}

// Positions returns the raw point positions in order.
func (s *Shape) Positions() []geom.Vec3 {
	out := make([]geom.Vec3, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Position
	}
	return out
}

// ProfilePoints returns the 3D loop used as the extrusion profile.
// Circles are sampled into a ring of `segments` points around the
// center; closed splines are interpolated with a Catmull-Rom curve;
// every other shape returns its raw positions.
func (s *Shape) ProfilePoints(segments int) []geom.Vec3 {
	switch s.Type {
	case ToolCircle:
		if len(s.Points) != 2 {
			return s.Positions()
		}
		return circleRing(s.Points[0].Position, s.Points[1].Position, s.PlaneNormal, segments)
	case ToolSpline:
		if !s.Closed || len(s.Points) < 3 {
			return s.Positions()
		}
		return SampleSpline(s.Positions(), true, segments)
	default:
		return s.Positions()
	}
}

// circleRing samples a circle lying in the plane with the given normal,
// defined by a center point and a point on the rim.
func circleRing(center, edge, normal geom.Vec3, segments int) []geom.Vec3 {
	if segments < 3 {
		segments = 3
	}
	n := normal.Normalize()
	u, v := geom.PlaneBasis(n)
	radius := edge.Sub(center).Length()
	ring := make([]geom.Vec3, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = center.
			Add(u.Scale(radius * math.Cos(a))).
			Add(v.Scale(radius * math.Sin(a)))
	}
	return ring
}

// SampleSpline interpolates control points with a centripetal-free
// (uniform) Catmull-Rom curve, returning samplesPerSpan points per
// control span. Closed curves wrap around; open curves clamp the end
// tangents by repeating the boundary points.
func SampleSpline(ctrl []geom.Vec3, closed bool, samplesPerSpan int) []geom.Vec3 {
	if len(ctrl) < 2 {
		return append([]geom.Vec3(nil), ctrl...)
	}
	if samplesPerSpan < 1 {
		samplesPerSpan = 1
	}
	at := func(i int) geom.Vec3 {
		n := len(ctrl)
		if closed {
			return ctrl[((i%n)+n)%n]
		}
		if i < 0 {
			return ctrl[0]
		}
		if i >= n {
			return ctrl[n-1]
		}
		return ctrl[i]
	}

	spans := len(ctrl) - 1
	if closed {
		spans = len(ctrl)
	}
	var out []geom.Vec3
	for s := 0; s < spans; s++ {
		p0, p1, p2, p3 := at(s-1), at(s), at(s+1), at(s+2)
		for k := 0; k < samplesPerSpan; k++ {
			t := float64(k) / float64(samplesPerSpan)
			out = append(out, catmullRom(p0, p1, p2, p3, t))
		}
	}
	if !closed {
		out = append(out, ctrl[len(ctrl)-1])
	}
	return out
}

// catmullRom evaluates the uniform Catmull-Rom basis at t in [0,1].
func catmullRom(p0, p1, p2, p3 geom.Vec3, t float64) geom.Vec3 {
	t2 := t * t
	t3 := t2 * t
	v := p1.Scale(2).
		Add(p2.Sub(p0).Scale(t)).
		Add(p0.Scale(2).Sub(p1.Scale(5)).Add(p2.Scale(4)).Sub(p3).Scale(t2)).
		Add(p1.Scale(3).Sub(p0).Sub(p2.Scale(3)).Add(p3).Scale(t3))
	return v.Scale(0.5)
}
