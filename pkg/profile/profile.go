// Package profile flattens approximately coplanar 3D point loops into
// closed 2D profiles and lifts extruded results back to world space.
package profile

import (
	"errors"
	"fmt"
	"math"

	"github.com/chisel-cad/chisel/pkg/geom"
)

// ErrDegenerate is returned when no valid normal can be estimated
// because the input points are collinear (or there are too few).
var ErrDegenerate = errors.New("degenerate profile: points are collinear")

// ErrNonPlanar is returned when a point's out-of-plane residual exceeds
// the configured tolerance.
var ErrNonPlanar = errors.New("profile points deviate from the fitted plane")

// normalEps is the minimum squared cross-product length for a point
// triple to define the profile normal.
const normalEps = 1e-6

// Options controls flattening behavior.
type Options struct {
	// PlanarTolerance is the maximum allowed out-of-plane residual per
	// point. Zero disables the check and silently discards residuals.
	PlanarTolerance float64
}

// Profile is a closed 2D polygon in a local plane frame. Points are in
// input order; the loop implicitly closes back to the first point.
type Profile struct {
	Origin geom.Vec3
	Normal geom.Vec3
	U      geom.Vec3
	V      geom.Vec3
	Points []geom.Vec2

	// MaxResidual is the largest out-of-plane deviation seen while
	// projecting, useful for diagnostics even when tolerance is off.
	MaxResidual float64
}

// Flatten projects an ordered loop of at least 3 approximately coplanar
// points into a 2D profile with default options.
func Flatten(points []geom.Vec3) (*Profile, error) {
	return FlattenWith(points, Options{})
}

// FlattenWith projects an ordered loop of points into a 2D profile.
//
// The normal is estimated from the first consecutive point triple
// (p0, pi, pi+1) whose cross product is long enough to be stable; if no
// triple qualifies the input is collinear and ErrDegenerate is
// returned. The local basis is U = normalize(p1-p0), V = N×U.
func FlattenWith(points []geom.Vec3, opts Options) (*Profile, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("need at least 3 points, got %d: %w", len(points), ErrDegenerate)
	}

	n, err := EstimateNormal(points)
	if err != nil {
		return nil, err
	}

	origin := points[0]
	u := points[1].Sub(origin).Normalize()
	v := n.Cross(u)

	p := &Profile{Origin: origin, Normal: n, U: u, V: v,
		Points: make([]geom.Vec2, len(points))}
	for i, pt := range points {
		d := pt.Sub(origin)
		p.Points[i] = geom.Vec2{X: d.Dot(u), Y: d.Dot(v)}
		residual := math.Abs(d.Dot(n))
		if residual > p.MaxResidual {
			p.MaxResidual = residual
		}
	}
	if opts.PlanarTolerance > 0 && p.MaxResidual > opts.PlanarTolerance {
		return nil, fmt.Errorf("max residual %g exceeds tolerance %g: %w",
			p.MaxResidual, opts.PlanarTolerance, ErrNonPlanar)
	}
	return p, nil
}

// EstimateNormal scans consecutive triples (p0, pi, pi+1) for the first
// cross product of squared length above normalEps and returns it
// normalized. Collinear input yields ErrDegenerate.
func EstimateNormal(points []geom.Vec3) (geom.Vec3, error) {
	p0 := points[0]
	for i := 1; i+1 < len(points); i++ {
		cross := points[i].Sub(p0).Cross(points[i+1].Sub(p0))
		if cross.LengthSq() > normalEps {
			return cross.Normalize(), nil
		}
	}
	return geom.Vec3{}, ErrDegenerate
}

// To3D lifts a local 2D point at the given extrusion depth back to
// world space: origin + x·U + y·V + depth·N. This is the rigid inverse
// of the projection, not a re-fit.
func (p *Profile) To3D(x, y, depth float64) geom.Vec3 {
	return p.Origin.
		Add(p.U.Scale(x)).
		Add(p.V.Scale(y)).
		Add(p.Normal.Scale(depth))
}

// SignedArea returns the signed area of the profile polygon; positive
// means counter-clockwise in the (U, V) frame.
func (p *Profile) SignedArea() float64 {
	area := 0.0
	n := len(p.Points)
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

// EnsureCCW reverses the point order in place if the polygon winds
// clockwise, so cap triangulation and wall winding stay consistent.
func (p *Profile) EnsureCCW() {
	if p.SignedArea() >= 0 {
		return
	}
	for i, j := 0, len(p.Points)-1; i < j; i, j = i+1, j-1 {
		p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
	}
}
