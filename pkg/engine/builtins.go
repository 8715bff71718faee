package engine

import (
	"fmt"
	"strings"

	"github.com/chisel-cad/chisel/pkg/extrude"
	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/offset"
	"github.com/chisel-cad/chisel/pkg/sketch"
	"github.com/chisel-cad/chisel/pkg/workplane"
	zygo "github.com/glycerine/zygomys/zygo"
)

// evalContext is the mutable state one script evaluation builds up:
// the active workplane, the pending sketch shapes, every mesh the
// script has produced so far, and any non-fatal warnings.
type evalContext struct {
	kernel   kernel.Kernel
	plane    *workplane.Workplane
	shapes   []sketch.Shape
	meshes   []*kernel.Mesh
	warnings []string
}

func newEvalContext(k kernel.Kernel) *evalContext {
	return &evalContext{
		kernel: k,
		// Scripts start on the world XY plane at the origin.
		plane: workplane.New(geom.Vec3{}, geom.Vec3{Z: 1}),
	}
}

// addMesh appends a produced mesh and returns its script handle.
func (c *evalContext) addMesh(m *kernel.Mesh) *sexpMesh {
	c.meshes = append(c.meshes, m)
	return &sexpMesh{mesh: m}
}

// lift places workplane-local 2D points onto the active plane.
func (c *evalContext) lift(pts []geom.Vec2) []sketch.Point {
	out := make([]sketch.Point, len(pts))
	for i, p := range pts {
		out[i] = sketch.NewPoint(c.plane.ToWorld(p))
	}
	return out
}

// ---------------------------------------------------------------------------
// Sexp wrappers for Go values passed between builtins
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a workplane-local 2D point.
type sexpVec2 struct {
	vec geom.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps a produced mesh so offset builtins can reference it.
type sexpMesh struct {
	mesh *kernel.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %d-verts %d-tris)", m.mesh.VertexCount(), m.mesh.TriangleCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// kwArgs splits builtin arguments into :keyword values and positionals.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	out := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		if name, ok := isKW(args[i]); ok {
			if i+1 < len(args) {
				out.kw[name] = args[i+1]
				i += 2
			} else {
				out.kw[name] = zygo.SexpNull
				i++
			}
			continue
		}
		out.positional = append(out.positional, args[i])
		i++
	}
	return out
}

// isKW recognizes the preprocessed "__kw_name" string form.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, kwPrefix), true
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", s)
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", s)
}

func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected a bool, got %T", s)
}

func toString(s zygo.Sexp) (string, error) {
	if v, ok := s.(*zygo.SexpStr); ok {
		return v.S, nil
	}
	return "", fmt.Errorf("expected a string, got %T", s)
}

func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected a vec3, got %T", s)
}

func toVec2(s zygo.Sexp) (geom.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return geom.Vec2{}, fmt.Errorf("expected a vec2, got %T", s)
}

func toMesh(s zygo.Sexp) (*kernel.Mesh, error) {
	if v, ok := s.(*sexpMesh); ok {
		return v.mesh, nil
	}
	return nil, fmt.Errorf("expected a mesh, got %T", s)
}

func toVec2Slice(args []zygo.Sexp) ([]geom.Vec2, error) {
	out := make([]geom.Vec2, len(args))
	for i, a := range args {
		v, err := toVec2(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// extrudeSettings reads extrusion keywords, starting from a preset if
// :preset is given.
func extrudeSettings(pa kwArgs) (extrude.Settings, error) {
	set := extrude.Preset("simple")
	if v, ok := pa.kw["preset"]; ok {
		name, err := toString(v)
		if err != nil {
			return set, fmt.Errorf("preset: %w", err)
		}
		set = extrude.Preset(name)
	}
	if v, ok := pa.kw["depth"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return set, fmt.Errorf("depth: %w", err)
		}
		set.Depth = f
	}
	if v, ok := pa.kw["bevel"]; ok {
		b, err := toBool(v)
		if err != nil {
			return set, fmt.Errorf("bevel: %w", err)
		}
		set.BevelEnabled = b
	}
	if v, ok := pa.kw["thickness"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return set, fmt.Errorf("thickness: %w", err)
		}
		set.BevelThickness = f
	}
	if v, ok := pa.kw["size"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return set, fmt.Errorf("size: %w", err)
		}
		set.BevelSize = f
	}
	if v, ok := pa.kw["segments"]; ok {
		n, err := toInt(v)
		if err != nil {
			return set, fmt.Errorf("segments: %w", err)
		}
		set.BevelSegments = n
	}
	if set.Depth <= 0 {
		return set, fmt.Errorf("depth must be positive, got %g", set.Depth)
	}
	return set, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the modeling DSL into a zygomys
// environment. Source must be preprocessed first so :keyword tokens
// arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, ctx *evalContext) {

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i := range c {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (vec2 x y) — a point in workplane-local coordinates
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: geom.Vec2{X: x, Y: y}}, nil
	})

	// (workplane :origin (vec3 0 0 0) :normal (vec3 0 0 1))
	env.AddFunction("workplane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		origin := geom.Vec3{}
		normal := geom.Vec3{Z: 1}
		if v, ok := pa.kw["origin"]; ok {
			o, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("workplane: origin: %w", err)
			}
			origin = o
		}
		if v, ok := pa.kw["normal"]; ok {
			n, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("workplane: normal: %w", err)
			}
			if n.LengthSq() < geom.Epsilon {
				return zygo.SexpNull, fmt.Errorf("workplane: normal must be non-zero")
			}
			normal = n
		}
		ctx.plane = workplane.New(origin, normal)
		return zygo.SexpNull, nil
	})

	// (line (vec2 0 0) (vec2 1 0))
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pts, err := toVec2Slice(args)
		if err != nil || len(pts) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires 2 vec2 points")
		}
		sh := sketch.NewShape(sketch.ToolLine, ctx.lift(pts), false, ctx.plane.Normal)
		ctx.shapes = append(ctx.shapes, sh)
		return zygo.SexpNull, nil
	})

	// (rect (vec2 0 0) (vec2 2 1)) — opposite corners
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pts, err := toVec2Slice(args)
		if err != nil || len(pts) != 2 {
			return zygo.SexpNull, fmt.Errorf("rect requires 2 vec2 corners")
		}
		a, b := pts[0], pts[1]
		corners := []geom.Vec2{a, {X: b.X, Y: a.Y}, b, {X: a.X, Y: b.Y}}
		sh := sketch.NewShape(sketch.ToolRectangle, ctx.lift(corners), true, ctx.plane.Normal)
		ctx.shapes = append(ctx.shapes, sh)
		return zygo.SexpNull, nil
	})

	// (circle (vec2 0 0) 1.5) — center and radius
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("circle requires a vec2 center and a radius")
		}
		center, err := toVec2(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: center: %w", err)
		}
		radius, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("circle: radius must be positive")
		}
		edge := geom.Vec2{X: center.X + radius, Y: center.Y}
		sh := sketch.NewShape(sketch.ToolCircle, ctx.lift([]geom.Vec2{center, edge}), true, ctx.plane.Normal)
		ctx.shapes = append(ctx.shapes, sh)
		return zygo.SexpNull, nil
	})

	// (polygon (vec2 ...) (vec2 ...) (vec2 ...) ...)
	env.AddFunction("polygon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pts, err := toVec2Slice(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polygon: %w", err)
		}
		if len(pts) < 3 {
			return zygo.SexpNull, fmt.Errorf("polygon requires at least 3 points, got %d", len(pts))
		}
		sh := sketch.NewShape(sketch.ToolPolygon, ctx.lift(pts), true, ctx.plane.Normal)
		ctx.shapes = append(ctx.shapes, sh)
		return zygo.SexpNull, nil
	})

	// (spline :closed true (vec2 ...) (vec2 ...) ...)
	env.AddFunction("spline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		closed := false
		if v, ok := pa.kw["closed"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("spline: closed: %w", err)
			}
			closed = b
		}
		pts, err := toVec2Slice(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("spline: %w", err)
		}
		if len(pts) < 2 {
			return zygo.SexpNull, fmt.Errorf("spline requires at least 2 control points")
		}
		sh := sketch.NewShape(sketch.ToolSpline, ctx.lift(pts), closed, ctx.plane.Normal)
		ctx.shapes = append(ctx.shapes, sh)
		return zygo.SexpNull, nil
	})

	// (extrude :depth 1 :bevel true :thickness 0.1 :size 0.1 :segments 3)
	// (extrude :preset "beveled")
	// Consumes the pending shapes and produces one merged mesh.
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		set, err := extrudeSettings(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		mesh, skips := extrude.Extrude(ctx.shapes, set)
		for _, s := range skips {
			ctx.warnings = append(ctx.warnings, fmt.Sprintf("shape %s skipped: %s", s.ShapeID, s.Reason))
		}
		ctx.shapes = nil
		return ctx.addMesh(mesh), nil
	})

	// (box 1 2 3)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires 3 dimensions")
		}
		var d [3]float64
		for i := range d {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			d[i] = f
		}
		mesh, err := ctx.kernel.ToMesh(ctx.kernel.Box(d[0], d[1], d[2]))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return ctx.addMesh(mesh), nil
	})

	// (cylinder height radius)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires height and radius")
		}
		h, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		mesh, err := ctx.kernel.ToMesh(ctx.kernel.Cylinder(h, r, 32))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return ctx.addMesh(mesh), nil
	})

	// (offset-body m 0.1)
	env.AddFunction("offset_body", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("offset-body requires a mesh and a distance")
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-body: %w", err)
		}
		d, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-body: distance: %w", err)
		}
		out, err := offset.Body(m, d)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-body: %w", err)
		}
		return ctx.addMesh(out), nil
	})

	// (offset-face m 4 0.1)
	env.AddFunction("offset_face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("offset-face requires a mesh, a face index and a distance")
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-face: %w", err)
		}
		face, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-face: face: %w", err)
		}
		d, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-face: distance: %w", err)
		}
		out, err := offset.Face(m, face, d)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset-face: %w", err)
		}
		return ctx.addMesh(out), nil
	})
}
