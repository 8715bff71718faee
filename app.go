package main

import (
	"context"
	"fmt"
	"log"

	"github.com/chisel-cad/chisel/pkg/engine"
	"github.com/chisel-cad/chisel/pkg/extrude"
	"github.com/chisel-cad/chisel/pkg/geom"
	"github.com/chisel-cad/chisel/pkg/kernel"
	"github.com/chisel-cad/chisel/pkg/offset"
	"github.com/chisel-cad/chisel/pkg/sketch"
	"github.com/chisel-cad/chisel/pkg/workplane"
)

// colorPalette assigns distinct colors to solids. Color is a frontend
// concern; the geometry kernel never sees it.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It owns the sketch session, the produced
// solids, and the scripting engine, and exposes typed methods to the
// frontend via bindings.
type App struct {
	ctx     context.Context
	session *sketch.Session
	engine  *engine.Engine
	solids  []*kernel.Mesh

	preview        []geom.Vec3
	previewClosed  bool
	previewPresent bool
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	Min      [3]float32 `json:"min"`
	Max      [3]float32 `json:"max"`
	Name     string     `json:"name"`
	Color    string     `json:"color"`
}

// SolidResult is returned by every operation that produces a solid.
type SolidResult struct {
	Mesh     MeshData `json:"mesh"`
	Warnings []string `json:"warnings"`
}

// PreviewData is the transient in-progress sketch preview.
type PreviewData struct {
	Points  []geom.Vec3 `json:"points"`
	Closed  bool        `json:"closed"`
	Present bool        `json:"present"`
}

// EvalErrorData is a JSON-serializable script error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of a script evaluation.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// NewApp creates the backend with an empty scene.
func NewApp() *App {
	a := &App{engine: engine.NewEngine()}
	a.session = sketch.NewSession(func() []*kernel.Mesh { return a.solids })
	a.session.SetPreviewSink(a)
	return a
}

// startup is called by Wails on app startup. The context is saved so
// Wails runtime methods can be called later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// --- sketch.PreviewSink ---

// ShapeCommitted is part of the preview sink; committed shapes are
// pulled by the frontend through GetShapes.
func (a *App) ShapeCommitted(sketch.Shape) {}

// PreviewChanged stores the transient preview for the frontend to poll.
func (a *App) PreviewChanged(points []geom.Vec3, closed bool) {
	a.preview = points
	a.previewClosed = closed
	a.previewPresent = true
}

// PreviewCleared discards the transient preview.
func (a *App) PreviewCleared() {
	a.preview = nil
	a.previewClosed = false
	a.previewPresent = false
}

// --- configuration bindings ---

// SetTool switches the active sketch tool, discarding any in-progress
// shape.
func (a *App) SetTool(name string) error {
	tools := map[string]sketch.Tool{
		"line":      sketch.ToolLine,
		"rectangle": sketch.ToolRectangle,
		"circle":    sketch.ToolCircle,
		"polygon":   sketch.ToolPolygon,
		"spline":    sketch.ToolSpline,
	}
	t, ok := tools[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	a.session.SetTool(t)
	return nil
}

// SetSketchMode switches the workplane acquisition mode.
func (a *App) SetSketchMode(name string) error {
	modes := map[string]workplane.Mode{
		"surface": workplane.ModeSurface,
		"plane":   workplane.ModePlane,
		"free":    workplane.ModeFree,
	}
	m, ok := modes[name]
	if !ok {
		return fmt.Errorf("unknown sketch mode %q", name)
	}
	a.session.SetMode(m)
	return nil
}

// SetGridSize updates the snapping grid spacing.
func (a *App) SetGridSize(size float64) {
	a.session.SetGridSize(size)
}

// SetSnapToGrid toggles snapping.
func (a *App) SetSnapToGrid(on bool) {
	a.session.SetSnap(on)
}

// SetWorkplaneVisible toggles workplane display.
func (a *App) SetWorkplaneVisible(on bool) {
	a.session.SetWorkplaneVisible(on)
}

// --- pointer bindings ---

// PointerDown feeds a pick ray (plus camera state for plane-mode
// acquisition) into the session. "no workplane" is a retryable status,
// not an error.
func (a *App) PointerDown(rayOrigin, rayDir, camPos, camForward [3]float64) string {
	err := a.session.PointerDown(
		geom.Ray{Origin: vec3(rayOrigin), Dir: vec3(rayDir).Normalize()},
		sketch.Camera{Position: vec3(camPos), Forward: vec3(camForward)},
	)
	if err != nil {
		return err.Error()
	}
	return ""
}

// PointerMove updates the transient preview while drawing.
func (a *App) PointerMove(rayOrigin, rayDir [3]float64) {
	a.session.PointerMove(geom.Ray{Origin: vec3(rayOrigin), Dir: vec3(rayDir).Normalize()})
}

// FinishSketch completes the in-progress polygon or spline.
func (a *App) FinishSketch(closed bool) string {
	var err error
	if closed {
		err = a.session.FinishClosed()
	} else {
		err = a.session.Finish()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ClearSketch discards all shapes and the workplane.
func (a *App) ClearSketch() {
	a.session.Clear()
}

// --- query bindings ---

// GetShapes returns the finished shapes for display and debugging.
func (a *App) GetShapes() []sketch.Shape {
	return a.session.Shapes()
}

// GetPreview returns the transient in-progress preview geometry.
func (a *App) GetPreview() PreviewData {
	return PreviewData{Points: a.preview, Closed: a.previewClosed, Present: a.previewPresent}
}

// GetPresets returns the named extrusion presets table.
func (a *App) GetPresets() map[string]extrude.Settings {
	return extrude.Presets()
}

// GetSolids returns every solid in the scene.
func (a *App) GetSolids() []MeshData {
	out := make([]MeshData, len(a.solids))
	for i, m := range a.solids {
		out[i] = toMeshData(m, i)
	}
	return out
}

// --- modeling bindings ---

// ExtrudeShapes converts the session's closed shapes into one solid and
// adds it to the scene. Per-shape failures are warnings; the result is
// never empty (unit-cube fallback).
func (a *App) ExtrudeShapes(set extrude.Settings) SolidResult {
	mesh, skips := extrude.Extrude(a.session.Shapes(), set)
	warnings := make([]string, 0, len(skips))
	for _, s := range skips {
		log.Printf("extrude: shape %s skipped: %s", s.ShapeID, s.Reason)
		warnings = append(warnings, fmt.Sprintf("shape %s skipped: %s", s.ShapeID, s.Reason))
	}
	a.solids = append(a.solids, mesh)
	return SolidResult{Mesh: toMeshData(mesh, len(a.solids)-1), Warnings: warnings}
}

// ExtrudePreset is ExtrudeShapes with a named preset.
func (a *App) ExtrudePreset(name string) SolidResult {
	return a.ExtrudeShapes(extrude.Preset(name))
}

// OffsetFace displaces one face of a scene solid, replacing the solid.
func (a *App) OffsetFace(solidIndex, faceIndex int, distance float64) (SolidResult, error) {
	m, err := a.solid(solidIndex)
	if err != nil {
		return SolidResult{}, err
	}
	out, err := offset.Face(m, faceIndex, distance)
	if err != nil {
		return SolidResult{}, err
	}
	a.solids[solidIndex] = out
	return SolidResult{Mesh: toMeshData(out, solidIndex)}, nil
}

// OffsetBody inflates or deflates a whole scene solid, replacing it.
func (a *App) OffsetBody(solidIndex int, distance float64) (SolidResult, error) {
	m, err := a.solid(solidIndex)
	if err != nil {
		return SolidResult{}, err
	}
	out, err := offset.Body(m, distance)
	if err != nil {
		return SolidResult{}, err
	}
	a.solids[solidIndex] = out
	return SolidResult{Mesh: toMeshData(out, solidIndex)}, nil
}

// EvaluateScript runs a modeling script and adds its meshes to the
// scene. This is the headless counterpart of the interactive flow.
func (a *App) EvaluateScript(source string) EvalResult {
	result := EvalResult{Meshes: []MeshData{}, Errors: []EvalErrorData{}, Warnings: []string{}}

	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("EvaluateScript fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{
			Line: e.Line, Col: e.Col, Message: e.Message,
		})
	}
	if len(evalErrs) > 0 {
		return result
	}

	for _, w := range res.Warnings {
		log.Printf("EvaluateScript: %s", w)
		result.Warnings = append(result.Warnings, w)
	}
	for _, m := range res.Meshes {
		a.solids = append(a.solids, m)
		result.Meshes = append(result.Meshes, toMeshData(m, len(a.solids)-1))
	}
	return result
}

func (a *App) solid(i int) (*kernel.Mesh, error) {
	if i < 0 || i >= len(a.solids) {
		return nil, fmt.Errorf("invalid solid index %d (%d solids)", i, len(a.solids))
	}
	return a.solids[i], nil
}

func toMeshData(m *kernel.Mesh, i int) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		Min:      m.Min,
		Max:      m.Max,
		Name:     m.Name,
		Color:    colorPalette[i%len(colorPalette)],
	}
}

func vec3(v [3]float64) geom.Vec3 {
	return geom.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
