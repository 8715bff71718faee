// Package kernel defines the triangle mesh buffer shared by the whole
// pipeline and the abstract primitive-solid kernel interface.
// Implementations (sdfx) provide primitive solids and boolean
// operations behind this interface; the sketch extrusion path builds
// meshes directly and only shares the Mesh type.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract primitive-solid kernel interface. Primitive
// solids give surface-mode sketching something to pick against and the
// scripting engine a base vocabulary.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
