package extrude

// Settings is the pure configuration value for one extrusion request.
type Settings struct {
	Depth          float64 `json:"depth"`
	BevelEnabled   bool    `json:"bevelEnabled"`
	BevelThickness float64 `json:"bevelThickness"`
	BevelSize      float64 `json:"bevelSize"`
	BevelSegments  int     `json:"bevelSegments"`
}

// Presets returns the named default settings bundles offered to calling
// UIs. They carry no semantics beyond their values.
func Presets() map[string]Settings {
	return map[string]Settings{
		"simple": {
			Depth: 1,
		},
		"beveled": {
			Depth:          1,
			BevelEnabled:   true,
			BevelThickness: 0.1,
			BevelSize:      0.1,
			BevelSegments:  3,
		},
		"deep": {
			Depth:          2,
			BevelEnabled:   true,
			BevelThickness: 0.05,
			BevelSize:      0.05,
			BevelSegments:  2,
		},
	}
}

// Preset looks up a named preset, falling back to "simple" for unknown
// names.
func Preset(name string) Settings {
	p := Presets()
	if s, ok := p[name]; ok {
		return s
	}
	return p["simple"]
}
