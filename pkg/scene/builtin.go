package scene

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrUnknownScene is returned for a scene name that is neither built in nor a file
var ErrUnknownScene = errors.New("unknown scene")

var builtins = map[string]func() *Description{
	"cube":       NewCubeDescription,
	"spheregrid": NewSphereGridDescription,
}

// BuiltinNames lists the built-in scenes in alphabetical order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the description of a built-in scene
func Builtin(name string) (*Description, error) {
	create, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (built-in scenes: %s)", ErrUnknownScene, name, strings.Join(BuiltinNames(), ", "))
	}
	return create(), nil
}

// Load resolves a built-in scene name or a path to a JSON scene file
func Load(nameOrPath string) (*Description, error) {
	if _, ok := builtins[nameOrPath]; ok {
		return Builtin(nameOrPath)
	}
	if _, err := os.Stat(nameOrPath); err == nil || strings.HasSuffix(nameOrPath, ".json") {
		return LoadDescription(nameOrPath)
	}
	return Builtin(nameOrPath)
}

// NewCubeDescription is a single unit cube seen from slightly above
func NewCubeDescription() *Description {
	eye := Vec{1.341364, 0.2693291, -1.40054}
	look := Vec{-0.6851092, -0.1375613, 0.7153337}
	lookAt := Vec{eye[0] + look[0], eye[1] + look[1], eye[2] + look[2]}
	up := Vec{-0.09513324, 0.9904932, 0.09936189}

	return &Description{
		Name: "cube",
		Camera: CameraDescription{
			Eye:    &eye,
			LookAt: &lookAt,
			Up:     &up,
			FOV:    60,
		},
		Shapes: []ShapeDescription{
			{Type: "box", Min: Vec{-0.5, -0.5, -0.5}, Max: Vec{0.5, 0.5, 0.5}},
		},
		Lights: []LightDescription{
			{Type: "uniform", Emission: Vec{1, 1, 1}},
		},
	}
}

// NewSphereGridDescription is a 10x10 grid of spheres resting on a slab
func NewSphereGridDescription() *Description {
	const gridSize = 10
	const radius = 0.4

	shapes := []ShapeDescription{
		// Ground slab just below the spheres
		{Type: "box", Min: Vec{-1, -0.1, -1}, Max: Vec{gridSize, 0, gridSize}},
	}
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			shapes = append(shapes, ShapeDescription{
				Type:   "sphere",
				Center: Vec{float64(i), radius, float64(j)},
				Radius: radius,
			})
		}
	}

	eye := Vec{4.5, 6, 18}
	lookAt := Vec{4.5, 0.8, 4.5}
	return &Description{
		Name: "spheregrid",
		Camera: CameraDescription{
			Eye:    &eye,
			LookAt: &lookAt,
			FOV:    40,
		},
		Shapes: shapes,
		Lights: []LightDescription{
			{Type: "gradient", Top: Vec{0.5, 0.7, 1.0}, Bottom: Vec{1, 1, 1}},
		},
	}
}
