package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/go-grid-raytracer/pkg/accel"
	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/geometry"
	"github.com/df07/go-grid-raytracer/pkg/lights"
	"github.com/df07/go-grid-raytracer/pkg/loaders"
)

// ErrInvalidDescription is returned for descriptions that cannot be built
var ErrInvalidDescription = errors.New("invalid scene description")

// Vec is a JSON triple
type Vec [3]float64

func (v Vec) vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Description is the JSON form of a scene
type Description struct {
	Name        string                 `json:"name,omitempty"`
	Camera      CameraDescription      `json:"camera"`
	Accelerator AcceleratorDescription `json:"accelerator,omitempty"`
	Shapes      []ShapeDescription     `json:"shapes"`
	Lights      []LightDescription     `json:"lights,omitempty"`

	// Directory mesh paths are resolved against
	dir string
}

// CameraDescription holds camera settings; omitted fields keep camera defaults
type CameraDescription struct {
	Eye           *Vec    `json:"eye,omitempty"`
	LookAt        *Vec    `json:"lookAt,omitempty"`
	Up            *Vec    `json:"up,omitempty"`
	FOV           float64 `json:"fov,omitempty"` // degrees
	LensRadius    float64 `json:"lensRadius,omitempty"`
	FocalDistance float64 `json:"focalDistance,omitempty"`
	ShutterOpen   float64 `json:"shutterOpen,omitempty"`
	ShutterClose  float64 `json:"shutterClose,omitempty"`
}

// AcceleratorDescription selects the spatial index
type AcceleratorDescription struct {
	Type       string  `json:"type,omitempty"`       // "grid" (default) or "bvh"
	Resolution [3]int  `json:"resolution,omitempty"` // all zero: heuristic
	Cell       string  `json:"cell,omitempty"`       // group, always, never, probabilistic, binary
	Threshold  float64 `json:"threshold,omitempty"`  // probabilistic hit rate
	Seed       int64   `json:"seed,omitempty"`
}

// ShapeDescription describes one shape. Type selects which fields apply:
// sphere (center, radius), triangle (vertices), box (min/max, or center,
// size and rotationDeg) and mesh (path, scale, offset, rotationDeg).
type ShapeDescription struct {
	Type        string  `json:"type"`
	Center      Vec     `json:"center,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Vertices    []Vec   `json:"vertices,omitempty"`
	Min         Vec     `json:"min,omitempty"`
	Max         Vec     `json:"max,omitempty"`
	Size        Vec     `json:"size,omitempty"` // half extents
	RotationDeg Vec     `json:"rotationDeg,omitempty"`
	Path        string  `json:"path,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Offset      Vec     `json:"offset,omitempty"`
}

// LightDescription describes an infinite light: uniform (emission) or
// gradient (top, bottom)
type LightDescription struct {
	Type     string `json:"type"`
	Emission Vec    `json:"emission,omitempty"`
	Top      Vec    `json:"top,omitempty"`
	Bottom   Vec    `json:"bottom,omitempty"`
}

// LoadDescription reads a JSON scene file
func LoadDescription(path string) (*Description, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := ParseDescription(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	desc.dir = filepath.Dir(path)
	if desc.Name == "" {
		desc.Name = filepath.Base(path)
	}
	return desc, nil
}

// ParseDescription decodes a JSON scene, rejecting unknown fields
func ParseDescription(r io.Reader) (*Description, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var desc Description
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	return &desc, nil
}

// CameraConfig merges the description over the camera defaults
func (c CameraDescription) CameraConfig() camera.Config {
	config := camera.DefaultConfig()
	if c.Eye != nil {
		config.Eye = c.Eye.vec3()
	}
	if c.LookAt != nil {
		config.LookAt = c.LookAt.vec3()
	}
	if c.Up != nil {
		config.Up = c.Up.vec3()
	}
	if c.FOV > 0 {
		config.FOV = c.FOV
	}
	if c.LensRadius > 0 {
		config.LensRadius = c.LensRadius
	}
	if c.FocalDistance > 0 {
		config.FocalDistance = c.FocalDistance
	}
	if c.ShutterOpen != 0 || c.ShutterClose != 0 {
		config.ShutterOpen = c.ShutterOpen
		config.ShutterClose = c.ShutterClose
	}
	return config
}

// AccelConfig converts the description into an accelerator configuration
func (a AcceleratorDescription) AccelConfig() (accel.Config, error) {
	config := accel.DefaultConfig()
	if a.Type != "" {
		config.Type = a.Type
	}
	for axis, n := range a.Resolution {
		if n < 0 {
			return config, fmt.Errorf("%w: negative grid resolution on axis %d", ErrInvalidDescription, axis)
		}
	}
	config.Grid.Resolution = a.Resolution

	if a.Cell != "" {
		kind, err := accel.ParseCellKind(a.Cell)
		if err != nil {
			return config, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
		config.Grid.Cell.Kind = kind
	}
	if a.Threshold != 0 {
		if a.Threshold < 0 || a.Threshold > 1 {
			return config, fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidDescription, a.Threshold)
		}
		config.Grid.Cell.Threshold = a.Threshold
	}
	config.Grid.Cell.Seed = a.Seed
	return config, nil
}

func degreesToRadians(v Vec) core.Vec3 {
	return v.vec3().Multiply(math.Pi / 180)
}

// Build creates the primitive for a shape; dir resolves relative mesh paths
func (s ShapeDescription) Build(dir string) (core.Primitive, error) {
	switch s.Type {
	case "sphere":
		if s.Radius <= 0 {
			return nil, fmt.Errorf("%w: sphere radius must be positive, got %v", ErrInvalidDescription, s.Radius)
		}
		return geometry.NewSphere(s.Center.vec3(), s.Radius), nil

	case "triangle":
		if len(s.Vertices) != 3 {
			return nil, fmt.Errorf("%w: triangle needs 3 vertices, got %d", ErrInvalidDescription, len(s.Vertices))
		}
		return geometry.NewTriangle(s.Vertices[0].vec3(), s.Vertices[1].vec3(), s.Vertices[2].vec3()), nil

	case "box":
		if s.Size != (Vec{}) {
			return geometry.NewBox(s.Center.vec3(), s.Size.vec3(), degreesToRadians(s.RotationDeg)), nil
		}
		lo, hi := s.Min.vec3(), s.Max.vec3()
		if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
			return nil, fmt.Errorf("%w: box min %v must be below max %v", ErrInvalidDescription, s.Min, s.Max)
		}
		return geometry.NewAxisAlignedBox(lo, hi), nil

	case "mesh":
		if s.Path == "" {
			return nil, fmt.Errorf("%w: mesh needs a path", ErrInvalidDescription)
		}
		path := s.Path
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		data, err := loaders.LoadPLY(path)
		if err != nil {
			return nil, err
		}
		rotation := degreesToRadians(s.RotationDeg)
		return geometry.NewTriangleMesh(data.Vertices, data.Faces, &geometry.TriangleMeshOptions{
			Rotation: &rotation,
			Scale:    s.Scale,
			Offset:   s.Offset.vec3(),
		})

	default:
		return nil, fmt.Errorf("%w: unknown shape type %q", ErrInvalidDescription, s.Type)
	}
}

// Build creates the light
func (l LightDescription) Build() (lights.Light, error) {
	switch l.Type {
	case "uniform":
		return lights.NewUniformInfiniteLight(l.Emission.vec3()), nil
	case "gradient":
		return lights.NewGradientInfiniteLight(l.Top.vec3(), l.Bottom.vec3()), nil
	default:
		return nil, fmt.Errorf("%w: unknown light type %q", ErrInvalidDescription, l.Type)
	}
}

// Build loads every shape and light and indexes the result
func (d *Description) Build(logger core.Logger) (*Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}

	shapes := make([]core.Primitive, 0, len(d.Shapes))
	for i, sd := range d.Shapes {
		shape, err := sd.Build(d.dir)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		if mesh, ok := shape.(*geometry.TriangleMesh); ok && sd.Type == "mesh" {
			logger.Printf("Loaded mesh %s: %d triangles\n", sd.Path, mesh.TriangleCount())
		}
		shapes = append(shapes, shape)
	}

	ls := make([]lights.Light, 0, len(d.Lights))
	for i, ld := range d.Lights {
		light, err := ld.Build()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		ls = append(ls, light)
	}

	accelConfig, err := d.Accelerator.AccelConfig()
	if err != nil {
		return nil, err
	}

	s, err := New(shapes, ls, accelConfig)
	if err != nil {
		return nil, err
	}
	s.Name = d.Name
	s.Camera = d.Camera.CameraConfig()
	return s, nil
}
