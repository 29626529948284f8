// Package scene assembles primitives, lights and camera settings into a
// queryable scene, either from a JSON description or a built-in generator.
package scene

import (
	"fmt"

	"github.com/df07/go-grid-raytracer/pkg/accel"
	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/lights"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name       string
	Camera     camera.Config
	Primitives []core.Primitive // Flattened; meshes contribute their triangles
	Lights     []lights.Light   // Consulted for rays that escape the geometry
	Aggregate  accel.Aggregate  // Spatial index over Primitives
}

// triangulated is implemented by shapes that can hand out their triangles
type triangulated interface {
	Triangles() []core.Primitive
}

// New flattens the shapes, builds the aggregate and returns the scene
func New(shapes []core.Primitive, ls []lights.Light, cfg accel.Config) (*Scene, error) {
	prims := flatten(shapes)
	agg, err := accel.New(prims, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build accelerator: %w", err)
	}
	return &Scene{
		Camera:     camera.DefaultConfig(),
		Primitives: prims,
		Lights:     ls,
		Aggregate:  agg,
	}, nil
}

func flatten(shapes []core.Primitive) []core.Primitive {
	prims := make([]core.Primitive, 0, len(shapes))
	for _, shape := range shapes {
		if mesh, ok := shape.(triangulated); ok {
			prims = append(prims, mesh.Triangles()...)
			continue
		}
		prims = append(prims, shape)
	}
	return prims
}

// Intersect finds the nearest hit along ray
func (s *Scene) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	return s.Aggregate.Intersect(ray, hit)
}

// IntersectP reports whether anything blocks ray
func (s *Scene) IntersectP(ray *core.Ray) bool {
	return s.Aggregate.IntersectP(ray)
}

// Bounds returns the bounds of all primitives
func (s *Scene) Bounds() core.AABB {
	return s.Aggregate.Bounds()
}

// PrimitiveCount returns the number of indexed primitives
func (s *Scene) PrimitiveCount() int {
	return len(s.Primitives)
}

// Grid returns the uniform grid when the scene is indexed by one
func (s *Scene) Grid() (*accel.Grid, bool) {
	g, ok := s.Aggregate.(*accel.Grid)
	return g, ok
}

// Emission sums the light arriving along a ray that missed all geometry
func (s *Scene) Emission(ray *core.Ray) core.Vec3 {
	return lights.TotalEmission(s.Lights, ray)
}
