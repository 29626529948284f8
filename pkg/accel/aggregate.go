// Package accel holds the spatial indexes that answer ray queries against
// a scene's primitives: a uniform voxel grid and a bounding volume hierarchy.
package accel

import (
	"fmt"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// Aggregate is a read-only spatial index over primitives
type Aggregate interface {
	core.Primitive
	IntersectExclusive(excl core.PrimitiveSet, ray *core.Ray, hit *core.HitRecord) bool
	Accesses() int64
}

// Config selects and configures an aggregate
type Config struct {
	Type string // "grid" or "bvh"
	Grid GridOptions
}

// DefaultConfig returns a heuristic uniform grid
func DefaultConfig() Config {
	return Config{Type: "grid", Grid: DefaultGridOptions()}
}

// New builds the aggregate described by cfg
func New(prims []core.Primitive, cfg Config) (Aggregate, error) {
	switch cfg.Type {
	case "", "grid":
		return NewGrid(prims, cfg.Grid), nil
	case "bvh":
		return NewBVH(prims), nil
	default:
		return nil, fmt.Errorf("unknown accelerator type %q", cfg.Type)
	}
}
