package accel

import (
	"fmt"
	"math"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// CellKind selects how a grid voxel answers ray queries
type CellKind int

const (
	// GroupCell tests every primitive stored in the voxel
	GroupCell CellKind = iota
	// AlwaysHitCell reports a hit for every query
	AlwaysHitCell
	// NeverHitCell reports a miss for every query
	NeverHitCell
	// ProbabilisticCell reports a hit with a fixed probability
	ProbabilisticCell
	// BinaryCell reports a hit once anything was inserted into it
	BinaryCell
)

var cellKindNames = map[CellKind]string{
	GroupCell:         "group",
	AlwaysHitCell:     "always",
	NeverHitCell:      "never",
	ProbabilisticCell: "probabilistic",
	BinaryCell:        "binary",
}

func (k CellKind) String() string {
	if name, ok := cellKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CellKind(%d)", int(k))
}

// ParseCellKind maps a configuration name to a CellKind
func ParseCellKind(name string) (CellKind, error) {
	for kind, n := range cellKindNames {
		if n == name {
			return kind, nil
		}
	}
	return GroupCell, fmt.Errorf("unknown cell kind %q", name)
}

// CellPolicy configures the cells of a grid. Threshold and Seed are only
// used by ProbabilisticCell.
type CellPolicy struct {
	Kind      CellKind
	Threshold float64
	Seed      int64
}

// Cell is one voxel of a Grid. Primitive references are not owned.
type Cell struct {
	kind      CellKind
	prims     []core.Primitive
	threshold float64
	seed      int64
	hit       bool
}

func newCell(policy CellPolicy, index int) Cell {
	return Cell{
		kind:      policy.Kind,
		threshold: policy.Threshold,
		seed:      core.MixSeed(policy.Seed, int64(index)),
	}
}

func (c *Cell) append(p core.Primitive) {
	switch c.kind {
	case GroupCell:
		c.prims = append(c.prims, p)
	case BinaryCell:
		c.hit = true
	}
}

// Primitives returns the primitives stored in a group cell
func (c *Cell) Primitives() []core.Primitive {
	return c.prims
}

// intersect answers a nearest-hit query. Every accepted hit shrinks ray.TMax.
func (c *Cell) intersect(ray *core.Ray, hit *core.HitRecord, excl core.PrimitiveSet) bool {
	if c.kind != GroupCell {
		return c.policyHit(ray)
	}

	found := false
	for _, p := range c.prims {
		if excl.Contains(p) {
			continue
		}
		ray.Stats.PrimitiveTests++
		if p.Intersect(ray, hit) {
			found = true
		}
	}
	return found
}

// intersectP answers an any-hit query and stops at the first hit
func (c *Cell) intersectP(ray *core.Ray, excl core.PrimitiveSet) bool {
	if c.kind != GroupCell {
		return c.policyHit(ray)
	}

	for _, p := range c.prims {
		if excl.Contains(p) {
			continue
		}
		ray.Stats.ShadowPrimitiveTests++
		if p.IntersectP(ray) {
			return true
		}
	}
	return false
}

func (c *Cell) policyHit(ray *core.Ray) bool {
	switch c.kind {
	case AlwaysHitCell:
		return true
	case BinaryCell:
		return c.hit
	case ProbabilisticCell:
		// The draw depends only on the cell and the ray, so concurrent
		// queries need no shared generator
		u := core.UnitFloat(core.MixSeed(c.seed,
			int64(math.Float64bits(ray.Origin.X)), int64(math.Float64bits(ray.Origin.Y)), int64(math.Float64bits(ray.Origin.Z)),
			int64(math.Float64bits(ray.Direction.X)), int64(math.Float64bits(ray.Direction.Y)), int64(math.Float64bits(ray.Direction.Z))))
		return u < c.threshold
	default:
		return false
	}
}
