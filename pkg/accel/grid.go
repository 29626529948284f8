package accel

import (
	"math"
	"sync/atomic"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// MaxCellsPerAxis caps the grid resolution along each axis
const MaxCellsPerAxis = 64

// GridOptions configures grid construction
type GridOptions struct {
	Resolution [3]int // Voxels per axis; all zero selects the density heuristic
	Cell       CellPolicy
}

// DefaultGridOptions returns a heuristic-resolution grid of group cells
func DefaultGridOptions() GridOptions {
	return GridOptions{Cell: CellPolicy{Kind: GroupCell, Threshold: 0.5}}
}

// Grid is a uniform voxel grid over the bounds of its primitives. It is
// built once and then only read, so any number of goroutines may query it.
type Grid struct {
	primitives []core.Primitive
	bounds     core.AABB
	shape      [3]int
	width      [3]float64
	invWidth   [3]float64
	cells      []Cell
	empty      bool

	accesses atomic.Int64
}

// Voxel identifies a grid voxel by its integer coordinates
type Voxel [3]int

// NewGrid builds a grid over prims
func NewGrid(prims []core.Primitive, opts GridOptions) *Grid {
	g := &Grid{
		primitives: prims,
		bounds:     core.EmptyAABB(),
	}
	for _, p := range prims {
		g.bounds = g.bounds.Union(p.Bounds())
	}

	if len(prims) == 0 {
		g.empty = true
		g.bounds = core.AABB{}
		g.shape = [3]int{1, 1, 1}
		g.cells = []Cell{newCell(CellPolicy{Kind: NeverHitCell}, 0)}
		return g
	}

	diagonal := g.bounds.Diagonal()
	if opts.Resolution == ([3]int{}) {
		maxExtent := diagonal.Axis(g.bounds.MaximumExtent())
		cellsPerUnit := 0.0
		if maxExtent > 0 {
			cellsPerUnit = 3.0 * math.Cbrt(float64(len(prims))) / maxExtent
		}
		for axis := 0; axis < 3; axis++ {
			n := int(math.Round(diagonal.Axis(axis) * cellsPerUnit))
			g.shape[axis] = max(1, min(n, MaxCellsPerAxis))
		}
	} else {
		for axis := 0; axis < 3; axis++ {
			g.shape[axis] = max(1, min(opts.Resolution[axis], MaxCellsPerAxis))
		}
	}

	for axis := 0; axis < 3; axis++ {
		g.width[axis] = diagonal.Axis(axis) / float64(g.shape[axis])
		if g.width[axis] != 0 {
			g.invWidth[axis] = 1.0 / g.width[axis]
		}
	}

	g.cells = make([]Cell, g.shape[0]*g.shape[1]*g.shape[2])
	for i := range g.cells {
		g.cells[i] = newCell(opts.Cell, i)
	}

	// Insert each primitive into every voxel its bounds overlap
	for _, p := range prims {
		box := p.Bounds()
		lo := g.voxelOf(box.Min)
		hi := g.voxelOf(box.Max)
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					g.cells[g.offset(Voxel{x, y, z})].append(p)
				}
			}
		}
	}

	return g
}

func (g *Grid) cellCoord(p core.Vec3, axis int) int {
	v := int((p.Axis(axis) - g.bounds.Min.Axis(axis)) * g.invWidth[axis])
	return max(0, min(v, g.shape[axis]-1))
}

func (g *Grid) voxelOf(p core.Vec3) Voxel {
	return Voxel{g.cellCoord(p, 0), g.cellCoord(p, 1), g.cellCoord(p, 2)}
}

func (g *Grid) offset(v Voxel) int {
	return (v[2]*g.shape[1]+v[1])*g.shape[0] + v[0]
}

// planePos returns the coordinate of the voxel boundary with index i
func (g *Grid) planePos(i, axis int) float64 {
	return g.bounds.Min.Axis(axis) + float64(i)*g.width[axis]
}

// Bounds returns the bounds of all primitives in the grid
func (g *Grid) Bounds() core.AABB {
	return g.bounds
}

// Resolution returns the number of voxels along each axis
func (g *Grid) Resolution() [3]int {
	return g.shape
}

// Accesses returns how many queries the grid has served
func (g *Grid) Accesses() int64 {
	return g.accesses.Load()
}

// VoxelOf returns the voxel containing p, clamped to the grid
func (g *Grid) VoxelOf(p core.Vec3) Voxel {
	return g.voxelOf(p)
}

// Cell returns the cell stored at voxel v
func (g *Grid) Cell(v Voxel) *Cell {
	return &g.cells[g.offset(v)]
}

// IntersectP reports whether anything lies along the ray within [TMin, TMax].
// It returns at the first voxel that reports a hit.
func (g *Grid) IntersectP(ray *core.Ray) bool {
	return g.walk(ray, nil, nil)
}

// Intersect finds the nearest hit along the ray, filling hit and shrinking
// ray.TMax. Traversal ends once the next voxel boundary lies beyond ray.TMax.
func (g *Grid) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	return g.walk(ray, hit, nil)
}

// IntersectExclusive is Intersect ignoring the primitives in excl. A nil hit
// turns it into an any-hit query like IntersectP.
func (g *Grid) IntersectExclusive(excl core.PrimitiveSet, ray *core.Ray, hit *core.HitRecord) bool {
	return g.walk(ray, hit, excl)
}

func (g *Grid) walk(ray *core.Ray, hit *core.HitRecord, excl core.PrimitiveSet) bool {
	g.accesses.Add(1)
	if g.empty {
		return false
	}

	anyHit := hit == nil
	found := false
	g.Traverse(ray, func(v Voxel) bool {
		cell := &g.cells[g.offset(v)]
		if anyHit {
			if cell.intersectP(ray, excl) {
				found = true
				return false
			}
			ray.Stats.ShadowCellVisits++
			return true
		}
		if cell.intersect(ray, hit, excl) {
			found = true
		}
		ray.Stats.CellVisits++
		return true
	})
	return found
}

// compareToAxis maps the three pairwise next-crossing comparisons to the
// axis whose boundary is crossed first
var compareToAxis = [8]int{2, 1, 2, 1, 2, 2, 0, 0}

// Traverse walks the voxels pierced by the ray in order of increasing ray
// parameter, calling visit for each until visit returns false, the ray
// leaves the grid, or the next boundary lies beyond ray.TMax. ray.TMax may
// shrink while walking.
func (g *Grid) Traverse(ray *core.Ray, visit func(v Voxel) bool) {
	if g.empty {
		return
	}

	rayT := ray.TMin
	if !g.bounds.Inside(ray.At(ray.TMin)) {
		t0, _, ok := g.bounds.IntersectRange(ray)
		if !ok {
			return
		}
		rayT = t0
	}
	gridHit := ray.At(rayT)

	// Set up 3D DDA for ray
	var nextCrossing, deltaT [3]float64
	var step, out [3]int
	var pos Voxel
	for axis := 0; axis < 3; axis++ {
		pos[axis] = g.cellCoord(gridHit, axis)
		d := ray.Direction.Axis(axis)
		switch {
		case d > 0:
			nextCrossing[axis] = rayT + (g.planePos(pos[axis]+1, axis)-gridHit.Axis(axis))/d
			deltaT[axis] = g.width[axis] / d
			step[axis] = 1
			out[axis] = g.shape[axis]
		case d < 0:
			nextCrossing[axis] = rayT + (g.planePos(pos[axis], axis)-gridHit.Axis(axis))/d
			deltaT[axis] = -g.width[axis] / d
			step[axis] = -1
			out[axis] = -1
		default:
			// Never crosses a boundary on this axis
			nextCrossing[axis] = math.Inf(1)
			deltaT[axis] = math.Inf(1)
			step[axis] = 1
			out[axis] = g.shape[axis]
		}
	}

	for {
		if !visit(pos) {
			return
		}

		bits := 0
		if nextCrossing[0] < nextCrossing[1] {
			bits |= 4
		}
		if nextCrossing[0] < nextCrossing[2] {
			bits |= 2
		}
		if nextCrossing[1] < nextCrossing[2] {
			bits |= 1
		}
		axis := compareToAxis[bits]
		if ray.TMax < nextCrossing[axis] {
			return
		}
		pos[axis] += step[axis]
		if pos[axis] == out[axis] {
			return
		}
		nextCrossing[axis] += deltaT[axis]
	}
}

// Lines returns the voxel boundary segments of the grid, for wireframe output
func (g *Grid) Lines() []core.Segment {
	if g.empty {
		return nil
	}

	var lines []core.Segment
	lo, hi := g.bounds.Min, g.bounds.Max
	// Lines parallel to each axis, one per boundary pair of the other two
	for axis := 0; axis < 3; axis++ {
		a1, a2 := (axis+1)%3, (axis+2)%3
		for i := 0; i <= g.shape[a1]; i++ {
			for j := 0; j <= g.shape[a2]; j++ {
				p := lo.WithAxis(a1, g.planePos(i, a1)).WithAxis(a2, g.planePos(j, a2))
				lines = append(lines, core.Segment{A: p, B: p.WithAxis(axis, hi.Axis(axis))})
			}
		}
	}
	return lines
}

// GridStats summarizes voxel occupancy
type GridStats struct {
	Voxels        int
	NonEmpty      int
	References    int
	MeanOccupancy float64
	StdOccupancy  float64
	MaxOccupancy  int
}

// Stats computes occupancy statistics over all voxels
func (g *Grid) Stats() GridStats {
	stats := GridStats{Voxels: len(g.cells)}
	occupancy := make([]float64, len(g.cells))
	for i := range g.cells {
		n := len(g.cells[i].prims)
		occupancy[i] = float64(n)
		stats.References += n
		stats.MaxOccupancy = max(stats.MaxOccupancy, n)
		if n > 0 {
			stats.NonEmpty++
		}
	}
	stats.MeanOccupancy, stats.StdOccupancy = stat.MeanStdDev(occupancy, nil)
	if len(occupancy) < 2 {
		stats.StdOccupancy = 0
	}
	return stats
}
