package accel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// MockBox is an axis-aligned box primitive for testing
type MockBox struct {
	box core.AABB
}

func newMockBox(min, max core.Vec3) *MockBox {
	return &MockBox{box: core.NewAABB(min, max)}
}

func (m *MockBox) Bounds() core.AABB {
	return m.box
}

func (m *MockBox) hitT(ray *core.Ray) (float64, bool) {
	t0, t1, ok := m.box.IntersectRange(ray)
	if !ok {
		return 0, false
	}
	t := t0
	if t <= ray.TMin {
		t = t1
	}
	if t <= ray.TMin || t >= ray.TMax {
		return 0, false
	}
	return t, true
}

func (m *MockBox) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	t, ok := m.hitT(ray)
	if !ok {
		return false
	}
	ray.TMax = t
	hit.T = t
	hit.Point = ray.At(t)
	hit.Primitive = m
	return true
}

func (m *MockBox) IntersectP(ray *core.Ray) bool {
	_, ok := m.hitT(ray)
	return ok
}

func randomBoxes(random *rand.Rand, n int, extent float64) []core.Primitive {
	prims := make([]core.Primitive, n)
	for i := range prims {
		c := core.NewVec3(random.Float64()*extent, random.Float64()*extent, random.Float64()*extent)
		h := core.NewVec3(0.05+random.Float64()*0.5, 0.05+random.Float64()*0.5, 0.05+random.Float64()*0.5)
		prims[i] = newMockBox(c.Subtract(h), c.Add(h))
	}
	return prims
}

func randomRay(random *rand.Rand, extent float64) core.Ray {
	origin := core.NewVec3(
		(random.Float64()*1.6-0.3)*extent,
		(random.Float64()*1.6-0.3)*extent,
		(random.Float64()*1.6-0.3)*extent)
	direction := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
	return core.NewRay(origin, direction)
}

func TestGrid_ResolutionHeuristic(t *testing.T) {
	// 8 unit boxes along x: 3*cbrt(8) = 6 voxels along the longest axis
	prims := make([]core.Primitive, 8)
	for i := range prims {
		prims[i] = newMockBox(core.NewVec3(float64(i), 0, 0), core.NewVec3(float64(i)+1, 1, 1))
	}

	grid := NewGrid(prims, DefaultGridOptions())
	expected := [3]int{6, 1, 1}
	if grid.Resolution() != expected {
		t.Errorf("Expected resolution %v, got %v", expected, grid.Resolution())
	}
}

func TestGrid_ResolutionClamped(t *testing.T) {
	var prims []core.Primitive
	for x := 0; x < 30; x++ {
		for y := 0; y < 30; y++ {
			for z := 0; z < 30; z++ {
				p := core.NewVec3(float64(x), float64(y), float64(z))
				prims = append(prims, newMockBox(p, p.Add(core.NewVec3(0.5, 0.5, 0.5))))
			}
		}
	}

	grid := NewGrid(prims, DefaultGridOptions())
	for axis, n := range grid.Resolution() {
		if n != MaxCellsPerAxis {
			t.Errorf("Axis %d: expected clamped resolution %d, got %d", axis, MaxCellsPerAxis, n)
		}
	}
}

func TestGrid_FlatAxisGetsOneVoxel(t *testing.T) {
	prims := []core.Primitive{
		newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 0)),
		newMockBox(core.NewVec3(1, 1, 0), core.NewVec3(2, 2, 0)),
	}
	grid := NewGrid(prims, DefaultGridOptions())
	if grid.Resolution()[2] != 1 {
		t.Errorf("Expected a single voxel along the flat axis, got %d", grid.Resolution()[2])
	}

	ray := core.NewRay(core.NewVec3(0.5, 0.5, 1), core.NewVec3(0, 0, -1))
	var hit core.HitRecord
	if !grid.Intersect(&ray, &hit) {
		t.Error("Expected the ray to hit the flat box")
	}
}

func TestGrid_PartitionInvariant(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	prims := randomBoxes(random, 200, 10)
	grid := NewGrid(prims, DefaultGridOptions())
	res := grid.Resolution()

	for _, p := range prims {
		lo := grid.VoxelOf(p.Bounds().Min)
		hi := grid.VoxelOf(p.Bounds().Max)

		for z := 0; z < res[2]; z++ {
			for y := 0; y < res[1]; y++ {
				for x := 0; x < res[0]; x++ {
					v := Voxel{x, y, z}
					shouldContain := x >= lo[0] && x <= hi[0] && y >= lo[1] && y <= hi[1] && z >= lo[2] && z <= hi[2]

					count := 0
					for _, q := range grid.Cell(v).Primitives() {
						if q == p {
							count++
						}
					}

					if shouldContain && count != 1 {
						t.Fatalf("Voxel %v should hold primitive exactly once, found %d", v, count)
					}
					if !shouldContain && count != 0 {
						t.Fatalf("Voxel %v holds a primitive whose bounds do not overlap it", v)
					}
				}
			}
		}
	}
}

func TestGrid_IntersectPMatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	prims := randomBoxes(random, 60, 10)
	grid := NewGrid(prims, DefaultGridOptions())

	for i := 0; i < 2000; i++ {
		ray := randomRay(random, 10)
		if i%3 == 0 {
			ray.TMax = random.Float64() * 8
		}

		expected := false
		for _, p := range prims {
			probe := ray
			if p.IntersectP(&probe) {
				expected = true
				break
			}
		}

		probe := ray
		if got := grid.IntersectP(&probe); got != expected {
			t.Fatalf("Ray %d (%v -> %v, tMax %f): expected %v, got %v",
				i, ray.Origin, ray.Direction, ray.TMax, expected, got)
		}
	}
}

func TestGrid_IntersectFindsNearest(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	prims := randomBoxes(random, 80, 10)
	grid := NewGrid(prims, DefaultGridOptions())

	for i := 0; i < 1000; i++ {
		ray := randomRay(random, 10)

		nearest := math.Inf(1)
		var nearestPrim core.Primitive
		for _, p := range prims {
			probe := ray
			var h core.HitRecord
			if p.Intersect(&probe, &h) && h.T < nearest {
				nearest = h.T
				nearestPrim = p
			}
		}

		probe := ray
		var hit core.HitRecord
		got := grid.Intersect(&probe, &hit)
		if got != (nearestPrim != nil) {
			t.Fatalf("Ray %d: expected hit=%v, got %v", i, nearestPrim != nil, got)
		}
		if got && math.Abs(hit.T-nearest) > 1e-9 {
			t.Fatalf("Ray %d: expected nearest t=%f, got %f", i, nearest, hit.T)
		}
		if got && probe.TMax != hit.T {
			t.Fatalf("Ray %d: TMax should shrink to the hit, got %f vs %f", i, probe.TMax, hit.T)
		}
	}
}

func TestGrid_IntersectExclusive(t *testing.T) {
	front := newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
	back := newMockBox(core.NewVec3(3, 0, 0), core.NewVec3(4, 1, 1))
	grid := NewGrid([]core.Primitive{front, back}, DefaultGridOptions())

	ray := core.NewRay(core.NewVec3(-1, 0.5, 0.5), core.NewVec3(1, 0, 0))
	var hit core.HitRecord
	if !grid.IntersectExclusive(core.NewPrimitiveSet(front), &ray, &hit) {
		t.Fatal("Expected to hit the back box")
	}
	if hit.Primitive != back {
		t.Errorf("Expected the back box, got %v", hit.Primitive)
	}

	ray = core.NewRay(core.NewVec3(-1, 0.5, 0.5), core.NewVec3(1, 0, 0))
	if grid.IntersectExclusive(core.NewPrimitiveSet(front, back), &ray, nil) {
		t.Error("Expected a miss with every primitive excluded")
	}
}

func TestGrid_TraversalOrder(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	prims := randomBoxes(random, 300, 10)
	grid := NewGrid(prims, DefaultGridOptions())
	res := grid.Resolution()
	bounds := grid.Bounds()
	d := bounds.Diagonal()

	voxelBox := func(v Voxel) core.AABB {
		lo, hi := bounds.Min, bounds.Min
		for axis := 0; axis < 3; axis++ {
			w := d.Axis(axis) / float64(res[axis])
			lo = lo.WithAxis(axis, bounds.Min.Axis(axis)+float64(v[axis])*w)
			hi = hi.WithAxis(axis, bounds.Min.Axis(axis)+float64(v[axis]+1)*w)
		}
		return core.NewAABB(lo, hi)
	}

	for i := 0; i < 500; i++ {
		ray := randomRay(random, 10)
		seen := make(map[Voxel]bool)
		lastEntry := math.Inf(-1)
		var last *Voxel

		grid.Traverse(&ray, func(v Voxel) bool {
			if seen[v] {
				t.Fatalf("Ray %d revisited voxel %v", i, v)
			}
			seen[v] = true

			if last != nil {
				steps := 0
				for axis := 0; axis < 3; axis++ {
					diff := v[axis] - last[axis]
					if diff != 0 {
						steps++
						if diff != 1 && diff != -1 {
							t.Fatalf("Ray %d jumped from %v to %v", i, *last, v)
						}
					}
				}
				if steps != 1 {
					t.Fatalf("Ray %d moved along %d axes at once", i, steps)
				}
			}
			current := v
			last = &current

			probe := ray
			entry, _, ok := voxelBox(v).Expand(1e-9).IntersectRange(&probe)
			if !ok {
				t.Fatalf("Ray %d visited voxel %v it does not pierce", i, v)
			}
			if entry < lastEntry-1e-9 {
				t.Fatalf("Ray %d entered voxel %v at %f before previous entry %f", i, v, entry, lastEntry)
			}
			lastEntry = entry
			return true
		})
	}
}

func TestGrid_RayOutsideBounds(t *testing.T) {
	prims := []core.Primitive{newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))}
	grid := NewGrid(prims, DefaultGridOptions())

	rays := []core.Ray{
		core.NewRay(core.NewVec3(-1, 5, 0.5), core.NewVec3(1, 0, 0)),
		core.NewRay(core.NewVec3(2, 0.5, 0.5), core.NewVec3(1, 0, 0)),
	}

	for i := range rays {
		var hit core.HitRecord
		if grid.Intersect(&rays[i], &hit) {
			t.Errorf("Ray %d: expected a miss", i)
		}
		if grid.IntersectP(&rays[i]) {
			t.Errorf("Ray %d: expected a shadow miss", i)
		}
		if rays[i].Stats != (core.RayStats{}) {
			t.Errorf("Ray %d: expected zero visits, got %+v", i, rays[i].Stats)
		}
	}

	if grid.Accesses() != 4 {
		t.Errorf("Expected 4 recorded accesses, got %d", grid.Accesses())
	}
}

func TestGrid_Empty(t *testing.T) {
	grid := NewGrid(nil, DefaultGridOptions())
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))
	var hit core.HitRecord
	if grid.Intersect(&ray, &hit) || grid.IntersectP(&ray) {
		t.Error("Empty grid must never report a hit")
	}
	if len(grid.Lines()) != 0 {
		t.Error("Empty grid has no wireframe")
	}
}

func TestGrid_CellPolicies(t *testing.T) {
	prims := []core.Primitive{
		newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1)),
		newMockBox(core.NewVec3(3, 3, 3), core.NewVec3(4, 4, 4)),
	}
	// A ray through the empty corner voxels only
	emptyRay := func() core.Ray {
		return core.NewRay(core.NewVec3(3.5, 0.5, -1), core.NewVec3(0, 0, 1))
	}
	// A ray through the first box
	fullRay := func() core.Ray {
		return core.NewRay(core.NewVec3(0.5, 0.5, -1), core.NewVec3(0, 0, 1))
	}

	tests := []struct {
		name       string
		policy     CellPolicy
		expectFull bool
		expectVoid bool
	}{
		{"group", CellPolicy{Kind: GroupCell}, true, false},
		{"always", CellPolicy{Kind: AlwaysHitCell}, true, true},
		{"never", CellPolicy{Kind: NeverHitCell}, false, false},
		{"binary", CellPolicy{Kind: BinaryCell}, true, false},
		{"probabilistic one", CellPolicy{Kind: ProbabilisticCell, Threshold: 1}, true, true},
		{"probabilistic zero", CellPolicy{Kind: ProbabilisticCell, Threshold: 0}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewGrid(prims, GridOptions{Resolution: [3]int{4, 4, 4}, Cell: tt.policy})

			ray := fullRay()
			if got := grid.IntersectP(&ray); got != tt.expectFull {
				t.Errorf("Occupied column: expected %v, got %v", tt.expectFull, got)
			}
			ray = emptyRay()
			if got := grid.IntersectP(&ray); got != tt.expectVoid {
				t.Errorf("Empty column: expected %v, got %v", tt.expectVoid, got)
			}
		})
	}
}

func TestGrid_ProbabilisticCellIsDeterministic(t *testing.T) {
	prims := []core.Primitive{newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(8, 8, 8))}
	grid := NewGrid(prims, GridOptions{Resolution: [3]int{8, 8, 8}, Cell: CellPolicy{Kind: ProbabilisticCell, Threshold: 0.1, Seed: 5}})

	random := rand.New(rand.NewSource(1))
	hits := 0
	for i := 0; i < 500; i++ {
		ray := randomRay(random, 8)
		first, second := ray, ray
		a := grid.IntersectP(&first)
		b := grid.IntersectP(&second)
		if a != b {
			t.Fatalf("Ray %d gave different answers for the same query", i)
		}
		if a {
			hits++
		}
	}
	if hits == 0 || hits == 500 {
		t.Errorf("Expected a mix of hits and misses, got %d hits", hits)
	}
}

func TestGrid_Lines(t *testing.T) {
	prims := []core.Primitive{newMockBox(core.NewVec3(0, 0, 0), core.NewVec3(2, 1, 1))}
	grid := NewGrid(prims, GridOptions{Resolution: [3]int{2, 1, 1}})

	// x-parallel: 2*2, y-parallel: 2*3, z-parallel: 3*2
	if got := len(grid.Lines()); got != 16 {
		t.Errorf("Expected 16 wireframe lines, got %d", got)
	}

	stats := grid.Stats()
	if stats.Voxels != 2 || stats.NonEmpty != 2 || stats.References != 2 {
		t.Errorf("Unexpected grid stats %+v", stats)
	}
}
