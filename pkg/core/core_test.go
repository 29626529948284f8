package core

import (
	"math"
	"testing"
)

func TestVec3_Axis(t *testing.T) {
	v := NewVec3(1, 2, 3)
	for axis, expected := range []float64{1, 2, 3} {
		if got := v.Axis(axis); got != expected {
			t.Errorf("Axis(%d): expected %f, got %f", axis, expected, got)
		}
	}

	w := v.WithAxis(1, 7)
	if w.Y != 7 || v.Y != 2 {
		t.Errorf("WithAxis should copy, got %v from %v", w, v)
	}
}

func TestAABB_IntersectRange(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))

	tests := []struct {
		name      string
		ray       Ray
		expectHit bool
		expectT0  float64
		expectT1  float64
	}{
		{
			name:      "through center along x",
			ray:       NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0)),
			expectHit: true,
			expectT0:  1,
			expectT1:  2,
		},
		{
			name:      "origin inside",
			ray:       NewRay(NewVec3(0.5, 0.5, 0.5), NewVec3(0, 0, 1)),
			expectHit: true,
			expectT0:  0,
			expectT1:  0.5,
		},
		{
			name:      "parallel outside slab",
			ray:       NewRay(NewVec3(-1, 2, 0.5), NewVec3(1, 0, 0)),
			expectHit: false,
		},
		{
			name:      "box behind ray",
			ray:       NewRay(NewVec3(2, 0.5, 0.5), NewVec3(1, 0, 0)),
			expectHit: false,
		},
		{
			name:      "segment too short",
			ray:       NewRaySegment(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0), 0, 0.5),
			expectHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t0, t1, ok := box.IntersectRange(&tt.ray)
			if ok != tt.expectHit {
				t.Fatalf("Expected hit=%v, got %v", tt.expectHit, ok)
			}
			if !ok {
				return
			}
			if math.Abs(t0-tt.expectT0) > 1e-12 || math.Abs(t1-tt.expectT1) > 1e-12 {
				t.Errorf("Expected range [%f, %f], got [%f, %f]", tt.expectT0, tt.expectT1, t0, t1)
			}
		})
	}
}

func TestAABB_UnionAndExtent(t *testing.T) {
	box := EmptyAABB().
		UnionPoint(NewVec3(0, 0, 0)).
		Union(NewAABB(NewVec3(-1, 2, 0), NewVec3(3, 2.5, 0.5)))

	if box.Min != NewVec3(-1, 0, 0) || box.Max != NewVec3(3, 2.5, 0.5) {
		t.Errorf("Unexpected union %v", box)
	}
	if box.MaximumExtent() != 0 {
		t.Errorf("Expected x to be the longest axis, got %d", box.MaximumExtent())
	}
	if !box.Inside(box.Max) || box.Inside(NewVec3(3.1, 0, 0)) {
		t.Error("Inside should include the boundary and nothing beyond it")
	}
}

func TestRay_ScaleDifferentials(t *testing.T) {
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, -1))
	ray.ScaleDifferentials(0.5) // no differentials, must be a no-op
	if ray.HasDifferentials {
		t.Fatal("ScaleDifferentials must not invent differentials")
	}

	ray.SetDifferentials(NewVec3(0, 0, 0), NewVec3(1, 0, -1), NewVec3(0, 0, 0), NewVec3(0, 1, -1))
	ray.ScaleDifferentials(0.5)

	if ray.RxDirection != NewVec3(0.5, 0, -1) {
		t.Errorf("Expected rx direction (0.5,0,-1), got %v", ray.RxDirection)
	}
	if ray.RyDirection != NewVec3(0, 0.5, -1) {
		t.Errorf("Expected ry direction (0,0.5,-1), got %v", ray.RyDirection)
	}
}

func TestRayStats_AddShadow(t *testing.T) {
	parent := RayStats{CellVisits: 3, PrimitiveTests: 2}
	child := RayStats{ShadowCellVisits: 4, ShadowPrimitiveTests: 5}
	parent.AddShadow(child)

	expected := RayStats{CellVisits: 3, PrimitiveTests: 2, ShadowCellVisits: 4, ShadowPrimitiveTests: 5}
	if parent != expected {
		t.Errorf("Expected %+v, got %+v", expected, parent)
	}
}

func TestSampleCosineHemisphere(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 0, 1),
		NewVec3(1, 0, 0),
		NewVec3(0, -1, 0),
		NewVec3(1, 1, 1).Normalize(),
	}

	for _, n := range normals {
		for i := 0; i < 16; i++ {
			for j := 0; j < 16; j++ {
				u := NewVec2((float64(i)+0.5)/16, (float64(j)+0.5)/16)
				d := SampleCosineHemisphere(n, u)
				if math.Abs(d.Length()-1) > 1e-9 {
					t.Fatalf("Direction %v is not unit length", d)
				}
				if d.Dot(n) < 0 {
					t.Fatalf("Direction %v points away from normal %v", d, n)
				}
			}
		}
	}
}

func TestConcentricSampleDisk(t *testing.T) {
	if p := ConcentricSampleDisk(NewVec2(0.5, 0.5)); p != (Vec2{}) {
		t.Errorf("Center of the square should map to the origin, got %v", p)
	}

	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j++ {
			p := ConcentricSampleDisk(NewVec2(float64(i)/10, float64(j)/10))
			if p.X*p.X+p.Y*p.Y > 1+1e-12 {
				t.Errorf("Point %v lies outside the unit disk", p)
			}
		}
	}
}

func TestMixSeed(t *testing.T) {
	if MixSeed(1, 2, 3) != MixSeed(1, 2, 3) {
		t.Error("MixSeed must be deterministic")
	}
	if MixSeed(1, 2, 3) == MixSeed(3, 2, 1) {
		t.Error("MixSeed should depend on argument order")
	}
	if MixSeed(0, 0) < 0 {
		t.Error("MixSeed should return a non-negative seed")
	}

	for seed := int64(0); seed < 1000; seed++ {
		u := UnitFloat(seed)
		if u < 0 || u >= 1 {
			t.Fatalf("UnitFloat(%d) = %f outside [0,1)", seed, u)
		}
	}
}

func TestRNG_SeedRestartsStream(t *testing.T) {
	rng := NewRNG(17)
	first := []float64{rng.Float64(), rng.Float64(), rng.Float64()}

	rng.Seed(17)
	for i, want := range first {
		if got := rng.Float64(); got != want {
			t.Errorf("Draw %d: expected %v after reseeding, got %v", i, want, got)
		}
	}

	other := NewRNG(18)
	if other.Float64() == first[0] {
		t.Error("Expected different seeds to give different streams")
	}
}
