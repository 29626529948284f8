package core

import "math"

// RayStats counts the acceleration work spent on a ray. Cell visits and
// primitive tests are kept apart for nearest-hit and shadow (any-hit) queries.
type RayStats struct {
	CellVisits           int64
	ShadowCellVisits     int64
	PrimitiveTests       int64
	ShadowPrimitiveTests int64
}

// Add accumulates another set of counters into s
func (s *RayStats) Add(other RayStats) {
	s.CellVisits += other.CellVisits
	s.ShadowCellVisits += other.ShadowCellVisits
	s.PrimitiveTests += other.PrimitiveTests
	s.ShadowPrimitiveTests += other.ShadowPrimitiveTests
}

// AddShadow folds the work of a child shadow ray into s
func (s *RayStats) AddShadow(child RayStats) {
	s.ShadowCellVisits += child.CellVisits + child.ShadowCellVisits
	s.ShadowPrimitiveTests += child.PrimitiveTests + child.ShadowPrimitiveTests
}

// Ray is a parametric segment Origin + t*Direction for t in [TMin, TMax].
// Intersection routines shrink TMax as closer hits are found.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMin      float64
	TMax      float64
	Time      float64

	// Offset rays one pixel over in x and y, valid when HasDifferentials is set
	HasDifferentials bool
	RxOrigin         Vec3
	RxDirection      Vec3
	RyOrigin         Vec3
	RyDirection      Vec3

	Stats RayStats
}

// NewRay creates a ray with an unbounded parametric range
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: 0, TMax: math.Inf(1)}
}

// NewRaySegment creates a ray restricted to [tMin, tMax]
func NewRaySegment(origin, direction Vec3, tMin, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: tMin, TMax: tMax}
}

// At returns the point at parameter t along the ray
func (r *Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// SetDifferentials attaches the offset rays
func (r *Ray) SetDifferentials(rxOrigin, rxDirection, ryOrigin, ryDirection Vec3) {
	r.RxOrigin = rxOrigin
	r.RxDirection = rxDirection
	r.RyOrigin = ryOrigin
	r.RyDirection = ryDirection
	r.HasDifferentials = true
}

// ScaleDifferentials moves the offset rays toward the main ray by factor s,
// used to account for the actual sample spacing when several samples share a pixel
func (r *Ray) ScaleDifferentials(s float64) {
	if !r.HasDifferentials {
		return
	}
	r.RxOrigin = r.Origin.Add(r.RxOrigin.Subtract(r.Origin).Multiply(s))
	r.RyOrigin = r.Origin.Add(r.RyOrigin.Subtract(r.Origin).Multiply(s))
	r.RxDirection = r.Direction.Add(r.RxDirection.Subtract(r.Direction).Multiply(s))
	r.RyDirection = r.Direction.Add(r.RyDirection.Subtract(r.Direction).Multiply(s))
}

// Segment is a straight line between two points, used for debug output
type Segment struct {
	A, B Vec3
}
