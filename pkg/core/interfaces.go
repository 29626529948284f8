package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards everything, handy in tests
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}

// HitRecord describes the closest surface point found so far along a ray
type HitRecord struct {
	T         float64
	Point     Vec3
	Normal    Vec3 // Always points against the incoming ray
	FrontFace bool
	Primitive Primitive
}

// SetFaceNormal orients the stored normal against the ray direction
func (h *HitRecord) SetFaceNormal(ray *Ray, outwardNormal Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Primitive is anything a ray can be tested against. Implementations only
// accept hits with ray.TMin < t < ray.TMax; Intersect shrinks ray.TMax to
// the accepted t and fills hit.
type Primitive interface {
	Bounds() AABB
	Intersect(ray *Ray, hit *HitRecord) bool
	IntersectP(ray *Ray) bool
}

// PrimitiveSet is a set of primitives excluded from a query
type PrimitiveSet map[Primitive]struct{}

// NewPrimitiveSet builds a set from the given primitives
func NewPrimitiveSet(prims ...Primitive) PrimitiveSet {
	set := make(PrimitiveSet, len(prims))
	for _, p := range prims {
		set[p] = struct{}{}
	}
	return set
}

// Contains reports whether p is in the set; a nil set contains nothing
func (s PrimitiveSet) Contains(p Primitive) bool {
	if s == nil {
		return false
	}
	_, ok := s[p]
	return ok
}

// CameraSample is the point on the image plane, lens and shutter interval a
// camera ray is generated for. ImageX/ImageY are continuous raster coordinates.
type CameraSample struct {
	ImageX, ImageY float64
	LensU, LensV   float64
	Time           float64
}
