package geometry

import (
	"math"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// root finds the nearest intersection parameter inside the ray's open interval
func (s *Sphere) root(ray *core.Ray) (float64, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root <= ray.TMin || root >= ray.TMax {
		root = (-halfB + sqrtD) / a
		if root <= ray.TMin || root >= ray.TMax {
			return 0, false
		}
	}
	return root, true
}

// Intersect records the nearest hit and shrinks ray.TMax to it
func (s *Sphere) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	root, ok := s.root(ray)
	if !ok {
		return false
	}

	ray.TMax = root
	hit.T = root
	hit.Point = ray.At(root)
	hit.Primitive = s

	// Calculate outward normal (from center to hit point)
	outwardNormal := hit.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	hit.SetFaceNormal(ray, outwardNormal)
	return true
}

// IntersectP reports whether the ray hits the sphere at all
func (s *Sphere) IntersectP(ray *core.Ray) bool {
	_, ok := s.root(ray)
	return ok
}

// Bounds returns the axis-aligned bounding box for this sphere
func (s *Sphere) Bounds() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}
