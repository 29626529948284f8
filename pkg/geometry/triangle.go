package geometry

import (
	"github.com/df07/go-grid-raytracer/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
	normal     core.Vec3 // Cached normal vector
	bbox       core.AABB // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2}
	t.normal = v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)
	return t
}

// NewTriangleWithNormal creates a new triangle with a custom shading normal
func NewTriangleWithNormal(v0, v1, v2, normal core.Vec3) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, normal: normal.Normalize()}
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)
	return t
}

// solve runs the Möller-Trumbore test and returns the ray parameter of the hit
func (t *Triangle) solve(ray *core.Ray) (float64, bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	tParam := f * edge2.Dot(q)
	if tParam <= ray.TMin || tParam >= ray.TMax {
		return 0, false
	}
	return tParam, true
}

// Intersect records the hit and shrinks ray.TMax to it
func (t *Triangle) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	tParam, ok := t.solve(ray)
	if !ok {
		return false
	}

	ray.TMax = tParam
	hit.T = tParam
	hit.Point = ray.At(tParam)
	hit.Primitive = t
	hit.SetFaceNormal(ray, t.normal)
	return true
}

// IntersectP reports whether the ray crosses the triangle
func (t *Triangle) IntersectP(ray *core.Ray) bool {
	_, ok := t.solve(ray)
	return ok
}

// Bounds returns the axis-aligned bounding box for this triangle
func (t *Triangle) Bounds() core.AABB {
	return t.bbox
}

// Normal returns the triangle's normal vector
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}
