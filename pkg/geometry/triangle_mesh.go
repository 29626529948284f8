package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-grid-raytracer/pkg/accel"
	"github.com/df07/go-grid-raytracer/pkg/core"
)

// TriangleMesh is a collection of triangles. As a primitive it answers
// queries through an internal BVH; scenes usually flatten it with
// Triangles so the grid indexes each triangle on its own.
type TriangleMesh struct {
	triangles []core.Primitive
	bvh       *accel.BVH
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Normals  []core.Vec3 // Optional custom normals (one per triangle)
	Rotation *core.Vec3  // Optional rotation in radians applied to vertices
	Center   *core.Vec3  // Optional center point for rotation
	Scale    float64     // Optional uniform scale applied after rotation (0 means 1)
	Offset   core.Vec3   // Translation applied last
}

// NewTriangleMesh creates a mesh from vertices and face indices; each group
// of three indices forms a triangle. options may be nil.
func NewTriangleMesh(vertices []core.Vec3, faces []int, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}
	numTriangles := len(faces) / 3

	if options != nil && options.Normals != nil && len(options.Normals) != numTriangles {
		return nil, fmt.Errorf("got %d normals for %d triangles", len(options.Normals), numTriangles)
	}

	workingVertices := vertices
	if options != nil {
		workingVertices = transformVertices(vertices, options)
	}

	triangles := make([]core.Primitive, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(workingVertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, len(workingVertices))
			}
		}

		if options != nil && options.Normals != nil {
			triangles[i] = NewTriangleWithNormal(workingVertices[i0], workingVertices[i1], workingVertices[i2], options.Normals[i])
		} else {
			triangles[i] = NewTriangle(workingVertices[i0], workingVertices[i1], workingVertices[i2])
		}
	}

	return &TriangleMesh{triangles: triangles, bvh: accel.NewBVH(triangles)}, nil
}

// Intersect finds the nearest triangle hit
func (tm *TriangleMesh) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	return tm.bvh.Intersect(ray, hit)
}

// IntersectP reports whether any triangle lies along the ray
func (tm *TriangleMesh) IntersectP(ray *core.Ray) bool {
	return tm.bvh.IntersectP(ray)
}

// Bounds returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) Bounds() core.AABB {
	return tm.bvh.Bounds()
}

// TriangleCount returns the number of triangles in this mesh
func (tm *TriangleMesh) TriangleCount() int {
	return len(tm.triangles)
}

// Triangles returns the individual triangles
func (tm *TriangleMesh) Triangles() []core.Primitive {
	return tm.triangles
}

func transformVertices(vertices []core.Vec3, options *TriangleMeshOptions) []core.Vec3 {
	scale := options.Scale
	if scale == 0 {
		scale = 1
	}
	out := make([]core.Vec3, len(vertices))
	for i, vertex := range vertices {
		if options.Rotation != nil {
			// Translate to center, rotate, then translate back
			if options.Center != nil {
				vertex = vertex.Subtract(*options.Center)
			}
			vertex = rotateVertex(vertex, *options.Rotation)
			if options.Center != nil {
				vertex = vertex.Add(*options.Center)
			}
		}
		out[i] = vertex.Multiply(scale).Add(options.Offset)
	}
	return out
}

// rotateVertex applies rotation around X, Y, Z axes (in that order)
func rotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos, sin := math.Cos(rotation.X), math.Sin(rotation.X)
		vertex = core.NewVec3(vertex.X, vertex.Y*cos-vertex.Z*sin, vertex.Y*sin+vertex.Z*cos)
	}
	if rotation.Y != 0 {
		cos, sin := math.Cos(rotation.Y), math.Sin(rotation.Y)
		vertex = core.NewVec3(vertex.X*cos+vertex.Z*sin, vertex.Y, -vertex.X*sin+vertex.Z*cos)
	}
	if rotation.Z != 0 {
		cos, sin := math.Cos(rotation.Z), math.Sin(rotation.Z)
		vertex = core.NewVec3(vertex.X*cos-vertex.Y*sin, vertex.X*sin+vertex.Y*cos, vertex.Z)
	}
	return vertex
}
