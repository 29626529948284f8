package geometry

import (
	"github.com/df07/go-grid-raytracer/pkg/core"
)

// boxFaces lists the 12 triangles of a box as corner indices, wound so
// every normal points outward
var boxFaces = []int{
	4, 5, 6, 4, 6, 7, // front (Z+)
	1, 0, 3, 1, 3, 2, // back (Z-)
	5, 1, 2, 5, 2, 6, // right (X+)
	0, 4, 7, 0, 7, 3, // left (X-)
	3, 7, 6, 3, 6, 2, // top (Y+)
	4, 0, 1, 4, 1, 5, // bottom (Y-)
}

// NewBox creates a box centered at center with the given half-extents and
// rotation (radians around X, Y, Z, applied in that order) as a 12-triangle mesh
func NewBox(center, size, rotation core.Vec3) *TriangleMesh {
	corners := []core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = rotateVertex(corners[i].MultiplyVec(size), rotation).Add(center)
	}

	// The index table is fixed, so construction cannot fail
	mesh, _ := NewTriangleMesh(corners, boxFaces, nil)
	return mesh
}

// NewAxisAlignedBox creates a box spanning [min, max]
func NewAxisAlignedBox(min, max core.Vec3) *TriangleMesh {
	center := min.Add(max).Multiply(0.5)
	size := max.Subtract(min).Multiply(0.5)
	return NewBox(center, size, core.Vec3{})
}
