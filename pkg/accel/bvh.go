package accel

import (
	"sync/atomic"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Primitives  []core.Primitive // Multiple primitives for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root     *BVHNode
	accesses atomic.Int64
}

// NewBVH constructs a BVH from a slice of primitives
func NewBVH(prims []core.Primitive) *BVH {
	if len(prims) == 0 {
		return &BVH{Root: nil}
	}

	// Copy so partitioning never reorders the caller's slice
	primsCopy := make([]core.Primitive, len(prims))
	copy(primsCopy, prims)

	return &BVH{Root: buildBVH(primsCopy)}
}

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH using midpoint splits along the longest axis
func buildBVH(prims []core.Primitive) *BVHNode {
	boundingBox := prims[0].Bounds()
	for _, p := range prims[1:] {
		boundingBox = boundingBox.Union(p.Bounds())
	}

	leaf := &BVHNode{BoundingBox: boundingBox, Primitives: prims}
	if len(prims) <= leafThreshold {
		return leaf
	}

	axis := boundingBox.MaximumExtent()
	lo, hi := boundingBox.Min.Axis(axis), boundingBox.Max.Axis(axis)
	if hi <= lo {
		return leaf
	}
	split := (lo + hi) * 0.5

	// Partition in place around the split plane
	mid := 0
	for i, p := range prims {
		if p.Bounds().Center().Axis(axis) < split {
			prims[i], prims[mid] = prims[mid], prims[i]
			mid++
		}
	}
	if mid == 0 || mid == len(prims) {
		return leaf
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(prims[:mid]),
		Right:       buildBVH(prims[mid:]),
	}
}

// Bounds returns the overall bounding box of the BVH
func (bvh *BVH) Bounds() core.AABB {
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// Accesses returns how many queries the BVH has served
func (bvh *BVH) Accesses() int64 {
	return bvh.accesses.Load()
}

// Intersect finds the closest hit, shrinking ray.TMax
func (bvh *BVH) Intersect(ray *core.Ray, hit *core.HitRecord) bool {
	return bvh.IntersectExclusive(nil, ray, hit)
}

// IntersectP reports whether anything lies along the ray
func (bvh *BVH) IntersectP(ray *core.Ray) bool {
	return bvh.IntersectExclusive(nil, ray, nil)
}

// IntersectExclusive skips the primitives in excl. A nil hit turns it into an any-hit query.
func (bvh *BVH) IntersectExclusive(excl core.PrimitiveSet, ray *core.Ray, hit *core.HitRecord) bool {
	bvh.accesses.Add(1)
	if bvh.Root == nil {
		return false
	}
	if hit == nil {
		return bvh.anyHitNode(bvh.Root, ray, excl)
	}
	return bvh.hitNode(bvh.Root, ray, hit, excl)
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray *core.Ray, hit *core.HitRecord, excl core.PrimitiveSet) bool {
	ray.Stats.CellVisits++
	if !node.BoundingBox.Hit(ray, ray.TMin, ray.TMax) {
		return false
	}

	if node.Primitives != nil && node.Left == nil {
		hitAnything := false
		for _, p := range node.Primitives {
			if excl.Contains(p) {
				continue
			}
			ray.Stats.PrimitiveTests++
			if p.Intersect(ray, hit) {
				hitAnything = true
			}
		}
		return hitAnything
	}

	// ray.TMax already holds the closest hit of the left child when testing the right
	hitLeft := bvh.hitNode(node.Left, ray, hit, excl)
	hitRight := bvh.hitNode(node.Right, ray, hit, excl)
	return hitLeft || hitRight
}

func (bvh *BVH) anyHitNode(node *BVHNode, ray *core.Ray, excl core.PrimitiveSet) bool {
	ray.Stats.ShadowCellVisits++
	if !node.BoundingBox.Hit(ray, ray.TMin, ray.TMax) {
		return false
	}

	if node.Primitives != nil && node.Left == nil {
		for _, p := range node.Primitives {
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

	return bvh.anyHitNode(node.Left, ray, excl) || bvh.anyHitNode(node.Right, ray, excl)
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes      int
	leafNodes       int
	maxDepth        int
	avgDepth        float64
	totalPrimitives int
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	if bvh.Root == nil {
		return bvhStats{}
	}

	stats := bvhStats{}
	bvh.collectStats(bvh.Root, 0, &stats)

	if stats.leafNodes > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leafNodes)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)

	if node.Left == nil {
		stats.leafNodes++
		stats.totalPrimitives += len(node.Primitives)
		stats.avgDepth += float64(depth)
		return
	}
	bvh.collectStats(node.Left, depth+1, stats)
	bvh.collectStats(node.Right, depth+1, stats)
}
