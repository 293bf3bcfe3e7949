package scene

import (
	"slices"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Leaf threshold: this many or fewer shapes are stored in a leaf and searched linearly
const leafThreshold = 8

// bvhNode is a node in the bounding volume hierarchy
type bvhNode struct {
	bounds AABB
	left   *bvhNode
	right  *bvhNode
	shapes []Shape // Non-nil for leaves only
}

// BVH accelerates intersection over bounded shapes
type BVH struct {
	root *bvhNode
}

// NewBVH builds a BVH over shapes using a median split on the longest axis.
// The input slice is not modified.
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}
	return &BVH{root: buildBVH(slices.Clone(shapes))}
}

func buildBVH(shapes []Shape) *bvhNode {
	bounds := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		bounds = bounds.Union(s.Bounds())
	}

	if len(shapes) <= leafThreshold {
		return &bvhNode{bounds: bounds, shapes: shapes}
	}

	axis := bounds.LongestAxis()
	slices.SortFunc(shapes, func(a, b Shape) int {
		ca, cb := axisValue(a.Bounds().Center(), axis), axisValue(b.Bounds().Center(), axis)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})

	mid := len(shapes) / 2
	return &bvhNode{
		bounds: bounds,
		left:   buildBVH(shapes[:mid]),
		right:  buildBVH(shapes[mid:]),
	}
}

// Intersect returns the closest hit within (tMin, tMax)
func (b *BVH) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if b.root == nil {
		return Hit{}, false
	}
	return b.root.intersect(ray, tMin, tMax)
}

func (n *bvhNode) intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if !n.bounds.Hit(ray, tMin, tMax) {
		return Hit{}, false
	}

	var closest Hit
	found := false
	closestSoFar := tMax

	if n.shapes != nil {
		for _, s := range n.shapes {
			if hit, ok := s.Intersect(ray, tMin, closestSoFar); ok {
				found, closest, closestSoFar = true, hit, hit.T
			}
		}
		return closest, found
	}

	for _, child := range []*bvhNode{n.left, n.right} {
		if child == nil {
			continue
		}
		if hit, ok := child.intersect(ray, tMin, closestSoFar); ok {
			found, closest, closestSoFar = true, hit, hit.T
		}
	}
	return closest, found
}
