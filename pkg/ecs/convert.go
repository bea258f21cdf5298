// pkg/ecs/convert.go
package ecs

import (
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// PointFromVector converts a physics vector to an engo point
func PointFromVector(v physics.Vector2D) engo.Point {
	return engo.Point{X: float32(v.X), Y: float32(v.Y)}
}

// VectorFromPoint converts an engo point to a physics vector
func VectorFromPoint(p engo.Point) physics.Vector2D {
	return physics.Vector2D{X: float64(p.X), Y: float64(p.Y)}
}

// AABBFromBox converts a top-left anchored box to an engo AABB
func AABBFromBox(b physics.Box) engo.AABB {
	return engo.AABB{
		Min: PointFromVector(b.Pos),
		Max: engo.Point{X: float32(b.Pos.X + b.W), Y: float32(b.Pos.Y + b.H)},
	}
}

// BoxFromAABB converts an engo AABB to a box. Inverted corners are
// swapped.
func BoxFromAABB(a engo.AABB) physics.Box {
	minX, maxX := a.Min.X, a.Max.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a.Min.Y, a.Max.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return physics.Box{
		Pos: physics.Vector2D{X: float64(minX), Y: float64(minY)},
		W:   float64(maxX - minX),
		H:   float64(maxY - minY),
	}
}

// BoxFromSpace builds the box of a sprite placed the way
// common.SpaceComponent places it: Position is the top-left corner
func BoxFromSpace(position engo.Point, width, height float32) physics.Box {
	return physics.Box{
		Pos: VectorFromPoint(position),
		W:   float64(width),
		H:   float64(height),
	}
}

// CircleFromSpace builds the circle inscribed in a width x height sprite
// at position
func CircleFromSpace(position engo.Point, width, height float32) physics.Circle {
	r := width
	if height < r {
		r = height
	}
	return physics.Circle{
		Center: physics.Vector2D{
			X: float64(position.X + width/2),
			Y: float64(position.Y + height/2),
		},
		Radius: float64(r / 2),
	}
}
