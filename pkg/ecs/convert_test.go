// pkg/ecs/convert_test.go
package ecs

import (
	"testing"

	"github.com/EngoEngine/engo"
	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/go-collide/pkg/physics"
)

func TestPointVectorConversion(t *testing.T) {
	v := physics.Vector2D{X: 12.5, Y: -3}
	p := PointFromVector(v)

	assert.Equal(t, engo.Point{X: 12.5, Y: -3}, p)
	assert.Equal(t, v, VectorFromPoint(p))
}

func TestAABBBoxConversion(t *testing.T) {
	box := physics.Box{Pos: physics.Vector2D{X: 10, Y: 20}, W: 30, H: 40}
	aabb := AABBFromBox(box)

	assert.Equal(t, engo.Point{X: 10, Y: 20}, aabb.Min)
	assert.Equal(t, engo.Point{X: 40, Y: 60}, aabb.Max)
	assert.Equal(t, box, BoxFromAABB(aabb))

	inverted := engo.AABB{Min: engo.Point{X: 40, Y: 60}, Max: engo.Point{X: 10, Y: 20}}
	assert.Equal(t, box, BoxFromAABB(inverted))
}

func TestFromSpace(t *testing.T) {
	pos := engo.Point{X: 100, Y: 50}

	assert.Equal(t,
		physics.Box{Pos: physics.Vector2D{X: 100, Y: 50}, W: 32, H: 16},
		BoxFromSpace(pos, 32, 16))

	c := CircleFromSpace(pos, 32, 16)
	assert.Equal(t, physics.Vector2D{X: 116, Y: 58}, c.Center)
	assert.Equal(t, 8.0, c.Radius)
}
