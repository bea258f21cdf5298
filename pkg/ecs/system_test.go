// pkg/ecs/system_test.go
package ecs

import (
	"testing"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/world"
)

type collidable struct {
	ecs.BasicEntity
	ShapeComponent
}

func newCollidable(shape physics.Shape) *collidable {
	return &collidable{BasicEntity: ecs.NewBasic(), ShapeComponent: ShapeComponent{Shape: shape}}
}

func circle(x, y, r float64) physics.Circle {
	return physics.Circle{Center: physics.Vector2D{X: x, Y: y}, Radius: r}
}

func newSystem(t *testing.T, handler ContactHandler) *CollisionSystem {
	t.Helper()
	w, err := world.New(nil)
	require.NoError(t, err)
	return NewCollisionSystem(w, handler, nil)
}

func TestCollisionSystem_UpdateReportsContacts(t *testing.T) {
	var got []world.Contact
	sys := newSystem(t, func(c world.Contact) { got = append(got, c) })

	a := newCollidable(circle(100, 100, 10))
	b := newCollidable(circle(115, 100, 10))
	c := newCollidable(circle(400, 400, 10))

	w := &ecs.World{}
	w.AddSystem(sys)
	for _, e := range []*collidable{a, b, c} {
		sys.Add(&e.BasicEntity, &e.ShapeComponent)
	}
	require.Equal(t, 3, sys.Len())

	w.Update(1.0 / 60)

	require.NoError(t, sys.Err())
	require.Len(t, got, 1)
	assert.Equal(t, a.ID(), got[0].A)
	assert.Equal(t, b.ID(), got[0].B)
	assert.InDelta(t, 5, got[0].Overlap, 1e-9)
	assert.Equal(t, got, sys.Contacts())
}

func TestCollisionSystem_ShapeChangesApplyOnUpdate(t *testing.T) {
	sys := newSystem(t, nil)
	a := newCollidable(circle(0, 0, 10))
	b := newCollidable(circle(50, 0, 10))
	sys.Add(&a.BasicEntity, &a.ShapeComponent)
	sys.Add(&b.BasicEntity, &b.ShapeComponent)

	sys.Update(0.016)
	assert.Empty(t, sys.Contacts())

	b.Shape = circle(15, 0, 10)
	sys.Update(0.016)
	assert.Len(t, sys.Contacts(), 1)
}

func TestCollisionSystem_RemoveEntity(t *testing.T) {
	sys := newSystem(t, nil)
	a := newCollidable(circle(0, 0, 10))
	b := newCollidable(circle(5, 0, 10))

	w := &ecs.World{}
	w.AddSystem(sys)
	sys.Add(&a.BasicEntity, &a.ShapeComponent)
	sys.Add(&b.BasicEntity, &b.ShapeComponent)

	w.Update(0.016)
	require.Len(t, sys.Contacts(), 1)

	w.RemoveEntity(b.BasicEntity)
	assert.Equal(t, 1, sys.Len())

	w.Update(0.016)
	assert.Empty(t, sys.Contacts())

	// unknown entities are ignored
	sys.Remove(ecs.NewBasic())
	assert.Equal(t, 1, sys.Len())
}

func TestCollisionSystem_InvalidShapeSkipped(t *testing.T) {
	sys := newSystem(t, nil)
	good := newCollidable(circle(0, 0, 10))
	other := newCollidable(circle(5, 0, 10))
	bad := newCollidable(nil)
	for _, e := range []*collidable{good, other, bad} {
		sys.Add(&e.BasicEntity, &e.ShapeComponent)
	}

	sys.Update(0.016)

	assert.ErrorIs(t, sys.Err(), physics.ErrInvalidShape)
	assert.Len(t, sys.Contacts(), 1)

	bad.Shape = circle(500, 500, 1)
	sys.Update(0.016)
	assert.NoError(t, sys.Err())
}

func TestCollisionSystem_AddByInterface(t *testing.T) {
	sys := newSystem(t, nil)

	e := newCollidable(physics.Box{W: 10, H: 10})
	sys.AddByInterface(e)
	assert.Equal(t, 1, sys.Len())

	plain := ecs.NewBasic()
	sys.AddByInterface(&plain)
	assert.Equal(t, 1, sys.Len())

	sys.Add(nil, nil)
	assert.Equal(t, 1, sys.Len())
}

func TestCollisionSystem_SpaceShapes(t *testing.T) {
	sys := newSystem(t, nil)

	crate := &collidable{BasicEntity: ecs.NewBasic(), ShapeComponent: ShapeComponent{
		Space: &SpaceShape{Position: engo.Point{X: 0, Y: 0}, Width: 20, Height: 20},
	}}
	ball := &collidable{BasicEntity: ecs.NewBasic(), ShapeComponent: ShapeComponent{
		Space: &SpaceShape{Position: engo.Point{X: 15, Y: 0}, Width: 20, Height: 20, Round: true},
		// ignored while Space is set
		Shape: circle(1000, 1000, 1),
	}}
	sys.AddByInterface(crate)
	sys.AddByInterface(ball)

	sys.Update(0.016)
	require.NoError(t, sys.Err())
	require.Len(t, sys.Contacts(), 1)

	c := sys.Contacts()[0]
	assert.Equal(t, crate.ID(), c.A)
	assert.InDelta(t, 5, c.Overlap, 1e-6)
	push := Push(c)
	assert.InDelta(t, -5, push.X, 1e-6)
	assert.InDelta(t, 0, push.Y, 1e-6)

	bounds, ok := sys.Bounds(ball.ID())
	require.True(t, ok)
	assert.Equal(t, engo.AABB{Min: engo.Point{X: 15, Y: 0}, Max: engo.Point{X: 35, Y: 20}}, bounds)
	_, ok = sys.Bounds(ecs.NewBasic().ID())
	assert.False(t, ok)

	area := engo.AABB{Min: engo.Point{X: 30, Y: 5}, Max: engo.Point{X: 31, Y: 6}}
	assert.Equal(t, []uint64{ball.ID()}, sys.Query(area))
	// inverted corners describe the same area
	assert.Equal(t, []uint64{ball.ID()}, sys.Query(engo.AABB{Min: area.Max, Max: area.Min}))

	// moving the sprite moves the shape on the next update
	crate.Space.Position = engo.Point{X: -100, Y: -100}
	sys.Update(0.016)
	assert.Empty(t, sys.Contacts())
}

func TestCollisionSystem_Priority(t *testing.T) {
	sys := newSystem(t, nil)
	var _ ecs.Prioritizer = sys
	assert.Greater(t, sys.Priority(), 0)
}
