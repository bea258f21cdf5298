// pkg/ecs/system.go
package ecs

import (
	"context"
	"sort"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/world"
)

// SpaceShape describes a shape by the position and size of an engo
// sprite, as a common.SpaceComponent lays it out
type SpaceShape struct {
	Position engo.Point
	Width    float32
	Height   float32
	// Round selects the inscribed circle instead of the box
	Round bool
}

// Shape returns the collision shape covering the sprite
func (s *SpaceShape) Shape() physics.Shape {
	if s.Round {
		return CircleFromSpace(s.Position, s.Width, s.Height)
	}
	return BoxFromSpace(s.Position, s.Width, s.Height)
}

// ShapeComponent attaches a collision shape to an entity. Shape may be
// changed between updates; the system picks up the new value on the next
// Update. When Space is set it takes precedence over Shape.
type ShapeComponent struct {
	Shape  physics.Shape
	Space  *SpaceShape
	Static bool
}

// current returns the shape the component describes right now
func (c *ShapeComponent) current() physics.Shape {
	if c.Space != nil {
		return c.Space.Shape()
	}
	return c.Shape
}

// GetShapeComponent returns the component itself
func (c *ShapeComponent) GetShapeComponent() *ShapeComponent {
	return c
}

// ShapeFace is implemented by entities carrying a ShapeComponent
type ShapeFace interface {
	GetShapeComponent() *ShapeComponent
}

// Collidable is an entity the CollisionSystem can add by interface
type Collidable interface {
	ecs.BasicFace
	ShapeFace
}

// ContactHandler receives each contact found during an Update. A and B are
// entity IDs.
type ContactHandler func(world.Contact)

type collisionEntity struct {
	basic *ecs.BasicEntity
	shape *ShapeComponent
}

// CollisionSystem feeds entity shapes into a world.World on every Update
// and reports the resulting contacts
type CollisionSystem struct {
	world    *world.World
	handler  ContactHandler
	logger   *logging.Logger
	entities map[uint64]collisionEntity

	contacts []world.Contact
	lastErr  error
}

// NewCollisionSystem creates a system backed by w. handler may be nil.
func NewCollisionSystem(w *world.World, handler ContactHandler, logger *logging.Logger) *CollisionSystem {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CollisionSystem{
		world:    w,
		handler:  handler,
		logger:   logger,
		entities: make(map[uint64]collisionEntity),
	}
}

// Add registers an entity with its shape
func (cs *CollisionSystem) Add(basic *ecs.BasicEntity, shape *ShapeComponent) {
	if basic == nil || shape == nil {
		return
	}
	cs.entities[basic.ID()] = collisionEntity{basic: basic, shape: shape}
}

// AddByInterface satisfies ecs.SystemAddByInterfacer
func (cs *CollisionSystem) AddByInterface(i ecs.Identifier) {
	o, ok := i.(Collidable)
	if !ok {
		return
	}
	cs.Add(o.GetBasicEntity(), o.GetShapeComponent())
}

// Remove satisfies the ecs.System interface
func (cs *CollisionSystem) Remove(basic ecs.BasicEntity) {
	id := basic.ID()
	if _, ok := cs.entities[id]; !ok {
		return
	}
	delete(cs.entities, id)
	cs.world.Remove(id)
}

// Update syncs shapes into the world, steps it and hands every contact to
// the handler. Entities with an invalid shape are skipped; the error is
// kept for Err.
func (cs *CollisionSystem) Update(dt float32) {
	ctx := context.Background()
	cs.lastErr = nil

	ids := make([]uint64, 0, len(cs.entities))
	for id := range cs.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := cs.entities[id]
		err := cs.world.Upsert(world.Body{ID: id, Shape: e.shape.current(), Static: e.shape.Static})
		if err != nil {
			cs.logger.Warn(ctx, "entity shape rejected", "entity", id, "error", err.Error())
			cs.world.Remove(id)
			if cs.lastErr == nil {
				cs.lastErr = err
			}
		}
	}

	contacts, err := cs.world.Step(ctx)
	if err != nil {
		cs.lastErr = err
		cs.contacts = nil
		return
	}
	cs.contacts = contacts

	if cs.handler == nil {
		return
	}
	for _, c := range contacts {
		cs.handler(c)
	}
}

// Bounds returns the bounding box of entity id as of the last Update
func (cs *CollisionSystem) Bounds(id uint64) (engo.AABB, bool) {
	b, ok := cs.world.Body(id)
	if !ok {
		return engo.AABB{}, false
	}
	return AABBFromBox(b.Shape.Bounds()), true
}

// Query returns the entities whose bounds overlap area, in ascending order
func (cs *CollisionSystem) Query(area engo.AABB) []uint64 {
	box := BoxFromAABB(area)
	region := spatial.Region{X: box.Pos.X, Y: box.Pos.Y, W: box.W, H: box.H}

	var out []uint64
	for _, id := range cs.world.Query(region) {
		b, ok := cs.world.Body(id)
		if !ok {
			continue
		}
		bb := b.Shape.Bounds()
		if bb.Pos.X <= box.Pos.X+box.W && box.Pos.X <= bb.Pos.X+bb.W &&
			bb.Pos.Y <= box.Pos.Y+box.H && box.Pos.Y <= bb.Pos.Y+bb.H {
			out = append(out, id)
		}
	}
	return out
}

// Push returns the offset that moves entity A of c out of B
func Push(c world.Contact) engo.Point {
	return PointFromVector(c.MTV.Reverse())
}

// Contacts returns the contacts of the last Update
func (cs *CollisionSystem) Contacts() []world.Contact {
	return cs.contacts
}

// Err returns the first error of the last Update, if any
func (cs *CollisionSystem) Err() error {
	return cs.lastErr
}

// Len returns the number of tracked entities
func (cs *CollisionSystem) Len() int {
	return len(cs.entities)
}

// Priority runs collision ahead of default-priority systems so they see
// this frame's contacts
func (cs *CollisionSystem) Priority() int {
	return 10
}
