package world

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/sweep"
)

// MoveBox moves the box body id by delta, stopping just before the first
// other box body in its path. Bodies of other shapes do not block the
// move. The returned sweep holds the new center and the hit, if any.
func (w *World) MoveBox(id uint64, delta physics.Vector2D) (sweep.Sweep, error) {
	s, events, err := w.moveBox(id, delta)
	if err != nil {
		return sweep.Sweep{}, err
	}
	w.recorder.ObserveSweep(s.Hit != nil)
	w.publish(events)
	return s, nil
}

func (w *World) moveBox(id uint64, delta physics.Vector2D) (sweep.Sweep, []event.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	body, ok := w.bodies[id]
	if !ok {
		return sweep.Sweep{}, nil, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	box, ok := asBox(body.Shape)
	if !ok {
		return sweep.Sweep{}, nil, fmt.Errorf("%w: body %d is %T", ErrNotBox, id, body.Shape)
	}

	w.ensureIndex()

	mover := sweep.FromBox(box)
	area := sweptRegion(box, delta)
	candidates := w.index.Find(&area)
	slices.Sort(candidates)

	colliders := make([]*sweep.AABB, 0, len(candidates))
	owners := make(map[*sweep.AABB]uint64, len(candidates))
	for _, other := range candidates {
		if other == id {
			continue
		}
		obstacle, ok := asBox(w.bodies[other].Shape)
		if !ok {
			continue
		}
		c := sweep.FromBox(obstacle)
		colliders = append(colliders, &c)
		owners[&c] = other
	}

	s := mover.SweepInto(colliders, delta)

	end := sweep.AABB{Pos: s.Pos, Half: mover.Half}
	moved := end.Box()
	if _, isPtr := body.Shape.(*physics.Box); isPtr {
		body.Shape = &moved
	} else {
		body.Shape = moved
	}
	w.bodies[id] = body
	w.dirty = true

	w.logger.Debug(context.Background(), "box swept",
		"body", id,
		"candidates", len(colliders),
		"time", s.Time,
		"blocked", s.Hit != nil)

	if s.Hit == nil || w.bus == nil {
		return s, nil, nil
	}
	e := event.NewSweepEvent(w, id, owners[s.Hit.Collider], s.Hit.Time, s.Hit.Normal)
	return s, []event.Event{e}, nil
}

// asBox accepts a Box by value or through a non-nil pointer
func asBox(s physics.Shape) (physics.Box, bool) {
	switch b := s.(type) {
	case physics.Box:
		return b, true
	case *physics.Box:
		if b != nil {
			return *b, true
		}
	}
	return physics.Box{}, false
}

// sweptRegion covers box at its start and end positions
func sweptRegion(box physics.Box, delta physics.Vector2D) spatial.Region {
	minX := math.Min(box.Pos.X, box.Pos.X+delta.X)
	minY := math.Min(box.Pos.Y, box.Pos.Y+delta.Y)
	return spatial.Region{
		X: minX,
		Y: minY,
		W: box.W + math.Abs(delta.X),
		H: box.H + math.Abs(delta.Y),
	}
}
