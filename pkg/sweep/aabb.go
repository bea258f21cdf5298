// Package sweep implements static and swept (continuous) intersection
// tests between axis-aligned bounding boxes, points and segments. A
// moving box is swept against static boxes so fast movers cannot tunnel
// through thin obstacles in a single step.
package sweep

import (
	"math"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// Epsilon is subtracted from a swept hit time so the mover stops just
// short of contact.
const Epsilon = 1e-8

// AABB is an axis-aligned box described by its center and half extents
type AABB struct {
	Pos  physics.Vector2D
	Half physics.Vector2D
}

// FromBox converts a top-left anchored box
func FromBox(b physics.Box) AABB {
	return AABB{
		Pos:  physics.Vector2D{X: b.Pos.X + b.W/2, Y: b.Pos.Y + b.H/2},
		Half: physics.Vector2D{X: b.W / 2, Y: b.H / 2},
	}
}

// Box converts back to a top-left anchored box
func (a *AABB) Box() physics.Box {
	return physics.Box{
		Pos: physics.Vector2D{X: a.Pos.X - a.Half.X, Y: a.Pos.Y - a.Half.Y},
		W:   a.Half.X * 2,
		H:   a.Half.Y * 2,
	}
}

// Hit describes a contact with Collider
type Hit struct {
	Collider *AABB
	// Pos is the point of contact
	Pos physics.Vector2D
	// Delta moves the other object out of the collider
	Delta physics.Vector2D
	// Normal is the surface normal at the contact point
	Normal physics.Vector2D
	// Time is the fraction of the segment or sweep travelled before
	// contact, in [0, 1]
	Time float64
}

// Sweep is the outcome of moving a box along a delta
type Sweep struct {
	Hit  *Hit
	Pos  physics.Vector2D
	Time float64
}

// sign returns -1 for negative values and 1 otherwise
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// IntersectPoint returns the hit pushing point out of a through the
// nearest face, or nil when the point is not strictly inside.
func (a *AABB) IntersectPoint(point physics.Vector2D) *Hit {
	dx := point.X - a.Pos.X
	px := a.Half.X - math.Abs(dx)
	if px <= 0 {
		return nil
	}
	dy := point.Y - a.Pos.Y
	py := a.Half.Y - math.Abs(dy)
	if py <= 0 {
		return nil
	}

	hit := &Hit{Collider: a}
	if px < py {
		sx := sign(dx)
		hit.Delta.X = px * sx
		hit.Normal.X = sx
		hit.Pos = physics.Vector2D{X: a.Pos.X + a.Half.X*sx, Y: point.Y}
	} else {
		sy := sign(dy)
		hit.Delta.Y = py * sy
		hit.Normal.Y = sy
		hit.Pos = physics.Vector2D{X: point.X, Y: a.Pos.Y + a.Half.Y*sy}
	}
	return hit
}

// slab returns the entry and exit times of a segment along one axis.
// ok is false when a motionless axis lies outside the slab.
func slab(center, half, start, delta float64) (near, far float64, ok bool) {
	if delta == 0 {
		if math.Abs(start-center) < half {
			return math.Inf(-1), math.Inf(1), true
		}
		return 0, 0, false
	}
	scale := 1 / delta
	s := sign(scale)
	near = (center - s*half - start) * scale
	far = (center + s*half - start) * scale
	return near, far, true
}

// IntersectSegment tests the segment start..start+delta against a grown
// by padding on each axis. It returns nil when the segment misses or only
// touches the box.
func (a *AABB) IntersectSegment(start, delta, padding physics.Vector2D) *Hit {
	nearX, farX, ok := slab(a.Pos.X, a.Half.X+padding.X, start.X, delta.X)
	if !ok {
		return nil
	}
	nearY, farY, ok := slab(a.Pos.Y, a.Half.Y+padding.Y, start.Y, delta.Y)
	if !ok {
		return nil
	}

	if nearX > farY || nearY > farX {
		return nil
	}

	nearTime := math.Max(nearX, nearY)
	farTime := math.Min(farX, farY)
	if nearTime >= 1 || farTime <= 0 {
		return nil
	}

	hit := &Hit{Collider: a, Time: clamp(nearTime, 0, 1)}
	if nearX > nearY {
		hit.Normal = physics.Vector2D{X: -sign(delta.X)}
	} else {
		hit.Normal = physics.Vector2D{Y: -sign(delta.Y)}
	}
	hit.Delta = delta.Scale(-(1 - hit.Time))
	hit.Pos = start.Add(delta.Scale(hit.Time))
	return hit
}

// IntersectAABB returns the hit pushing box out of a along the axis of
// least penetration, or nil when they do not overlap.
func (a *AABB) IntersectAABB(box AABB) *Hit {
	dx := box.Pos.X - a.Pos.X
	px := box.Half.X + a.Half.X - math.Abs(dx)
	if px <= 0 {
		return nil
	}
	dy := box.Pos.Y - a.Pos.Y
	py := box.Half.Y + a.Half.Y - math.Abs(dy)
	if py <= 0 {
		return nil
	}

	hit := &Hit{Collider: a}
	if px < py {
		sx := sign(dx)
		hit.Delta.X = px * sx
		hit.Normal.X = sx
		hit.Pos = physics.Vector2D{X: a.Pos.X + a.Half.X*sx, Y: box.Pos.Y}
	} else {
		sy := sign(dy)
		hit.Delta.Y = py * sy
		hit.Normal.Y = sy
		hit.Pos = physics.Vector2D{X: box.Pos.X, Y: a.Pos.Y + a.Half.Y*sy}
	}
	return hit
}

// SweepAABB moves box by delta against the static a
func (a *AABB) SweepAABB(box AABB, delta physics.Vector2D) Sweep {
	if delta.X == 0 && delta.Y == 0 {
		s := Sweep{Pos: box.Pos, Hit: a.IntersectAABB(box), Time: 1}
		if s.Hit != nil {
			s.Time = 0
		}
		return s
	}

	hit := a.IntersectSegment(box.Pos, delta, box.Half)
	if hit == nil {
		return Sweep{Pos: box.Pos.Add(delta), Time: 1}
	}

	s := Sweep{Hit: hit, Time: clamp(hit.Time-Epsilon, 0, 1)}
	s.Pos = box.Pos.Add(delta.Scale(s.Time))

	// the segment test treated box as a point; move the contact to its face
	dir := delta.Normalize()
	hit.Pos.X = clamp(hit.Pos.X+dir.X*box.Half.X, a.Pos.X-a.Half.X, a.Pos.X+a.Half.X)
	hit.Pos.Y = clamp(hit.Pos.Y+dir.Y*box.Half.Y, a.Pos.Y-a.Half.Y, a.Pos.Y+a.Half.Y)
	return s
}

// SweepInto moves a by delta through colliders and returns the earliest
// contact, or the unobstructed destination with Time 1.
func (a *AABB) SweepInto(colliders []*AABB, delta physics.Vector2D) Sweep {
	nearest := Sweep{Pos: a.Pos.Add(delta), Time: 1}
	for _, c := range colliders {
		if c == nil {
			continue
		}
		s := c.SweepAABB(*a, delta)
		if s.Time < nearest.Time {
			nearest = s
		}
	}
	return nearest
}

// IntersectPoint is the package-level form of (*AABB).IntersectPoint
func IntersectPoint(a *AABB, point physics.Vector2D) *Hit { return a.IntersectPoint(point) }

// IntersectSegment is the package-level form of (*AABB).IntersectSegment
func IntersectSegment(a *AABB, start, delta, padding physics.Vector2D) *Hit {
	return a.IntersectSegment(start, delta, padding)
}

// IntersectAABB is the package-level form of (*AABB).IntersectAABB
func IntersectAABB(a *AABB, box AABB) *Hit { return a.IntersectAABB(box) }

// SweepAABB is the package-level form of (*AABB).SweepAABB
func SweepAABB(a *AABB, box AABB, delta physics.Vector2D) Sweep { return a.SweepAABB(box, delta) }

// SweepInto is the package-level form of (*AABB).SweepInto
func SweepInto(a *AABB, colliders []*AABB, delta physics.Vector2D) Sweep {
	return a.SweepInto(colliders, delta)
}
