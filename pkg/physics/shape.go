// pkg/physics/shape.go
package physics

import "math"

// Shape is the closed set of collision shapes understood by the resolver:
// Circle, Box and *Polygon.
type Shape interface {
	// Bounds returns the world-space axis-aligned bounding box.
	Bounds() Box
	shape()
}

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Bounds returns the square enclosing the circle
func (c Circle) Bounds() Box {
	return Box{
		Pos: Vector2D{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		W:   c.Radius * 2,
		H:   c.Radius * 2,
	}
}

func (Circle) shape() {}

// Box is an axis-aligned rectangle anchored at its top-left corner
type Box struct {
	Pos Vector2D
	W   float64
	H   float64
}

// Bounds returns the box itself
func (b Box) Bounds() Box {
	return b
}

// ToPolygon converts the box into an equivalent counter-clockwise polygon
func (b Box) ToPolygon() *Polygon {
	return NewPolygon(b.Pos, []Vector2D{
		{X: 0, Y: 0},
		{X: b.W, Y: 0},
		{X: b.W, Y: b.H},
		{X: 0, Y: b.H},
	})
}

// Center returns the midpoint of the box
func (b Box) Center() Vector2D {
	return Vector2D{X: b.Pos.X + b.W/2, Y: b.Pos.Y + b.H/2}
}

func (Box) shape() {}

// Polygon is a convex polygon with counter-clockwise local points.
//
// The world-relative points, edges and normals are derived from the
// local points, the rotation angle and the offset. They are recomputed
// by every mutator, so they can never go stale.
type Polygon struct {
	Pos Vector2D

	points []Vector2D
	angle  float64
	offset Vector2D

	calcPoints []Vector2D
	edges      []Vector2D
	normals    []Vector2D
	// live indexes the vertices whose edge has non-zero length
	live []int
}

// NewPolygon creates a polygon at pos from counter-clockwise local points
func NewPolygon(pos Vector2D, points []Vector2D) *Polygon {
	p := &Polygon{Pos: pos}
	p.SetPoints(points)
	return p
}

// SetPoints replaces the local points
func (p *Polygon) SetPoints(points []Vector2D) *Polygon {
	p.points = append(p.points[:0], points...)
	p.recalc()
	return p
}

// SetAngle sets the rotation (radians) applied to the offset points
func (p *Polygon) SetAngle(angle float64) *Polygon {
	p.angle = angle
	p.recalc()
	return p
}

// SetOffset sets the translation applied to local points before rotation
func (p *Polygon) SetOffset(offset Vector2D) *Polygon {
	p.offset = offset
	p.recalc()
	return p
}

// Rotate permanently rotates the local points by angle
func (p *Polygon) Rotate(angle float64) *Polygon {
	for i := range p.points {
		p.points[i] = p.points[i].Rotate(angle)
	}
	p.recalc()
	return p
}

// Translate permanently shifts the local points by (x, y)
func (p *Polygon) Translate(x, y float64) *Polygon {
	for i := range p.points {
		p.points[i].X += x
		p.points[i].Y += y
	}
	p.recalc()
	return p
}

// Points returns a copy of the local points
func (p *Polygon) Points() []Vector2D { return append([]Vector2D(nil), p.points...) }

// Angle returns the current rotation
func (p *Polygon) Angle() float64 { return p.angle }

// Offset returns the current offset
func (p *Polygon) Offset() Vector2D { return p.offset }

// CalcPoints returns the rotated and offset points relative to Pos.
// The slice is owned by the polygon and must not be modified.
func (p *Polygon) CalcPoints() []Vector2D { return p.calcPoints }

// Edges returns calcPoints[i+1] - calcPoints[i] for every vertex
func (p *Polygon) Edges() []Vector2D { return p.edges }

// Normals returns the unit normals of every edge. A zero-length edge,
// from a repeated vertex, has a zero normal.
func (p *Polygon) Normals() []Vector2D { return p.normals }

func (p *Polygon) recalc() {
	n := len(p.points)
	p.calcPoints = resize(p.calcPoints, n)
	p.edges = resize(p.edges, n)
	p.normals = resize(p.normals, n)

	for i, pt := range p.points {
		pt = pt.Add(p.offset)
		if p.angle != 0 {
			pt = pt.Rotate(p.angle)
		}
		p.calcPoints[i] = pt
	}
	p.live = p.live[:0]
	for i := range p.calcPoints {
		next := p.calcPoints[(i+1)%n]
		p.edges[i] = next.Sub(p.calcPoints[i])
		p.normals[i] = p.edges[i].Perp().Normalize()
		if p.edges[i].LengthSquared() > 0 {
			p.live = append(p.live, i)
		}
	}
}

func resize(s []Vector2D, n int) []Vector2D {
	if cap(s) < n {
		return make([]Vector2D, n)
	}
	return s[:n]
}

// Bounds returns the world-space bounding box of the polygon
func (p *Polygon) Bounds() Box {
	if len(p.calcPoints) == 0 {
		return Box{Pos: p.Pos}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p.calcPoints {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Box{
		Pos: Vector2D{X: p.Pos.X + minX, Y: p.Pos.Y + minY},
		W:   maxX - minX,
		H:   maxY - minY,
	}
}

func (*Polygon) shape() {}
