// pkg/physics/sat.go
package physics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidShape is returned when a shape is nil or not one of
// Circle, Box or *Polygon.
var ErrInvalidShape = errors.New("invalid shape")

// Voronoi regions of a point relative to a polygon edge
const (
	leftVoronoiRegion   = -1
	middleVoronoiRegion = 0
	rightVoronoiRegion  = 1
)

// testPointSize is the side of the box used for polygon point containment
const testPointSize = 0.000001

// Test checks whether a and b collide. When r is non-nil it must be
// cleared beforehand and receives the minimum translation vector.
func Test(a, b Shape, r *Response) (bool, error) {
	pa, ca, err := classify(a)
	if err != nil {
		return false, fmt.Errorf("shape a: %w", err)
	}
	pb, cb, err := classify(b)
	if err != nil {
		return false, fmt.Errorf("shape b: %w", err)
	}

	var hit bool
	switch {
	case ca != nil && cb != nil:
		hit = TestCircleCircle(*ca, *cb, r)
	case ca != nil:
		hit = TestCirclePolygon(*ca, pb, r)
	case cb != nil:
		hit = TestPolygonCircle(pa, *cb, r)
	default:
		hit = TestPolygonPolygon(pa, pb, r)
	}

	if hit && r != nil {
		r.A, r.B = a, b
	}
	return hit, nil
}

// classify returns either a polygon or a circle for s
func classify(s Shape) (*Polygon, *Circle, error) {
	switch v := s.(type) {
	case Circle:
		return nil, &v, nil
	case *Circle:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil *Circle", ErrInvalidShape)
		}
		return nil, v, nil
	case Box:
		return v.ToPolygon(), nil, nil
	case *Box:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil *Box", ErrInvalidShape)
		}
		return v.ToPolygon(), nil, nil
	case *Polygon:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil *Polygon", ErrInvalidShape)
		}
		return v, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %T", ErrInvalidShape, s)
	}
}

// Validate returns ErrInvalidShape when s is nil or not a supported shape
func Validate(s Shape) error {
	_, _, err := classify(s)
	return err
}

// Hit reports whether point lies inside s (boundary inclusive for circles)
func Hit(point Vector2D, s Shape) (bool, error) {
	p, c, err := classify(s)
	if err != nil {
		return false, err
	}
	if c != nil {
		return PointInCircle(point, *c), nil
	}
	return PointInPolygon(point, p), nil
}

// PointInCircle reports whether p is inside or on the edge of c
func PointInCircle(p Vector2D, c Circle) bool {
	return p.Sub(c.Center).LengthSquared() <= c.Radius*c.Radius
}

// PointInPolygon reports whether p is inside poly, by testing a tiny box
// centered on p against it.
func PointInPolygon(p Vector2D, poly *Polygon) bool {
	probe := Box{
		Pos: Vector2D{X: p.X - testPointSize/2, Y: p.Y - testPointSize/2},
		W:   testPointSize,
		H:   testPointSize,
	}.ToPolygon()

	r := NewResponse()
	if !TestPolygonPolygon(probe, poly, r) {
		return false
	}
	return r.AInB
}

// flattenPointsOn projects points onto normal and returns the interval
func flattenPointsOn(points []Vector2D, normal Vector2D) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		dot := p.Dot(normal)
		if dot < lo {
			lo = dot
		}
		if dot > hi {
			hi = dot
		}
	}
	return lo, hi
}

// IsSeparatingAxis reports whether axis separates the two point sets
// placed at aPos and bPos. When it does not and r is non-nil, r is updated
// if this axis yields a smaller overlap than any seen before.
func IsSeparatingAxis(aPos, bPos Vector2D, aPoints, bPoints []Vector2D, axis Vector2D, r *Response) bool {
	aMin, aMax := flattenPointsOn(aPoints, axis)
	bMin, bMax := flattenPointsOn(bPoints, axis)

	projectedOffset := bPos.Sub(aPos).Dot(axis)
	bMin += projectedOffset
	bMax += projectedOffset

	if aMin > bMax || bMin > aMax {
		return true
	}
	if r == nil {
		return false
	}

	var overlap float64
	if aMin < bMin {
		r.AInB = false
		if aMax < bMax {
			overlap = aMax - bMin
			r.BInA = false
		} else {
			overlap = nestedOverlap(aMin, aMax, bMin, bMax)
		}
	} else {
		r.BInA = false
		if aMax > bMax {
			overlap = aMin - bMax
			r.AInB = false
		} else {
			overlap = nestedOverlap(aMin, aMax, bMin, bMax)
		}
	}

	if abs := math.Abs(overlap); abs < r.Overlap {
		r.Overlap = abs
		r.OverlapN = axis
		if overlap < 0 {
			r.OverlapN = axis.Reverse()
		}
	}
	return false
}

// nestedOverlap picks the shorter way out when one interval contains the
// other. A negative result means pushing against the axis direction.
func nestedOverlap(aMin, aMax, bMin, bMax float64) float64 {
	option1 := aMax - bMin
	option2 := bMax - aMin
	if option1 < option2 {
		return option1
	}
	return -option2
}

// voronoiRegion classifies point relative to line (both relative to the
// line's start vertex).
func voronoiRegion(line, point Vector2D) int {
	dp := point.Dot(line)
	switch {
	case dp < 0:
		return leftVoronoiRegion
	case dp > line.LengthSquared():
		return rightVoronoiRegion
	default:
		return middleVoronoiRegion
	}
}

// TestPolygonPolygon checks two convex polygons against every edge normal.
// Zero-length edges are skipped. Two polygons that have collapsed to single
// points collide only when the points coincide.
func TestPolygonPolygon(a, b *Polygon, r *Response) bool {
	for _, i := range a.live {
		if IsSeparatingAxis(a.Pos, b.Pos, a.calcPoints, b.calcPoints, a.normals[i], r) {
			return false
		}
	}
	for _, i := range b.live {
		if IsSeparatingAxis(a.Pos, b.Pos, a.calcPoints, b.calcPoints, b.normals[i], r) {
			return false
		}
	}

	if len(a.live) == 0 && len(b.live) == 0 {
		if len(a.calcPoints) == 0 || len(b.calcPoints) == 0 {
			return false
		}
		if a.Pos.Add(a.calcPoints[0]) != b.Pos.Add(b.calcPoints[0]) {
			return false
		}
		if r != nil {
			r.Overlap = 0
		}
	}

	if r != nil {
		r.A, r.B = a, b
		r.OverlapV = r.OverlapN.Scale(r.Overlap)
	}
	return true
}

// TestCircleCircle checks two circles; touching circles collide
func TestCircleCircle(a, b Circle, r *Response) bool {
	diff := b.Center.Sub(a.Center)
	totalRadius := a.Radius + b.Radius
	distSq := diff.LengthSquared()
	if distSq > totalRadius*totalRadius {
		return false
	}

	if r != nil {
		dist := math.Sqrt(distSq)
		r.A, r.B = a, b
		r.Overlap = totalRadius - dist
		r.OverlapN = diff.Normalize()
		r.OverlapV = r.OverlapN.Scale(r.Overlap)
		r.AInB = a.Radius <= b.Radius && dist <= b.Radius-a.Radius
		r.BInA = b.Radius <= a.Radius && dist <= a.Radius-b.Radius
	}
	return true
}

// TestPolygonCircle checks a polygon against a circle using the Voronoi
// regions of each edge. Zero-length edges are skipped, so a repeated vertex
// behaves like a single one.
func TestPolygonCircle(poly *Polygon, c Circle, r *Response) bool {
	points := poly.calcPoints
	if len(points) == 0 {
		return false
	}
	live := poly.live
	n := len(live)
	if n == 0 {
		// every vertex coincides
		hit := TestCircleCircle(Circle{Center: poly.Pos.Add(points[0])}, c, r)
		if hit && r != nil {
			r.A, r.B = poly, c
		}
		return hit
	}

	circlePos := c.Center.Sub(poly.Pos)
	radius := c.Radius
	radiusSq := radius * radius

	var (
		bestOverlap = math.Inf(1)
		bestN       Vector2D
	)
	for j := 0; j < n; j++ {
		i := live[j]
		next := live[(j+1)%n]
		prev := live[(j+n-1)%n]

		var (
			overlap  float64
			overlapN Vector2D
			found    bool
		)

		edge := poly.edges[i]
		point := circlePos.Sub(points[i])
		if r != nil && point.LengthSquared() > radiusSq {
			r.AInB = false
		}

		switch voronoiRegion(edge, point) {
		case leftVoronoiRegion:
			// Only a vertex hit if also right of the previous edge
			point2 := circlePos.Sub(points[prev])
			if voronoiRegion(poly.edges[prev], point2) == rightVoronoiRegion {
				dist := point.Length()
				if dist > radius {
					return false
				}
				if r != nil {
					r.BInA = false
					overlapN, overlap, found = point.Normalize(), radius-dist, true
				}
			}
		case rightVoronoiRegion:
			point = circlePos.Sub(points[next])
			if voronoiRegion(poly.edges[next], point) == leftVoronoiRegion {
				dist := point.Length()
				if dist > radius {
					return false
				}
				if r != nil {
					r.BInA = false
					overlapN, overlap, found = point.Normalize(), radius-dist, true
				}
			}
		default:
			normal := poly.normals[i]
			dist := point.Dot(normal)
			if dist > 0 && math.Abs(dist) > radius {
				return false
			}
			if r != nil {
				overlapN, overlap, found = normal, radius-dist, true
				if dist >= 0 || overlap < 2*radius {
					r.BInA = false
				}
			}
		}

		if found && math.Abs(overlap) < math.Abs(bestOverlap) {
			bestOverlap = overlap
			bestN = overlapN
		}
	}

	if r != nil {
		r.A, r.B = poly, c
		if math.Abs(bestOverlap) < math.Abs(r.Overlap) {
			r.Overlap = bestOverlap
			r.OverlapN = bestN
		}
		r.OverlapV = r.OverlapN.Scale(r.Overlap)
	}
	return true
}

// TestCirclePolygon is TestPolygonCircle with the roles of the shapes
// swapped in the response.
func TestCirclePolygon(c Circle, poly *Polygon, r *Response) bool {
	hit := TestPolygonCircle(poly, c, r)
	if hit && r != nil {
		r.swap()
	}
	return hit
}
