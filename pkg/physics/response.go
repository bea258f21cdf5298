// pkg/physics/response.go
package physics

import "math"

// Response holds the result of a collision test between A and B.
//
// Overlap, AInB and BInA are accumulated across axes, so a Response must be
// cleared before it is reused for another pair.
type Response struct {
	A Shape
	B Shape

	// Overlap is the magnitude of the minimum translation vector
	Overlap float64
	// OverlapN is the unit axis of least penetration, pointing from A into B
	OverlapN Vector2D
	// OverlapV is OverlapN scaled by Overlap. Subtracting it from A's
	// position (or adding it to B's) separates the shapes.
	OverlapV Vector2D

	AInB bool
	BInA bool
}

// NewResponse returns a cleared Response
func NewResponse() *Response {
	r := &Response{}
	r.Clear()
	return r
}

// Clear resets the response so it can be used for a new pair test
func (r *Response) Clear() *Response {
	r.A = nil
	r.B = nil
	r.Overlap = math.Inf(1)
	r.OverlapN = Vector2D{}
	r.OverlapV = Vector2D{}
	r.AInB = true
	r.BInA = true
	return r
}

// swap mirrors the response so that A and B trade places
func (r *Response) swap() {
	r.A, r.B = r.B, r.A
	r.OverlapN = r.OverlapN.Reverse()
	r.OverlapV = r.OverlapV.Reverse()
	r.AInB, r.BInA = r.BInA, r.AInB
}
