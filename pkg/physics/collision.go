// pkg/physics/collision.go
package physics

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided    bool
	Normal      Vector2D
	Penetration float64
	// MTV separates the shapes when subtracted from A
	MTV  Vector2D
	AInB bool
	BInA bool
}

// CheckCollision performs detailed collision detection between any two shapes
func CheckCollision(a, b Shape) (CollisionResult, error) {
	r := NewResponse()
	hit, err := Test(a, b, r)
	if err != nil || !hit {
		return CollisionResult{}, err
	}

	return CollisionResult{
		Collided:    true,
		Normal:      r.OverlapN,
		Penetration: r.Overlap,
		MTV:         r.OverlapV,
		AInB:        r.AInB,
		BInA:        r.BInA,
	}, nil
}
