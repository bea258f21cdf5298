// cmd/collide-bench/scene.go
package main

import (
	"math"
	"math/rand"

	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/world"
)

// scene generates bodies and per-step motion from a seeded source
type scene struct {
	rng   *rand.Rand
	field spatial.Region
	// maxSize bounds body extents
	maxSize float64
	// staticRatio is the fraction of bodies created static
	staticRatio float64
}

func newScene(seed int64, field spatial.Region) *scene {
	return &scene{
		rng:         rand.New(rand.NewSource(seed)),
		field:       field,
		maxSize:     math.Max(4, math.Min(field.W, field.H)/64),
		staticRatio: 0.2,
	}
}

func (s *scene) point() physics.Vector2D {
	return physics.Vector2D{
		X: s.field.X + s.rng.Float64()*s.field.W,
		Y: s.field.Y + s.rng.Float64()*s.field.H,
	}
}

func (s *scene) size() float64 {
	return 1 + s.rng.Float64()*(s.maxSize-1)
}

// body returns a random circle, box or polygon under id
func (s *scene) body(id uint64) world.Body {
	var shape physics.Shape
	p := s.point()
	switch s.rng.Intn(3) {
	case 0:
		shape = physics.Circle{Center: p, Radius: s.size() / 2}
	case 1:
		shape = physics.Box{Pos: p, W: s.size(), H: s.size()}
	default:
		r := s.size() / 2
		n := 3 + s.rng.Intn(4)
		points := make([]physics.Vector2D, n)
		for i := range points {
			a := 2 * math.Pi * float64(i) / float64(n)
			points[i] = physics.Vector2D{X: r * math.Cos(a), Y: r * math.Sin(a)}
		}
		shape = physics.NewPolygon(p, points).SetAngle(s.rng.Float64() * 2 * math.Pi)
	}
	return world.Body{ID: id, Shape: shape, Static: s.rng.Float64() < s.staticRatio}
}

// populate adds n bodies with IDs 1..n
func (s *scene) populate(w *world.World, n int) error {
	for i := 1; i <= n; i++ {
		if err := w.Upsert(s.body(uint64(i))); err != nil {
			return err
		}
	}
	return nil
}

// delta returns a random step of at most maxSize on each axis
func (s *scene) delta() physics.Vector2D {
	return physics.Vector2D{
		X: (s.rng.Float64()*2 - 1) * s.maxSize,
		Y: (s.rng.Float64()*2 - 1) * s.maxSize,
	}
}

// motion tallies the outcome of one animate call
type motion struct {
	swept   int
	blocked int
	moved   int
}

// animate moves every dynamic body. Boxes are swept so they stop at other
// boxes; circles and polygons are teleported.
func (s *scene) animate(w *world.World) (motion, error) {
	var m motion
	for _, b := range w.Bodies() {
		if b.Static {
			continue
		}
		d := s.delta()
		switch shape := b.Shape.(type) {
		case physics.Box:
			sw, err := w.MoveBox(b.ID, d)
			if err != nil {
				return m, err
			}
			m.swept++
			if sw.Hit != nil {
				m.blocked++
			}
		case physics.Circle:
			shape.Center = s.wrap(shape.Center.Add(d))
			b.Shape = shape
			if err := w.Upsert(b); err != nil {
				return m, err
			}
			m.moved++
		case *physics.Polygon:
			moved := physics.NewPolygon(s.wrap(shape.Pos.Add(d)), shape.Points()).
				SetAngle(shape.Angle() + d.X/s.maxSize*0.1)
			b.Shape = moved
			if err := w.Upsert(b); err != nil {
				return m, err
			}
			m.moved++
		}
	}
	return m, nil
}

// wrap keeps v inside the field
func (s *scene) wrap(v physics.Vector2D) physics.Vector2D {
	return physics.Vector2D{
		X: s.field.X + math.Mod(math.Mod(v.X-s.field.X, s.field.W)+s.field.W, s.field.W),
		Y: s.field.Y + math.Mod(math.Mod(v.Y-s.field.Y, s.field.H)+s.field.H, s.field.H),
	}
}
