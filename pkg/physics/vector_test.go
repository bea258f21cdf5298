// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func assertVec(t *testing.T, expected, actual Vector2D, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 1e-6, msgAndArgs...)
	assert.InDelta(t, expected.Y, actual.Y, 1e-6, msgAndArgs...)
}

func TestVector2D_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		got      Vector2D
		expected Vector2D
	}{
		{"add", Vector2D{X: 3, Y: 4}.Add(Vector2D{X: 1, Y: 2}), Vector2D{X: 4, Y: 6}},
		{"add_mixed_signs", Vector2D{X: 5, Y: -3}.Add(Vector2D{X: -2, Y: 7}), Vector2D{X: 3, Y: 4}},
		{"sub", Vector2D{X: 3, Y: 4}.Sub(Vector2D{X: 1, Y: 2}), Vector2D{X: 2, Y: 2}},
		{"scale", Vector2D{X: 3, Y: -4}.Scale(2), Vector2D{X: 6, Y: -8}},
		{"scale_zero", Vector2D{X: 3, Y: -4}.Scale(0), Vector2D{}},
		{"reverse", Vector2D{X: 3, Y: -4}.Reverse(), Vector2D{X: -3, Y: 4}},
		{"perp", Vector2D{X: 1, Y: 0}.Perp(), Vector2D{X: 0, Y: -1}},
		{"perp_y", Vector2D{X: 0, Y: 1}.Perp(), Vector2D{X: 1, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestVector2D_Length(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}
	assert.Equal(t, 5.0, v.Length())
	assert.Equal(t, 25.0, v.LengthSquared())
	assert.Equal(t, 0.0, Vector2D{}.Length())
	assert.InDelta(t, 5.0, Vector2D{X: 1, Y: 1}.Distance(Vector2D{X: 4, Y: 5}), eps)
}

func TestVector2D_Normalize(t *testing.T) {
	t.Run("regular_vector", func(t *testing.T) {
		n := Vector2D{X: 3, Y: 4}.Normalize()
		assert.InDelta(t, 1.0, n.Length(), eps)
		assertVec(t, Vector2D{X: 0.6, Y: 0.8}, n)
	})

	t.Run("negative_vector", func(t *testing.T) {
		n := Vector2D{X: -6, Y: -8}.Normalize()
		assert.InDelta(t, 1.0, n.Length(), eps)
	})

	t.Run("zero_vector_stays_zero", func(t *testing.T) {
		assert.Equal(t, Vector2D{}, Vector2D{}.Normalize())
	})
}

func TestVector2D_Dot(t *testing.T) {
	assert.Equal(t, 11.0, Vector2D{X: 1, Y: 2}.Dot(Vector2D{X: 3, Y: 4}))
	assert.Equal(t, 0.0, Vector2D{X: 1, Y: 0}.Dot(Vector2D{X: 0, Y: 1}))
	assert.Equal(t, -1.0, Vector2D{X: 1, Y: 0}.Dot(Vector2D{X: -1, Y: 0}))
}

func TestVector2D_Angle(t *testing.T) {
	assert.InDelta(t, 0.0, Vector2D{X: 1, Y: 0}.Angle(), eps)
	assert.InDelta(t, math.Pi/2, Vector2D{X: 0, Y: 1}.Angle(), eps)
	assertVec(t, Vector2D{X: 0, Y: 2}, FromAngle(math.Pi/2, 2))
}

func TestVector2D_Rotate(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector2D
		angle    float64
		expected Vector2D
	}{
		{"quarter_turn", Vector2D{X: 1, Y: 0}, math.Pi / 2, Vector2D{X: 0, Y: 1}},
		{"half_turn", Vector2D{X: 1, Y: 2}, math.Pi, Vector2D{X: -1, Y: -2}},
		{"no_rotation", Vector2D{X: 1, Y: 2}, 0, Vector2D{X: 1, Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVec(t, tt.expected, tt.v.Rotate(tt.angle))
		})
	}
}

func TestVector2D_Project(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}

	assertVec(t, Vector2D{X: 3, Y: 0}, v.Project(Vector2D{X: 10, Y: 0}))
	assertVec(t, Vector2D{X: 0, Y: 4}, v.ProjectN(Vector2D{X: 0, Y: 1}))
	assert.Equal(t, Vector2D{}, v.Project(Vector2D{}), "zero axis must not produce NaN")
}

func TestVector2D_Reflect(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}

	assertVec(t, Vector2D{X: 3, Y: -4}, v.Reflect(Vector2D{X: 5, Y: 0}))
	assertVec(t, Vector2D{X: -3, Y: 4}, v.ReflectN(Vector2D{X: 0, Y: 1}))
}

func BenchmarkVector2D_Normalize(b *testing.B) {
	v := Vector2D{X: 3, Y: 4}
	for i := 0; i < b.N; i++ {
		v.Normalize()
	}
}
