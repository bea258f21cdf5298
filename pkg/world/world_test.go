package world

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/metrics"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
)

type vec = physics.Vector2D

func testConfig(kind spatial.Kind, workers int) *config.WorldConfig {
	cfg := config.DefaultConfig()
	cfg.Field = spatial.Region{X: -512, Y: -512, W: 1024, H: 1024}
	cfg.Index = kind
	cfg.Workers = workers
	return cfg
}

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	w, err := New(testConfig(spatial.KindGrid, 1), opts...)
	require.NoError(t, err)
	return w
}

func circle(x, y, r float64) physics.Circle {
	return physics.Circle{Center: vec{X: x, Y: y}, Radius: r}
}

func TestNew(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, *config.DefaultConfig(), w.Config())
	assert.Zero(t, w.Len())

	bad := config.DefaultConfig()
	bad.Workers = 0
	_, err = New(bad)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestUpsertRemoveBody(t *testing.T) {
	w := newTestWorld(t)

	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(0, 0, 5)}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: physics.Box{W: 4, H: 4}, Static: true}))
	assert.Equal(t, 2, w.Len())

	var nilPoly *physics.Polygon
	assert.ErrorIs(t, w.Upsert(Body{ID: 3, Shape: nilPoly}), physics.ErrInvalidShape)
	assert.ErrorIs(t, w.Upsert(Body{ID: 3}), physics.ErrInvalidShape)
	assert.Equal(t, 2, w.Len())

	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(10, 10, 2)}))
	b, ok := w.Body(1)
	require.True(t, ok)
	assert.Equal(t, circle(10, 10, 2), b.Shape)

	bodies := w.Bodies()
	require.Len(t, bodies, 2)
	assert.Equal(t, uint64(1), bodies[0].ID)
	assert.Equal(t, uint64(2), bodies[1].ID)

	assert.True(t, w.Remove(1))
	assert.False(t, w.Remove(1))
	_, ok = w.Body(1)
	assert.False(t, ok)
	assert.Equal(t, 1, w.Len())
}

func TestStep_Contacts(t *testing.T) {
	w := newTestWorld(t)

	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(100, 100, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: circle(115, 100, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 3, Shape: circle(-300, -300, 10)}))
	// overlapping statics are never paired
	require.NoError(t, w.Upsert(Body{ID: 4, Shape: physics.Box{Pos: vec{X: -100, Y: 0}, W: 50, H: 50}, Static: true}))
	require.NoError(t, w.Upsert(Body{ID: 5, Shape: physics.Box{Pos: vec{X: -80, Y: 0}, W: 50, H: 50}, Static: true}))
	// a dynamic body resting inside a static one
	require.NoError(t, w.Upsert(Body{ID: 6, Shape: circle(-75, 25, 5)}))

	contacts, err := w.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 3)

	first := contacts[0]
	assert.Equal(t, uint64(1), first.A)
	assert.Equal(t, uint64(2), first.B)
	assert.InDelta(t, 5, first.Overlap, 1e-9)
	assert.InDelta(t, 1, first.Normal.X, 1e-9)
	assert.InDelta(t, 5, first.MTV.X, 1e-9)
	assert.False(t, first.AInB)

	assert.Equal(t, pair{a: 4, b: 6}, pair{a: contacts[1].A, b: contacts[1].B})
	assert.True(t, contacts[1].BInA)
	assert.Equal(t, pair{a: 5, b: 6}, pair{a: contacts[2].A, b: contacts[2].B})

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.Steps)
	assert.Equal(t, 3, stats.LastContacts)
	assert.Equal(t, 6, stats.Bodies)
	assert.GreaterOrEqual(t, stats.LastPairs, 3)
}

func TestLastContacts(t *testing.T) {
	w := newTestWorld(t)
	assert.Empty(t, w.LastContacts())

	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(0, 0, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: physics.Box{Pos: vec{X: 5, Y: -5}, W: 10, H: 10}}))
	require.NoError(t, w.Upsert(Body{ID: 3, Shape: circle(200, 200, 5)}))
	require.NoError(t, w.Upsert(Body{ID: 4, Shape: circle(204, 200, 5)}))

	contacts, err := w.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	// reading back does not step
	assert.Equal(t, contacts, w.LastContacts())
	assert.Equal(t, contacts, w.LastContacts())
	assert.Equal(t, uint64(1), w.Stats().Steps)

	// contacts carry the narrow-phase result unchanged
	res, err := physics.CheckCollision(circle(0, 0, 10), physics.Box{Pos: vec{X: 5, Y: -5}, W: 10, H: 10})
	require.NoError(t, err)
	assert.Equal(t, res.Penetration, contacts[0].Overlap)
	assert.Equal(t, res.Normal, contacts[0].Normal)
	assert.Equal(t, res.MTV, contacts[0].MTV)

	require.True(t, w.Remove(3))
	last := w.LastContacts()
	require.Len(t, last, 1)
	assert.Equal(t, uint64(1), last[0].A)
}

func TestStep_MTVSeparates(t *testing.T) {
	w := newTestWorld(t)
	square := []vec{{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}}
	a := physics.NewPolygon(vec{X: 0, Y: 0}, square)
	b := physics.NewPolygon(vec{X: 15, Y: 3}, square)
	require.NoError(t, w.Upsert(Body{ID: 1, Shape: a}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: b}))

	contacts, err := w.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)

	a.Pos = a.Pos.Sub(contacts[0].MTV.Scale(1.001))
	contacts, err = w.Step(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

// A step must report exactly the pairs an exhaustive narrow phase finds,
// whatever the index and worker count.
func TestStep_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bodies := make([]Body, 400)
	for i := range bodies {
		x, y := rng.Float64()*900-450, rng.Float64()*900-450
		var shape physics.Shape
		switch i % 3 {
		case 0:
			shape = circle(x, y, 4+rng.Float64()*20)
		case 1:
			shape = physics.Box{Pos: vec{X: x, Y: y}, W: 4 + rng.Float64()*30, H: 4 + rng.Float64()*30}
		default:
			shape = physics.NewPolygon(vec{X: x, Y: y}, []vec{{X: 0, Y: 0}, {X: 20, Y: 5}, {X: 8, Y: 18}}).
				SetAngle(rng.Float64() * 6)
		}
		bodies[i] = Body{ID: uint64(i + 1), Shape: shape, Static: i%7 == 0}
	}

	var expected []pair
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			if bodies[i].Static && bodies[j].Static {
				continue
			}
			hit, err := physics.Test(bodies[i].Shape, bodies[j].Shape, nil)
			require.NoError(t, err)
			if hit {
				expected = append(expected, pair{a: bodies[i].ID, b: bodies[j].ID})
			}
		}
	}
	require.NotEmpty(t, expected)

	for _, kind := range []spatial.Kind{spatial.KindGrid, spatial.KindQuadTree} {
		for _, workers := range []int{1, 4} {
			w, err := New(testConfig(kind, workers))
			require.NoError(t, err)
			for _, b := range bodies {
				require.NoError(t, w.Upsert(b))
			}

			contacts, err := w.Step(context.Background())
			require.NoError(t, err)

			got := make([]pair, len(contacts))
			for i, c := range contacts {
				got[i] = pair{a: c.A, b: c.B}
			}
			assert.Equal(t, expected, got, "index=%s workers=%d", kind, workers)
		}
	}
}

func TestStep_Cancelled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		w, err := New(testConfig(spatial.KindGrid, workers))
		require.NoError(t, err)
		for i := 0; i < 200; i++ {
			require.NoError(t, w.Upsert(Body{ID: uint64(i), Shape: circle(float64(i%20)*5, float64(i/20)*5, 4)}))
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		contacts, err := w.Step(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, contacts)
		assert.Zero(t, w.Stats().Steps)
	}
}

func TestStep_EventsAndMetrics(t *testing.T) {
	bus := event.NewEventBus()
	var got []*event.CollisionEvent
	record := func(e event.Event) { got = append(got, e.(*event.CollisionEvent)) }
	bus.Subscribe(event.CollisionStarted, record)
	bus.Subscribe(event.CollisionEnded, record)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	core, logs := observer.New(zapcore.DebugLevel)

	w := newTestWorld(t,
		WithEventBus(bus),
		WithRecorder(recorder),
		WithLogger(logging.NewLoggerWithCore(core)))

	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(0, 0, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: circle(12, 0, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 3, Shape: circle(-15, 0, 10)}))

	ctx := context.Background()
	_, err := w.Step(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, event.CollisionStarted, got[0].GetType())
	assert.Equal(t, [2]uint64{1, 2}, [2]uint64{got[0].BodyA, got[0].BodyB})
	assert.InDelta(t, 8, got[0].Overlap, 1e-9)
	assert.Equal(t, [2]uint64{1, 3}, [2]uint64{got[1].BodyA, got[1].BodyB})

	// unchanged contacts publish nothing
	got = nil
	_, err = w.Step(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// separating 1 and 2 ends their contact on the next step
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: circle(100, 0, 10)}))
	_, err = w.Step(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event.CollisionEnded, got[0].GetType())
	assert.Equal(t, [2]uint64{1, 2}, [2]uint64{got[0].BodyA, got[0].BodyB})

	// removing a body ends its contacts immediately
	got = nil
	require.True(t, w.Remove(3))
	require.Len(t, got, 1)
	assert.Equal(t, event.CollisionEnded, got[0].GetType())
	assert.Equal(t, [2]uint64{1, 3}, [2]uint64{got[0].BodyA, got[0].BodyB})

	expected := `
# HELP collide_steps_total Total world steps
# TYPE collide_steps_total counter
collide_steps_total 3
# HELP collide_bodies Bodies currently in the world
# TYPE collide_bodies gauge
collide_bodies 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"collide_steps_total", "collide_bodies"))
	assert.Equal(t, 3, logs.FilterMessage("world step").Len())
	assert.Equal(t, 1, logs.FilterMessage("world created").Len())
}

func TestQueryAndHitTest(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.Upsert(Body{ID: 1, Shape: circle(0, 0, 10)}))
	require.NoError(t, w.Upsert(Body{ID: 2, Shape: physics.Box{Pos: vec{X: 5, Y: 5}, W: 20, H: 20}}))
	require.NoError(t, w.Upsert(Body{ID: 3, Shape: circle(200, 200, 5)}))

	assert.Equal(t, []uint64{1, 2}, w.Query(spatial.Region{X: -5, Y: -5, W: 15, H: 15}))
	assert.Equal(t, []uint64{3}, w.Query(spatial.Region{X: 198, Y: 198, W: 1, H: 1}))

	hits, err := w.HitTest(vec{X: 7, Y: 7})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, hits)

	hits, err = w.HitTest(vec{X: 20, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, hits)

	// bounds of body 1 contain the point but the circle does not
	hits, err = w.HitTest(vec{X: -9, Y: -9})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// queries see bodies moved since the last step
	require.NoError(t, w.Upsert(Body{ID: 3, Shape: circle(-200, -200, 5)}))
	assert.Equal(t, []uint64{3}, w.Query(spatial.Region{X: -201, Y: -201, W: 1, H: 1}))
}
