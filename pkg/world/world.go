// Package world orchestrates collision detection for a set of bodies. Each
// step rebuilds a spatial index from body bounds, pairs broad-phase
// candidates and resolves them with the SAT narrow phase. Box bodies can
// also be moved with swept tests so they stop at the first obstacle.
//
// A World is safe for concurrent use.
package world

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/metrics"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
)

var (
	// ErrUnknownBody is returned for an ID that is not in the world
	ErrUnknownBody = errors.New("unknown body")
	// ErrNotBox is returned by MoveBox for a body whose shape is not a physics.Box
	ErrNotBox = errors.New("body is not a box")
)

// Body is a shape registered under a caller-chosen ID. Pairs of static
// bodies are never tested against each other.
type Body struct {
	ID     uint64
	Shape  physics.Shape
	Static bool
}

// Contact describes a colliding pair with A < B. Subtracting MTV from A's
// position (or adding it to B's) separates the shapes.
type Contact struct {
	A       uint64
	B       uint64
	Overlap float64
	// Normal points from A into B
	Normal physics.Vector2D
	MTV    physics.Vector2D
	AInB   bool
	BInA   bool
}

// Stats summarizes the world and its most recent step
type Stats struct {
	Bodies           int
	Steps            uint64
	LastPairs        int
	LastContacts     int
	LastStepDuration time.Duration
	LastStepAt       time.Time
}

// Option configures optional collaborators of a World
type Option func(*World)

// WithLogger sets the logger used for step and sweep diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRecorder reports step and sweep metrics to r
func WithRecorder(r *metrics.Recorder) Option {
	return func(w *World) { w.recorder = r }
}

// WithEventBus publishes contact changes and blocked sweeps on bus
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.bus = bus }
}

// pair is an unordered candidate pair stored with a < b
type pair struct {
	a, b uint64
}

func comparePairs(x, y pair) int {
	if x.a != y.a {
		if x.a < y.a {
			return -1
		}
		return 1
	}
	switch {
	case x.b < y.b:
		return -1
	case x.b > y.b:
		return 1
	}
	return 0
}

// World holds bodies and the broad-phase index built from them
type World struct {
	mu sync.Mutex

	cfg    config.WorldConfig
	index  spatial.Index[uint64]
	bodies map[uint64]Body
	// dirty is set when bodies changed since the index was last filled
	dirty  bool
	active map[pair]struct{}
	// contacts is the result of the last step
	contacts []Contact
	stats    Stats

	logger   *logging.Logger
	recorder *metrics.Recorder
	bus      *event.Bus
}

// New creates an empty world. A nil cfg selects config.DefaultConfig.
func New(cfg *config.WorldConfig, opts ...Option) (*World, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "world config")
	}

	index, err := spatial.New[uint64](cfg.Index, cfg.Field, cfg.IndexOptions())
	if err != nil {
		return nil, logging.WrapError(err, "world index")
	}

	w := &World{
		cfg:    *cfg,
		index:  index,
		bodies: make(map[uint64]Body),
		active: make(map[pair]struct{}),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.logger.Debug(context.Background(), "world created",
		"index", string(cfg.Index),
		"field_width", cfg.Field.W,
		"field_height", cfg.Field.H,
		"workers", cfg.Workers)
	return w, nil
}

// Config returns a copy of the configuration the world was built with
func (w *World) Config() config.WorldConfig {
	return w.cfg
}

// Upsert adds body or replaces the body with the same ID
func (w *World) Upsert(body Body) error {
	if err := physics.Validate(body.Shape); err != nil {
		return fmt.Errorf("body %d: %w", body.ID, err)
	}

	w.mu.Lock()
	w.bodies[body.ID] = body
	w.dirty = true
	n := len(w.bodies)
	w.mu.Unlock()

	w.recorder.SetBodies(n)
	return nil
}

// Remove deletes a body and reports whether it existed. Contacts the body
// took part in end immediately.
func (w *World) Remove(id uint64) bool {
	w.mu.Lock()
	if _, ok := w.bodies[id]; !ok {
		w.mu.Unlock()
		return false
	}
	delete(w.bodies, id)
	w.dirty = true
	n := len(w.bodies)

	var ended []pair
	for p := range w.active {
		if p.a == id || p.b == id {
			delete(w.active, p)
			ended = append(ended, p)
		}
	}
	w.contacts = slices.DeleteFunc(w.contacts, func(c Contact) bool {
		return c.A == id || c.B == id
	})
	slices.SortFunc(ended, comparePairs)
	events := w.endedEvents(ended)
	w.mu.Unlock()

	w.recorder.SetBodies(n)
	w.publish(events)
	return true
}

// Body returns the body registered under id
func (w *World) Body(id uint64) (Body, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	return b, ok
}

// Len returns the number of bodies
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bodies)
}

// Bodies returns every body ordered by ID
func (w *World) Bodies() []Body {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Body, 0, len(w.bodies))
	for _, id := range w.sortedIDs() {
		out = append(out, w.bodies[id])
	}
	return out
}

// LastContacts returns the contacts found by the most recent step, less
// those of bodies removed since. It does not advance the world.
func (w *World) LastContacts() []Contact {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.contacts)
}

// Stats returns counters describing the world and its last step
func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Bodies = len(w.bodies)
	return s
}

func (w *World) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// regionOf converts shape bounds into an index region
func regionOf(b physics.Box) spatial.Region {
	return spatial.Region{X: b.Pos.X, Y: b.Pos.Y, W: b.W, H: b.H}
}

// rebuild clears the index and refills it from every body's bounds
func (w *World) rebuild() {
	w.index.Clear()
	for _, id := range w.sortedIDs() {
		w.index.Add(id, regionOf(w.bodies[id].Shape.Bounds()))
	}
	w.dirty = false
}

// ensureIndex rebuilds the index only when bodies changed
func (w *World) ensureIndex() {
	if w.dirty {
		w.rebuild()
	}
}

// Query returns the IDs of bodies whose bounds may overlap region, in
// ascending order. It reflects the latest body positions.
func (w *World) Query(region spatial.Region) []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ensureIndex()
	ids := w.index.Find(&region)
	slices.Sort(ids)
	return ids
}

// HitTest returns the IDs of bodies containing point, in ascending order
func (w *World) HitTest(point physics.Vector2D) ([]uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ensureIndex()
	probe := spatial.Region{X: point.X, Y: point.Y}
	var hits []uint64
	for _, id := range w.index.Find(&probe) {
		ok, err := physics.Hit(point, w.bodies[id].Shape)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", id, err)
		}
		if ok {
			hits = append(hits, id)
		}
	}
	slices.Sort(hits)
	return hits, nil
}

func (w *World) publish(events []event.Event) {
	if w.bus == nil {
		return
	}
	for _, e := range events {
		w.bus.Publish(e)
	}
}

func (w *World) endedEvents(ended []pair) []event.Event {
	if w.bus == nil || len(ended) == 0 {
		return nil
	}
	events := make([]event.Event, 0, len(ended))
	for _, p := range ended {
		events = append(events, event.NewCollisionEvent(event.CollisionEnded, w, p.a, p.b))
	}
	return events
}
