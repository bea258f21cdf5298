package world

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/physics"
)

const (
	// minParallelPairs is the smallest pair count split across workers
	minParallelPairs = 64
	// cancelCheckInterval is how many pairs a worker resolves between
	// context checks
	cancelCheckInterval = 32
)

// Step rebuilds the broad phase, resolves every candidate pair and returns
// the contacts ordered by (A, B). With more than one configured worker the
// pairs are resolved in parallel. A cancelled ctx aborts the step with
// ctx.Err() and leaves the previous contact set in place.
func (w *World) Step(ctx context.Context) ([]Contact, error) {
	contacts, events, err := w.step(ctx)
	if err != nil {
		w.logger.Error(ctx, "world step failed", err)
		return nil, err
	}
	w.publish(events)
	return contacts, nil
}

func (w *World) step(ctx context.Context) ([]Contact, []event.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	w.rebuild()
	pairs := w.candidatePairs()

	contacts, err := w.resolve(ctx, pairs)
	if err != nil {
		return nil, nil, err
	}
	events := w.diffContacts(contacts)
	w.contacts = contacts
	took := time.Since(start)

	w.stats.Steps++
	w.stats.LastPairs = len(pairs)
	w.stats.LastContacts = len(contacts)
	w.stats.LastStepDuration = took
	w.stats.LastStepAt = start

	w.recorder.ObserveStep(took, len(pairs), len(contacts))
	w.logger.Debug(ctx, "world step",
		"step", w.stats.Steps,
		"bodies", len(w.bodies),
		"pairs", len(pairs),
		"contacts", len(contacts),
		"took", took)
	return contacts, events, nil
}

// candidatePairs returns each unordered pair of bodies with overlapping
// bounds exactly once, sorted. Static pairs are skipped.
func (w *World) candidatePairs() []pair {
	var pairs []pair
	for id, body := range w.bodies {
		r := regionOf(body.Shape.Bounds())
		for _, other := range w.index.Find(&r) {
			if other <= id {
				continue
			}
			if body.Static && w.bodies[other].Static {
				continue
			}
			pairs = append(pairs, pair{a: id, b: other})
		}
	}
	slices.SortFunc(pairs, comparePairs)
	return pairs
}

// resolve runs the narrow phase over pairs. Contacts keep the pair order.
func (w *World) resolve(ctx context.Context, pairs []pair) ([]Contact, error) {
	workers := w.cfg.Workers
	if workers <= 1 || len(pairs) < minParallelPairs {
		return w.resolveRange(ctx, pairs)
	}

	chunk := (len(pairs) + workers - 1) / workers
	results := make([][]Contact, workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		lo := i * chunk
		if lo >= len(pairs) {
			break
		}
		hi := min(lo+chunk, len(pairs))
		g.Go(func() error {
			contacts, err := w.resolveRange(gctx, pairs[lo:hi])
			results[i] = contacts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contacts []Contact
	for _, r := range results {
		contacts = append(contacts, r...)
	}
	return contacts, nil
}

// resolveRange tests pairs sequentially
func (w *World) resolveRange(ctx context.Context, pairs []pair) ([]Contact, error) {
	var contacts []Contact
	for i, p := range pairs {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		res, err := physics.CheckCollision(w.bodies[p.a].Shape, w.bodies[p.b].Shape)
		if err != nil {
			return nil, fmt.Errorf("pair %d/%d: %w", p.a, p.b, err)
		}
		if !res.Collided {
			continue
		}
		contacts = append(contacts, Contact{
			A:       p.a,
			B:       p.b,
			Overlap: res.Penetration,
			Normal:  res.Normal,
			MTV:     res.MTV,
			AInB:    res.AInB,
			BInA:    res.BInA,
		})
	}
	return contacts, nil
}

// diffContacts replaces the active pair set and returns the started and
// ended collision events
func (w *World) diffContacts(contacts []Contact) []event.Event {
	next := make(map[pair]struct{}, len(contacts))
	var events []event.Event
	for _, c := range contacts {
		p := pair{a: c.A, b: c.B}
		next[p] = struct{}{}
		if _, ok := w.active[p]; ok || w.bus == nil {
			continue
		}
		e := event.NewCollisionEvent(event.CollisionStarted, w, c.A, c.B)
		e.Normal = c.Normal
		e.Overlap = c.Overlap
		events = append(events, e)
	}

	var ended []pair
	for p := range w.active {
		if _, ok := next[p]; !ok {
			ended = append(ended, p)
		}
	}
	slices.SortFunc(ended, comparePairs)

	w.active = next
	return append(events, w.endedEvents(ended)...)
}
