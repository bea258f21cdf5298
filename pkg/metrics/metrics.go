// Package metrics exposes prometheus collectors for collision worlds.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sweep outcomes used as the result label. Bounded on purpose.
const (
	SweepHit  = "hit"
	SweepMiss = "miss"
)

// Recorder groups the collectors of one world. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	steps          prometheus.Counter
	stepDuration   prometheus.Histogram
	candidatePairs prometheus.Counter
	contacts       prometheus.Counter
	sweeps         *prometheus.CounterVec
	bodies         prometheus.Gauge
}

// NewRecorder creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is handy in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "collide_steps_total",
			Help: "Total world steps",
		}),
		stepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "collide_step_duration_seconds",
			Help:    "Time spent rebuilding the index and resolving pairs",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		candidatePairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "collide_candidate_pairs_total",
			Help: "Broad-phase pairs handed to the narrow phase",
		}),
		contacts: factory.NewCounter(prometheus.CounterOpts{
			Name: "collide_contacts_total",
			Help: "Narrow-phase pairs found colliding",
		}),
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collide_sweeps_total",
			Help: "Swept box moves by outcome",
		}, []string{"result"}),
		bodies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collide_bodies",
			Help: "Bodies currently in the world",
		}),
	}
}

// ObserveStep records one completed step
func (r *Recorder) ObserveStep(took time.Duration, pairs, contacts int) {
	if r == nil {
		return
	}
	r.steps.Inc()
	r.stepDuration.Observe(took.Seconds())
	r.candidatePairs.Add(float64(pairs))
	r.contacts.Add(float64(contacts))
}

// ObserveSweep records a swept move
func (r *Recorder) ObserveSweep(hit bool) {
	if r == nil {
		return
	}
	result := SweepMiss
	if hit {
		result = SweepHit
	}
	r.sweeps.WithLabelValues(result).Inc()
}

// SetBodies updates the body gauge
func (r *Recorder) SetBodies(n int) {
	if r == nil {
		return
	}
	r.bodies.Set(float64(n))
}
