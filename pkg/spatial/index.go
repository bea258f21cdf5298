// Package spatial provides broad-phase spatial indexes. An index maps
// caller-assigned keys to axis-aligned regions and answers "which keys may
// overlap this region" queries. Results can contain false positives but
// never false negatives; exact tests belong to the narrow phase.
//
// Indexes are not safe for concurrent mutation. Find does not mutate the
// index and may run concurrently with other Find calls.
package spatial

import (
	"errors"
	"fmt"
)

// Region is an axis-aligned rectangle anchored at its top-left corner
type Region struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// Intersects reports whether the two regions overlap or touch
func (r Region) Intersects(o Region) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W &&
		r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Overlaps reports whether the two regions share interior area
func (r Region) Overlaps(o Region) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// fits reports whether o lies within r using half-open bounds, so that a
// region can fit at most one of two neighbouring quadrants.
func (r Region) fits(o Region) bool {
	return o.X >= r.X && o.X+o.W < r.X+r.W &&
		o.Y >= r.Y && o.Y+o.H < r.Y+r.H
}

// Index is the contract shared by every broad-phase structure
type Index[K comparable] interface {
	// Add registers key under region r
	Add(key K, r Region)
	// Clear drops every entry, keeping allocated storage
	Clear()
	// Find returns the unique keys whose regions may overlap r. A nil
	// region yields no keys.
	Find(r *Region) []K
}

// Kind selects an Index implementation
type Kind string

const (
	KindGrid     Kind = "grid"
	KindQuadTree Kind = "quadtree"
)

// ErrUnknownKind is returned by New for an unsupported Kind
var ErrUnknownKind = errors.New("unknown spatial index kind")

// Options tunes the implementation chosen by New. Zero values select the
// implementation defaults.
type Options struct {
	Divisions int
	Threshold int
	MaxDepth  int
}

// New builds an index of the given kind covering field
func New[K comparable](kind Kind, field Region, opts Options) (Index[K], error) {
	switch kind {
	case KindGrid, "":
		return NewGridHash[K](field, opts.Divisions), nil
	case KindQuadTree:
		return NewQuadTree[K](field, WithThreshold(opts.Threshold), WithMaxDepth(opts.MaxDepth)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// keySet collects unique keys in insertion order
type keySet[K comparable] struct {
	seen map[K]struct{}
	keys []K
}

func (s *keySet[K]) add(k K) {
	if s.seen == nil {
		s.seen = make(map[K]struct{})
	}
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.keys = append(s.keys, k)
}
