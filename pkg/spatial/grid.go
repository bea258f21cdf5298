package spatial

import (
	"math"
	"math/bits"
)

// DefaultDivisions is the number of buckets per axis used by a GridHash
const DefaultDivisions = 8

// GridHash is a uniform grid of divisions x divisions buckets. Bucket size
// is a power of two so that cell lookup is a shift.
//
// A GridHash is rebuilt every frame: re-adding a key does not remove it
// from the buckets it was previously added to, so callers Clear and re-add
// all live entries. Find de-duplicates keys that span several buckets.
type GridHash[K comparable] struct {
	field     Region
	divisions int
	shift     uint
	buckets   [][]K
}

var _ Index[int] = (*GridHash[int])(nil)

// NewGridHash creates a grid covering field. divisions <= 0 selects
// DefaultDivisions.
func NewGridHash[K comparable](field Region, divisions int) *GridHash[K] {
	if divisions <= 0 {
		divisions = DefaultDivisions
	}

	size := nextPowerOfTwo(uint64(math.Ceil(math.Max(field.W, field.H))))
	bucket := nextPowerOfTwo(size / uint64(divisions))

	return &GridHash[K]{
		field:     field,
		divisions: divisions,
		shift:     uint(bits.TrailingZeros64(bucket)),
		buckets:   make([][]K, divisions*divisions),
	}
}

// BucketSize returns the side of a bucket in world units
func (g *GridHash[K]) BucketSize() float64 {
	return float64(uint64(1) << g.shift)
}

// Divisions returns the number of buckets per axis
func (g *GridHash[K]) Divisions() int {
	return g.divisions
}

// Add appends key to every bucket covered by r
func (g *GridHash[K]) Add(key K, r Region) {
	x0, y0, x1, y1 := g.span(r)
	for y := y0; y <= y1; y++ {
		row := y * g.divisions
		for x := x0; x <= x1; x++ {
			g.buckets[row+x] = append(g.buckets[row+x], key)
		}
	}
}

// Clear empties every bucket without releasing memory
func (g *GridHash[K]) Clear() {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
}

// Find returns the unique keys stored in every bucket r spans
func (g *GridHash[K]) Find(r *Region) []K {
	if r == nil {
		return nil
	}

	var set keySet[K]
	x0, y0, x1, y1 := g.span(*r)
	for y := y0; y <= y1; y++ {
		row := y * g.divisions
		for x := x0; x <= x1; x++ {
			for _, k := range g.buckets[row+x] {
				set.add(k)
			}
		}
	}
	return set.keys
}

// Len returns the number of bucket entries, counting a key once per bucket
func (g *GridHash[K]) Len() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}

// span returns the inclusive bucket range covered by r
func (g *GridHash[K]) span(r Region) (x0, y0, x1, y1 int) {
	x0 = g.cell(r.X - g.field.X)
	y0 = g.cell(r.Y - g.field.Y)
	x1 = g.cell(r.X + r.W - g.field.X)
	y1 = g.cell(r.Y + r.H - g.field.Y)
	return x0, y0, x1, y1
}

// cell maps a field-relative coordinate to a clamped bucket index
func (g *GridHash[K]) cell(v float64) int {
	limit := float64(g.divisions) * g.BucketSize()
	switch {
	case !(v > 0): // also catches NaN
		return 0
	case v >= limit:
		return g.divisions - 1
	}

	i := int(uint64(v) >> g.shift)
	if i >= g.divisions {
		return g.divisions - 1
	}
	return i
}

func nextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return uint64(1) << (64 - bits.LeadingZeros64(v-1))
}
