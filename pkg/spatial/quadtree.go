package spatial

// Quadtree defaults
const (
	DefaultThreshold = 10
	DefaultMaxDepth  = 4
)

// Quadrant order used when a node splits
const (
	topRight = iota
	topLeft
	bottomLeft
	bottomRight
)

// QuadTree recursively splits its field into four quadrants once a node
// holds more than threshold objects.
//
// Regions that straddle a quadrant boundary stay at the node where they
// were inserted, even after further splits below it. Regions that do not
// touch the root field are dropped. Re-adding a key without a Clear is not
// supported.
type QuadTree[K comparable] struct {
	field     Region
	threshold int
	maxDepth  int
	level     int

	objects map[K]Region
	nodes   []*QuadTree[K]
}

var _ Index[int] = (*QuadTree[int])(nil)

// QuadTreeOption configures a QuadTree
type QuadTreeOption func(*quadTreeConfig)

type quadTreeConfig struct {
	threshold int
	maxDepth  int
}

// WithThreshold sets how many objects a node holds before splitting.
// Values <= 0 keep the default.
func WithThreshold(n int) QuadTreeOption {
	return func(c *quadTreeConfig) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithMaxDepth sets the deepest level a node may split at. Values <= 0
// keep the default.
func WithMaxDepth(d int) QuadTreeOption {
	return func(c *quadTreeConfig) {
		if d > 0 {
			c.maxDepth = d
		}
	}
}

// NewQuadTree creates a quadtree covering field
func NewQuadTree[K comparable](field Region, opts ...QuadTreeOption) *QuadTree[K] {
	cfg := quadTreeConfig{threshold: DefaultThreshold, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newNode[K](field, cfg.threshold, cfg.maxDepth, 0)
}

func newNode[K comparable](field Region, threshold, maxDepth, level int) *QuadTree[K] {
	return &QuadTree[K]{
		field:     field,
		threshold: threshold,
		maxDepth:  maxDepth,
		level:     level,
		objects:   make(map[K]Region),
	}
}

// Add stores key under r in the deepest node whose quadrant contains r
func (q *QuadTree[K]) Add(key K, r Region) {
	if !q.field.Intersects(r) {
		return
	}
	q.insert(key, r)
}

func (q *QuadTree[K]) insert(key K, r Region) {
	if q.nodes != nil {
		if i := q.quadrant(r); i >= 0 {
			q.nodes[i].insert(key, r)
			return
		}
	}

	q.objects[key] = r

	if len(q.objects) > q.threshold && q.level < q.maxDepth {
		if q.nodes == nil {
			q.split()
		}
		for k, obj := range q.objects {
			if i := q.quadrant(obj); i >= 0 {
				delete(q.objects, k)
				q.nodes[i].insert(k, obj)
			}
		}
	}
}

// split creates the four child quadrants
func (q *QuadTree[K]) split() {
	hw, hh := q.field.W/2, q.field.H/2
	x, y := q.field.X, q.field.Y
	next := q.level + 1

	q.nodes = make([]*QuadTree[K], 4)
	q.nodes[topRight] = newNode[K](Region{X: x + hw, Y: y, W: hw, H: hh}, q.threshold, q.maxDepth, next)
	q.nodes[topLeft] = newNode[K](Region{X: x, Y: y, W: hw, H: hh}, q.threshold, q.maxDepth, next)
	q.nodes[bottomLeft] = newNode[K](Region{X: x, Y: y + hh, W: hw, H: hh}, q.threshold, q.maxDepth, next)
	q.nodes[bottomRight] = newNode[K](Region{X: x + hw, Y: y + hh, W: hw, H: hh}, q.threshold, q.maxDepth, next)
}

// quadrant returns the child that fully contains r, or -1
func (q *QuadTree[K]) quadrant(r Region) int {
	for i, n := range q.nodes {
		if n.field.fits(r) {
			return i
		}
	}
	return -1
}

// Clear drops all children and objects, keeping the field and options
func (q *QuadTree[K]) Clear() {
	clear(q.objects)
	q.nodes = nil
}

// Find returns every key stored along the path r descends, plus every
// key below a node where r straddles quadrants.
func (q *QuadTree[K]) Find(r *Region) []K {
	if r == nil {
		return nil
	}
	var set keySet[K]
	q.find(*r, &set)
	return set.keys
}

func (q *QuadTree[K]) find(r Region, set *keySet[K]) {
	for k := range q.objects {
		set.add(k)
	}
	if q.nodes == nil {
		return
	}

	if i := q.quadrant(r); i >= 0 {
		q.nodes[i].find(r, set)
		return
	}
	for _, n := range q.nodes {
		n.find(r, set)
	}
}

// Len returns the number of stored objects in the whole tree
func (q *QuadTree[K]) Len() int {
	n := len(q.objects)
	for _, c := range q.nodes {
		n += c.Len()
	}
	return n
}

// Depth returns the number of levels currently in use
func (q *QuadTree[K]) Depth() int {
	d := 0
	for _, c := range q.nodes {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}
