package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// bucketKey addresses one cube of the hash grid.
type bucketKey struct {
	x, y, z int
}

// gridEntry is one indexed cell. The position is stored alongside the id
// so range queries can distance-filter without touching graph state.
type gridEntry struct {
	id  int
	pos r3.Vec
}

// Grid is a hash-bucketed spatial index over moving 3D points. The bucket
// size is tuned to 1-3x the rest link length so that one ring of buckets
// around a query point covers the repulsion radius.
type Grid struct {
	cellSize float64
	buckets  map[bucketKey][]gridEntry
}

// NewGrid creates a spatial index with the given bucket edge length.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		panic("sim: grid cell size must be positive")
	}
	return &Grid{
		cellSize: cellSize,
		buckets:  make(map[bucketKey][]gridEntry),
	}
}

// CellSize returns the bucket edge length.
func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) keyFor(p r3.Vec) bucketKey {
	return bucketKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
		z: int(math.Floor(p.Z / g.cellSize)),
	}
}

// Add indexes id at point p.
func (g *Grid) Add(p r3.Vec, id int) {
	k := g.keyFor(p)
	g.buckets[k] = append(g.buckets[k], gridEntry{id: id, pos: p})
}

// Update relocates an existing id from its old position to a new one.
// The id must have been added at old; a miss is an index corruption.
func (g *Grid) Update(old, new r3.Vec, id int) {
	ko, kn := g.keyFor(old), g.keyFor(new)
	if ko == kn {
		bucket := g.buckets[ko]
		for i := range bucket {
			if bucket[i].id == id {
				bucket[i].pos = new
				return
			}
		}
		panic(fmt.Sprintf("sim: grid update of unindexed id %d", id))
	}
	g.remove(ko, id)
	g.buckets[kn] = append(g.buckets[kn], gridEntry{id: id, pos: new})
}

func (g *Grid) remove(k bucketKey, id int) {
	bucket := g.buckets[k]
	for i := range bucket {
		if bucket[i].id == id {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			bucket = bucket[:last]
			if len(bucket) == 0 {
				delete(g.buckets, k)
			} else {
				g.buckets[k] = bucket
			}
			return
		}
	}
	panic(fmt.Sprintf("sim: grid remove of unindexed id %d", id))
}

// Nearby appends to dst the ids in the bucket containing p and its 26
// neighbors. It returns candidates only: callers filter by exact distance.
// Reuse dst across calls to avoid allocations.
func (g *Grid) Nearby(dst []int, p r3.Vec) []int {
	c := g.keyFor(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := bucketKey{x: c.x + dx, y: c.y + dy, z: c.z + dz}
				for _, e := range g.buckets[k] {
					dst = append(dst, e.id)
				}
			}
		}
	}
	return dst
}

// Search returns exactly the indexed ids within radius of p, spanning as
// many bucket rings as the radius requires.
func (g *Grid) Search(p r3.Vec, radius float64) []int {
	span := int(radius/g.cellSize) + 1
	r2 := radius * radius
	c := g.keyFor(p)

	var out []int
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				k := bucketKey{x: c.x + dx, y: c.y + dy, z: c.z + dz}
				for _, e := range g.buckets[k] {
					d := r3.Sub(e.pos, p)
					if r3.Dot(d, d) <= r2 {
						out = append(out, e.id)
					}
				}
			}
		}
	}
	return out
}

// Len returns the number of indexed entries.
func (g *Grid) Len() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}
