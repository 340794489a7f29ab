package sim

import (
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func randomPoints(rng *rand.Rand, n int, extent float64) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{
			X: (rng.Float64()*2 - 1) * extent,
			Y: (rng.Float64()*2 - 1) * extent,
			Z: (rng.Float64()*2 - 1) * extent,
		}
	}
	return pts
}

func bruteSearch(pts []r3.Vec, p r3.Vec, radius float64) []int {
	var out []int
	r2 := radius * radius
	for i, q := range pts {
		d := r3.Sub(q, p)
		if r3.Dot(d, d) <= r2 {
			out = append(out, i)
		}
	}
	return out
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Ints(a)
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGridSearchMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pts := randomPoints(rng, 300, 5)

	g := NewGrid(1.0)
	for i, p := range pts {
		g.Add(p, i)
	}

	for trial := 0; trial < 50; trial++ {
		q := r3.Vec{
			X: (rng.Float64()*2 - 1) * 5,
			Y: (rng.Float64()*2 - 1) * 5,
			Z: (rng.Float64()*2 - 1) * 5,
		}
		radius := rng.Float64() * 3
		got := g.Search(q, radius)
		want := bruteSearch(pts, q, radius)
		if !sameIDs(got, want) {
			t.Fatalf("Search(%v, %v) = %v, want %v", q, radius, got, want)
		}
	}
}

func TestGridUpdateRelocates(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pts := randomPoints(rng, 100, 5)

	g := NewGrid(1.0)
	for i, p := range pts {
		g.Add(p, i)
	}

	// Move every point and verify queries see the new positions only.
	for i := range pts {
		moved := r3.Add(pts[i], r3.Vec{
			X: (rng.Float64()*2 - 1) * 2,
			Y: (rng.Float64()*2 - 1) * 2,
			Z: (rng.Float64()*2 - 1) * 2,
		})
		g.Update(pts[i], moved, i)
		pts[i] = moved
	}

	if g.Len() != len(pts) {
		t.Fatalf("grid has %d entries after updates, want %d", g.Len(), len(pts))
	}

	for trial := 0; trial < 20; trial++ {
		q := pts[rng.Intn(len(pts))]
		got := g.Search(q, 1.5)
		want := bruteSearch(pts, q, 1.5)
		if !sameIDs(got, want) {
			t.Fatalf("post-update Search = %v, want %v", got, want)
		}
	}
}

func TestGridNearbyCoversOneBucketRing(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pts := randomPoints(rng, 200, 4)

	cellSize := 1.0
	g := NewGrid(cellSize)
	for i, p := range pts {
		g.Add(p, i)
	}

	// Every point within one bucket edge of the query must appear among
	// the candidates; Nearby may return extras, never misses.
	for trial := 0; trial < 30; trial++ {
		q := pts[rng.Intn(len(pts))]
		candidates := g.Nearby(nil, q)
		inRange := bruteSearch(pts, q, cellSize)

		have := make(map[int]bool, len(candidates))
		for _, id := range candidates {
			have[id] = true
		}
		for _, id := range inRange {
			if !have[id] {
				t.Fatalf("Nearby missed id %d within %v of %v", id, cellSize, q)
			}
		}
	}
}

func TestGridUpdateMissingIDPanics(t *testing.T) {
	g := NewGrid(1.0)
	g.Add(r3.Vec{}, 0)
	defer func() {
		if recover() == nil {
			t.Error("Update of unindexed id did not panic")
		}
	}()
	g.Update(r3.Vec{X: 3}, r3.Vec{X: 4}, 7)
}
