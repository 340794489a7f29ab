// Package sim implements the growing-surface simulation: a graph of cells
// relaxed by per-cell forces each step and expanded by mitosis.
package sim

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Graph holds per-cell state in index-addressed parallel arrays. A cell's
// index is its identity: indices are assigned at creation and never
// recycled, so slices may reallocate while readers keep valid handles.
type Graph struct {
	positions []r3.Vec
	normals   []r3.Vec
	food      []float64
	links     [][]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of cells.
func (g *Graph) Len() int { return len(g.positions) }

// Position returns the committed position of cell i.
func (g *Graph) Position(i int) r3.Vec { return g.positions[i] }

// Normal returns the committed normal of cell i.
func (g *Graph) Normal(i int) r3.Vec { return g.normals[i] }

// Food returns the accumulated proliferation pressure of cell i.
func (g *Graph) Food(i int) float64 { return g.food[i] }

// Links returns the neighbor list of cell i. The slice is owned by the
// graph; callers must not mutate it.
func (g *Graph) Links(i int) []int { return g.links[i] }

// AddCell appends a cell and returns its index.
func (g *Graph) AddCell(pos, normal r3.Vec) int {
	i := len(g.positions)
	g.positions = append(g.positions, pos)
	g.normals = append(g.normals, normal)
	g.food = append(g.food, 0)
	g.links = append(g.links, nil)
	return i
}

// Link adds the undirected edge i-j by appending to both neighbor lists.
func (g *Graph) Link(i, j int) {
	if i == j {
		panic("sim: cell linked to itself")
	}
	g.links[i] = append(g.links[i], j)
	g.links[j] = append(g.links[j], i)
}

// Linked reports whether j appears in i's neighbor list.
func (g *Graph) Linked(i, j int) bool {
	for _, l := range g.links[i] {
		if l == j {
			return true
		}
	}
	return false
}

// Unlink removes the undirected edge i-j by swap-with-last removal on both
// sides. Neighbor order is not preserved; only the unordered policy uses it.
func (g *Graph) Unlink(i, j int) {
	g.removeHalf(i, j)
	g.removeHalf(j, i)
}

func (g *Graph) removeHalf(i, j int) {
	links := g.links[i]
	for k, l := range links {
		if l == j {
			last := len(links) - 1
			links[k] = links[last]
			g.links[i] = links[:last]
			return
		}
	}
	panic(fmt.Sprintf("sim: unlink of missing edge %d-%d", i, j))
}

// ChangeLink replaces the neighbor reference from with to in i's list,
// keeping its position so local winding survives under the ordered policy.
func (g *Graph) ChangeLink(i, from, to int) {
	links := g.links[i]
	for k, l := range links {
		if l == from {
			links[k] = to
			return
		}
	}
	panic(fmt.Sprintf("sim: ChangeLink: cell %d has no link to %d", i, from))
}

// InsertLinkBefore inserts link into i's neighbor list immediately before
// anchor. Ordered policy only.
func (g *Graph) InsertLinkBefore(i, anchor, link int) {
	g.insertLink(i, anchor, link, 0)
}

// InsertLinkAfter inserts link into i's neighbor list immediately after
// anchor. Ordered policy only.
func (g *Graph) InsertLinkAfter(i, anchor, link int) {
	g.insertLink(i, anchor, link, 1)
}

func (g *Graph) insertLink(i, anchor, link, offset int) {
	links := g.links[i]
	for k, l := range links {
		if l == anchor {
			at := k + offset
			links = append(links, 0)
			copy(links[at+1:], links[at:])
			links[at] = link
			g.links[i] = links
			return
		}
	}
	panic(fmt.Sprintf("sim: insert: cell %d has no link to %d", i, anchor))
}

// OrderedLinks reconstructs an approximate cyclic ordering of i's neighbors
// for the unordered policy. Starting from the raw list it greedily grows a
// chain, each time taking the first remaining neighbor linked to the most
// recently placed one. The result approximates the polygon ring around i
// and is only reliable when the neighborhood is close to planar; it is a
// best-effort heuristic, not an exact geometric ordering.
//
// When rng is non-nil the ring is rotated by a uniform-random offset to
// avoid directional bias in subsequent cleavage-plane choices.
func (g *Graph) OrderedLinks(i int, rng *rand.Rand) []int {
	raw := g.links[i]
	if len(raw) == 0 {
		return nil
	}

	remaining := append([]int(nil), raw...)
	ring := make([]int, 0, len(raw))
	ring = append(ring, remaining[0])
	remaining = remaining[1:]

	for len(remaining) > 0 {
		last := ring[len(ring)-1]
		next := 0
		for k, c := range remaining {
			if g.Linked(last, c) {
				next = k
				break
			}
		}
		// If no remaining neighbor touches the chain the ring is broken;
		// fall through with an arbitrary pick so every neighbor is placed.
		ring = append(ring, remaining[next])
		remaining = append(remaining[:next], remaining[next+1:]...)
	}

	if rng != nil && len(ring) > 1 {
		r := rng.Intn(len(ring))
		rotated := make([]int, 0, len(ring))
		rotated = append(rotated, ring[r:]...)
		rotated = append(rotated, ring[:r]...)
		ring = rotated
	}
	return ring
}
