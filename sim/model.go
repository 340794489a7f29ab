package sim

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/cellform/mesh"
)

// Model is the growing surface: the cell graph, its spatial index, and the
// step machinery tying them together.
type Model struct {
	params   Params
	normal   NormalStrategy
	graph    *Graph
	index    *Grid
	rng      *rand.Rand

	// Candidate buffers written by the force phase, swapped in at commit.
	newPositions []r3.Vec
	newNormals   []r3.Vec

	pool *workerPool
	step int
}

// StepReport summarizes one completed simulation step.
type StepReport struct {
	Step       int
	Cells      int
	Splits     int
	SplitSkips int
	ForceTime  time.Duration
	IndexTime  time.Duration
	CommitTime time.Duration
}

// NewModel builds the initial cell graph from a triangle soup. Vertices
// are deduplicated by exact position equality; each unique vertex becomes
// a cell. Under the ordered policy the triangles incident to each vertex
// are chained into winding order so the neighbor list forms the local
// polygon ring.
func NewModel(triangles []mesh.Triangle, params Params, normal NormalStrategy, rng *rand.Rand) *Model {
	m := &Model{
		params: params,
		normal: normal,
		graph:  NewGraph(),
		index:  NewGrid(params.GridCellSize),
		rng:    rng,
		pool:   newWorkerPool(params.Workers),
	}

	g := m.graph

	// Deduplicate vertices and record which triangles touch each cell.
	indexes := make(map[r3.Vec]int)
	var vertexTris [][]int
	for ti, t := range triangles {
		for _, v := range []r3.Vec{t.A, t.B, t.C} {
			i, ok := indexes[v]
			if !ok {
				i = g.AddCell(v, r3.Vec{})
				indexes[v] = i
				vertexTris = append(vertexTris, nil)
			}
			vertexTris[i] = append(vertexTris[i], ti)
		}
	}

	switch params.Policy {
	case PolicyUnordered:
		for _, t := range triangles {
			for _, e := range [3][2]r3.Vec{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
				i, j := indexes[e[0]], indexes[e[1]]
				if !g.Linked(i, j) {
					g.Link(i, j)
				}
			}
		}
	default:
		for i := 0; i < g.Len(); i++ {
			m.buildOrderedRing(i, triangles, vertexTris[i], indexes)
		}
	}

	for i := 0; i < g.Len(); i++ {
		m.index.Add(g.positions[i], i)
	}
	for i := 0; i < g.Len(); i++ {
		g.normals[i] = m.normal.Normal(g, i, m.ring(i, nil))
	}

	return m
}

// buildOrderedRing sorts the triangles around cell i into a winding chain
// and derives the ordered neighbor list from it. For a vertex on an open
// boundary the chain does not close; the trailing vertex of the last
// triangle is appended so the fan stays complete.
func (m *Model) buildOrderedRing(i int, triangles []mesh.Triangle, tris []int, indexes map[r3.Vec]int) {
	g := m.graph
	point := g.positions[i]

	sorted := append([]int(nil), tris...)
	for i0 := 1; i0 < len(sorted); i0++ {
		prev := triangles[sorted[i0-1]].VertexBefore(point)
		for i1 := i0; i1 < len(sorted); i1++ {
			if triangles[sorted[i1]].VertexAfter(point) == prev {
				sorted[i0], sorted[i1] = sorted[i1], sorted[i0]
				break
			}
		}
	}

	links := make([]int, 0, len(sorted)+1)
	for _, ti := range sorted {
		links = append(links, indexes[triangles[ti].VertexAfter(point)])
	}
	if last := indexes[triangles[sorted[len(sorted)-1]].VertexBefore(point)]; len(links) > 0 && last != links[0] {
		links = append(links, last)
	}
	g.links[i] = links
}

// ring returns cell i's cyclically ordered neighbor ring. Under the
// ordered policy the stored list already is the ring; under the unordered
// policy it is reconstructed on demand. rng, when non-nil, randomly
// rotates the reconstructed ring (pass nil from the parallel phase).
func (m *Model) ring(i int, rng *rand.Rand) []int {
	if m.params.Policy == PolicyUnordered {
		return m.graph.OrderedLinks(i, rng)
	}
	return m.graph.links[i]
}

// Step advances the simulation by one step: a read-only parallel force
// phase over the committed snapshot, then a sequential commit that updates
// the index, swaps buffers, accrues food, and performs any splits.
func (m *Model) Step() StepReport {
	m.step++
	report := StepReport{Step: m.step}

	n := m.graph.Len()
	if cap(m.newPositions) < n {
		m.newPositions = make([]r3.Vec, n)
		m.newNormals = make([]r3.Vec, n)
	}
	m.newPositions = m.newPositions[:n]
	m.newNormals = m.newNormals[:n]

	start := time.Now()
	m.pool.run(m, n)
	report.ForceTime = time.Since(start)

	start = time.Now()
	for i := 0; i < n; i++ {
		m.index.Update(m.graph.positions[i], m.newPositions[i], i)
	}
	report.IndexTime = time.Since(start)

	start = time.Now()
	m.graph.positions, m.newPositions = m.newPositions, m.graph.positions
	m.graph.normals, m.newNormals = m.newNormals, m.graph.normals

	// The bound is re-evaluated every iteration on purpose: cells born
	// from a split this pass still receive their first food accrual.
	for i := 0; i < len(m.graph.food); i++ {
		m.graph.food[i] += m.foodGain(i)
		if m.graph.food[i] > m.params.SplitThreshold {
			if len(m.graph.links[i]) < minSplitValence {
				slog.Warn("skipping split of low-valence cell",
					"cell", i, "valence", len(m.graph.links[i]))
				m.graph.food[i] = 0
				report.SplitSkips++
				continue
			}
			m.split(i)
			report.Splits++
		}
	}
	report.CommitTime = time.Since(start)

	report.Cells = m.graph.Len()
	return report
}

// foodGain returns this commit's proliferation-pressure increment for cell i.
func (m *Model) foodGain(i int) float64 {
	switch m.params.FoodMode {
	case FoodDirectional:
		z := math.Max(0, m.graph.normals[i].Z)
		return z * z
	default:
		return m.rng.Float64()
	}
}

// Close stops the worker pool. The model must not be stepped afterwards.
func (m *Model) Close() {
	m.pool.stop()
}

// Graph exposes the committed cell graph.
func (m *Model) Graph() *Graph { return m.graph }

// Index exposes the spatial index.
func (m *Model) Index() *Grid { return m.index }

// Params returns the resolved simulation parameters.
func (m *Model) Params() Params { return m.params }
