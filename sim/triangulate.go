package sim

import (
	"github.com/pthm-cable/cellform/mesh"
)

// TriangleIndexes derives an index-triple list from the adjacency graph.
//
// Ordered policy: walk each cell's ring and emit (cell, ring[j], ring[j+1])
// whenever the cell is the smallest index of the triple, which emits every
// shared triangle exactly once. Unordered policy: emit both windings of
// every mutually linked neighbor pair (orientation must be resolved by the
// consumer, e.g. against the cached normals) at valence-squared cost.
func (m *Model) TriangleIndexes() [][3]int {
	g := m.graph
	var result [][3]int

	if m.params.Policy == PolicyUnordered {
		for i := 0; i < g.Len(); i++ {
			links := g.links[i]
			for a := 0; a < len(links); a++ {
				for b := a + 1; b < len(links); b++ {
					j, k := links[a], links[b]
					if i < j && i < k && g.Linked(j, k) {
						result = append(result, [3]int{i, j, k}, [3]int{i, k, j})
					}
				}
			}
		}
		return result
	}

	for i := 0; i < g.Len(); i++ {
		links := g.links[i]
		for j := 0; j < len(links); j++ {
			link0 := links[j]
			link1 := links[(j+1)%len(links)]
			if i < link0 && i < link1 {
				result = append(result, [3]int{i, link0, link1})
			}
		}
	}
	return result
}

// Triangles resolves TriangleIndexes into position triples.
func (m *Model) Triangles() []mesh.Triangle {
	indexes := m.TriangleIndexes()
	triangles := make([]mesh.Triangle, len(indexes))
	for i, t := range indexes {
		triangles[i] = mesh.Triangle{
			A: m.graph.positions[t[0]],
			B: m.graph.positions[t[1]],
			C: m.graph.positions[t[2]],
		}
	}
	return triangles
}

// VertexAttributes packs per-cell render attributes: position.xyz,
// normal.xyz, and food pressure as a fraction of the split threshold.
// Seven floats per cell, paired with TriangleIndexes as the index buffer.
func (m *Model) VertexAttributes() []float64 {
	g := m.graph
	result := make([]float64, 0, g.Len()*7)
	for i := 0; i < g.Len(); i++ {
		p, n := g.positions[i], g.normals[i]
		result = append(result,
			p.X, p.Y, p.Z,
			n.X, n.Y, n.Z,
			g.food[i]/m.params.SplitThreshold,
		)
	}
	return result
}
