package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// updateBatch computes candidate positions and normals for the strided
// index subset wi, wi+wn, wi+2wn, ... It reads only the committed graph
// and index state and writes only this worker's slots of the candidate
// buffers, so the phase needs no locking.
func (m *Model) updateBatch(wi, wn int, scratch *workerScratch) {
	g := m.graph
	roi := m.params.RadiusOfInfluence
	roi2 := roi * roi
	link2 := m.params.RestLength * m.params.RestLength

	for i := wi; i < g.Len(); i += wn {
		P := g.positions[i]
		ring := m.ring(i, nil)
		N := m.normal.Normal(g, i, ring)
		links := g.links[i]

		if len(links) == 0 {
			m.newPositions[i] = P
			m.newNormals[i] = N
			continue
		}

		var springTarget, planarTarget, repulsion r3.Vec
		bulgeDistance := 0.0
		for _, j := range links {
			L := g.positions[j]
			D := r3.Sub(L, P)
			d2 := r3.Dot(D, D)
			var Dn r3.Vec
			if d2 > 0 {
				Dn = r3.Scale(1/math.Sqrt(d2), D)
			}
			springTarget = r3.Add(springTarget, r3.Sub(L, r3.Scale(m.params.RestLength, Dn)))
			planarTarget = r3.Add(planarTarget, L)
			if d2 < link2 {
				dot := r3.Dot(D, N)
				bulgeDistance += math.Sqrt(link2-d2+dot*dot) + dot
			}
			// Linked cells are repulsed again by the index pass below, so
			// under the ordered policy the opposite contribution is added
			// here once to counteract it.
			if m.params.Policy == PolicyOrdered && d2 < roi2 {
				repulsion = r3.Add(repulsion, r3.Scale((roi2-d2)/roi2, Dn))
			}
		}

		inv := 1 / float64(len(links))
		springTarget = r3.Scale(inv, springTarget)
		planarTarget = r3.Scale(inv, planarTarget)
		bulgeDistance *= inv

		scratch.nearby = m.index.Nearby(scratch.nearby[:0], P)
		for _, j := range scratch.nearby {
			if j == i {
				continue
			}
			// The unordered variant skips linked neighbors outright
			// instead of pre-subtracting their contribution.
			if m.params.Policy == PolicyUnordered && g.Linked(i, j) {
				continue
			}
			L := g.positions[j]
			D := r3.Sub(P, L)
			d2 := r3.Dot(D, D)
			if d2 > 0 && d2 < roi2 {
				repulsion = r3.Add(repulsion, r3.Scale((roi2-d2)/roi2/math.Sqrt(d2), D))
			}
		}

		next := P
		next = r3.Add(next, r3.Scale(m.params.SpringFactor, r3.Sub(springTarget, P)))
		next = r3.Add(next, r3.Scale(m.params.PlanarFactor, r3.Sub(planarTarget, P)))
		next = r3.Add(next, r3.Scale(m.params.BulgeFactor*bulgeDistance, N))
		next = r3.Add(next, r3.Scale(m.params.RepulsionFactor, repulsion))

		if limit := m.params.MaxDisplacement; limit > 0 {
			d := r3.Sub(next, P)
			if l := r3.Norm(d); l > limit {
				next = r3.Add(P, r3.Scale(limit/l, d))
			}
		}

		m.newPositions[i] = next
		m.newNormals[i] = N
	}
}
