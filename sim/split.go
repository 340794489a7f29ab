package sim

import "gonum.org/v1/gonum/spatial/r3"

// minSplitValence is the smallest neighbor ring that can be bisected into
// two closed halves. Below it the cleavage arc would degenerate, so the
// commit loop skips such cells instead of splitting them.
const minSplitValence = 3

// split performs mitosis on parent with a uniform-random cleavage offset.
func (m *Model) split(parent int) int {
	return m.splitAt(parent, m.rng.Intn(len(m.graph.links[parent])))
}

// splitAt performs mitosis on parent: a new child cell is allocated, the
// half of the parent's neighbor ring starting at arcStart+n/2 is rewired
// to the child, the two rings are closed with parent-child and boundary
// links, and both cells are re-centered on their new neighborhoods.
// Runs strictly sequentially; it mutates shared adjacency and index state.
func (m *Model) splitAt(parent, arcStart int) int {
	g := m.graph

	// The child starts where the parent is; both relax apart below.
	child := g.AddCell(g.positions[parent], g.normals[parent])

	var ring []int
	if m.params.Policy == PolicyUnordered {
		ring = g.OrderedLinks(parent, m.rng)
	} else {
		ring = append([]int(nil), g.links[parent]...)
	}
	n := len(ring)
	i0 := arcStart
	i1 := i0 + n/2

	if m.params.Policy == PolicyUnordered {
		// Detach the cleavage arc from the parent and attach it to the
		// child, then close both rings.
		for k := i1 + 1; k <= i0+n-1; k++ {
			g.Unlink(parent, ring[k%n])
			g.Link(child, ring[k%n])
		}
		g.Link(child, parent)
		g.Link(child, ring[i0%n])
		g.Link(child, ring[i1%n])
	} else {
		// Parent keeps the ring arc [i0, i1] plus the child.
		parentLinks := make([]int, 0, i1-i0+2)
		for k := i0; k <= i1; k++ {
			parentLinks = append(parentLinks, ring[k%n])
		}
		parentLinks = append(parentLinks, child)
		g.links[parent] = parentLinks

		// Child takes the ring arc [i1, i0+n] plus the parent.
		childLinks := make([]int, 0, n-(i1-i0)+2)
		for k := i1; k <= i0+n; k++ {
			childLinks = append(childLinks, ring[k%n])
		}
		childLinks = append(childLinks, parent)
		g.links[child] = childLinks

		// The arc boundary cells see both parent and child; the child is
		// spliced in next to the parent to preserve their winding. Interior
		// arc cells simply trade the parent for the child.
		g.InsertLinkAfter(ring[i0%n], parent, child)
		g.InsertLinkBefore(ring[i1%n], parent, child)
		for k := i1 + 1; k <= i0+n-1; k++ {
			g.ChangeLink(ring[k%n], parent, child)
		}
	}

	// Re-center both cells on their new neighborhoods, from pre-split
	// positions, so the fresh parent-child edge has nonzero length.
	newParent := g.positions[parent]
	for _, j := range g.links[parent] {
		newParent = r3.Add(newParent, g.positions[j])
	}
	newParent = r3.Scale(1/float64(len(g.links[parent])+1), newParent)

	newChild := g.positions[child]
	for _, j := range g.links[child] {
		newChild = r3.Add(newChild, g.positions[j])
	}
	newChild = r3.Scale(1/float64(len(g.links[child])+1), newChild)

	m.index.Update(g.positions[parent], newParent, parent)
	m.index.Add(newChild, child)
	g.positions[parent] = newParent
	g.positions[child] = newChild
	g.normals[parent] = m.normal.Normal(g, parent, m.ring(parent, nil))
	g.normals[child] = m.normal.Normal(g, child, m.ring(child, nil))

	// The threshold crossing is consumed by the split.
	g.food[parent] = 0

	return child
}
