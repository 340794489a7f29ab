package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// NormalStrategy estimates a cell's unit normal from its neighbor ring.
// Implementations must be pure: no writes, safe for concurrent use.
type NormalStrategy interface {
	Name() string
	// Normal returns the unit normal of cell i given its cyclically
	// ordered neighbor ring. When the local geometry is degenerate the
	// previously committed normal is returned instead.
	Normal(g *Graph, i int, ring []int) r3.Vec
}

// NormalStrategyByName resolves a config name to a strategy.
func NormalStrategyByName(name string) (NormalStrategy, error) {
	switch name {
	case "fan":
		return FanNormal{}, nil
	case "planefit":
		return PlaneFitNormal{}, nil
	}
	return nil, fmt.Errorf("sim: unknown normal strategy %q", name)
}

// FanNormal sums the face normals of the triangle fan spanned by the cell
// and consecutive ring neighbors, wrapping around the ring.
type FanNormal struct{}

func (FanNormal) Name() string { return "fan" }

func (FanNormal) Normal(g *Graph, i int, ring []int) r3.Vec {
	if len(ring) < 2 {
		return g.normals[i]
	}
	p0 := g.positions[i]

	// A two-neighbor ring spans a single triangle; the wrapped fan would
	// cancel itself exactly, so take the lone face directly.
	if len(ring) == 2 {
		n := r3.Cross(r3.Sub(g.positions[ring[0]], p0), r3.Sub(g.positions[ring[1]], p0))
		return unitOr(n, g.normals[i])
	}

	var sum r3.Vec
	p1 := g.positions[ring[len(ring)-1]]
	for _, j := range ring {
		p2 := g.positions[j]
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		if l := r3.Norm(n); l > 0 {
			sum = r3.Add(sum, r3.Scale(1/l, n))
		}
		p1 = p2
	}
	return unitOr(sum, g.normals[i])
}

// PlaneFitNormal fits a plane to the ring polygon with Newell's method.
// Less sensitive to a poorly ordered ring than the fan sum, which makes it
// the natural companion of the unordered policy.
type PlaneFitNormal struct{}

func (PlaneFitNormal) Name() string { return "planefit" }

func (PlaneFitNormal) Normal(g *Graph, i int, ring []int) r3.Vec {
	if len(ring) < 2 {
		return g.normals[i]
	}
	p0 := g.positions[i]
	if len(ring) == 2 {
		n := r3.Cross(r3.Sub(g.positions[ring[0]], p0), r3.Sub(g.positions[ring[1]], p0))
		return unitOr(n, g.normals[i])
	}

	var n r3.Vec
	for k, j := range ring {
		a := g.positions[j]
		b := g.positions[ring[(k+1)%len(ring)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	// A reconstructed ring has no canonical direction, so keep the sign
	// consistent with the committed normal.
	if r3.Dot(n, g.normals[i]) < 0 {
		n = r3.Scale(-1, n)
	}
	return unitOr(n, g.normals[i])
}

// unitOr normalizes v, falling back when v has no length. Normalizing a
// zero vector is undefined and must never leak NaNs into positions.
func unitOr(v, fallback r3.Vec) r3.Vec {
	if r3.Norm(v) == 0 {
		return fallback
	}
	return r3.Unit(v)
}
