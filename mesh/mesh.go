// Package mesh provides the triangle soup the simulation grows from and
// the STL plumbing to load and export it.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a single face of a triangle soup. Vertices are stored in
// counter-clockwise winding order when viewed from outside the surface.
type Triangle struct {
	A, B, C r3.Vec
}

// Normal returns the face normal implied by the winding order.
// Degenerate faces yield the zero vector.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// VertexAfter returns the vertex following p in winding order.
// p must be one of the triangle's vertices.
func (t Triangle) VertexAfter(p r3.Vec) r3.Vec {
	switch p {
	case t.A:
		return t.B
	case t.B:
		return t.C
	case t.C:
		return t.A
	}
	panic("mesh: point is not a vertex of the triangle")
}

// VertexBefore returns the vertex preceding p in winding order.
// p must be one of the triangle's vertices.
func (t Triangle) VertexBefore(p r3.Vec) r3.Vec {
	switch p {
	case t.A:
		return t.C
	case t.B:
		return t.A
	case t.C:
		return t.B
	}
	panic("mesh: point is not a vertex of the triangle")
}

// AverageEdgeLength returns the mean edge length over all triangles.
func AverageEdgeLength(triangles []Triangle) float64 {
	if len(triangles) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range triangles {
		sum += r3.Norm(r3.Sub(t.B, t.A))
		sum += r3.Norm(r3.Sub(t.C, t.B))
		sum += r3.Norm(r3.Sub(t.A, t.C))
	}
	return sum / float64(len(triangles)*3)
}

// Icosahedron returns a unit icosahedron centered at the origin, the
// default seed surface when no input mesh is supplied.
func Icosahedron() []Triangle {
	// Vertices on the unit sphere built from three golden rectangles.
	phi := (1 + math.Sqrt(5)) / 2
	s := 1 / math.Sqrt(1+phi*phi)
	a, b := s, phi*s

	v := []r3.Vec{
		{X: -a, Y: b, Z: 0}, {X: a, Y: b, Z: 0}, {X: -a, Y: -b, Z: 0}, {X: a, Y: -b, Z: 0},
		{X: 0, Y: -a, Z: b}, {X: 0, Y: a, Z: b}, {X: 0, Y: -a, Z: -b}, {X: 0, Y: a, Z: -b},
		{X: b, Y: 0, Z: -a}, {X: b, Y: 0, Z: a}, {X: -b, Y: 0, Z: -a}, {X: -b, Y: 0, Z: a},
	}

	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	tris := make([]Triangle, len(faces))
	for i, f := range faces {
		tris[i] = Triangle{A: v[f[0]], B: v[f[1]], C: v[f[2]]}
	}
	return tris
}
