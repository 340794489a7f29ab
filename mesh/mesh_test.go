package mesh

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestVertexBeforeAfter(t *testing.T) {
	tri := Triangle{
		A: r3.Vec{},
		B: r3.Vec{X: 1},
		C: r3.Vec{Y: 1},
	}

	tests := []struct {
		name         string
		p            r3.Vec
		after, before r3.Vec
	}{
		{"A", tri.A, tri.B, tri.C},
		{"B", tri.B, tri.C, tri.A},
		{"C", tri.C, tri.A, tri.B},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tri.VertexAfter(tt.p); got != tt.after {
				t.Errorf("VertexAfter(%v) = %v, want %v", tt.p, got, tt.after)
			}
			if got := tri.VertexBefore(tt.p); got != tt.before {
				t.Errorf("VertexBefore(%v) = %v, want %v", tt.p, got, tt.before)
			}
		})
	}
}

func TestVertexAfterNonVertexPanics(t *testing.T) {
	tri := Triangle{A: r3.Vec{}, B: r3.Vec{X: 1}, C: r3.Vec{Y: 1}}
	defer func() {
		if recover() == nil {
			t.Error("VertexAfter of non-vertex did not panic")
		}
	}()
	tri.VertexAfter(r3.Vec{Z: 5})
}

func TestTriangleNormal(t *testing.T) {
	tri := Triangle{A: r3.Vec{}, B: r3.Vec{X: 1}, C: r3.Vec{Y: 1}}
	want := r3.Vec{Z: 1}
	if got := tri.Normal(); got != want {
		t.Errorf("Normal() = %v, want %v", got, want)
	}

	degenerate := Triangle{A: r3.Vec{}, B: r3.Vec{X: 1}, C: r3.Vec{X: 2}}
	if got := degenerate.Normal(); got != (r3.Vec{}) {
		t.Errorf("degenerate Normal() = %v, want zero", got)
	}
}

func TestAverageEdgeLength(t *testing.T) {
	tri := Triangle{A: r3.Vec{}, B: r3.Vec{X: 3}, C: r3.Vec{X: 3, Y: 4}}
	// Edges 3, 4, 5.
	if got := AverageEdgeLength([]Triangle{tri}); math.Abs(got-4) > 1e-12 {
		t.Errorf("AverageEdgeLength = %v, want 4", got)
	}
	if got := AverageEdgeLength(nil); got != 0 {
		t.Errorf("AverageEdgeLength(nil) = %v, want 0", got)
	}
}

func TestIcosahedronIsClosedAndUniform(t *testing.T) {
	tris := Icosahedron()
	if len(tris) != 20 {
		t.Fatalf("face count = %d, want 20", len(tris))
	}

	// All vertices on the unit sphere, all edges equal length.
	edge := r3.Norm(r3.Sub(tris[0].B, tris[0].A))
	edges := make(map[[2]r3.Vec]int)
	for _, tri := range tris {
		for _, v := range []r3.Vec{tri.A, tri.B, tri.C} {
			if math.Abs(r3.Norm(v)-1) > 1e-12 {
				t.Fatalf("vertex %v not on unit sphere", v)
			}
		}
		if tri.Normal() == (r3.Vec{}) {
			t.Fatal("degenerate face")
		}
		// Outward winding: face normal points away from the origin.
		centroid := r3.Scale(1.0/3, r3.Add(tri.A, r3.Add(tri.B, tri.C)))
		if r3.Dot(tri.Normal(), centroid) <= 0 {
			t.Errorf("face normal %v points inward", tri.Normal())
		}
		for _, e := range [3][2]r3.Vec{{tri.A, tri.B}, {tri.B, tri.C}, {tri.C, tri.A}} {
			if got := r3.Norm(r3.Sub(e[1], e[0])); math.Abs(got-edge) > 1e-12 {
				t.Fatalf("edge length %v, want %v", got, edge)
			}
			edges[e]++
		}
	}

	// A closed manifold uses every directed edge exactly once.
	for e, n := range edges {
		if n != 1 {
			t.Errorf("directed edge %v used %d times", e, n)
		}
		if edges[[2]r3.Vec{e[1], e[0]}] != 1 {
			t.Errorf("edge %v has no opposite half", e)
		}
	}
}

func TestSTLRoundTrip(t *testing.T) {
	tris := Icosahedron()
	path := filepath.Join(t.TempDir(), "ico.stl")

	if err := WriteSTL(path, tris); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	got, err := ReadSTL(path)
	if err != nil {
		t.Fatalf("ReadSTL: %v", err)
	}

	if len(got) != len(tris) {
		t.Fatalf("read %d triangles, want %d", len(got), len(tris))
	}
	// STL stores float32; compare at that precision.
	const eps = 1e-6
	for i := range tris {
		for _, pair := range [3][2]r3.Vec{{got[i].A, tris[i].A}, {got[i].B, tris[i].B}, {got[i].C, tris[i].C}} {
			if r3.Norm(r3.Sub(pair[0], pair[1])) > eps {
				t.Fatalf("triangle %d: read %v, want %v", i, got[i], tris[i])
			}
		}
	}
}

func TestReadSTLMissingFile(t *testing.T) {
	if _, err := ReadSTL(filepath.Join(t.TempDir(), "absent.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadSTLRejectsTruncatedFile(t *testing.T) {
	// An 84-byte file whose header claims four billion faces must fail on
	// the first short read instead of allocating for the claimed count.
	data := make([]byte, 84)
	binary.LittleEndian.PutUint32(data[80:], math.MaxUint32)

	path := filepath.Join(t.TempDir(), "corrupt.stl")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSTL(path); err == nil {
		t.Error("expected error for truncated file")
	}
}
