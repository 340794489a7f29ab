package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// Binary STL layout: 80-byte header, uint32 face count, then per face
// a float32 normal, three float32 vertices, and a uint16 attribute word.
const stlFaceSize = 50

// ReadSTL loads a binary STL file as a triangle soup.
func ReadSTL(path string) ([]Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stl: %w", err)
	}
	defer f.Close()
	return readSTL(bufio.NewReader(f))
}

func readSTL(r io.Reader) ([]Triangle, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading stl header: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading stl face count: %w", err)
	}

	// The face count is untrusted input; cap the preallocation so a
	// corrupt header cannot demand gigabytes, and let append grow.
	prealloc := count
	if prealloc > 1<<16 {
		prealloc = 1 << 16
	}
	tris := make([]Triangle, 0, prealloc)
	var face [stlFaceSize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, face[:]); err != nil {
			return nil, fmt.Errorf("reading stl face %d: %w", i, err)
		}
		// Skip the stored normal (12 bytes); it is re-derived from winding.
		tris = append(tris, Triangle{
			A: vecAt(face[:], 12),
			B: vecAt(face[:], 24),
			C: vecAt(face[:], 36),
		})
	}
	return tris, nil
}

// WriteSTL exports a triangle soup as a binary STL file.
func WriteSTL(path string, triangles []Triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stl: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeSTL(w, triangles); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing stl: %w", err)
	}
	return nil
}

func writeSTL(w io.Writer, triangles []Triangle) error {
	var header [80]byte
	copy(header[:], "cellform binary stl")
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing stl header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return fmt.Errorf("writing stl face count: %w", err)
	}

	var face [stlFaceSize]byte
	for i, t := range triangles {
		putVec(face[:], 0, t.Normal())
		putVec(face[:], 12, t.A)
		putVec(face[:], 24, t.B)
		putVec(face[:], 36, t.C)
		face[48], face[49] = 0, 0
		if _, err := w.Write(face[:]); err != nil {
			return fmt.Errorf("writing stl face %d: %w", i, err)
		}
	}
	return nil
}

func vecAt(b []byte, off int) r3.Vec {
	return r3.Vec{
		X: float64(float32frombytes(b[off:])),
		Y: float64(float32frombytes(b[off+4:])),
		Z: float64(float32frombytes(b[off+8:])),
	}
}

func putVec(b []byte, off int, v r3.Vec) {
	float32tobytes(b[off:], float32(v.X))
	float32tobytes(b[off+4:], float32(v.Y))
	float32tobytes(b[off+8:], float32(v.Z))
}

func float32frombytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func float32tobytes(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}
