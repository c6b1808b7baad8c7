package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/printforge/gcodepost/pkg/geom"
)

// buildBinarySTL assembles a binary STL from triangles. If declared >= 0 it
// overrides the count field, leaving the record payload untouched.
func buildBinarySTL(tris []geom.Triangle, declared int) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))

	count := uint32(len(tris))
	if declared >= 0 {
		count = uint32(declared)
	}
	binary.Write(&buf, binary.LittleEndian, count)

	for _, tri := range tris {
		// Facet normal, ignored by the parser.
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		for _, v := range tri {
			binary.Write(&buf, binary.LittleEndian, [3]float32{v.X, v.Y, v.Z})
		}
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func buildASCIISTL(tris []geom.Triangle) []byte {
	var buf bytes.Buffer
	buf.WriteString("solid test\n")
	for _, tri := range tris {
		buf.WriteString("  facet normal 0 0 1\n    outer loop\n")
		for _, v := range tri {
			fmt.Fprintf(&buf, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		buf.WriteString("    endloop\n  endfacet\n")
	}
	buf.WriteString("endsolid test\n")
	return buf.Bytes()
}

// testTriangles returns a small, distinct set of facets.
func testTriangles(n int) []geom.Triangle {
	tris := make([]geom.Triangle, n)
	for i := range tris {
		f := float32(i)
		tris[i] = geom.Triangle{{X: f, Y: 0, Z: 0}, {X: f + 1, Y: 0, Z: 0}, {X: f, Y: 1, Z: 0}}
	}
	return tris
}

func TestParseBinary(t *testing.T) {
	want := testTriangles(5)
	mesh, err := Parse(buildBinarySTL(want, -1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(mesh) != len(want) {
		t.Fatalf("Parse() returned %d triangles, want %d", len(mesh), len(want))
	}
	for i, tri := range mesh {
		if tri != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, tri, want[i])
		}
	}
}

func TestParseASCII(t *testing.T) {
	want := testTriangles(3)
	mesh, err := Parse(buildASCIISTL(want))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(mesh) != len(want) {
		t.Fatalf("Parse() returned %d triangles, want %d", len(mesh), len(want))
	}
	if mesh[2] != want[2] {
		t.Errorf("triangle 2 = %v, want %v", mesh[2], want[2])
	}
}

func TestParseASCIIEqualsBinary(t *testing.T) {
	tris := testTriangles(7)
	ascii, err := Parse(buildASCIISTL(tris))
	if err != nil {
		t.Fatalf("Parse(ascii) error = %v", err)
	}
	bin, err := Parse(buildBinarySTL(tris, -1))
	if err != nil {
		t.Fatalf("Parse(binary) error = %v", err)
	}
	if len(ascii) != len(bin) {
		t.Errorf("ASCII and binary encodings of same geometry parsed to %d vs %d triangles",
			len(ascii), len(bin))
	}
}

func TestParseBinaryBogusCount(t *testing.T) {
	// A corrupted count field must fail before triangle storage is
	// allocated for it; the payload is a single real record.
	data := buildBinarySTL(testTriangles(1), 50_000_000)
	_, err := Parse(data)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Parse() error = %v, want ErrCorrupt", err)
	}
}

func TestParseBinaryTruncatedRecords(t *testing.T) {
	data := buildBinarySTL(testTriangles(2), -1)
	_, err := Parse(data[:len(data)-10])
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Parse() error = %v, want ErrTruncated", err)
	}
}

func TestParseBinaryTooShort(t *testing.T) {
	_, err := Parse(make([]byte, 40))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Parse() error = %v, want ErrTruncated", err)
	}
}

func TestParseASCIINoVertices(t *testing.T) {
	_, err := Parse([]byte("solid empty\nendsolid empty\n"))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Parse() error = %v, want ErrCorrupt", err)
	}
}

func TestParseASCIISkipsMalformedVertexLines(t *testing.T) {
	data := []byte("solid bad\n" +
		"vertex 0 0 0\nvertex 1 0 0\nvertex nope 1 0\nvertex 0 1 0\n" +
		"endsolid bad\n")
	mesh, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(mesh) != 1 {
		t.Errorf("Parse() returned %d triangles, want 1", len(mesh))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	if err := os.WriteFile(path, buildBinarySTL(testTriangles(4), -1), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	mesh, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(mesh) != 4 {
		t.Errorf("LoadFile() returned %d triangles, want 4", len(mesh))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.stl"))
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestMeshBounds(t *testing.T) {
	mesh := Mesh{
		{{X: -1, Y: 0, Z: 2}, {X: 3, Y: 1, Z: 0}, {X: 0, Y: -2, Z: 5}},
	}
	box := mesh.Bounds()
	if got, want := box.Min, (geom.Vec3{X: -1, Y: -2, Z: 0}); got != want {
		t.Errorf("Bounds().Min = %v, want %v", got, want)
	}
	if got, want := box.Max, (geom.Vec3{X: 3, Y: 1, Z: 5}); got != want {
		t.Errorf("Bounds().Max = %v, want %v", got, want)
	}
}

func TestParseBinaryNaNVertexSurvives(t *testing.T) {
	// The loader does not sanitize coordinates; degenerate geometry is the
	// renderer's problem to reject.
	tris := testTriangles(1)
	tris[0][0].X = float32(math.NaN())
	mesh, err := Parse(buildBinarySTL(tris, -1))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !math.IsNaN(float64(mesh[0][0].X)) {
		t.Error("expected NaN coordinate to pass through the parser")
	}
}
