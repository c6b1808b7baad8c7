package render

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/printforge/gcodepost/pkg/geom"
	"github.com/printforge/gcodepost/pkg/stl"
)

// cubeMesh returns the 12 triangles of an axis-aligned cube with the given
// edge length, corner at the origin.
func cubeMesh(edge float32) stl.Mesh {
	e := edge
	v := [8]geom.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: e, Y: 0, Z: 0}, {X: e, Y: e, Z: 0}, {X: 0, Y: e, Z: 0},
		{X: 0, Y: 0, Z: e}, {X: e, Y: 0, Z: e}, {X: e, Y: e, Z: e}, {X: 0, Y: e, Z: e},
	}
	quads := [6][4]int{
		{0, 1, 2, 3}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	}
	var mesh stl.Mesh
	for _, q := range quads {
		mesh = append(mesh,
			geom.Triangle{v[q[0]], v[q[1]], v[q[2]]},
			geom.Triangle{v[q[0]], v[q[2]], v[q[3]]},
		)
	}
	return mesh
}

func TestRenderCube(t *testing.T) {
	img, err := Render(cubeMesh(20), 64, 64, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 64 {
		t.Fatalf("Render() bounds = %v, want 64x64", bounds)
	}

	// The cube is centered, so the middle pixel must be covered and the
	// corners must stay transparent.
	if img.RGBAAt(32, 32).A == 0 {
		t.Error("center pixel is transparent, expected triangle coverage")
	}
	for _, p := range [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}} {
		if a := img.RGBAAt(p[0], p[1]).A; a != 0 {
			t.Errorf("corner pixel (%d,%d) alpha = %d, want 0", p[0], p[1], a)
		}
	}

	covered := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y).A > 0 {
				covered++
			}
		}
	}
	if covered < 64 {
		t.Errorf("only %d covered pixels, expected a visible silhouette", covered)
	}
}

func TestRenderFaceColor(t *testing.T) {
	opts := DefaultOptions()
	img, err := Render(cubeMesh(10), 100, 100, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Somewhere in the frame the fill color must appear nearly unblended.
	found := false
	for y := 0; y < 100 && !found; y++ {
		for x := 0; x < 100; x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0xFF && c.R > 0xE0 && c.B < 0x60 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("face color not found in rendered output")
	}
}

func TestRenderEmptyMesh(t *testing.T) {
	_, err := Render(stl.Mesh{}, 32, 32, DefaultOptions())
	if !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Render() error = %v, want ErrEmptyMesh", err)
	}
}

func TestRenderDegenerateBounds(t *testing.T) {
	// All vertices coincide: zero extent.
	flat := stl.Mesh{{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}}
	_, err := Render(flat, 32, 32, DefaultOptions())
	if !errors.Is(err, ErrDegenerateBounds) {
		t.Errorf("Render() error = %v, want ErrDegenerateBounds", err)
	}

	nan := float32(math.NaN())
	bad := stl.Mesh{{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: nan, Z: 0}}}
	_, err = Render(bad, 32, 32, DefaultOptions())
	if !errors.Is(err, ErrDegenerateBounds) {
		t.Errorf("Render() error = %v, want ErrDegenerateBounds", err)
	}
}

func TestRenderInvalidSize(t *testing.T) {
	_, err := Render(cubeMesh(1), 0, 32, DefaultOptions())
	if err == nil {
		t.Error("expected error for zero width, got nil")
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	img, err := Render(cubeMesh(20), 48, 48, DefaultOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding produced PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}

	// Alpha must survive the encode: corner transparent in the decode too.
	_, _, _, a := decoded.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("corner alpha after round trip = %d, want 0", a)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF6B35")
	if err != nil {
		t.Fatalf("ParseHexColor() error = %v", err)
	}
	if c.R != 0xFF || c.G != 0x6B || c.B != 0x35 || c.A != 0xFF {
		t.Errorf("ParseHexColor() = %v, want FF6B35FF", c)
	}

	if _, err := ParseHexColor("not-a-color"); err == nil {
		t.Error("expected error for invalid color, got nil")
	}
	if _, err := ParseHexColor("#12345"); err == nil {
		t.Error("expected error for short color, got nil")
	}
}
