// Package render projects triangle meshes into fixed-angle isometric
// preview rasters.
//
// No perspective, no lighting, no z-buffer: triangles are flat-filled back
// to front by centroid depth, which approximates occlusion well enough for
// print previews.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/printforge/gcodepost/pkg/stl"
)

// Render errors.
var (
	ErrEmptyMesh        = errors.New("mesh has no triangles")
	ErrDegenerateBounds = errors.New("mesh bounding box has no usable extent")
)

// Fixed view angles: 30 degree elevation, 45 degree azimuth.
const (
	elevation = 30 * math.Pi / 180
	azimuth   = 45 * math.Pi / 180
)

// fitFactor shrinks the viewport so the projected bounding cube, which
// spans up to ~1.6x its longest edge on screen, stays inside the frame.
const fitFactor = 0.6

// Options controls raster appearance.
type Options struct {
	FaceColor color.RGBA
	EdgeColor color.RGBA
	EdgeWidth float64 // stroke width in pixels
}

// DefaultOptions returns the standard preview style: coral faces with dark
// hairline edges on a transparent background.
func DefaultOptions() Options {
	return Options{
		FaceColor: color.RGBA{R: 0xFF, G: 0x6B, B: 0x35, A: 0xFF},
		EdgeColor: color.RGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0xFF},
		EdgeWidth: 1.0,
	}
}

// projected is a triangle in screen space plus its sort key.
type projected struct {
	x, y  [3]float64
	depth float64
}

// Render rasterizes mesh into a width x height RGBA image. Pixels outside
// triangle coverage stay fully transparent.
func Render(mesh stl.Mesh, width, height int, opts Options) (*image.RGBA, error) {
	if len(mesh) == 0 {
		return nil, ErrEmptyMesh
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}

	box := mesh.Bounds()
	if !box.Min.IsFinite() || !box.Max.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite coordinates", ErrDegenerateBounds)
	}
	extent := float64(box.MaxExtent())
	if extent <= 0 {
		return nil, fmt.Errorf("%w: extent %g", ErrDegenerateBounds, extent)
	}

	center := box.Center()
	viewport := fitFactor * math.Min(float64(width), float64(height))
	scale := viewport / extent
	cx := float64(width) / 2
	cy := float64(height) / 2

	sinAz, cosAz := math.Sincos(azimuth)
	sinEl, cosEl := math.Sincos(elevation)

	tris := make([]projected, len(mesh))
	for i, tri := range mesh {
		var p projected
		for v, vert := range tri {
			rel := vert.Sub(center)
			x, y, z := float64(rel.X), float64(rel.Y), float64(rel.Z)

			// Rotate by azimuth around Z, then tilt by elevation.
			toward := x*cosAz + y*sinAz
			right := y*cosAz - x*sinAz
			up := z*cosEl - toward*sinEl

			p.x[v] = cx + right*scale
			p.y[v] = cy - up*scale
			p.depth += (toward*cosEl + z*sinEl) / 3
		}
		tris[i] = p
	}

	// Painter's algorithm: farthest centroid first.
	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth < tris[j].depth })

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())

	filler := rasterx.NewFiller(width, height, scanner)
	filler.SetColor(opts.FaceColor)

	stroker := rasterx.NewStroker(width, height, scanner)
	stroker.SetStroke(fixed.Int26_6(opts.EdgeWidth*64), 4<<6,
		rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.Bevel)
	stroker.SetColor(opts.EdgeColor)

	for i := range tris {
		addTriangle(filler, &tris[i])
		filler.Draw()
		filler.Clear()

		if opts.EdgeWidth > 0 {
			addTriangle(stroker, &tris[i])
			stroker.Draw()
			stroker.Clear()
		}
	}

	return img, nil
}

// adder is the subset of the rasterx path sink shared by Filler and Stroker.
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	Stop(closeLoop bool)
}

func addTriangle(dst adder, p *projected) {
	dst.Start(rasterx.ToFixedP(p.x[0], p.y[0]))
	dst.Line(rasterx.ToFixedP(p.x[1], p.y[1]))
	dst.Line(rasterx.ToFixedP(p.x[2], p.y[2]))
	dst.Stop(true)
}
