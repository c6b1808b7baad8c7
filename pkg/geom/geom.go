// Package geom provides geometry value types for mesh processing.
package geom

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Min returns the component-wise minimum of v and other.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{
		float32(math.Min(float64(v.X), float64(other.X))),
		float32(math.Min(float64(v.Y), float64(other.Y))),
		float32(math.Min(float64(v.Z), float64(other.Z))),
	}
}

// Max returns the component-wise maximum of v and other.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{
		float32(math.Max(float64(v.X), float64(other.X))),
		float32(math.Max(float64(v.Y), float64(other.Y))),
		float32(math.Max(float64(v.Z), float64(other.Z))),
	}
}

// IsFinite reports whether all components are finite numbers.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Triangle is a single mesh facet: three vertices in winding order.
// No normal is retained; consumers derive orientation from the vertices.
type Triangle [3]Vec3

// Centroid returns the arithmetic mean of the three vertices.
func (t Triangle) Centroid() Vec3 {
	return t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3.0)
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// EmptyBox returns a box that contains nothing; extending it with any
// point yields a box containing exactly that point.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend returns the smallest box containing both b and point p.
func (b Box) Extend(p Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the per-axis extents of the box.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest per-axis extent.
func (b Box) MaxExtent() float32 {
	s := b.Size()
	return float32(math.Max(float64(s.X), math.Max(float64(s.Y), float64(s.Z))))
}
