package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// EncodePNG compresses a raster losslessly, preserving the alpha channel.
// Downstream dashboards rely on the transparent background surviving.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB" into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}
