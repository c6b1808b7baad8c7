// Package thumbnail renders preview images for sliced models and embeds
// them into G-code files using the comment-based protocol that print-host
// dashboards parse, and recovers them back out again.
//
// Wire format, one block per configured size:
//
//	; thumbnail begin <width>x<height> <base64-char-count>
//	; <up to 78 base64 chars>
//	; ...
//	; thumbnail end
//	;
//
// An older producer revision wrote "; jpeg thumbnail begin"; Extract
// accepts that variant but Inject only ever emits the canonical form.
package thumbnail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/printforge/gcodepost/pkg/render"
	"github.com/printforge/gcodepost/pkg/stl"
)

// chunkWidth is the maximum base64 payload per comment line.
const chunkWidth = 78

// Spec is a requested thumbnail size in pixels.
type Spec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// String returns the size key used on the wire, e.g. "32x32".
func (s Spec) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultSpecs are the dashboard-standard sizes: small for file lists,
// large for the preview pane.
func DefaultSpecs() []Spec {
	return []Spec{{Width: 32, Height: 32}, {Width: 300, Height: 300}}
}

// ParseSpecs parses a comma-separated size list such as "32x32,300x300".
func ParseSpecs(s string) ([]Spec, error) {
	var specs []Spec
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		spec, err := ParseSpec(tok)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no sizes in %q", s)
	}
	return specs, nil
}

// ParseSpec parses a single "<width>x<height>" token.
func ParseSpec(tok string) (Spec, error) {
	w, h, ok := strings.Cut(tok, "x")
	if !ok {
		return Spec{}, fmt.Errorf("invalid size %q, want WxH", tok)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid size %q: %w", tok, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid size %q: %w", tok, err)
	}
	if width <= 0 || height <= 0 {
		return Spec{}, fmt.Errorf("invalid size %q: dimensions must be positive", tok)
	}
	return Spec{Width: width, Height: height}, nil
}

// Encoded is one thumbnail ready for embedding.
type Encoded struct {
	Width  int
	Height int
	// DataLen is the compressed image byte length; decoding Base64 must
	// yield exactly this many bytes.
	DataLen int
	Base64  string
}

// Encode renders one thumbnail size and wraps it for embedding.
func Encode(mesh stl.Mesh, spec Spec, opts render.Options) (Encoded, error) {
	img, err := render.Render(mesh, spec.Width, spec.Height, opts)
	if err != nil {
		return Encoded{}, fmt.Errorf("rendering %s: %w", spec, err)
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return Encoded{}, fmt.Errorf("compressing %s: %w", spec, err)
	}
	return Encoded{
		Width:   spec.Width,
		Height:  spec.Height,
		DataLen: len(data),
		Base64:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Generate encodes every spec in order, skipping sizes that fail. The
// returned error joins the per-size failures; it is non-nil even on partial
// success so the caller can decide how loudly to report.
func Generate(mesh stl.Mesh, specs []Spec, opts render.Options) ([]Encoded, error) {
	var encoded []Encoded
	var errs []error
	for _, spec := range specs {
		e, err := Encode(mesh, spec, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		encoded = append(encoded, e)
	}
	return encoded, errors.Join(errs...)
}

// Block emits the framed comment lines for one thumbnail.
func (e Encoded) Block() []string {
	lines := make([]string, 0, len(e.Base64)/chunkWidth+3)
	lines = append(lines, fmt.Sprintf("; thumbnail begin %dx%d %d",
		e.Width, e.Height, len(e.Base64)))
	for i := 0; i < len(e.Base64); i += chunkWidth {
		end := i + chunkWidth
		if end > len(e.Base64) {
			end = len(e.Base64)
		}
		lines = append(lines, "; "+e.Base64[i:end])
	}
	lines = append(lines, "; thumbnail end", ";")
	return lines
}
