// Package pipeline sequences the post-processing stages for a sliced job:
// mesh load, thumbnail render, header injection, firmware annotation, and
// the final atomic write-back.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/printforge/gcodepost/internal/logger"
	"github.com/printforge/gcodepost/pkg/gcode"
	"github.com/printforge/gcodepost/pkg/render"
	"github.com/printforge/gcodepost/pkg/stl"
	"github.com/printforge/gcodepost/pkg/thumbnail"
)

// Options controls a pipeline run.
type Options struct {
	// Specs lists thumbnail sizes in emission order; empty disables the
	// thumbnail stage entirely.
	Specs    []thumbnail.Spec
	Render   render.Options
	Anchor   thumbnail.AnchorFunc
	Annotate gcode.AnnotateOptions
}

// DefaultOptions enables thumbnails at the dashboard-standard sizes and all
// firmware annotations.
func DefaultOptions() Options {
	return Options{
		Specs:    thumbnail.DefaultSpecs(),
		Render:   render.DefaultOptions(),
		Anchor:   thumbnail.DefaultAnchor,
		Annotate: gcode.AllAnnotations(),
	}
}

// Process post-processes the G-code file at gcodePath in place, rendering
// thumbnails from the mesh at stlPath.
//
// Injection runs strictly before annotation: both stages key off the same
// early-file comment region, and annotating first would consume the anchor
// line the injector needs. Thumbnail-stage failures (mesh load, render,
// encode) are logged and absorbed; the job still produces a usable,
// annotated file. Only failing to read or write the G-code file itself is
// fatal.
//
// One gcodePath must not be processed by two concurrent calls; callers
// serialize per-file access.
func Process(stlPath, gcodePath string, opts Options) error {
	start := time.Now()

	lines, err := gcode.ReadDocument(gcodePath)
	if err != nil {
		return err
	}
	logger.Debug("read G-code document",
		zap.String("gcode", gcodePath),
		zap.Int("lines", len(lines)))

	lines = embedThumbnails(lines, stlPath, opts)
	lines = gcode.Annotate(lines, opts.Annotate)

	if err := gcode.WriteDocument(gcodePath, lines); err != nil {
		return err
	}

	logger.Info("post-processing complete",
		zap.String("gcode", gcodePath),
		zap.Int("lines", len(lines)),
		zap.Int("layers", gcode.CountLayers(lines)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// embedThumbnails runs the thumbnail stage, returning lines unchanged on
// any failure.
func embedThumbnails(lines []string, stlPath string, opts Options) []string {
	if len(opts.Specs) == 0 {
		return lines
	}

	mesh, err := stl.LoadFile(stlPath)
	if err != nil {
		logger.Error("skipping thumbnails: STL load failed",
			zap.String("stl", stlPath),
			zap.Error(err))
		return lines
	}
	logger.Debug("loaded mesh",
		zap.String("stl", stlPath),
		zap.Int("triangles", len(mesh)))

	encoded, err := thumbnail.Generate(mesh, opts.Specs, opts.Render)
	if len(encoded) == 0 {
		logger.Error("skipping thumbnails: no sizes rendered", zap.Error(err))
		return lines
	}
	if err != nil {
		logger.Warn("some thumbnail sizes failed",
			zap.Int("rendered", len(encoded)),
			zap.Int("requested", len(opts.Specs)),
			zap.Error(err))
	}

	out, anchorFound := thumbnail.Inject(lines, encoded, opts.Anchor)
	if !anchorFound {
		logger.Warn("anchor line not found, thumbnail header prepended",
			zap.String("stl", stlPath))
	}
	logger.Info("thumbnails embedded", zap.Int("count", len(encoded)))
	return out
}
