// gcodepost post-processes freshly sliced G-code files: it renders preview
// thumbnails from the source STL and embeds them for print-host dashboards,
// and annotates the file with Klipper layer-tracking and timelapse macros.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/printforge/gcodepost/internal/config"
	"github.com/printforge/gcodepost/internal/logger"
	"github.com/printforge/gcodepost/internal/pipeline"
	"github.com/printforge/gcodepost/pkg/gcode"
	"github.com/printforge/gcodepost/pkg/render"
	"github.com/printforge/gcodepost/pkg/stl"
	"github.com/printforge/gcodepost/pkg/thumbnail"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "process":
		cmdProcess(args)
	case "extract", "x":
		cmdExtract(args)
	case "render":
		cmdRender(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gcodepost - G-code thumbnail and Klipper macro post-processor

Usage:
  gcodepost <command> [options]

Commands:
  process -stl <file.stl> -gcode <file.gcode>   Embed thumbnails and annotate
  extract -gcode <file.gcode> [-out dir]        Recover embedded thumbnails as PNGs
  render  -stl <file.stl> -out <file.png>       Render a preview without embedding

Examples:
  gcodepost process -stl part.stl -gcode part.gcode
  gcodepost process -stl part.stl -gcode part.gcode -sizes 48x48,400x400 -no-timelapse
  gcodepost extract -gcode part.gcode -out ./previews
  gcodepost render -stl part.stl -out preview.png -size 300x300`)
}

// setup loads configuration and initializes logging. Shared by all commands.
func setup(cfgPath string, debug bool) *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	stlPath := fs.String("stl", "", "Path to the source STL mesh")
	gcodePath := fs.String("gcode", "", "Path to the G-code file (rewritten in place)")
	sizes := fs.String("sizes", "", "Thumbnail sizes, e.g. 32x32,300x300 (overrides config)")
	noThumbs := fs.Bool("no-thumbnails", false, "Skip thumbnail rendering and embedding")
	noMetadata := fs.Bool("no-metadata", false, "Skip the metadata comment block")
	noLayerProgress := fs.Bool("no-layer-progress", false, "Skip SET_PRINT_STATS_INFO macros")
	noTimelapse := fs.Bool("no-timelapse", false, "Skip TIMELAPSE_TAKE_FRAME macros")
	cfgPath := fs.String("config", "", "Path to config file")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if *gcodePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -gcode is required")
		fs.Usage()
		os.Exit(1)
	}
	if *stlPath == "" && !*noThumbs {
		fmt.Fprintln(os.Stderr, "Error: -stl is required unless -no-thumbnails is set")
		fs.Usage()
		os.Exit(1)
	}

	cfg := setup(*cfgPath, *debug)
	defer logger.Sync()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if *sizes != "" {
		specs, err := thumbnail.ParseSpecs(*sizes)
		if err != nil {
			logger.Fatal("invalid -sizes", zap.Error(err))
		}
		opts.Specs = specs
	}
	if *noThumbs {
		opts.Specs = nil
	}
	if *noMetadata {
		opts.Annotate.Metadata = false
	}
	if *noLayerProgress {
		opts.Annotate.LayerProgress = false
	}
	if *noTimelapse {
		opts.Annotate.Timelapse = false
	}

	if err := pipeline.Process(*stlPath, *gcodePath, opts); err != nil {
		logger.Error("post-processing failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	gcodePath := fs.String("gcode", "", "Path to the G-code file")
	outDir := fs.String("out", ".", "Directory for recovered PNG files")
	cfgPath := fs.String("config", "", "Path to config file")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if *gcodePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -gcode is required")
		fs.Usage()
		os.Exit(1)
	}

	setup(*cfgPath, *debug)
	defer logger.Sync()

	lines, err := gcode.ReadDocument(*gcodePath)
	if err != nil {
		logger.Error("reading G-code failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	written, err := thumbnail.ExtractFiles(lines, *outDir)
	if err != nil {
		logger.Error("extracting thumbnails failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	if len(written) == 0 {
		fmt.Println("No embedded thumbnails found")
		return
	}
	for size, path := range written {
		fmt.Printf("%-10s %s\n", size, path)
	}
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	stlPath := fs.String("stl", "", "Path to the source STL mesh")
	outPath := fs.String("out", "preview.png", "Output PNG path")
	size := fs.String("size", "300x300", "Raster size as WxH")
	cfgPath := fs.String("config", "", "Path to config file")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if *stlPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -stl is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := setup(*cfgPath, *debug)
	defer logger.Sync()

	spec, err := thumbnail.ParseSpec(*size)
	if err != nil {
		logger.Fatal("invalid -size", zap.Error(err))
	}
	ropts, err := renderOptions(cfg)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	mesh, err := stl.LoadFile(*stlPath)
	if err != nil {
		logger.Error("loading STL failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	img, err := render.Render(mesh, spec.Width, spec.Height, ropts)
	if err != nil {
		logger.Error("rendering failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		logger.Error("encoding failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		logger.Error("writing PNG failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("preview written",
		zap.String("out", *outPath),
		zap.String("size", spec.String()),
		zap.Int("bytes", len(data)))
}

// pipelineOptions translates file configuration into pipeline options.
func pipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	ropts, err := renderOptions(cfg)
	if err != nil {
		return opts, err
	}
	opts.Render = ropts

	opts.Specs = opts.Specs[:0]
	if cfg.Thumbnails.Enabled {
		for _, s := range cfg.Thumbnails.Sizes {
			opts.Specs = append(opts.Specs, thumbnail.Spec{Width: s.Width, Height: s.Height})
		}
	}

	if prefix := cfg.Thumbnails.AnchorPrefix; prefix != "" {
		opts.Anchor = func(line string) bool {
			return strings.HasPrefix(line, prefix)
		}
	}

	opts.Annotate.Metadata = cfg.Klipper.Metadata
	opts.Annotate.LayerProgress = cfg.Klipper.LayerProgress
	opts.Annotate.Timelapse = cfg.Klipper.Timelapse
	return opts, nil
}

func renderOptions(cfg *config.Config) (render.Options, error) {
	ropts := render.DefaultOptions()
	if cfg.Thumbnails.FaceColor != "" {
		c, err := render.ParseHexColor(cfg.Thumbnails.FaceColor)
		if err != nil {
			return ropts, err
		}
		ropts.FaceColor = c
	}
	if cfg.Thumbnails.EdgeColor != "" {
		c, err := render.ParseHexColor(cfg.Thumbnails.EdgeColor)
		if err != nil {
			return ropts, err
		}
		ropts.EdgeColor = c
	}
	return ropts, nil
}
