package gcode

import (
	"fmt"
	"strings"
)

// Literal markers written by the slicer and macros consumed by the printer
// firmware.
const (
	layerMarker      = ";LAYER:"
	layerCountMarker = ";LAYER_COUNT:"

	currentLayerMacro = "SET_PRINT_STATS_INFO CURRENT_LAYER=%d"
	totalLayerMacro   = "SET_PRINT_STATS_INFO TOTAL_LAYER=%d"
	timelapseMacro    = "TIMELAPSE_TAKE_FRAME"
)

// metadataBlock is the comment block parsed by the print host for file
// metadata. Values are filled in from the upstream slicing profile.
var metadataBlock = []string{
	";Klipper-enhanced G-code",
	";Nozzle diameter = (from profile)",
	";Filament type = (from profile)",
	";Filament name = (from profile)",
}

// AnnotateOptions selects which firmware annotations to emit.
type AnnotateOptions struct {
	Metadata      bool // insert the metadata comment block once
	LayerProgress bool // SET_PRINT_STATS_INFO layer tracking macros
	Timelapse     bool // TIMELAPSE_TAKE_FRAME after each layer change
}

// AllAnnotations enables every annotation.
func AllAnnotations() AnnotateOptions {
	return AnnotateOptions{Metadata: true, LayerProgress: true, Timelapse: true}
}

// CountLayers counts slicer layer markers.
func CountLayers(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, layerMarker) {
			n++
		}
	}
	return n
}

// Annotate returns a copy of lines with per-layer firmware macros and the
// one-shot metadata block inserted. Layer indices are 1-based in emission
// order; the total comes from a pre-pass so TOTAL_LAYER is correct even
// when ;LAYER_COUNT: precedes the first layer marker. Annotate never fails:
// unrecognized lines pass through verbatim.
func Annotate(lines []string, opts AnnotateOptions) []string {
	totalLayers := CountLayers(lines)

	out := make([]string, 0, len(lines)+2*totalLayers+len(metadataBlock)+1)
	currentLayer := 0
	metadataInserted := false

	for _, line := range lines {
		// The metadata block goes in front of the generator comment or,
		// failing that, the first executable command.
		if opts.Metadata && !metadataInserted &&
			(strings.HasPrefix(line, ";Generated") || strings.HasPrefix(line, "G")) {
			out = append(out, metadataBlock...)
			metadataInserted = true
		}

		switch {
		case strings.HasPrefix(line, layerMarker):
			currentLayer++
			out = append(out, line)
			if opts.LayerProgress {
				out = append(out, fmt.Sprintf(currentLayerMacro, currentLayer))
			}
			if opts.Timelapse {
				out = append(out, timelapseMacro)
			}

		case strings.HasPrefix(line, layerCountMarker) && opts.LayerProgress:
			out = append(out, line, fmt.Sprintf(totalLayerMacro, totalLayers))

		default:
			out = append(out, line)
		}
	}
	return out
}
