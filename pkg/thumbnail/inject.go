package thumbnail

import "strings"

// AnchorFunc decides whether a line is the header insertion anchor. The
// upstream slicer's exact comment wording varies between producers, so the
// predicate is pluggable rather than baked into the codec.
type AnchorFunc func(line string) bool

// DefaultAnchor matches the generator comment emitted by the slicing
// engine, e.g. ";Generated with Cura_SteamEngine 5.x".
func DefaultAnchor(line string) bool {
	return strings.HasPrefix(line, ";Generated")
}

// preamble marks the file as post-processed. Invariant: no preamble line
// matches DefaultAnchor, so an injected header is never mistaken for a
// fresh anchor.
var preamble = []string{
	";POSTPROCESSED",
	";  [CreateThumbnail]",
	";  [Cura_JPEG_Preview]",
	";",
}

// Inject returns a new line sequence with the thumbnail header embedded.
// The first line matching anchor is replaced by the header; every other
// line keeps its content and relative order. When no line matches, the
// header is prepended instead and anchorFound is false.
//
// Running Inject on an already-injected document finds no anchor (the
// original one was consumed by the first run) and stacks a second header at
// the top via the fallback. Callers own run-once discipline.
func Inject(lines []string, encoded []Encoded, anchor AnchorFunc) (out []string, anchorFound bool) {
	if anchor == nil {
		anchor = DefaultAnchor
	}

	header := make([]string, 0, len(preamble))
	header = append(header, preamble...)
	for _, e := range encoded {
		header = append(header, e.Block()...)
	}

	at := -1
	for i, line := range lines {
		if anchor(line) {
			at = i
			break
		}
	}

	if at < 0 {
		out = make([]string, 0, len(header)+len(lines))
		out = append(out, header...)
		out = append(out, lines...)
		return out, false
	}

	out = make([]string, 0, len(header)+len(lines)-1)
	out = append(out, lines[:at]...)
	out = append(out, header...)
	out = append(out, lines[at+1:]...)
	return out, true
}
