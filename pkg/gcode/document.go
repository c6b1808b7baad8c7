// Package gcode reads, annotates and rewrites line-oriented G-code
// documents.
//
// Documents are held fully in memory as ordered line sequences; every
// transform produces a fresh sequence rather than mutating in place. Machine
// files can run to hundreds of megabytes, so the whole-file model is a
// documented scaling constraint of this pipeline, not an accident.
package gcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadDocument reads a G-code file into lines. Line terminators are
// stripped; both LF and CRLF inputs are accepted.
func ReadDocument(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading G-code file: %w", err)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits text into terminator-free lines. A trailing newline
// does not produce a final empty line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WriteDocument writes lines to path with LF terminators, going through a
// temporary file in the same directory and renaming it into place. A crash
// mid-write can never leave a truncated or half-annotated file behind.
func WriteDocument(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gcodepost-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, werr := tmp.WriteString(strings.Join(lines, "\n") + "\n")
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpPath)
		if werr != nil {
			return fmt.Errorf("writing G-code file: %w", werr)
		}
		return fmt.Errorf("writing G-code file: %w", cerr)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting G-code file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing G-code file: %w", err)
	}
	return nil
}
