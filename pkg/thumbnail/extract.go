package thumbnail

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extract scans a G-code document for embedded thumbnail blocks and returns
// the accumulated base64 text keyed by size ("32x32", "300x300", ...).
// Both the canonical "; thumbnail begin" header and the legacy
// "; jpeg thumbnail begin" variant are recognized.
func Extract(lines []string) map[string]string {
	found := make(map[string]string)

	var sizeKey string
	var chunks []string
	collecting := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case strings.Contains(line, "thumbnail begin"):
			sizeKey = ""
			for _, tok := range strings.Fields(line) {
				if isSizeToken(tok) {
					sizeKey = tok
					break
				}
			}
			collecting = sizeKey != ""
			chunks = chunks[:0]

		case strings.HasPrefix(line, "; thumbnail end"):
			if collecting {
				found[sizeKey] = strings.Join(chunks, "")
			}
			collecting = false
			sizeKey = ""
			chunks = chunks[:0]

		case collecting && strings.HasPrefix(line, ";"):
			payload := strings.TrimSpace(line[1:])
			// Stray control keywords inside a block are framing, not data.
			if payload != "" && !strings.HasPrefix(payload, "thumbnail") {
				chunks = append(chunks, payload)
			}
		}
	}
	return found
}

// isSizeToken reports whether tok looks like "<digits>x<digits>".
func isSizeToken(tok string) bool {
	w, h, ok := strings.Cut(tok, "x")
	if !ok || w == "" || h == "" {
		return false
	}
	return allDigits(w) && allDigits(h)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExtractFiles decodes every embedded thumbnail and writes it to dir as
// thumbnail-<size>.png. It returns the written paths keyed by size.
func ExtractFiles(lines []string, dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	written := make(map[string]string)
	for size, b64 := range Extract(lines) {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return written, fmt.Errorf("decoding %s thumbnail: %w", size, err)
		}
		path := filepath.Join(dir, "thumbnail-"+size+".png")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("writing %s thumbnail: %w", size, err)
		}
		written[size] = path
	}
	return written, nil
}
