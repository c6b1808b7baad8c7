// Package stl parses STL surface meshes in binary or ASCII encoding.
//
// Only triangle geometry is retained: per-facet normals and the binary
// attribute field are discarded, matching what the downstream preview
// renderer consumes.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/printforge/gcodepost/pkg/geom"
)

// STL format errors.
var (
	ErrCorrupt   = errors.New("corrupt STL data")
	ErrTruncated = errors.New("truncated STL data")
)

const (
	// maxTriangles guards against corrupted binary count fields. Checked
	// before any triangle storage is allocated.
	maxTriangles = 10_000_000

	binaryHeaderLen = 80
	// normal (3f) + 3 vertices (9f) + attribute (u2)
	recordLen = 50
)

// asciiMagic marks an ASCII STL file.
var asciiMagic = []byte("solid")

// Mesh is an ordered sequence of triangles.
type Mesh []geom.Triangle

// Bounds returns the axis-aligned bounding box over all vertices.
func (m Mesh) Bounds() geom.Box {
	box := geom.EmptyBox()
	for _, tri := range m {
		for _, v := range tri {
			box = box.Extend(v)
		}
	}
	return box
}

// LoadFile parses an STL file from disk.
func LoadFile(path string) (Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return Parse(data)
}

// Parse parses STL data, sniffing the encoding from the leading bytes.
func Parse(data []byte) (Mesh, error) {
	if bytes.HasPrefix(data, asciiMagic) {
		return parseASCII(data)
	}
	return parseBinary(data)
}

// parseBinary parses the fixed-record binary layout: an ignored 80-byte
// header, a little-endian uint32 triangle count, then count 50-byte records.
func parseBinary(data []byte) (Mesh, error) {
	if len(data) < binaryHeaderLen+4 {
		return nil, fmt.Errorf("%w: missing binary header", ErrTruncated)
	}

	count := binary.LittleEndian.Uint32(data[binaryHeaderLen:])
	if count > maxTriangles {
		return nil, fmt.Errorf("%w: header claims %d triangles", ErrCorrupt, count)
	}

	records := data[binaryHeaderLen+4:]
	if len(records) < int(count)*recordLen {
		return nil, fmt.Errorf("%w: %d triangles declared, %d bytes of records",
			ErrTruncated, count, len(records))
	}

	mesh := make(Mesh, count)
	for i := range mesh {
		rec := records[i*recordLen:]
		for v := 0; v < 3; v++ {
			// Offset 12 skips the facet normal.
			off := 12 + v*12
			mesh[i][v] = geom.Vec3{
				X: math.Float32frombits(binary.LittleEndian.Uint32(rec[off:])),
				Y: math.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:])),
				Z: math.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:])),
			}
		}
	}
	return mesh, nil
}

// parseASCII scans for "vertex x y z" lines and folds them into triangles
// three at a time. All other lines (solid/facet/loop framing, normals) are
// structural noise; the format is self-delimiting by vertex count.
func parseASCII(data []byte) (Mesh, error) {
	var mesh Mesh
	var facet geom.Triangle
	nvert := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 || fields[0] != "vertex" {
			continue
		}

		var v geom.Vec3
		ok := true
		for c, dst := range []*float32{&v.X, &v.Y, &v.Z} {
			f, err := strconv.ParseFloat(fields[c+1], 32)
			if err != nil {
				ok = false
				break
			}
			*dst = float32(f)
		}
		if !ok {
			continue
		}

		facet[nvert] = v
		nvert++
		if nvert == 3 {
			mesh = append(mesh, facet)
			nvert = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning ASCII STL: %w", err)
	}

	if len(mesh) == 0 {
		return nil, fmt.Errorf("%w: no vertices found in ASCII STL", ErrCorrupt)
	}
	return mesh, nil
}
