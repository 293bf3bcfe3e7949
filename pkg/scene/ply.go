package scene

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// ErrInvalidPLY is returned for PLY files that cannot be read
var ErrInvalidPLY = errors.New("invalid ply")

// plyProperty is a property definition in the PLY header
type plyProperty struct {
	name     string
	dataType string
	isList   bool
	listType string // Type of the list count
}

// plyElement is an element definition in the PLY header
type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

// plyHeader is the parsed PLY header
type plyHeader struct {
	format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	elements []plyElement
}

// LoadPLY reads a triangle mesh from a PLY file
func LoadPLY(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open ply: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("ply %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY reads a triangle mesh in ascii or binary PLY. Vertex positions
// and optional u/v (or s/t) texture coordinates are read; polygons are
// triangulated as fans.
func ReadPLY(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)

	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, err
	}

	var values plyValueReader
	switch header.format {
	case "ascii":
		values = &asciiValues{scanner: newWordScanner(br)}
	case "binary_little_endian":
		values = &binaryValues{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValues{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidPLY, header.format)
	}

	mesh := &Mesh{}
	for _, element := range header.elements {
		switch element.name {
		case "vertex":
			err = readPLYVertices(values, element, mesh)
		case "face":
			err = readPLYFaces(values, element, mesh)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: element %s: %v", ErrInvalidPLY, element.name, err)
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPLY, err)
	}
	return mesh, nil
}

func parsePLYHeader(r *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}

	magic, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("%w: missing magic number", ErrInvalidPLY)
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated header", ErrInvalidPLY)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.format == "" {
				return nil, fmt.Errorf("%w: missing format line", ErrInvalidPLY)
			}
			return header, nil
		case "format":
			if len(parts) < 2 {
				return nil, fmt.Errorf("%w: invalid format line", ErrInvalidPLY)
			}
			header.format = parts[1]
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid element line %q", ErrInvalidPLY, strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: invalid element count %q", ErrInvalidPLY, parts[2])
			}
			header.elements = append(header.elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrInvalidPLY)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			last := &header.elements[len(header.elements)-1]
			last.properties = append(last.properties, prop)
		}
		// comment and obj_info lines are ignored
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{isList: true, listType: parts[1], dataType: parts[2], name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return plyProperty{dataType: parts[0], name: parts[1]}, nil
	}
	return plyProperty{}, fmt.Errorf("%w: invalid property %q", ErrInvalidPLY, strings.Join(parts, " "))
}

func readPLYVertices(values plyValueReader, element plyElement, mesh *Mesh) error {
	index := map[string]int{}
	for i, p := range element.properties {
		index[p.name] = i
	}
	for _, axis := range []string{"x", "y", "z"} {
		if _, ok := index[axis]; !ok {
			return fmt.Errorf("missing vertex property %s", axis)
		}
	}
	uIndex, hasU := firstIndex(index, "u", "s", "texture_u")
	vIndex, hasV := firstIndex(index, "v", "t", "texture_v")
	hasUV := hasU && hasV

	row := make([]float64, len(element.properties))
	mesh.Vertices = make([]core.Vec3, 0, element.count)
	for i := 0; i < element.count; i++ {
		for j, p := range element.properties {
			if p.isList {
				if err := skipPLYList(values, p); err != nil {
					return err
				}
				continue
			}
			v, err := values.read(p.dataType)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			row[j] = v
		}

		mesh.Vertices = append(mesh.Vertices, core.NewVec3(row[index["x"]], row[index["y"]], row[index["z"]]))
		if hasUV {
			mesh.TexCoords = append(mesh.TexCoords, core.NewVec2(row[uIndex], row[vIndex]))
		}
	}
	return nil
}

func firstIndex(index map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := index[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func readPLYFaces(values plyValueReader, element plyElement, mesh *Mesh) error {
	for i := 0; i < element.count; i++ {
		for _, p := range element.properties {
			if !p.isList || (p.name != "vertex_indices" && p.name != "vertex_index") {
				if err := skipPLYProperty(values, p); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}

			n, err := values.read(p.listType)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if n < 3 {
				return fmt.Errorf("face %d has %v vertices", i, n)
			}

			polygon := make([]int, int(n))
			for k := range polygon {
				v, err := values.read(p.dataType)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				polygon[k] = int(v)
			}

			// Fan triangulation
			for k := 1; k+1 < len(polygon); k++ {
				mesh.Indices = append(mesh.Indices, polygon[0], polygon[k], polygon[k+1])
			}
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element plyElement) error {
	for i := 0; i < element.count; i++ {
		for _, p := range element.properties {
			if err := skipPLYProperty(values, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYProperty(values plyValueReader, p plyProperty) error {
	if p.isList {
		return skipPLYList(values, p)
	}
	_, err := values.read(p.dataType)
	return err
}

func skipPLYList(values plyValueReader, p plyProperty) error {
	n, err := values.read(p.listType)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := values.read(p.dataType); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader reads one scalar of a PLY data type
type plyValueReader interface {
	read(dataType string) (float64, error)
}

// binaryValues reads binary PLY data in the file's byte order
type binaryValues struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValues) read(dataType string) (float64, error) {
	size := plyTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type %q", dataType)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double, float64
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

func plyTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

// asciiValues reads whitespace-separated ascii PLY data
type asciiValues struct {
	scanner *bufio.Scanner
}

func newWordScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return s
}

func (a *asciiValues) read(dataType string) (float64, error) {
	if plyTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("unsupported data type %q", dataType)
	}
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}
