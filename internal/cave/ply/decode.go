package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/fsutil"
)

// maxPrealloc bounds the vertex slices allocated from the header count.
const maxPrealloc = 1 << 20

// Load opens path on fsys and decodes it.
func Load(fsys fsutil.FileSystem, path string) (*File, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open point cloud %s: %w", path, err)
	}
	defer f.Close()

	pf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode point cloud %s: %w", path, err)
	}
	return pf, nil
}

// Decode reads a complete PLY file from r.
func Decode(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	vertex, ok := h.Vertex()
	if !ok {
		return nil, ErrNoVertices
	}
	layout, err := newVertexLayout(vertex)
	if err != nil {
		return nil, err
	}

	// the header count is untrusted; append grows past the cap
	capacity := min(vertex.Count, maxPrealloc)
	pf := &File{
		Header: h,
		Points: make([]cave.Point3D, 0, capacity),
		Colors: make([]cave.Color, 0, capacity),
		Extras: make(map[string][]float64, len(layout.extras)),
	}
	for _, name := range layout.extras {
		pf.Extras[name] = make([]float64, 0, capacity)
	}
	for _, c := range h.Comments {
		if a, ok := parseAnnotation(c); ok {
			pf.Annotations = append(pf.Annotations, a)
		}
	}

	var src valueReader
	switch h.Format {
	case FormatASCII:
		src = newASCIIReader(br)
	case FormatBinaryLittleEndian:
		src = &binaryReader{r: br, order: binary.LittleEndian}
	case FormatBinaryBigEndian:
		src = &binaryReader{r: br, order: binary.BigEndian}
	}

	row := make([]float64, len(vertex.Properties))
	for _, e := range h.Elements {
		for i := 0; i < e.Count; i++ {
			if e.Name != "vertex" {
				if err := skipInstance(src, e); err != nil {
					return nil, fmt.Errorf("element %s[%d]: %w", e.Name, i, err)
				}
				continue
			}
			if err := readInstance(src, e, row); err != nil {
				return nil, fmt.Errorf("vertex[%d]: %w", i, err)
			}
			layout.apply(pf, row)
		}
	}
	return pf, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var h Header

	line, err := readLine(br)
	if err != nil || line != "ply" {
		return h, ErrNotPLY
	}

	sawFormat := false
	for {
		line, err := readLine(br)
		if err != nil {
			return h, fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			continue
		}
		keyword, rest, _ := strings.Cut(line, " ")
		switch keyword {
		case "format":
			fields := strings.Fields(rest)
			if len(fields) < 1 {
				return h, fmt.Errorf("%w: empty format line", ErrUnsupportedFormat)
			}
			f, err := parseFormat(fields[0])
			if err != nil {
				return h, err
			}
			h.Format = f
			if len(fields) > 1 {
				h.Version = fields[1]
			}
			sawFormat = true
		case "comment":
			h.Comments = append(h.Comments, strings.TrimSpace(rest))
		case "obj_info":
			h.ObjInfo = append(h.ObjInfo, strings.TrimSpace(rest))
		case "element":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return h, fmt.Errorf("malformed element line %q", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return h, fmt.Errorf("malformed element count in %q", line)
			}
			h.Elements = append(h.Elements, Element{Name: fields[0], Count: n})
		case "property":
			if len(h.Elements) == 0 {
				return h, fmt.Errorf("property before element: %q", line)
			}
			p, err := parseProperty(rest)
			if err != nil {
				return h, err
			}
			last := &h.Elements[len(h.Elements)-1]
			last.Properties = append(last.Properties, p)
		case "end_header":
			if !sawFormat {
				return h, fmt.Errorf("%w: missing format line", ErrUnsupportedFormat)
			}
			return h, nil
		default:
			return h, fmt.Errorf("unknown header line %q", line)
		}
	}
}

func parseProperty(rest string) (Property, error) {
	fields := strings.Fields(rest)
	if len(fields) >= 1 && fields[0] == "list" {
		if len(fields) != 4 {
			return Property{}, fmt.Errorf("malformed list property %q", rest)
		}
		if _, ok := typeSize(fields[1]); !ok {
			return Property{}, fmt.Errorf("%w: type %q", ErrUnsupportedFormat, fields[1])
		}
		if _, ok := typeSize(fields[2]); !ok {
			return Property{}, fmt.Errorf("%w: type %q", ErrUnsupportedFormat, fields[2])
		}
		return Property{Name: fields[3], Type: fields[2], IsList: true, CountType: fields[1]}, nil
	}
	if len(fields) != 2 {
		return Property{}, fmt.Errorf("malformed property %q", rest)
	}
	if _, ok := typeSize(fields[0]); !ok {
		return Property{}, fmt.Errorf("%w: type %q", ErrUnsupportedFormat, fields[0])
	}
	return Property{Name: fields[1], Type: fields[0]}, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// typeSize returns the byte width of a PLY scalar type. Both the classic
// names and the sized aliases are accepted.
func typeSize(t string) (int, bool) {
	switch t {
	case "char", "int8", "uchar", "uint8":
		return 1, true
	case "short", "int16", "ushort", "uint16":
		return 2, true
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4, true
	case "double", "float64":
		return 8, true
	}
	return 0, false
}

// colorScale is the divisor that maps a channel of type t onto [0, 1].
// Floating point channels are assumed to be normalised already.
func colorScale(t string) float64 {
	switch t {
	case "char", "int8":
		return math.MaxInt8
	case "uchar", "uint8":
		return math.MaxUint8
	case "short", "int16":
		return math.MaxInt16
	case "ushort", "uint16":
		return math.MaxUint16
	case "int", "int32":
		return math.MaxInt32
	case "uint", "uint32":
		return math.MaxUint32
	default:
		return 1
	}
}

// vertexLayout maps vertex property columns onto File fields.
type vertexLayout struct {
	x, y, z    int
	r, g, b    int
	rgbScale   [3]float64
	extras     []string
	extraIndex []int
}

func newVertexLayout(e Element) (vertexLayout, error) {
	l := vertexLayout{x: -1, y: -1, z: -1, r: -1, g: -1, b: -1}
	for i, p := range e.Properties {
		if p.IsList {
			continue
		}
		switch p.Name {
		case "x":
			l.x = i
		case "y":
			l.y = i
		case "z":
			l.z = i
		case "red", "r", "diffuse_red":
			l.r = i
			l.rgbScale[0] = colorScale(p.Type)
		case "green", "g", "diffuse_green":
			l.g = i
			l.rgbScale[1] = colorScale(p.Type)
		case "blue", "b", "diffuse_blue":
			l.b = i
			l.rgbScale[2] = colorScale(p.Type)
		default:
			l.extras = append(l.extras, p.Name)
			l.extraIndex = append(l.extraIndex, i)
		}
	}
	if l.x < 0 || l.y < 0 || l.z < 0 {
		return l, ErrNoVertices
	}
	return l, nil
}

func (l vertexLayout) apply(pf *File, row []float64) {
	pf.Points = append(pf.Points, cave.Point3D{X: row[l.x], Y: row[l.y], Z: row[l.z]})

	// Missing channels read as black, which classifies as wall.
	var c cave.Color
	if l.r >= 0 {
		c.R = row[l.r] / l.rgbScale[0]
	}
	if l.g >= 0 {
		c.G = row[l.g] / l.rgbScale[1]
	}
	if l.b >= 0 {
		c.B = row[l.b] / l.rgbScale[2]
	}
	pf.Colors = append(pf.Colors, c)

	for k, name := range l.extras {
		pf.Extras[name] = append(pf.Extras[name], row[l.extraIndex[k]])
	}
}

// valueReader yields successive numeric values from an element body.
type valueReader interface {
	next(typ string) (float64, error)
}

// readInstance reads one element instance into row. List properties are
// consumed and recorded as NaN.
func readInstance(src valueReader, e Element, row []float64) error {
	for i, p := range e.Properties {
		if p.IsList {
			if err := skipList(src, p); err != nil {
				return fmt.Errorf("property %s: %w", p.Name, err)
			}
			row[i] = math.NaN()
			continue
		}
		v, err := src.next(p.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		row[i] = v
	}
	return nil
}

func skipInstance(src valueReader, e Element) error {
	for _, p := range e.Properties {
		if p.IsList {
			if err := skipList(src, p); err != nil {
				return fmt.Errorf("property %s: %w", p.Name, err)
			}
			continue
		}
		if _, err := src.next(p.Type); err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
	}
	return nil
}

func skipList(src valueReader, p Property) error {
	n, err := src.next(p.CountType)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative list length %v", n)
	}
	for j := 0; j < int(n); j++ {
		if _, err := src.next(p.Type); err != nil {
			return err
		}
	}
	return nil
}

type asciiReader struct {
	sc *bufio.Scanner
}

func newASCIIReader(r io.Reader) *asciiReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &asciiReader{sc: sc}
}

func (a *asciiReader) next(string) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(a.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", a.sc.Text(), err)
	}
	return v, nil
}

type binaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) next(typ string) (float64, error) {
	n, ok := typeSize(typ)
	if !ok {
		return 0, fmt.Errorf("%w: type %q", ErrUnsupportedFormat, typ)
	}
	buf := b.buf[:n]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	switch typ {
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
	default:
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}
