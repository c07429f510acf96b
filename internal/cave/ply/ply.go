// Package ply decodes survey point clouds stored in the PLY polygon file
// format, as written by the cave capture app.
//
// Only the vertex element is interpreted: x, y and z are required, red,
// green and blue are optional, and any other scalar vertex property (the
// capture app writes depth, heading and comment_id) is kept per vertex in
// File.Extras. Header comments of the form
//
//	comment annotation id=0 vertex_index=12 text=Restriction, low airspace
//
// are parsed into Annotations. ASCII and both binary encodings are read.
package ply

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/cavemap/internal/cave"
)

var (
	// ErrNotPLY is returned when the input does not start with the "ply" magic line.
	ErrNotPLY = errors.New("not a PLY file")
	// ErrUnsupportedFormat is returned for an unknown format line or property type.
	ErrUnsupportedFormat = errors.New("unsupported PLY format")
	// ErrNoVertices is returned when the header has no usable vertex element.
	ErrNoVertices = errors.New("PLY file has no vertex element with x, y, z")
)

// Format is the body encoding declared in the header.
type Format int

const (
	FormatASCII Format = iota
	FormatBinaryLittleEndian
	FormatBinaryBigEndian
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinaryLittleEndian:
		return "binary_little_endian"
	case FormatBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func parseFormat(s string) (Format, error) {
	switch s {
	case "ascii":
		return FormatASCII, nil
	case "binary_little_endian":
		return FormatBinaryLittleEndian, nil
	case "binary_big_endian":
		return FormatBinaryBigEndian, nil
	default:
		return 0, fmt.Errorf("%w: format %q", ErrUnsupportedFormat, s)
	}
}

// Property is one property line of an element.
type Property struct {
	Name      string
	Type      string // scalar type, or list item type when IsList
	IsList    bool
	CountType string // list length type
}

// Element is one element declaration with its properties in file order.
type Element struct {
	Name       string
	Count      int
	Properties []Property
}

// Header is the parsed PLY header.
type Header struct {
	Format   Format
	Version  string
	Elements []Element
	Comments []string
	ObjInfo  []string
}

// Annotation is a text note the diver attached to a survey vertex.
type Annotation struct {
	ID          int
	VertexIndex int
	Text        string
}

// File is a decoded PLY point cloud.
type File struct {
	Header      Header
	Points      []cave.Point3D
	Colors      []cave.Color
	Extras      map[string][]float64 // extra scalar vertex properties, one value per vertex
	Annotations []Annotation
}

// Cloud returns the points and colours as a cave.PointCloud.
func (f *File) Cloud() cave.PointCloud {
	return cave.PointCloud{Points: f.Points, Colors: f.Colors}
}

// Vertex returns the vertex element declaration, if any.
func (h Header) Vertex() (Element, bool) {
	for _, e := range h.Elements {
		if e.Name == "vertex" {
			return e, true
		}
	}
	return Element{}, false
}

// parseAnnotation reads "annotation id=N vertex_index=I text=..." from a
// comment body. Comments that are not annotations return ok=false.
func parseAnnotation(comment string) (Annotation, bool) {
	if !strings.HasPrefix(comment, "annotation ") {
		return Annotation{}, false
	}
	rest := strings.TrimPrefix(comment, "annotation ")

	a := Annotation{ID: -1, VertexIndex: -1}
	if i := strings.Index(rest, "text="); i >= 0 {
		a.Text = strings.TrimSpace(rest[i+len("text="):])
		rest = rest[:i]
	}
	for _, field := range strings.Fields(rest) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "id":
			a.ID = n
		case "vertex_index":
			a.VertexIndex = n
		}
	}
	if a.VertexIndex < 0 || a.Text == "" {
		return Annotation{}, false
	}
	return a, true
}
