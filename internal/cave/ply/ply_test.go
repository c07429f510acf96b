package ply

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/fsutil"
)

// captureSample mirrors the layout written by the capture app, including the
// blank line it leaves before end_header.
const captureSample = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
property float depth
property float heading
property int comment_id
comment annotation id=0 vertex_index=1 text=Restriction, low airspace
comment annotation id=1 vertex_index=3 text=Jump

end_header
0 0 0 255 255 0 1.5 90 -1
1 -0.5 1 255 255 0 2.0 91 0
2 -1 0 0 255 255 -1 -1 -1
3 -2 1 10 20 30 -1 -1 1
`

// ============================================================================
// Header and ASCII body
// ============================================================================

func TestDecode_CaptureSample(t *testing.T) {
	f, err := Decode(strings.NewReader(captureSample))
	require.NoError(t, err)

	assert.Equal(t, FormatASCII, f.Header.Format)
	assert.Equal(t, "1.0", f.Header.Version)
	require.Len(t, f.Points, 4)
	require.Len(t, f.Colors, 4)

	assert.Equal(t, cave.Point3D{X: 1, Y: -0.5, Z: 1}, f.Points[1])
	assert.Equal(t, cave.Color{R: 1, G: 1, B: 0}, f.Colors[0])
	assert.Equal(t, cave.Color{R: 0, G: 1, B: 1}, f.Colors[2])
	assert.InDelta(t, 10.0/255, f.Colors[3].R, 1e-12)

	assert.Equal(t, []float64{1.5, 2.0, -1, -1}, f.Extras["depth"])
	assert.Equal(t, []float64{90, 91, -1, -1}, f.Extras["heading"])
	assert.Equal(t, []float64{-1, 0, -1, 1}, f.Extras["comment_id"])

	require.Len(t, f.Annotations, 2)
	assert.Equal(t, Annotation{ID: 0, VertexIndex: 1, Text: "Restriction, low airspace"}, f.Annotations[0])
	assert.Equal(t, Annotation{ID: 1, VertexIndex: 3, Text: "Jump"}, f.Annotations[1])
}

func TestDecode_CloudClassifies(t *testing.T) {
	f, err := Decode(strings.NewReader(captureSample))
	require.NoError(t, err)

	cp, err := cave.Classify(f.Cloud())
	require.NoError(t, err)
	assert.Len(t, cp.Centerline, 2)
	assert.Len(t, cp.Wall, 2)
}

func TestDecode_NoColorsReadsAsWall(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex 2\nproperty double x\nproperty double y\nproperty double z\nend_header\n1 2 3\n4 5 6\n"
	f, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []cave.Color{{}, {}}, f.Colors)
	assert.Empty(t, f.Extras)
}

func TestDecode_SkipsOtherElements(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`
	f, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, f.Points, 3)
	require.Len(t, f.Header.Elements, 2)
	assert.True(t, f.Header.Elements[1].Properties[0].IsList)
}

func TestDecode_FloatColorsKeptAsIs(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nproperty float red\nproperty float green\nproperty float blue\nend_header\n0 0 0 0.5 0.25 1\n"
	f, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, cave.Color{R: 0.5, G: 0.25, B: 1}, f.Colors[0])
}

// ============================================================================
// Errors
// ============================================================================

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"not ply", "hello\n", ErrNotPLY},
		{"empty", "", ErrNotPLY},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n", ErrUnsupportedFormat},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n", ErrUnsupportedFormat},
		{"no vertex", "ply\nformat ascii 1.0\nelement face 0\nend_header\n", ErrNoVertices},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 0\nproperty float x\nproperty float y\nend_header\n", ErrNoVertices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecode_TruncatedBody(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n4 5\n"
	_, err := Decode(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex[1]")
}

func TestDecode_HugeVertexCount(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex 2000000000000000000\n" +
		"property float x\nproperty float y\nproperty float z\nproperty float depth\nend_header\n1 2 3 4\n"

	var err error
	require.NotPanics(t, func() {
		_, err = Decode(strings.NewReader(src))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex[1]")
}

func TestDecode_HugeVertexCountBinary(t *testing.T) {
	src := "ply\nformat binary_little_endian 1.0\nelement vertex 2000000000000000000\n" +
		"property float x\nproperty float y\nproperty float z\nend_header\n"

	var err error
	require.NotPanics(t, func() {
		_, err = Decode(strings.NewReader(src))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex[0]")
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		comment string
		want    Annotation
		ok      bool
	}{
		{"annotation id=2 vertex_index=7 text=Sump", Annotation{ID: 2, VertexIndex: 7, Text: "Sump"}, true},
		{"annotation vertex_index=7 text=No id", Annotation{ID: -1, VertexIndex: 7, Text: "No id"}, true},
		{"annotation id=2 text=No vertex", Annotation{}, false},
		{"annotation id=2 vertex_index=7", Annotation{}, false},
		{"created by capture app", Annotation{}, false},
	}
	for _, tt := range tests {
		got, ok := parseAnnotation(tt.comment)
		assert.Equal(t, tt.ok, ok, tt.comment)
		assert.Equal(t, tt.want, got, tt.comment)
	}
}

// ============================================================================
// Binary bodies
// ============================================================================

func binarySample(t *testing.T, order binary.ByteOrder, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\nformat " + format + " 1.0\nelement vertex 2\n" +
		"property float x\nproperty float y\nproperty double z\n" +
		"property uchar red\nproperty uchar green\nproperty uchar blue\n" +
		"property int comment_id\nend_header\n")
	type row struct {
		X, Y    float32
		Z       float64
		R, G, B uint8
		ID      int32
	}
	for _, r := range []row{
		{1.5, -2, 3.25, 255, 255, 0, -1},
		{-4, 0.5, -6, 0, 128, 255, 7},
	} {
		require.NoError(t, binary.Write(&buf, order, r))
	}
	return buf.Bytes()
}

func TestDecode_Binary(t *testing.T) {
	for _, tc := range []struct {
		format string
		order  binary.ByteOrder
		want   Format
	}{
		{"binary_little_endian", binary.LittleEndian, FormatBinaryLittleEndian},
		{"binary_big_endian", binary.BigEndian, FormatBinaryBigEndian},
	} {
		t.Run(tc.format, func(t *testing.T) {
			f, err := Decode(bytes.NewReader(binarySample(t, tc.order, tc.format)))
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.Header.Format)
			assert.Equal(t, []cave.Point3D{{X: 1.5, Y: -2, Z: 3.25}, {X: -4, Y: 0.5, Z: -6}}, f.Points)
			assert.Equal(t, cave.Color{R: 1, G: 1, B: 0}, f.Colors[0])
			assert.InDelta(t, 128.0/255, f.Colors[1].G, 1e-12)
			assert.Equal(t, []float64{-1, 7}, f.Extras["comment_id"])
		})
	}
}

func TestDecode_BinaryTruncated(t *testing.T) {
	data := binarySample(t, binary.LittleEndian, "binary_little_endian")
	_, err := Decode(bytes.NewReader(data[:len(data)-3]))
	require.Error(t, err)
}

// ============================================================================
// Encode and Load
// ============================================================================

func TestEncode_RoundTrip(t *testing.T) {
	in := &File{
		Points: []cave.Point3D{{X: 0, Y: -1.5, Z: 2}, {X: 3, Y: 4, Z: -5}},
		Colors: []cave.Color{{R: 1, G: 1, B: 0}, {R: 0, G: 1, B: 1}},
		Extras: map[string][]float64{"depth": {1.25, -1}},
		Annotations: []Annotation{
			{ID: 0, VertexIndex: 0, Text: "Entrance"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Points, out.Points)
	assert.Equal(t, in.Colors, out.Colors)
	assert.Equal(t, in.Extras, out.Extras)
	assert.Equal(t, in.Annotations, out.Annotations)
}

func TestEncode_LengthMismatch(t *testing.T) {
	err := Encode(&bytes.Buffer{}, &File{Points: make([]cave.Point3D, 2), Colors: make([]cave.Color, 1)})
	require.Error(t, err)

	err = Encode(&bytes.Buffer{}, &File{
		Points: make([]cave.Point3D, 1),
		Colors: make([]cave.Color, 1),
		Extras: map[string][]float64{"depth": {}},
	})
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/scans/cave.ply", []byte(captureSample), 0o644))

	f, err := Load(mfs, "/scans/cave.ply")
	require.NoError(t, err)
	assert.Len(t, f.Points, 4)

	_, err = Load(mfs, "/scans/missing.ply")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.ply")
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "ascii", FormatASCII.String())
	assert.Equal(t, "binary_little_endian", FormatBinaryLittleEndian.String())
	assert.Equal(t, "binary_big_endian", FormatBinaryBigEndian.String())
	assert.Equal(t, "Format(9)", Format(9).String())
}

func TestColorScale(t *testing.T) {
	assert.Equal(t, 255.0, colorScale("uchar"))
	assert.Equal(t, 65535.0, colorScale("ushort"))
	assert.Equal(t, 1.0, colorScale("float"))
	assert.False(t, math.IsNaN(colorScale("double")))
}
