package ply

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Encode writes f as an ASCII PLY file with float x, y, z, uchar colour
// channels and one float property per Extras key (sorted by name).
// Annotations are written as header comments.
func Encode(w io.Writer, f *File) error {
	if len(f.Colors) != len(f.Points) {
		return fmt.Errorf("encode: %d points but %d colours", len(f.Points), len(f.Colors))
	}
	extras := make([]string, 0, len(f.Extras))
	for name, vals := range f.Extras {
		if len(vals) != len(f.Points) {
			return fmt.Errorf("encode: extra %q has %d values for %d points", name, len(vals), len(f.Points))
		}
		extras = append(extras, name)
	}
	sort.Strings(extras)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	for _, a := range f.Annotations {
		fmt.Fprintf(bw, "comment annotation id=%d vertex_index=%d text=%s\n", a.ID, a.VertexIndex, a.Text)
	}
	fmt.Fprintf(bw, "element vertex %d\n", len(f.Points))
	fmt.Fprintln(bw, "property float x")
	fmt.Fprintln(bw, "property float y")
	fmt.Fprintln(bw, "property float z")
	fmt.Fprintln(bw, "property uchar red")
	fmt.Fprintln(bw, "property uchar green")
	fmt.Fprintln(bw, "property uchar blue")
	for _, name := range extras {
		fmt.Fprintf(bw, "property float %s\n", name)
	}
	fmt.Fprintln(bw, "end_header")

	for i, p := range f.Points {
		c := f.Colors[i]
		fmt.Fprintf(bw, "%s %s %s %d %d %d",
			formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
			channel(c.R), channel(c.G), channel(c.B))
		for _, name := range extras {
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(f.Extras[name][i]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 32)
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
