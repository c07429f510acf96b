// Command cavemap turns a cave survey point cloud (PLY) into a map: a
// top and side view with the alpha-shape wall contour, the centerline, a
// compass and the survey length and depth in the title.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/cavemap/internal/cave/ply"
	"github.com/banshee-data/cavemap/internal/config"
	"github.com/banshee-data/cavemap/internal/fsutil"
	"github.com/banshee-data/cavemap/internal/mapper"
	"github.com/banshee-data/cavemap/internal/monitoring"
	"github.com/banshee-data/cavemap/internal/survey"
	"github.com/banshee-data/cavemap/internal/units"
	"github.com/banshee-data/cavemap/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, fsutil.OSFileSystem{}); err != nil {
		log.Fatalf("cavemap: %v", err)
	}
}

type options struct {
	plyPath    string
	name       string
	prompt     bool
	configPath string
	outDir     string
	formats    string
	unit       string
	html       bool
	geoJSON    bool
	quiet      bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("cavemap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.plyPath, "ply", "point.ply", "Path to the survey point cloud (PLY)")
	fs.StringVar(&o.name, "name", "", "Cave name, used in the title and output file names")
	fs.BoolVar(&o.prompt, "prompt", false, "Ask for the cave name on stdin when -name is empty")
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON map config (defaults built in)")
	fs.StringVar(&o.outDir, "out", "", "Output directory (overrides output_dir)")
	fs.StringVar(&o.formats, "format", "", "Comma-separated output formats: pdf, png, svg (overrides formats)")
	fs.StringVar(&o.unit, "unit", "", "Length unit for labels: "+units.GetValidLengthUnitsString()+" (overrides length_unit)")
	fs.BoolVar(&o.html, "html", false, "Also write an interactive HTML map")
	fs.BoolVar(&o.geoJSON, "geojson", false, "Also write the boundaries and centerline as GeoJSON")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress pipeline diagnostics")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(o options) (*config.CaveConfig, error) {
	cfg := config.DefaultCaveConfig()
	if o.configPath != "" {
		loaded, err := config.LoadCaveConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.formats != "" {
		cfg.Formats = nil
		for _, f := range strings.Split(o.formats, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				cfg.Formats = append(cfg.Formats, f)
			}
		}
	}
	if o.outDir != "" {
		cfg.OutputDir = &o.outDir
	}
	if o.unit != "" {
		cfg.LengthUnit = &o.unit
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func promptName(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Enter cave name (for title and filename): ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read cave name: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func run(args []string, stdin io.Reader, stdout io.Writer, fsys fsutil.FileSystem) error {
	o, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if o.quiet {
		previous := monitoring.Logf
		monitoring.SetLogger(nil)
		defer monitoring.SetLogger(previous)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	name := o.name
	if name == "" && o.prompt {
		if name, err = promptName(stdin, stdout); err != nil {
			return err
		}
	}
	name = mapper.DisplayName(name)

	pf, err := ply.Load(fsys, o.plyPath)
	if err != nil {
		return err
	}
	s, err := survey.Run(pf.Cloud(), survey.OptionsFromConfig(name, cfg, pf.Annotations))
	if err != nil {
		return err
	}

	unit := cfg.GetLengthUnit()
	if s.Metrics.HasMaxDepth {
		fmt.Fprintf(stdout, "Max Depth: %s\n", units.FormatLength(s.Metrics.MaxDepth, unit))
	}

	m := mapper.Assemble(s, unit)
	dir := cfg.GetOutputDir()
	for _, format := range cfg.GetFormats() {
		path := mapper.OutputPath(dir, name, format)
		err := fsutil.WriteOutput(fsys, path, func(w io.Writer) error {
			return mapper.Render(w, m, format, cfg.GetFigureWidthIn(), cfg.GetFigureHeightIn())
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved map to %s\n", path)
	}

	if o.html {
		path := mapper.OutputPath(dir, name, "html")
		if err := fsutil.WriteOutput(fsys, path, func(w io.Writer) error { return mapper.RenderHTML(w, m) }); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved interactive map to %s\n", path)
	}
	if o.geoJSON {
		path := mapper.OutputPath(dir, name, "geojson")
		if err := fsutil.WriteOutput(fsys, path, func(w io.Writer) error { return mapper.WriteGeoJSON(w, s) }); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved GeoJSON to %s\n", path)
	}
	return nil
}
