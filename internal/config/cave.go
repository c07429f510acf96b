package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/cavemap/internal/cave"
	"github.com/banshee-data/cavemap/internal/units"
)

// DefaultConfigPath is the path to the canonical map defaults file.
const DefaultConfigPath = "config/cavemap.defaults.json"

// Built-in defaults, used by the Get* accessors when a field is unset.
const (
	DefaultAlpha          = 0.2
	DefaultLengthUnit     = units.Metres
	DefaultFigureWidthIn  = 16.0
	DefaultFigureHeightIn = 7.0
	DefaultOutputDir      = "."
)

// SupportedFormats lists the output formats the map renderer can write.
// mapper.Formats is this slice.
var SupportedFormats = []string{"pdf", "png", "svg"}

// CaveConfig is the root configuration for a map run. Every field is
// optional; omitted fields fall back to the built-in defaults, so partial
// configs are safe.
type CaveConfig struct {
	// Alpha shape params
	TopAlpha  *float64 `json:"top_alpha,omitempty"`
	SideAlpha *float64 `json:"side_alpha,omitempty"`

	// Views to render, in panel order ("top", "side")
	Views []string `json:"views,omitempty"`

	// Output params
	Formats        []string `json:"formats,omitempty"`
	LengthUnit     *string  `json:"length_unit,omitempty"`
	FigureWidthIn  *float64 `json:"figure_width_in,omitempty"`
	FigureHeightIn *float64 `json:"figure_height_in,omitempty"`
	OutputDir      *string  `json:"output_dir,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyCaveConfig returns a CaveConfig with all fields unset.
func EmptyCaveConfig() *CaveConfig {
	return &CaveConfig{}
}

// DefaultCaveConfig returns a CaveConfig with every field set to its
// built-in default.
func DefaultCaveConfig() *CaveConfig {
	return &CaveConfig{
		TopAlpha:       ptrFloat64(DefaultAlpha),
		SideAlpha:      ptrFloat64(DefaultAlpha),
		Views:          []string{cave.ViewTop.String(), cave.ViewSide.String()},
		Formats:        []string{"pdf"},
		LengthUnit:     ptrString(DefaultLengthUnit),
		FigureWidthIn:  ptrFloat64(DefaultFigureWidthIn),
		FigureHeightIn: ptrFloat64(DefaultFigureHeightIn),
		OutputDir:      ptrString(DefaultOutputDir),
	}
}

// LoadCaveConfig loads a CaveConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadCaveConfig(path string) (*CaveConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCaveConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be found, intended for
// test setup.
func MustLoadDefaultConfig() *CaveConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/cave/ply/
	}
	for _, path := range candidates {
		if cfg, err := LoadCaveConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func validAlpha(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%s must be a finite value greater than zero, got %v", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *CaveConfig) Validate() error {
	if err := validAlpha("top_alpha", c.TopAlpha); err != nil {
		return err
	}
	if err := validAlpha("side_alpha", c.SideAlpha); err != nil {
		return err
	}

	seen := make(map[cave.View]bool, len(c.Views))
	for _, v := range c.Views {
		view, err := cave.ParseView(v)
		if err != nil {
			return fmt.Errorf("views: %w", err)
		}
		if seen[view] {
			return fmt.Errorf("views: %q listed twice", v)
		}
		seen[view] = true
	}

	for _, f := range c.Formats {
		if !isSupportedFormat(f) {
			return fmt.Errorf("formats: unsupported format %q (want one of %s)", f, strings.Join(SupportedFormats, ", "))
		}
	}

	if c.LengthUnit != nil && !units.IsValidLength(*c.LengthUnit) {
		return fmt.Errorf("length_unit: %q is not one of %s", *c.LengthUnit, units.GetValidLengthUnitsString())
	}
	if c.FigureWidthIn != nil && !(*c.FigureWidthIn > 0) {
		return fmt.Errorf("figure_width_in must be positive, got %v", *c.FigureWidthIn)
	}
	if c.FigureHeightIn != nil && !(*c.FigureHeightIn > 0) {
		return fmt.Errorf("figure_height_in must be positive, got %v", *c.FigureHeightIn)
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

func isSupportedFormat(f string) bool {
	for _, s := range SupportedFormats {
		if f == s {
			return true
		}
	}
	return false
}

// GetTopAlpha returns the top view alpha or the default.
func (c *CaveConfig) GetTopAlpha() float64 {
	if c.TopAlpha == nil {
		return DefaultAlpha
	}
	return *c.TopAlpha
}

// GetSideAlpha returns the side view alpha or the default.
func (c *CaveConfig) GetSideAlpha() float64 {
	if c.SideAlpha == nil {
		return DefaultAlpha
	}
	return *c.SideAlpha
}

// GetAlpha returns the alpha configured for view.
func (c *CaveConfig) GetAlpha(view cave.View) float64 {
	if view == cave.ViewSide {
		return c.GetSideAlpha()
	}
	return c.GetTopAlpha()
}

// GetViews returns the configured views in panel order. Unknown names are
// skipped; Validate reports them.
func (c *CaveConfig) GetViews() []cave.View {
	if len(c.Views) == 0 {
		return append([]cave.View(nil), cave.Views...)
	}
	out := make([]cave.View, 0, len(c.Views))
	for _, v := range c.Views {
		if view, err := cave.ParseView(v); err == nil {
			out = append(out, view)
		}
	}
	return out
}

// GetFormats returns the output formats or the default ["pdf"].
func (c *CaveConfig) GetFormats() []string {
	if len(c.Formats) == 0 {
		return []string{"pdf"}
	}
	return append([]string(nil), c.Formats...)
}

// GetLengthUnit returns the display length unit or the default.
func (c *CaveConfig) GetLengthUnit() string {
	if c.LengthUnit == nil {
		return DefaultLengthUnit
	}
	return *c.LengthUnit
}

// GetFigureWidthIn returns the figure width in inches or the default.
func (c *CaveConfig) GetFigureWidthIn() float64 {
	if c.FigureWidthIn == nil {
		return DefaultFigureWidthIn
	}
	return *c.FigureWidthIn
}

// GetFigureHeightIn returns the figure height in inches or the default.
func (c *CaveConfig) GetFigureHeightIn() float64 {
	if c.FigureHeightIn == nil {
		return DefaultFigureHeightIn
	}
	return *c.FigureHeightIn
}

// GetOutputDir returns the output directory or the default.
func (c *CaveConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return DefaultOutputDir
	}
	return *c.OutputDir
}
