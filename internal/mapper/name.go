package mapper

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultDisplayName is used when no cave name was given.
	DefaultDisplayName = "Unnamed Cave"
	// DefaultFileStem is used when a name sanitizes to nothing.
	DefaultFileStem = "unnamed_cave"
)

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName returns a filesystem-safe fragment of name: runs of
// characters outside [A-Za-z0-9._-] become a single underscore and leading
// or trailing underscores are trimmed.
func SanitizeName(name string) string {
	safe := strings.Trim(unsafeRun.ReplaceAllString(name, "_"), "_")
	if safe == "" {
		return DefaultFileStem
	}
	return safe
}

// DisplayName returns the trimmed name, or DefaultDisplayName when empty.
func DisplayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return DefaultDisplayName
}

// OutputPath returns dir/cave_map_<safe name>.<ext>.
func OutputPath(dir, name, ext string) string {
	return filepath.Join(dir, "cave_map_"+SanitizeName(name)+"."+strings.TrimPrefix(ext, "."))
}
