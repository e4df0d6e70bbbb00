package registry

import (
	"os"
	"path/filepath"
)

// Format identifies the schema generation of a package directory.
type Format string

const (
	FormatEarly   Format = "early"
	FormatLate    Format = "late"
	FormatLegacy  Format = "metadata"
	FormatUnknown Format = "unknown"
)

// Layout holds the file names a registry format uses for its four tables.
type Layout struct {
	Metadata      string
	Dependencies  string
	Versions      string
	Compatibility string
}

var layouts = map[Format]Layout{
	FormatLate: {
		Metadata:      "Package.toml",
		Dependencies:  "Deps.toml",
		Versions:      "Versions.toml",
		Compatibility: "Compat.toml",
	},
	FormatEarly: {
		Metadata:      "package.toml",
		Dependencies:  "dependencies.toml",
		Versions:      "versions.toml",
		Compatibility: "compatibility.toml",
	},
}

// Files of the legacy flat layout.
const (
	legacyURLFile      = "url"
	legacyVersionsDir  = "versions"
	legacyHashFile     = "sha1"
	legacyRequiresFile = "requires"
)

// Layout returns the table file names for a registry format.
// The legacy and unknown formats have no TOML layout and report false.
func (f Format) Layout() (Layout, bool) {
	l, ok := layouts[f]
	return l, ok
}

// IsRegistry reports whether f is one of the TOML registry generations.
func (f Format) IsRegistry() bool {
	_, ok := layouts[f]
	return ok
}

// Comparator returns the version ordering used for packages of this format.
func (f Format) Comparator() Comparator {
	if f == FormatLegacy {
		return CompareLegacy
	}
	return CompareRegistry
}

// Detect classifies a modern registry package directory. The late layout
// wins when both metadata files are present.
func Detect(dir string) Format {
	for _, f := range []Format{FormatLate, FormatEarly} {
		if exists(filepath.Join(dir, layouts[f].Metadata)) {
			return f
		}
	}
	return FormatUnknown
}

// DetectLegacy classifies a directory of the legacy METADATA repository: a
// package has a url marker file or a versions subdirectory.
func DetectLegacy(dir string) Format {
	if exists(filepath.Join(dir, legacyURLFile)) || isDir(filepath.Join(dir, legacyVersionsDir)) {
		return FormatLegacy
	}
	return FormatUnknown
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
