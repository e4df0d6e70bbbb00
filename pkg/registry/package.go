package registry

import (
	"path/filepath"
)

// Package is the extraction result for one package directory. Every table
// is extracted independently: a failure in one leaves that field at its zero
// value and records the error in Errors, without affecting the others.
type Package struct {
	Dir           string
	Format        Format
	Metadata      *Metadata
	Versions      VersionTable
	Dependencies  DependencyTable
	Compatibility CompatibilityTable

	// Latest is the maximum version under the format's ordering, empty when
	// the package has no versions.
	Latest string

	// Resolved is the dependency set of Latest. For registry formats it is
	// the table resolved for Latest (every entry merged when there are no
	// versions); for the legacy format it is the requires file of Latest.
	Resolved DependencySet

	Errors FieldErrors
}

// FieldErrors records per-table extraction failures.
type FieldErrors struct {
	Versions      error
	Dependencies  error
	Compatibility error
}

// Err returns the first recorded error, or nil.
func (e FieldErrors) Err() error {
	for _, err := range []error{e.Versions, e.Dependencies, e.Compatibility} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Extract reads the package in dir using format f. It fails only when the
// metadata cannot be read (see ErrNoMetadata).
func Extract(dir string, f Format) (*Package, error) {
	meta, err := ExtractMetadata(dir, f)
	if err != nil {
		return nil, err
	}
	p := &Package{Dir: dir, Format: f, Metadata: meta}
	if f == FormatLegacy {
		p.extractLegacy()
		return p, nil
	}
	p.Versions, p.Errors.Versions = ExtractVersions(dir, f)
	p.Dependencies, p.Errors.Dependencies = ExtractDependencies(dir, f)
	p.Compatibility, p.Errors.Compatibility = ExtractCompatibility(dir, f)
	p.Resolved, p.Latest = ResolveLatest(p.Dependencies, p.Versions)
	return p, nil
}

func (p *Package) extractLegacy() {
	p.Versions, p.Errors.Versions = extractLegacyVersions(p.Dir)
	p.Compatibility = CompatibilityTable{}
	p.Resolved = DependencySet{}
	latest, ok := p.Versions.Latest(CompareLegacy)
	if !ok {
		return
	}
	p.Latest = latest
	deps, err := extractLegacyRequires(p.Dir, latest)
	if err != nil {
		p.Errors.Dependencies = err
		return
	}
	p.Resolved = deps
}

// ExtractVersions reads the version listing of a registry package. A missing
// file yields an empty table.
func ExtractVersions(dir string, f Format) (VersionTable, error) {
	if f == FormatLegacy {
		return extractLegacyVersions(dir)
	}
	data, err := readTable(dir, f, func(l Layout) string { return l.Versions })
	if err != nil || data == nil {
		return VersionTable{}, err
	}
	return ParseVersions(data)
}

// ExtractDependencies reads the dependency table of a registry package in
// document order. A missing file yields an empty table.
func ExtractDependencies(dir string, f Format) (DependencyTable, error) {
	data, err := readTable(dir, f, func(l Layout) string { return l.Dependencies })
	if err != nil || data == nil {
		return DependencyTable{}, err
	}
	return ParseDependencies(data)
}

// ExtractCompatibility reads the compatibility table of a registry package.
// A missing file yields an empty table.
func ExtractCompatibility(dir string, f Format) (CompatibilityTable, error) {
	data, err := readTable(dir, f, func(l Layout) string { return l.Compatibility })
	if err != nil || data == nil {
		return CompatibilityTable{}, err
	}
	return ParseCompatibility(data)
}

func readTable(dir string, f Format, pick func(Layout) string) ([]byte, error) {
	layout, ok := f.Layout()
	if !ok {
		return nil, nil
	}
	return readOptional(filepath.Join(dir, pick(layout)))
}
