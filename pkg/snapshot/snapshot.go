// Package snapshot builds and represents point-in-time views of a registry:
// every package's metadata, versions and compatibility table, plus the
// dependency set of its latest version.
package snapshot

import (
	"encoding/json"
	"maps"
	"sort"

	"github.com/matzehuels/depchrono/pkg/registry"
)

// Source identifies which repository a snapshot was built from.
type Source string

const (
	SourceGeneral Source = "general"
	SourceLegacy  Source = "metadata"
)

// PackageRecord is the per-package entry of a snapshot.
type PackageRecord struct {
	Metadata      registry.Metadata           `json:"metadata"`
	Versions      registry.VersionTable       `json:"versions"`
	Compatibility registry.CompatibilityTable `json:"compatibility"`
	Format        registry.Format             `json:"format"`
	IsJLL         bool                        `json:"is_jll"`
}

// Snapshot is an immutable view of a registry at one commit. Values returned
// by the accessors share storage with the snapshot and must not be modified.
type Snapshot struct {
	commit       string
	source       Source
	packages     map[string]PackageRecord
	dependencies map[string]registry.DependencySet
	formatStats  map[registry.Format]int
}

// Commit returns the commit the snapshot was built from.
func (s *Snapshot) Commit() string { return s.commit }

// Source returns the repository the snapshot was built from.
func (s *Snapshot) Source() Source { return s.source }

// Len returns the number of packages.
func (s *Snapshot) Len() int { return len(s.packages) }

// Package returns the record of the named package.
func (s *Snapshot) Package(name string) (PackageRecord, bool) {
	p, ok := s.packages[name]
	return p, ok
}

// Dependencies returns the resolved dependency set of the named package.
func (s *Snapshot) Dependencies(name string) (registry.DependencySet, bool) {
	d, ok := s.dependencies[name]
	return d, ok
}

// PackageNames returns all package names in lexical order.
func (s *Snapshot) PackageNames() []string {
	names := make([]string, 0, len(s.packages))
	for name := range s.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatStats returns a copy of the per-format directory counts.
func (s *Snapshot) FormatStats() map[registry.Format]int {
	return maps.Clone(s.formatStats)
}

// JLLCount returns the number of binary-artifact packages.
func (s *Snapshot) JLLCount() int {
	n := 0
	for _, p := range s.packages {
		if p.IsJLL {
			n++
		}
	}
	return n
}

type document struct {
	Commit       string                            `json:"commit"`
	Source       Source                            `json:"source"`
	Packages     map[string]PackageRecord          `json:"packages"`
	Dependencies map[string]registry.DependencySet `json:"dependencies"`
	FormatStats  map[registry.Format]int           `json:"format_stats"`
}

// MarshalJSON encodes the snapshot document.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Commit:       s.commit,
		Source:       s.source,
		Packages:     s.packages,
		Dependencies: s.dependencies,
		FormatStats:  s.formatStats,
	})
}

// UnmarshalJSON decodes a snapshot document. Documents written before the
// source field existed are treated as general registry snapshots.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Source == "" {
		doc.Source = SourceGeneral
	}
	*s = Snapshot{
		commit:       doc.Commit,
		source:       doc.Source,
		packages:     nonNil(doc.Packages),
		dependencies: nonNil(doc.Dependencies),
		formatStats:  nonNil(doc.FormatStats),
	}
	return nil
}

func nonNil[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

// New assembles a snapshot from already extracted records, counting formats
// from the records. It is used for snapshots that did not come from a walk,
// such as fixtures and imported documents.
func New(commit string, source Source, packages map[string]PackageRecord, deps map[string]registry.DependencySet) *Snapshot {
	s := &Snapshot{
		commit:       commit,
		source:       source,
		packages:     maps.Clone(nonNil(packages)),
		dependencies: maps.Clone(nonNil(deps)),
		formatStats:  initialStats(source),
	}
	for _, p := range s.packages {
		s.formatStats[p.Format]++
	}
	return s
}
