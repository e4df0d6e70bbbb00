package registry

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// VersionRecord is one entry of a version listing. Registry listings carry a
// "git-tree-sha1" field; the legacy layout records "hash-sha1".
type VersionRecord map[string]any

// ContentHash returns the recorded tree or commit hash, if any.
func (r VersionRecord) ContentHash() string {
	for _, k := range []string{"git-tree-sha1", "hash-sha1"} {
		if s, ok := r[k].(string); ok {
			return s
		}
	}
	return ""
}

// VersionTable maps version strings to their records.
type VersionTable map[string]VersionRecord

// Versions returns the version keys in lexical order.
func (t VersionTable) Versions() []string {
	out := make([]string, 0, len(t))
	for v := range t {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Latest returns the maximum version under cmp.
func (t VersionTable) Latest(cmp Comparator) (string, bool) {
	return SelectLatest(t.Versions(), cmp)
}

// DependencySet maps dependency identifiers to dependency names.
type DependencySet map[string]string

// Names returns the dependency names in lexical order.
func (s DependencySet) Names() []string {
	out := make([]string, 0, len(s))
	for _, name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s DependencySet) merge(o DependencySet) {
	for id, name := range o {
		s[id] = name
	}
}

// RangeEntry is one top-level entry of a dependency table. Deps is nil when
// the entry's value is not a mapping; such entries are ignored by resolution.
type RangeEntry struct {
	Range string
	Deps  DependencySet
}

// IsMapping reports whether the entry carried a dependency mapping.
func (e RangeEntry) IsMapping() bool { return e.Deps != nil }

// DependencyTable is a dependency table in document order. Order matters:
// when two matching ranges name the same dependency, the later one wins.
type DependencyTable []RangeEntry

// Lookup returns the entry keyed by rangeExpr.
func (t DependencyTable) Lookup(rangeExpr string) (RangeEntry, bool) {
	for _, e := range t {
		if e.Range == rangeExpr {
			return e, true
		}
	}
	return RangeEntry{}, false
}

// CompatibilityTable is passed through as decoded.
type CompatibilityTable map[string]any

// ParseDependencies decodes a dependency table, preserving the order in
// which top-level keys appear in the document.
func ParseDependencies(data []byte) (DependencyTable, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "decode dependency table")
	}
	table := DependencyTable{}
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		entry := RangeEntry{Range: key[0]}
		if m, ok := raw[key[0]].(map[string]any); ok {
			entry.Deps = make(DependencySet, len(m))
			for id, v := range m {
				if name, ok := v.(string); ok {
					entry.Deps[id] = name
				}
			}
		}
		table = append(table, entry)
	}
	return table, nil
}

// ParseVersions decodes a version listing. Entries whose value is not a
// table get an empty record.
func ParseVersions(data []byte) (VersionTable, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "decode version table")
	}
	table := make(VersionTable, len(raw))
	for v, rec := range raw {
		m, _ := rec.(map[string]any)
		if m == nil {
			m = map[string]any{}
		}
		table[v] = VersionRecord(m)
	}
	return table, nil
}

// ParseCompatibility decodes a compatibility table.
func ParseCompatibility(data []byte) (CompatibilityTable, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "decode compatibility table")
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return CompatibilityTable(raw), nil
}

// readOptional reads a table file. A missing file yields nil data and no error.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "read %s", path)
	}
	return data, nil
}
