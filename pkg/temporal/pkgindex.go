package temporal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/snapshot"
)

// ErrUnknownPackage is returned when a package name has no index.
var ErrUnknownPackage = errors.New("package not in index")

// PackageIndexFile is the conventional name of the package index document.
const PackageIndexFile = "combined_package_index.json"

// PackageIndex assigns every package a stable index and records the period
// in which it first appeared.
type PackageIndex struct {
	byName    map[string]int
	names     []string
	firstSeen map[string]string
}

// NewPackageIndex returns an empty index.
func NewPackageIndex() *PackageIndex {
	return &PackageIndex{byName: map[string]int{}, firstSeen: map[string]string{}}
}

// Len returns the number of indexed packages.
func (p *PackageIndex) Len() int { return len(p.names) }

// Lookup returns the zero-based index of a package.
func (p *PackageIndex) Lookup(name string) (int, bool) {
	i, ok := p.byName[name]
	return i, ok
}

// Name returns the package at a zero-based index.
func (p *PackageIndex) Name(i int) (string, bool) {
	if i < 0 || i >= len(p.names) {
		return "", false
	}
	return p.names[i], true
}

// FirstSeen returns the period label in which a package first appeared.
func (p *PackageIndex) FirstSeen(name string) (string, bool) {
	l, ok := p.firstSeen[name]
	return l, ok
}

// require resolves a name or returns ErrUnknownPackage.
func (p *PackageIndex) require(name string) (int, error) {
	i, ok := p.byName[name]
	if !ok {
		return 0, deperrors.Wrap(deperrors.ErrCodePackageNotFound,
			fmt.Errorf("%w: %s", ErrUnknownPackage, name), "package %s", name)
	}
	return i, nil
}

// add assigns the next index to name if it has none.
func (p *PackageIndex) add(name, label string) {
	if _, ok := p.byName[name]; ok {
		return
	}
	p.byName[name] = len(p.names)
	p.names = append(p.names, name)
	p.firstSeen[name] = label
}

// AddSnapshot indexes the packages of a snapshot taken in period label.
// Snapshots must be added in ascending label order; within one snapshot new
// packages are numbered by name.
func (p *PackageIndex) AddSnapshot(label string, snap *snapshot.Snapshot) {
	for _, name := range snap.PackageNames() {
		p.add(name, label)
	}
}

type indexEntry struct {
	Index     int    `json:"index"`
	FirstSeen string `json:"first_seen"`
}

type indexDocument struct {
	PackageMetadata map[string]indexEntry `json:"package_metadata"`
}

// Write encodes the index with one-based indices.
func (p *PackageIndex) Write(w io.Writer) error {
	doc := indexDocument{PackageMetadata: make(map[string]indexEntry, len(p.names))}
	for i, name := range p.names {
		doc.PackageMetadata[name] = indexEntry{Index: i + 1, FirstSeen: p.firstSeen[name]}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadPackageIndex decodes an index document. Indices must be one-based,
// unique and contiguous.
func ReadPackageIndex(r io.Reader) (*PackageIndex, error) {
	var doc indexDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "decode package index")
	}
	n := len(doc.PackageMetadata)
	p := &PackageIndex{
		byName:    make(map[string]int, n),
		names:     make([]string, n),
		firstSeen: make(map[string]string, n),
	}
	for name, e := range doc.PackageMetadata {
		i := e.Index - 1
		if i < 0 || i >= n {
			return nil, deperrors.New(deperrors.ErrCodeInvalidFormat, "package %s has index %d outside 1..%d", name, e.Index, n)
		}
		if p.names[i] != "" {
			return nil, deperrors.New(deperrors.ErrCodeInvalidFormat, "index %d assigned to both %s and %s", e.Index, p.names[i], name)
		}
		p.names[i] = name
		p.byName[name] = i
		p.firstSeen[name] = e.FirstSeen
	}
	return p, nil
}

// LoadPackageIndex reads an index document from path.
func LoadPackageIndex(path string) (*PackageIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeNotFound, err, "open package index")
	}
	defer f.Close()
	return ReadPackageIndex(f)
}

// SaveFile writes the index document to path.
func (p *PackageIndex) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeStorage, err, "create %s", path)
	}
	if err := p.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
