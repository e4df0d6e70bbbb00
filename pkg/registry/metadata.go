package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// ErrNoMetadata is returned when a package directory has no readable metadata
// file. Packages without metadata are skipped by the snapshot walk.
var ErrNoMetadata = errors.New("registry: no package metadata")

// syntheticPrefix marks identifiers derived from a package name.
const syntheticPrefix = "metadata-"

// Metadata describes one package.
type Metadata struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
	Repo string `json:"repo,omitempty"`
}

// IdentifierKind classifies a package identifier.
type IdentifierKind int

const (
	IdentifierOther IdentifierKind = iota
	IdentifierNative
	IdentifierSynthetic
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierNative:
		return "native"
	case IdentifierSynthetic:
		return "synthetic"
	}
	return "other"
}

// SyntheticID derives the identifier used for packages that carry no native
// UUID, such as legacy METADATA packages.
func SyntheticID(name string) string {
	return syntheticPrefix + strings.ToLower(name)
}

// Kind classifies an identifier as a native UUID or a synthesized id.
func Kind(id string) IdentifierKind {
	if strings.HasPrefix(id, syntheticPrefix) {
		return IdentifierSynthetic
	}
	if _, err := uuid.Parse(id); err == nil {
		return IdentifierNative
	}
	return IdentifierOther
}

type packageFile struct {
	Name string `toml:"name"`
	UUID string `toml:"uuid"`
	Repo string `toml:"repo"`
}

// ExtractMetadata reads the metadata of the package in dir.
//
// Registry formats read the metadata TOML file; a missing or undecodable file
// yields an error wrapping ErrNoMetadata. A missing UUID is synthesized from
// the name, and a missing name falls back to the directory name.
//
// The legacy format takes the name from the directory and the repository URL
// from the url marker file, if readable.
func ExtractMetadata(dir string, f Format) (*Metadata, error) {
	if f == FormatLegacy {
		name := filepath.Base(dir)
		m := &Metadata{Name: name, UUID: SyntheticID(name)}
		if data, err := os.ReadFile(filepath.Join(dir, legacyURLFile)); err == nil {
			m.Repo = strings.TrimSpace(string(data))
		}
		return m, nil
	}
	layout, ok := f.Layout()
	if !ok {
		return nil, fmt.Errorf("%w: unknown format in %s", ErrNoMetadata, dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, layout.Metadata))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadata, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMetadata, err)
	}
	var pf packageFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMetadata,
			deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "decode %s", layout.Metadata))
	}
	m := &Metadata{Name: pf.Name, UUID: pf.UUID, Repo: pf.Repo}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	if m.UUID == "" {
		m.UUID = SyntheticID(m.Name)
	}
	return m, nil
}
