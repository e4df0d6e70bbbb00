package registry

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// extractLegacyVersions lists versions/<v> subdirectories holding a sha1
// file. Each record carries that hash as "hash-sha1"; a directory without a
// readable sha1 is not a version.
func extractLegacyVersions(dir string) (VersionTable, error) {
	entries, err := os.ReadDir(filepath.Join(dir, legacyVersionsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return VersionTable{}, nil
	}
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "list legacy versions")
	}
	table := make(VersionTable, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, legacyVersionsDir, e.Name(), legacyHashFile))
		if err != nil {
			continue
		}
		table[e.Name()] = VersionRecord{"hash-sha1": strings.TrimSpace(string(data))}
	}
	return table, nil
}

// extractLegacyRequires reads the requires file of one legacy version.
// A missing file means no dependencies.
func extractLegacyRequires(dir, version string) (DependencySet, error) {
	data, err := readOptional(filepath.Join(dir, legacyVersionsDir, version, legacyRequiresFile))
	if err != nil {
		return nil, err
	}
	return ParseRequires(bytes.NewReader(data))
}

// ParseRequires parses a legacy requires file. Each non-comment line names a
// dependency as its first token after any @platform qualifiers; remaining
// tokens are version bounds and are ignored. The julia runtime itself is not
// a dependency.
func ParseRequires(r io.Reader) (DependencySet, error) {
	deps := DependencySet{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		for len(fields) > 0 && strings.HasPrefix(fields[0], "@") {
			fields = fields[1:]
		}
		if len(fields) == 0 || fields[0] == "julia" {
			continue
		}
		deps[SyntheticID(fields[0])] = fields[0]
	}
	if err := sc.Err(); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeMalformedTable, err, "read requires")
	}
	return deps, nil
}
