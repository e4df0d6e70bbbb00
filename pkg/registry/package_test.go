package registry

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const examplePackageToml = `name = "Example"
uuid = "7876af07-990d-54b4-ab0e-23690620f79a"
repo = "https://github.com/JuliaLang/Example.jl.git"
`

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Format
	}{
		{"late", map[string]string{"Package.toml": examplePackageToml}, FormatLate},
		{"early", map[string]string{"package.toml": examplePackageToml}, FormatEarly},
		{"both prefers late", map[string]string{
			"Package.toml": examplePackageToml,
			"package.toml": examplePackageToml,
		}, FormatLate},
		{"unknown", map[string]string{"README.md": "hi"}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			// Case-insensitive filesystems cannot hold both layouts.
			if tt.want == FormatEarly && exists(filepath.Join(dir, "Package.toml")) {
				t.Skip("case-insensitive filesystem")
			}
			if got := Detect(dir); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectLegacy(t *testing.T) {
	dir := t.TempDir()
	if got := DetectLegacy(dir); got != FormatUnknown {
		t.Errorf("DetectLegacy(empty) = %q, want unknown", got)
	}
	writeFiles(t, dir, map[string]string{"versions/0.1.0/sha1": "abc\n"})
	if got := DetectLegacy(dir); got != FormatLegacy {
		t.Errorf("DetectLegacy() = %q, want metadata", got)
	}
}

func TestExtract_Late(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Package.toml": examplePackageToml,
		"Versions.toml": `["0.5.0"]
git-tree-sha1 = "aaa"

["0.5.1"]
git-tree-sha1 = "bbb"
`,
		"Deps.toml": `["0.5"]
Test = "8dfed614-e22c-5e08-85e1-65c5234f0b40"

["0.5.1-0"]
Random = "9a3f8284-a2c9-5f02-9a11-845980a1fd5c"
`,
		"Compat.toml": `["0.5"]
julia = "1"
`,
	})

	p, err := Extract(dir, FormatLate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if err := p.Errors.Err(); err != nil {
		t.Fatalf("field error: %v", err)
	}
	if p.Metadata.Name != "Example" || Kind(p.Metadata.UUID) != IdentifierNative {
		t.Errorf("metadata = %+v", p.Metadata)
	}
	if p.Latest != "0.5.1" {
		t.Errorf("Latest = %q, want 0.5.1", p.Latest)
	}
	if got := p.Versions["0.5.1"].ContentHash(); got != "bbb" {
		t.Errorf("ContentHash = %q, want bbb", got)
	}
	want := DependencySet{
		"Test":   "8dfed614-e22c-5e08-85e1-65c5234f0b40",
		"Random": "9a3f8284-a2c9-5f02-9a11-845980a1fd5c",
	}
	if !reflect.DeepEqual(p.Resolved, want) {
		t.Errorf("Resolved = %v, want %v", p.Resolved, want)
	}
	if _, ok := p.Compatibility["0.5"]; !ok {
		t.Errorf("Compatibility = %v, missing 0.5", p.Compatibility)
	}
}

func TestExtract_FieldErrorsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"package.toml":  `name = "Broken"`,
		"versions.toml": `["1.0.0"]` + "\n" + `git-tree-sha1 = "x"` + "\n",
		"dependencies.toml": "[unterminated",
	})

	p, err := Extract(dir, FormatEarly)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Errors.Dependencies == nil {
		t.Error("expected dependency table error")
	}
	if p.Errors.Versions != nil || len(p.Versions) != 1 {
		t.Errorf("versions = %v, err %v", p.Versions, p.Errors.Versions)
	}
	if p.Metadata.UUID != "metadata-broken" {
		t.Errorf("synthesized id = %q", p.Metadata.UUID)
	}
	if len(p.Resolved) != 0 {
		t.Errorf("Resolved = %v, want empty", p.Resolved)
	}
}

func TestExtract_NoMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Deps.toml": "[\"1\"]\nA = \"a\"\n"})

	if _, err := Extract(dir, FormatLate); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("Extract() error = %v, want ErrNoMetadata", err)
	}

	writeFiles(t, dir, map[string]string{"Package.toml": "name = "})
	if _, err := Extract(dir, FormatLate); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("Extract() error = %v, want ErrNoMetadata", err)
	}
}

func TestExtract_Legacy(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Foo")
	writeFiles(t, dir, map[string]string{
		"url":                    "git://github.com/someone/Foo.jl.git\n",
		"versions/0.9.0/sha1":    "111\n",
		"versions/0.10.0/sha1":   "222\n",
		"versions/0.9.0/requires": "julia 0.3\nBar\n",
		"versions/0.10.0/requires": `# comment
julia 0.4
@windows WinRPM
Bar 0.1
Baz
`,
	})

	p, err := Extract(dir, DetectLegacy(dir))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Metadata.UUID != "metadata-foo" || p.Metadata.Repo != "git://github.com/someone/Foo.jl.git" {
		t.Errorf("metadata = %+v", p.Metadata)
	}
	if p.Latest != "0.10.0" {
		t.Errorf("Latest = %q, want 0.10.0", p.Latest)
	}
	if got := p.Versions["0.9.0"].ContentHash(); got != "111" {
		t.Errorf("ContentHash = %q", got)
	}
	want := DependencySet{
		"metadata-winrpm": "WinRPM",
		"metadata-bar":    "Bar",
		"metadata-baz":    "Baz",
	}
	if !reflect.DeepEqual(p.Resolved, want) {
		t.Errorf("Resolved = %v, want %v", p.Resolved, want)
	}
	if len(p.Compatibility) != 0 {
		t.Errorf("Compatibility = %v, want empty", p.Compatibility)
	}
}

func TestExtract_LegacyUnhashedVersion(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Foo")
	writeFiles(t, dir, map[string]string{
		"url":                     "git://github.com/someone/Foo.jl.git\n",
		"versions/0.1.0/sha1":     "abc\n",
		"versions/0.9.0/requires": "julia 0.3\nBar\n",
	})

	p, err := Extract(dir, DetectLegacy(dir))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := p.Versions["0.9.0"]; ok {
		t.Errorf("Versions = %v, want 0.9.0 excluded", p.Versions)
	}
	if len(p.Versions) != 1 || p.Versions["0.1.0"].ContentHash() != "abc" {
		t.Errorf("Versions = %v, want only 0.1.0", p.Versions)
	}
	if p.Latest != "0.1.0" {
		t.Errorf("Latest = %q, want 0.1.0", p.Latest)
	}
	if len(p.Resolved) != 0 {
		t.Errorf("Resolved = %v, want empty", p.Resolved)
	}
}

func TestKind(t *testing.T) {
	tests := map[string]IdentifierKind{
		"7876af07-990d-54b4-ab0e-23690620f79a": IdentifierNative,
		"metadata-foo":                         IdentifierSynthetic,
		"not-an-id":                            IdentifierOther,
	}
	for id, want := range tests {
		if got := Kind(id); got != want {
			t.Errorf("Kind(%q) = %v, want %v", id, got, want)
		}
	}
}
