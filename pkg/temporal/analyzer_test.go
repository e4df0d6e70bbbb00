package temporal

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
)

// writeSlices lays out three monthly slices for packages
// App(0) Lib(1) Core(2) Test(3):
//
//	2020-01: App → Lib
//	2020-02: App → Lib → Core, App → Test
//	2020-03: App → Lib → Core, Core → App
func writeSlices(t *testing.T) (string, *PackageIndex) {
	t.Helper()
	dir := t.TempDir()
	slices := map[string][][2]int{
		"2020-01": {{0, 1}},
		"2020-02": {{0, 1}, {1, 2}, {0, 3}},
		"2020-03": {{0, 1}, {1, 2}, {2, 0}},
	}
	for label, edges := range slices {
		if err := WriteSMATFile(filepath.Join(dir, MatrixFile(label)), graphOf(t, 4, edges...)); err != nil {
			t.Fatal(err)
		}
	}
	ix := NewPackageIndex()
	for _, name := range []string{"App", "Lib", "Core", "Test"} {
		ix.add(name, "2020-01")
	}
	ix.firstSeen["Core"] = "2020-02"
	return dir, ix
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	dir, ix := writeSlices(t)
	return NewAnalyzer(dir, ix, log.New(io.Discard))
}

func TestAnalyze(t *testing.T) {
	res, err := newTestAnalyzer(t).Analyze(context.Background(), "App", Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.From != "2020-01" {
		t.Errorf("From = %q", res.From)
	}
	if want := []string{"App", "Lib", "Core", "Test"}; !reflect.DeepEqual(res.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", res.Nodes, want)
	}
	if want := []int{0, 0, 1, 1}; !reflect.DeepEqual(res.Clusters, want) {
		t.Errorf("Clusters = %v, want %v", res.Clusters, want)
	}
	if want := []string{"2020-01", "2020-02", "2020-03"}; !reflect.DeepEqual(res.ClusterLabels, want) {
		t.Errorf("ClusterLabels = %v", res.ClusterLabels)
	}
	want := [][2]int{{0, 1}, {0, 3}, {1, 2}, {2, 0}}
	if !reflect.DeepEqual(res.Edges, want) {
		t.Errorf("Edges = %v, want %v", res.Edges, want)
	}
	if got := res.Slices[0].Dependencies; !reflect.DeepEqual(got, []string{"App", "Lib"}) {
		t.Errorf("first slice = %v", got)
	}
}

func TestAnalyze_Options(t *testing.T) {
	a := newTestAnalyzer(t)

	res, err := a.Analyze(context.Background(), "App", Options{
		From:        "2020-02",
		Exclude:     []string{"Test", "NotIndexed"},
		ExcludeSelf: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Slices) != 2 {
		t.Fatalf("slices = %d, want 2", len(res.Slices))
	}
	// The cycle through Core brings App back in the last slice.
	if want := []string{"App", "Lib", "Core"}; !reflect.DeepEqual(res.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", res.Nodes, want)
	}
	if got := res.Slices[0].Dependencies; !reflect.DeepEqual(got, []string{"Lib", "Core"}) {
		t.Errorf("2020-02 = %v", got)
	}
}

func TestAnalyze_DefaultsToFirstSeen(t *testing.T) {
	res, err := newTestAnalyzer(t).Analyze(context.Background(), "Core", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.From != "2020-02" || len(res.Slices) != 2 {
		t.Errorf("From = %q with %d slices", res.From, len(res.Slices))
	}
}

func TestAnalyze_Errors(t *testing.T) {
	a := newTestAnalyzer(t)
	if _, err := a.Analyze(context.Background(), "Missing", Options{}); !errors.Is(err, ErrUnknownPackage) {
		t.Errorf("unknown package error = %v", err)
	}
	if _, err := a.Analyze(context.Background(), "App", Options{From: "2030-01"}); err == nil {
		t.Error("expected error when no slices remain")
	}
}

func TestAtOrAfter(t *testing.T) {
	tests := []struct {
		label, from string
		want        bool
	}{
		{"2020-03", "2020-03-15", true},
		{"2020-02", "2020-03-15", false},
		{"2020-03-01", "2020-03", true},
		{"2019-12", "2020-01", false},
	}
	for _, tt := range tests {
		if got := atOrAfter(tt.label, tt.from); got != tt.want {
			t.Errorf("atOrAfter(%q, %q) = %v", tt.label, tt.from, got)
		}
	}
}
