package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/index"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
)

// stubWorktree serves one fixed registry tree for every commit and fails
// checkouts of the listed hashes.
type stubWorktree struct {
	dir       string
	failing   map[string]bool
	checkouts []string
}

func (w *stubWorktree) Path() string { return w.dir }

func (w *stubWorktree) Checkout(_ context.Context, hash string) error {
	w.checkouts = append(w.checkouts, hash)
	if w.failing[hash] {
		return deperrors.New(deperrors.ErrCodeCheckoutFailed, "cannot check out %s", hash)
	}
	return nil
}

func (w *stubWorktree) Restore(context.Context) error { return nil }

func registryTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "E", "Example", "Package.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "name = \"Example\"\nuuid = \"7876af07-990d-54b4-ab0e-23690620f79a\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func threeMonths() index.Index {
	return index.Index{
		"2020-01": {Hash: "h1"},
		"2020-02": {Hash: "h2"},
		"2020-03": {Hash: "h3"},
	}
}

func newDriver(t *testing.T, wt *stubWorktree, s store.Store) *Driver {
	logger := log.New(io.Discard)
	return &Driver{
		Builder:  snapshot.NewBuilder(logger),
		Worktree: wt,
		Store:    s,
		Source:   snapshot.SourceGeneral,
		Logger:   logger,
	}
}

func TestRun_Resume(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	for _, label := range []string{"2020-01", "2020-03"} {
		if err := s.Put(ctx, DocumentName(snapshot.SourceGeneral, label), []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	wt := &stubWorktree{dir: registryTree(t)}

	report, err := newDriver(t, wt, s).Run(ctx, threeMonths())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(report.Completed, []string{"2020-02"}) {
		t.Errorf("Completed = %v", report.Completed)
	}
	if !reflect.DeepEqual(report.Skipped, []string{"2020-01", "2020-03"}) {
		t.Errorf("Skipped = %v", report.Skipped)
	}
	if !reflect.DeepEqual(wt.checkouts, []string{"h2"}) {
		t.Errorf("checkouts = %v, want only h2", wt.checkouts)
	}

	var snap snapshot.Snapshot
	if err := store.GetJSON(ctx, s, "dependencies_2020-02.json", &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Commit() != "h2" || snap.Len() != 1 {
		t.Errorf("stored snapshot commit %q with %d packages", snap.Commit(), snap.Len())
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	wt := &stubWorktree{dir: registryTree(t), failing: map[string]bool{"h2": true}}

	report, err := newDriver(t, wt, s).Run(ctx, threeMonths())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(report.Completed, []string{"2020-01", "2020-03"}) {
		t.Errorf("Completed = %v", report.Completed)
	}
	if len(report.Failed) != 1 || report.Failed[0].Label != "2020-02" || !deperrors.IsFatalCheckout(report.Failed[0].Err) {
		t.Errorf("Failed = %+v", report.Failed)
	}
	if ok, _ := s.Exists(ctx, "dependencies_2020-02.json"); ok {
		t.Error("failed period was written")
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wt := &stubWorktree{dir: registryTree(t)}

	report, err := newDriver(t, wt, store.NewMemoryStore()).Run(ctx, threeMonths())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if report == nil || len(report.Completed) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestDocumentNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DocumentName(snapshot.SourceGeneral, "2019-05"), "dependencies_2019-05.json"},
		{DocumentName(snapshot.SourceLegacy, "2015-01-02"), "metadata_dependencies_2015-01-02.json"},
		{CommitDocumentName(snapshot.SourceGeneral, "0123456789abcdef"), "dependencies_01234567.json"},
		{CommitDocumentName(snapshot.SourceLegacy, "abc"), "metadata_dependencies_abc.json"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("name = %q, want %q", tt.got, tt.want)
		}
	}
}
