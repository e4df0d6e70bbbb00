package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Exists(ctx, "dependencies_2020-01.json")
	if err != nil || ok {
		t.Fatalf("Exists(empty) = %v, %v", ok, err)
	}
	if _, err := s.Get(ctx, "dependencies_2020-01.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "dependencies_2020-01.json", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "dependencies_2020-01.json", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	if err := s.Put(ctx, "metadata_dependencies_2015-06.json", []byte(`{}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := s.Get(ctx, "dependencies_2020-01.json")
	if err != nil || string(data) != `{"v":2}` {
		t.Errorf("Get = %s, %v", data, err)
	}
	if ok, _ := s.Exists(ctx, "dependencies_2020-01.json"); !ok {
		t.Error("Exists after Put = false")
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"dependencies_2020-01.json", "metadata_dependencies_2015-06.json"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}

	for _, bad := range []string{"../escape.json", ".hidden", "a/b.json", ""} {
		if err := s.Put(ctx, bad, []byte("x")); !deperrors.Is(err, deperrors.ErrCodeInvalidPath) {
			t.Errorf("Put(%q) error = %v, want INVALID_PATH", bad, err)
		}
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStore_NoTemporaryLeftovers(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "doc.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory = %v, want only doc.json", names)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := map[string]int{"a": 1}
	if err := PutJSON(ctx, s, "doc.json", in); err != nil {
		t.Fatal(err)
	}
	var out map[string]int
	if err := GetJSON(ctx, s, "doc.json", &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("GetJSON = %v, want %v", out, in)
	}

	_ = s.Put(ctx, "bad.json", []byte("{"))
	if err := GetJSON(ctx, s, "bad.json", &out); !deperrors.Is(err, deperrors.ErrCodeInvalidFormat) {
		t.Errorf("GetJSON(bad) error = %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Config{Backend: "s3"}); !deperrors.Is(err, deperrors.ErrCodeInvalidInput) {
		t.Errorf("Open(s3) error = %v", err)
	}
}
