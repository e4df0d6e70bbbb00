package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/observability"
)

// tmpPrefix marks in-flight writes; such files are never listed.
const tmpPrefix = ".tmp-"

// FileStore keeps each document as a file in one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageErr(err, "create", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the documents.
func (s *FileStore) Dir() string { return s.dir }

// Exists reports whether the document file is present.
func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err, "stat", name)
	}
	return true, nil
}

// Put writes the document to a temporary file and renames it into place.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, tmpPrefix+name+"-*")
	if err != nil {
		return storageErr(err, "create", name)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr(err, "write", name)
	}
	if err := tmp.Close(); err != nil {
		return storageErr(err, "close", name)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return storageErr(err, "rename", name)
	}
	observability.Store().OnPut(ctx, BackendFile, len(data))
	return nil
}

// Get reads a document.
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		observability.Store().OnGet(ctx, BackendFile, false)
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storageErr(err, "read", name)
	}
	observability.Store().OnGet(ctx, BackendFile, true)
	return data, nil
}

// List returns the regular files of the directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageErr(err, "list", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
