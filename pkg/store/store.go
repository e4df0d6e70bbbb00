// Package store persists snapshot documents by name.
//
// Three backends implement [Store]: a directory of JSON files (the default
// for CLI runs), Redis, and MongoDB GridFS. Document names are flat and are
// validated with errors.ValidateDocumentName before reaching a backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Store persists named documents.
type Store interface {
	// Exists reports whether a document is stored under name.
	Exists(ctx context.Context, name string) (bool, error)

	// Put stores data under name, replacing any previous document. Readers
	// never observe a partially written document.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the document stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the names of all stored documents in lexical order.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	Redis   RedisConfig
	Mongo   MongoConfig
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	}
	return nil, deperrors.New(deperrors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
}

// PutJSON encodes v and stores it under name.
func PutJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return s.Put(ctx, name, data)
}

// GetJSON loads the document stored under name into v.
func GetJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "decode %s", name)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func storageErr(err error, op, name string) error {
	return deperrors.Wrap(deperrors.ErrCodeStorage, err, "%s %s", op, name)
}
