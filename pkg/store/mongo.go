package store

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/observability"
)

// mongoBucket is the GridFS bucket holding snapshot documents.
const mongoBucket = "snapshots"

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore keeps documents as GridFS files. Snapshot documents routinely
// exceed the 16MB BSON document limit, which GridFS chunking avoids.
type MongoStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

type gridFile struct {
	ID       primitive.ObjectID `bson:"_id"`
	Filename string             `bson:"filename"`
}

// NewMongoStore connects to MongoDB and opens the snapshot bucket.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, storageErr(err, "connect", cfg.URI)
	}
	ping := func() error { return transient(client.Ping(ctx, nil)) }
	if err := retry(ctx, connectAttempts, connectDelay, ping); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr(err, "ping", cfg.URI)
	}
	db := cfg.Database
	if db == "" {
		db = "depchrono"
	}
	bucket, err := gridfs.NewBucket(client.Database(db), options.GridFSBucket().SetName(mongoBucket))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr(err, "open bucket", mongoBucket)
	}
	return &MongoStore{client: client, bucket: bucket}, nil
}

func (s *MongoStore) find(ctx context.Context, filter any) ([]gridFile, error) {
	cursor, err := s.bucket.FindContext(ctx, filter)
	if err != nil {
		return nil, err
	}
	var files []gridFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Exists reports whether a file with the document name is stored.
func (s *MongoStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return false, err
	}
	files, err := s.find(ctx, bson.M{"filename": name})
	if err != nil {
		return false, storageErr(err, "find", name)
	}
	return len(files) > 0, nil
}

// Put uploads a new revision and removes the older ones. Readers always see
// the newest complete revision.
func (s *MongoStore) Put(ctx context.Context, name string, data []byte) error {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return err
	}
	old, err := s.find(ctx, bson.M{"filename": name})
	if err != nil {
		return storageErr(err, "find", name)
	}
	if _, err := s.bucket.UploadFromStream(name, bytes.NewReader(data)); err != nil {
		return storageErr(err, "upload", name)
	}
	for _, f := range old {
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return storageErr(err, "delete old revision of", name)
		}
	}
	observability.Store().OnPut(ctx, BackendMongo, len(data))
	return nil
}

// Get downloads the newest revision of a document.
func (s *MongoStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	_, err := s.bucket.DownloadToStreamByName(name, &buf)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		observability.Store().OnGet(ctx, BackendMongo, false)
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storageErr(err, "download", name)
	}
	observability.Store().OnGet(ctx, BackendMongo, true)
	return buf.Bytes(), nil
}

// List returns the distinct file names in the bucket.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	files, err := s.find(ctx, bson.D{})
	if err != nil {
		return nil, storageErr(err, "list", mongoBucket)
	}
	seen := map[string]bool{}
	var names []string
	for _, f := range files {
		if !seen[f.Filename] {
			seen[f.Filename] = true
			names = append(names, f.Filename)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
