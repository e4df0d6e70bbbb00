package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/observability"
)

// redisKeyPrefix namespaces document keys.
const redisKeyPrefix = "depchrono:doc:"

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps each document as one string value.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ping := func() error { return transient(client.Ping(ctx).Err()) }
	if err := retry(ctx, connectAttempts, connectDelay, ping); err != nil {
		client.Close()
		return nil, storageErr(err, "connect", cfg.Addr)
	}
	return &RedisStore{client: client}, nil
}

// Exists reports whether the document key is set.
func (s *RedisStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, redisKeyPrefix+name).Result()
	if err != nil {
		return false, storageErr(err, "exists", name)
	}
	return n > 0, nil
}

// Put sets the document key. A single SET is atomic.
func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+name, data, 0).Err(); err != nil {
		return storageErr(err, "set", name)
	}
	observability.Store().OnPut(ctx, BackendRedis, len(data))
	return nil
}

// Get reads the document key.
func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := deperrors.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.Store().OnGet(ctx, BackendRedis, false)
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storageErr(err, "get", name)
	}
	observability.Store().OnGet(ctx, BackendRedis, true)
	return data, nil
}

// List scans the document key space.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr(err, "scan", redisKeyPrefix)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
