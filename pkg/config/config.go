// Package config loads depchrono settings from defaults, an optional TOML
// file, DEPCHRONO_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/store"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "depchrono.toml"

const envPrefix = "DEPCHRONO_"

// Config holds all settings.
type Config struct {
	Registry     string      `koanf:"registry"`
	Legacy       string      `koanf:"legacy"`
	Branch       string      `koanf:"branch"`
	Store        StoreConfig `koanf:"store"`
	Matrices     string      `koanf:"matrices"`
	PackageIndex string      `koanf:"package_index"`
	Addr         string      `koanf:"addr"`
}

// StoreConfig selects the snapshot document store.
type StoreConfig struct {
	Backend string      `koanf:"backend"`
	Dir     string      `koanf:"dir"`
	Redis   RedisConfig `koanf:"redis"`
	Mongo   MongoConfig `koanf:"mongo"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"registry":             "General",
		"legacy":               "METADATA",
		"branch":               "main",
		"store.backend":        store.BackendFile,
		"store.dir":            "snapshots",
		"store.redis.addr":     "localhost:6379",
		"store.redis.password": "",
		"store.redis.db":       0,
		"store.mongo.uri":      "mongodb://localhost:27017",
		"store.mongo.database": "depchrono",
		"matrices":             "matrices",
		"package_index":        "combined_package_index.json",
		"addr":                 ":8080",
	}
}

// Load builds the configuration. path names the TOML file; empty means
// DefaultFile, which may be absent. An explicitly named file must exist.
// Flags override only when set on the command line.
func Load(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "config file %s", path)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidPath, err, "config file %s", path)
	}

	// 3. Environment, e.g. DEPCHRONO_STORE_REDIS_ADDR=redis:6379
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// nested lists the section prefixes whose underscores become key separators
// in environment variable names. Other underscores are kept, so
// DEPCHRONO_PACKAGE_INDEX maps to package_index.
var nested = []string{"store_redis_", "store_mongo_", "store_"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, p := range nested {
		if strings.HasPrefix(key, p) {
			section := strings.ReplaceAll(strings.TrimSuffix(p, "_"), "_", ".")
			return section + "." + strings.TrimPrefix(key, p)
		}
	}
	return key
}

// flagKey maps dashed flag names to config keys: --store-dir sets store.dir,
// --package-index sets package_index.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		name := f.Name
		for _, p := range nested {
			dashed := strings.ReplaceAll(p, "_", "-")
			if strings.HasPrefix(name, dashed) {
				section := strings.ReplaceAll(strings.TrimSuffix(p, "_"), "_", ".")
				key := section + "." + strings.ReplaceAll(strings.TrimPrefix(name, dashed), "-", "_")
				return key, posflag.FlagVal(fs, f)
			}
		}
		return strings.ReplaceAll(name, "-", "_"), posflag.FlagVal(fs, f)
	}
}

// StoreConfig converts the store section for store.Open.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Redis: store.RedisConfig{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
		},
		Mongo: store.MongoConfig{
			URI:      c.Store.Mongo.URI,
			Database: c.Store.Mongo.Database,
		},
	}
}

// mapProvider serves a fixed map as a koanf provider.
type mapProvider map[string]interface{}

func (p mapProvider) Read() (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		setPath(out, strings.Split(k, "."), v)
	}
	return out, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func setPath(m map[string]interface{}, path []string, v interface{}) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
