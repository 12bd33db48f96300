package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// configCache stores parsed configuration values keyed by type name.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = newCache()

	defaultEnvLoaded sync.Once
)

func newCache() *configCache {
	return &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}
}

// Load parses environment variables into v. The default .env file is read
// once per process when present. Each configuration type is parsed only once;
// later calls for the same type return the cached copy.
//
// Example:
//
//	type StorageConfig struct {
//		Provider string `env:"UPLOAD_PROVIDER" envDefault:"local"`
//		Bucket   string `env:"UPLOAD_S3_BUCKET"`
//	}
//
//	var cfg StorageConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The default .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}
	return globalCache.load(v)
}

// LoadEnv reads the given .env files before parsing v. Missing files are an
// error here, unlike the implicit default file in Load. Variables already set
// in the process environment are never overridden.
func LoadEnv[T any](v *T, paths ...string) error {
	if v == nil {
		return ErrNilPointer
	}
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}
	return Load(v)
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv[T any](v *T, paths ...string) {
	if err := LoadEnv(v, paths...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadYAML decodes the YAML file at path into v. Fields absent from the file
// keep the values v already holds, so callers can pre-fill defaults.
// Results are not cached.
func LoadYAML[T any](path string, v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Join(ErrDecodingFile, err)
	}
	return nil
}

// ResetCache drops every cached configuration. Intended for tests.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
	globalCache.mu.Unlock()
}

// ForceReload discards the cached value for T and parses the environment again.
func ForceReload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	typeName := getTypeName[T]()
	globalCache.mu.Lock()
	delete(globalCache.values, typeName)
	delete(globalCache.onces, typeName)
	globalCache.mu.Unlock()
	return Load(v)
}

func (c *configCache) load(v any) error {
	typeName := reflect.TypeOf(v).Elem().String()

	if c.get(typeName, v) {
		return nil
	}

	c.mu.Lock()
	once, ok := c.onces[typeName]
	if !ok {
		once = new(sync.Once)
		c.onces[typeName] = once
	}
	c.mu.Unlock()

	var err error
	once.Do(func() {
		if parseErr := env.Parse(v); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			// A failed parse may be retried once the environment is fixed.
			c.mu.Lock()
			delete(c.onces, typeName)
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.values[typeName] = reflect.ValueOf(v).Elem().Interface()
		c.mu.Unlock()
	})
	if err != nil {
		return err
	}

	if c.get(typeName, v) {
		return nil
	}
	return ErrConfigNotLoaded
}

func (c *configCache) get(typeName string, v any) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.values[typeName]
	if !ok {
		return false
	}
	reflect.ValueOf(v).Elem().Set(reflect.ValueOf(cached))
	return true
}

func getTypeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
