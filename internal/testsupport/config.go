// Package testsupport provides helpers for constructing configs and stores in
// tests with unique temp directories per test.
package testsupport

import (
	"path/filepath"
	"testing"

	"cadence/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTTLDays sets the cache TTL on the test config.
func WithTTLDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.TTLDays = days
	}
}

// WithStoreEmptyResults enables caching of empty fingerprint results.
func WithStoreEmptyResults() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.StoreEmptyResults = true
	}
}
