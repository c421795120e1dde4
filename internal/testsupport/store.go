package testsupport

import (
	"testing"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/musiccache"
)

// MustOpenStore opens a musiccache.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *musiccache.Store {
	t.Helper()

	store, err := musiccache.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("musiccache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
