package musiccache

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/music"
)

const testRecordingID = "5a7bf7ad-07d2-46b6-9e8f-3f52e52234d5"

// newTestConfig mirrors testsupport.NewConfig, which in-package tests cannot
// import without a cycle.
func newTestConfig(t *testing.T, ttlDays int) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Cache.TTLDays = ttlDays
	return &cfg
}

func openTestStore(t *testing.T, cfg *config.Config) *Store {
	t.Helper()
	store, err := Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ageAllRows(t *testing.T, store *Store, age time.Duration) {
	t.Helper()
	stamp := formatTime(time.Now().Add(-age))
	for _, table := range []string{"fingerprint_cache", "recording_cache"} {
		if _, err := store.db.Exec(`UPDATE `+table+` SET cached_at = ?`, stamp); err != nil {
			t.Fatalf("age rows in %s: %v", table, err)
		}
	}
}

func rowCount(t *testing.T, store *Store, table string) int {
	t.Helper()
	var n int
	if err := store.db.QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	store.StoreFingerprint(ctx, "AB12", 180, []music.Candidate{{RecordingID: "r1", Score: 0.95}})
	store.StoreRecording(ctx, &music.Recording{ID: testRecordingID, Title: "Song", Artist: "Artist"})
}

func TestLazyExpiryReturnsMiss(t *testing.T) {
	cfg := newTestConfig(t, 30)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 31*24*time.Hour)

	if _, ok := store.LookupFingerprint(ctx, "AB12", 180); ok {
		t.Fatal("expected stale fingerprint row to miss")
	}
	if _, ok := store.LookupRecording(ctx, testRecordingID); ok {
		t.Fatal("expected stale recording row to miss")
	}
}

func TestLazyExpiryEventuallyDeletesRow(t *testing.T) {
	cfg := newTestConfig(t, 30)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 31*24*time.Hour)

	store.LookupFingerprint(ctx, "AB12", 180)
	store.LookupRecording(ctx, testRecordingID)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rowCount(t, store, "fingerprint_cache") == 0 && rowCount(t, store, "recording_cache") == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected reaper to delete stale rows")
}

func TestFreshRowJustInsideTTLIsHit(t *testing.T) {
	cfg := newTestConfig(t, 30)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 29*24*time.Hour)

	if _, ok := store.LookupFingerprint(ctx, "AB12", 180); !ok {
		t.Fatal("expected fresh fingerprint row to hit")
	}
	if _, ok := store.LookupRecording(ctx, testRecordingID); !ok {
		t.Fatal("expected fresh recording row to hit")
	}
}

func TestTTLDisabledNeverExpires(t *testing.T) {
	cfg := newTestConfig(t, 0)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 10*365*24*time.Hour)

	if _, ok := store.LookupFingerprint(ctx, "AB12", 180); !ok {
		t.Fatal("expected hit with expiry disabled")
	}
	if _, ok := store.LookupRecording(ctx, testRecordingID); !ok {
		t.Fatal("expected hit with expiry disabled")
	}

	removed, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected sweep to be a no-op with expiry disabled, removed %d", removed)
	}
}

func TestPurgeExpiredRemovesOnlyAgedRows(t *testing.T) {
	cfg := newTestConfig(t, 30)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 31*24*time.Hour)
	store.StoreFingerprint(ctx, "CD34", 200, []music.Candidate{{RecordingID: "r2", Score: 0.7}})

	removed, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 aged rows removed, got %d", removed)
	}
	if _, ok := store.LookupFingerprint(ctx, "CD34", 200); !ok {
		t.Fatal("expected fresh row to survive the sweep")
	}
}

func TestStartupSweepClearsAgedRows(t *testing.T) {
	cfg := newTestConfig(t, 30)

	store, err := Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seed(t, store)
	ageAllRows(t, store, 31*24*time.Hour)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if n := rowCount(t, reopened, "fingerprint_cache"); n != 0 {
		t.Fatalf("expected startup sweep to clear fingerprint rows, %d remain", n)
	}
	if n := rowCount(t, reopened, "recording_cache"); n != 0 {
		t.Fatalf("expected startup sweep to clear recording rows, %d remain", n)
	}
}

func TestStatsCountsStaleRows(t *testing.T) {
	cfg := newTestConfig(t, 30)
	store := openTestStore(t, cfg)
	ctx := context.Background()

	seed(t, store)
	ageAllRows(t, store, 31*24*time.Hour)
	store.StoreFingerprint(ctx, "CD34", 200, []music.Candidate{{RecordingID: "r2", Score: 0.7}})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Fingerprints != 2 || stats.StaleFingerprints != 1 {
		t.Fatalf("unexpected fingerprint stats: %+v", stats)
	}
	if stats.Recordings != 1 || stats.StaleRecordings != 1 {
		t.Fatalf("unexpected recording stats: %+v", stats)
	}
}

// collectHandler records event_type attrs for assertions about which code
// paths ran.
type collectHandler struct {
	mu     sync.Mutex
	events []string
}

func (h *collectHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *collectHandler) Handle(_ context.Context, record slog.Record) error {
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == logging.FieldEventType {
			h.mu.Lock()
			h.events = append(h.events, attr.Value.String())
			h.mu.Unlock()
		}
		return true
	})
	return nil
}

func (h *collectHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *collectHandler) WithGroup(string) slog.Handler { return h }

func (h *collectHandler) has(event string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestMalformedRecordingIDSkipsStorage(t *testing.T) {
	cfg := newTestConfig(t, 30)
	handler := &collectHandler{}

	store, err := Open(cfg, slog.New(handler))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	// Force any storage access to fail loudly so the log capture below can
	// prove the lookup never reached the database.
	if err := store.db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	if _, ok := store.LookupRecording(context.Background(), "not-a-valid-id"); ok {
		t.Fatal("expected miss for malformed id")
	}
	if !handler.has("cache_key_invalid") {
		t.Fatal("expected invalid-key warning to be logged")
	}
	if handler.has("cache_read_failed") {
		t.Fatal("lookup with malformed id must not touch storage")
	}

	// A valid id on the closed handle takes the storage path and is converted
	// to a logged miss.
	if _, ok := store.LookupRecording(context.Background(), testRecordingID); ok {
		t.Fatal("expected miss on closed database")
	}
	if !handler.has("cache_read_failed") {
		t.Fatal("expected storage failure to be logged as a read failure")
	}
}
