package musiccache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"cadence/internal/config"
	"cadence/internal/logging"
)

// Store manages the music metadata cache backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	ttl               time.Duration
	storeEmptyResults bool

	lock *flock.Flock

	deletions chan staleRow
	reaperWG  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	deletionQueueSize = 64
)

// Open initializes or connects to the cache database. Any failure here is
// fatal: the returned error means the cache must not be used, and callers
// decide at their own layer whether to abort or run without caching.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	logger = logging.NewComponentLogger(logger, "musiccache")

	dbPath := cfg.DatabasePath()
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("music cache at %s is owned by another process", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:                db,
		path:              dbPath,
		logger:            logger,
		ttl:               cfg.TTL(),
		storeEmptyResults: cfg.Cache.StoreEmptyResults,
		lock:              lock,
		deletions:         make(chan staleRow, deletionQueueSize),
	}

	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	store.reaperWG.Add(1)
	go store.runReaper()

	// Cleanup pass only; lazy read checks are what guarantee stale rows are
	// never returned.
	if removed, err := store.PurgeExpired(context.Background()); err != nil {
		logger.Warn("startup sweep failed",
			logging.String(logging.FieldEventType, "cache_sweep_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "expired rows persist until the next read or restart"))
	} else if removed > 0 {
		logger.Debug("startup sweep removed expired rows", logging.Int64("rows", removed))
	}

	return store, nil
}

// Close drains the deletion queue and releases the database and lock. Safe to
// call more than once.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		close(s.deletions)
		s.reaperWG.Wait()

		var errs []error
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release cache lock: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

// TTL returns the configured row lifetime. Zero means rows never expire.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339Nano, value)
}
