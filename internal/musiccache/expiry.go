package musiccache

import (
	"context"
	"time"

	"cadence/internal/logging"
)

// staleRow identifies one row scheduled for background deletion.
type staleRow struct {
	table       string
	fingerprint string
	duration    int
	recordingID string
}

// isStale reports whether a row written at cachedAt has outlived the TTL.
// A zero TTL disables expiry entirely.
func (s *Store) isStale(cachedAt time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return time.Since(cachedAt) > s.ttl
}

// scheduleDelete hands a stale row to the reaper without blocking the read
// path. A full queue drops the request; the row stays a miss and the next
// read or sweep picks it up again.
func (s *Store) scheduleDelete(row staleRow) {
	select {
	case s.deletions <- row:
	default:
		s.logger.Debug("deletion queue full, dropping stale row",
			logging.String("table", row.table))
	}
}

func (s *Store) runReaper() {
	defer s.reaperWG.Done()
	for row := range s.deletions {
		s.deleteRow(row)
	}
}

func (s *Store) deleteRow(row staleRow) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch row.table {
	case "fingerprint_cache":
		_, err = s.execWithRetry(ctx,
			`DELETE FROM fingerprint_cache WHERE fingerprint = ? AND duration = ?`,
			row.fingerprint, row.duration)
	case "recording_cache":
		_, err = s.execWithRetry(ctx,
			`DELETE FROM recording_cache WHERE recording_id = ?`,
			row.recordingID)
	}
	if err != nil {
		// The row is already treated as a miss; it just lingers on disk.
		s.logger.Warn("stale row deletion failed",
			logging.String(logging.FieldEventType, "cache_delete_failed"),
			logging.String("table", row.table),
			logging.Error(err),
			logging.String(logging.FieldImpact, "row remains on disk until the next sweep"))
	}
}

// PurgeExpired deletes every row in both tables older than the TTL cutoff.
// It runs once at Open and is exposed for operator use; with expiry disabled
// it removes nothing.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	cutoff := formatTime(time.Now().Add(-s.ttl))

	var total int64
	for _, table := range []string{"fingerprint_cache", "recording_cache"} {
		res, err := s.execWithRetry(ctx, `DELETE FROM `+table+` WHERE cached_at < ?`, cutoff)
		if err != nil {
			return total, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}
