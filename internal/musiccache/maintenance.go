package musiccache

import (
	"context"
	"fmt"
	"time"
)

// Stats counts rows and stale rows per table. Unlike the lookup paths these
// are operator tools, so errors are returned rather than swallowed.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)

	var stats Stats
	var cutoff string
	if s.ttl > 0 {
		cutoff = formatTime(time.Now().Add(-s.ttl))
	}

	counts := []struct {
		table string
		total *int64
		stale *int64
	}{
		{"fingerprint_cache", &stats.Fingerprints, &stats.StaleFingerprints},
		{"recording_cache", &stats.Recordings, &stats.StaleRecordings},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+c.table).Scan(c.total); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
		if cutoff == "" {
			continue
		}
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM `+c.table+` WHERE cached_at < ?`, cutoff,
		).Scan(c.stale)
		if err != nil {
			return Stats{}, fmt.Errorf("count stale %s: %w", c.table, err)
		}
	}
	return stats, nil
}

// PurgeAll removes every row from both tables.
func (s *Store) PurgeAll(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var total int64
	for _, table := range []string{"fingerprint_cache", "recording_cache"} {
		res, err := s.execWithRetry(ctx, `DELETE FROM `+table)
		if err != nil {
			return total, fmt.Errorf("clear %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RecentRecordings returns the newest cached recordings for inspection,
// including rows that are stale but not yet swept.
func (s *Store) RecentRecordings(ctx context.Context, limit int) ([]RecordingSummary, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT recording_id, title, artist, COALESCE(album, ''), cached_at
         FROM recording_cache ORDER BY cached_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var summaries []RecordingSummary
	for rows.Next() {
		var (
			summary     RecordingSummary
			cachedAtRaw string
		)
		if err := rows.Scan(&summary.RecordingID, &summary.Title, &summary.Artist, &summary.Album, &cachedAtRaw); err != nil {
			return nil, fmt.Errorf("scan recording summary: %w", err)
		}
		if cachedAt, err := parseTimeString(cachedAtRaw); err == nil {
			summary.CachedAt = cachedAt
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
