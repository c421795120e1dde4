package musiccache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cadence/internal/logging"
	"cadence/internal/music"
)

// LookupFingerprint returns the cached identification for the exact
// (fingerprint, duration) key. It reports a miss for absent, stale, and
// unreadable rows alike; storage failures are logged, never returned.
func (s *Store) LookupFingerprint(ctx context.Context, fingerprint string, duration int) (*FingerprintResult, bool) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" || duration <= 0 {
		return nil, false
	}
	ctx = ensureContext(ctx)

	var (
		candidatesJSON string
		cachedAtRaw    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT candidates_json, cached_at FROM fingerprint_cache WHERE fingerprint = ? AND duration = ?`,
		fingerprint, duration,
	).Scan(&candidatesJSON, &cachedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("fingerprint lookup failed",
			logging.String(logging.FieldEventType, "cache_read_failed"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treated as a cache miss"))
		return nil, false
	}

	cachedAt, err := parseTimeString(cachedAtRaw)
	if err != nil {
		s.logger.Warn("fingerprint row has malformed timestamp",
			logging.String(logging.FieldEventType, "cache_payload_malformed"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Error(err))
		s.scheduleDelete(staleRow{table: "fingerprint_cache", fingerprint: fingerprint, duration: duration})
		return nil, false
	}

	if s.isStale(cachedAt) {
		s.scheduleDelete(staleRow{table: "fingerprint_cache", fingerprint: fingerprint, duration: duration})
		return nil, false
	}

	var candidates []music.Candidate
	if err := json.Unmarshal([]byte(candidatesJSON), &candidates); err != nil {
		s.logger.Warn("fingerprint row has malformed payload",
			logging.String(logging.FieldEventType, "cache_payload_malformed"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Error(err))
		s.scheduleDelete(staleRow{table: "fingerprint_cache", fingerprint: fingerprint, duration: duration})
		return nil, false
	}
	if candidates == nil {
		candidates = []music.Candidate{}
	}

	return &FingerprintResult{
		Fingerprint: fingerprint,
		Duration:    duration,
		Candidates:  candidates,
		CachedAt:    cachedAt,
	}, true
}

// StoreFingerprint upserts the identification result for one (fingerprint,
// duration) key, fully replacing any prior row. Caching is best-effort: write
// failures are logged and swallowed because the lookup already happened.
func (s *Store) StoreFingerprint(ctx context.Context, fingerprint string, duration int, candidates []music.Candidate) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" || duration <= 0 {
		s.logger.Warn("refusing to cache fingerprint with incomplete key",
			logging.String(logging.FieldEventType, "cache_key_invalid"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.String(logging.FieldErrorHint, "caller passed an empty fingerprint or non-positive duration"))
		return
	}
	if len(candidates) == 0 && !s.storeEmptyResults {
		s.logger.Debug("skipping cache write for empty candidate list",
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration))
		return
	}
	ctx = ensureContext(ctx)

	if candidates == nil {
		candidates = []music.Candidate{}
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		s.logger.Error("marshal fingerprint candidates failed",
			logging.String(logging.FieldEventType, "cache_write_failed"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Error(err))
		return
	}

	_, err = s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO fingerprint_cache (fingerprint, duration, candidates_json, cached_at)
         VALUES (?, ?, ?, ?)`,
		fingerprint, duration, string(payload), formatTime(time.Now()),
	)
	if err != nil {
		s.logger.Warn("fingerprint cache write failed",
			logging.String(logging.FieldEventType, "cache_write_failed"),
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next run repeats the identification call"))
	}
}
