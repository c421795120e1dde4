package musiccache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cadence/internal/logging"
	"cadence/internal/music"
)

// LookupRecording returns the cached metadata for one recording ID. A raw ID
// that does not normalize to canonical form is a deterministic miss and never
// touches storage; it usually indicates a caller bug or corrupted upstream
// data, so it is logged. Staleness and failure handling mirror
// LookupFingerprint.
func (s *Store) LookupRecording(ctx context.Context, rawID string) (*RecordingResult, bool) {
	id, err := music.CanonicalRecordingID(rawID)
	if err != nil {
		s.logger.Warn("recording lookup with invalid id",
			logging.String(logging.FieldEventType, "cache_key_invalid"),
			logging.String("recording_id", rawID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "upstream passed a non-UUID recording identifier"))
		return nil, false
	}
	ctx = ensureContext(ctx)

	row := s.db.QueryRowContext(ctx,
		`SELECT recording_id, title, artist, artists_json, album, release_date, disambiguation,
                isrcs_json, rating_json, artist_credits_json, releases_json, cached_at
         FROM recording_cache WHERE recording_id = ?`, id)

	result, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("recording lookup failed",
			logging.String(logging.FieldEventType, "cache_read_failed"),
			logging.String("recording_id", id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treated as a cache miss"))
		if isPayloadError(err) {
			s.scheduleDelete(staleRow{table: "recording_cache", recordingID: id})
		}
		return nil, false
	}

	if s.isStale(result.CachedAt) {
		s.scheduleDelete(staleRow{table: "recording_cache", recordingID: id})
		return nil, false
	}

	return result, true
}

// StoreRecording upserts the metadata row for one recording, fully replacing
// any prior row. Optional fields that are absent upstream persist as explicit
// NULLs so a later read can distinguish "known absent" from "never looked
// up"; nested collections persist as empty arrays, never null. Write failures
// are logged and swallowed.
func (s *Store) StoreRecording(ctx context.Context, recording *music.Recording) {
	if recording == nil {
		return
	}
	id, err := music.CanonicalRecordingID(recording.ID)
	if err != nil {
		s.logger.Warn("refusing to cache recording with invalid id",
			logging.String(logging.FieldEventType, "cache_key_invalid"),
			logging.String("recording_id", recording.ID),
			logging.Error(err))
		return
	}
	ctx = ensureContext(ctx)

	normalized := normalizeRecording(*recording)

	row, err := flattenRecording(normalized)
	if err == nil {
		_, err = s.execWithRetry(ctx,
			`INSERT OR REPLACE INTO recording_cache (
                recording_id, title, artist, artists_json, album, release_date,
                disambiguation, isrcs_json, rating_json, artist_credits_json,
                releases_json, cached_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			normalized.Title,
			normalized.Artist,
			row.artistsJSON,
			nullableString(normalized.Album),
			nullableString(normalized.ReleaseDate),
			nullableString(normalized.Disambiguation),
			row.isrcsJSON,
			row.ratingJSON,
			row.creditsJSON,
			row.releasesJSON,
			formatTime(time.Now()),
		)
	}
	if err != nil {
		s.logger.Warn("recording cache write failed",
			logging.String(logging.FieldEventType, "cache_write_failed"),
			logging.String("recording_id", id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next run repeats the metadata call"))
	}
}

// recordingRow holds the serialized nested fields of one recording_cache row.
type recordingRow struct {
	artistsJSON  string
	isrcsJSON    string
	ratingJSON   any
	creditsJSON  string
	releasesJSON string
}

func flattenRecording(recording music.Recording) (recordingRow, error) {
	var row recordingRow

	artists, err := json.Marshal(recording.Artists)
	if err != nil {
		return row, fmt.Errorf("marshal artists: %w", err)
	}
	isrcs, err := json.Marshal(recording.ISRCs)
	if err != nil {
		return row, fmt.Errorf("marshal isrcs: %w", err)
	}
	credits, err := json.Marshal(recording.ArtistCredits)
	if err != nil {
		return row, fmt.Errorf("marshal artist credits: %w", err)
	}
	releases, err := json.Marshal(recording.Releases)
	if err != nil {
		return row, fmt.Errorf("marshal releases: %w", err)
	}

	row.artistsJSON = string(artists)
	row.isrcsJSON = string(isrcs)
	row.creditsJSON = string(credits)
	row.releasesJSON = string(releases)

	if recording.Rating != nil {
		rating, err := json.Marshal(recording.Rating)
		if err != nil {
			return row, fmt.Errorf("marshal rating: %w", err)
		}
		row.ratingJSON = string(rating)
	}
	return row, nil
}

// payloadError marks scan failures caused by a malformed stored value, which
// are worth deleting, as opposed to transient I/O errors, which are not.
type payloadError struct{ err error }

func (e payloadError) Error() string { return e.err.Error() }

func (e payloadError) Unwrap() error { return e.err }

func isPayloadError(err error) bool {
	var pe payloadError
	return errors.As(err, &pe)
}

func scanRecording(scanner interface{ Scan(dest ...any) error }) (*RecordingResult, error) {
	var (
		id             string
		title          string
		artist         string
		artistsJSON    string
		album          sql.NullString
		releaseDate    sql.NullString
		disambiguation sql.NullString
		isrcsJSON      string
		ratingJSON     sql.NullString
		creditsJSON    string
		releasesJSON   string
		cachedAtRaw    string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&artist,
		&artistsJSON,
		&album,
		&releaseDate,
		&disambiguation,
		&isrcsJSON,
		&ratingJSON,
		&creditsJSON,
		&releasesJSON,
		&cachedAtRaw,
	); err != nil {
		return nil, err
	}

	cachedAt, err := parseTimeString(cachedAtRaw)
	if err != nil {
		return nil, payloadError{fmt.Errorf("parse cached_at: %w", err)}
	}

	recording := music.Recording{
		ID:     id,
		Title:  title,
		Artist: artist,
	}
	if album.Valid {
		recording.Album = &album.String
	}
	if releaseDate.Valid {
		recording.ReleaseDate = &releaseDate.String
	}
	if disambiguation.Valid {
		recording.Disambiguation = &disambiguation.String
	}
	if err := json.Unmarshal([]byte(artistsJSON), &recording.Artists); err != nil {
		return nil, payloadError{fmt.Errorf("parse artists: %w", err)}
	}
	if err := json.Unmarshal([]byte(isrcsJSON), &recording.ISRCs); err != nil {
		return nil, payloadError{fmt.Errorf("parse isrcs: %w", err)}
	}
	if ratingJSON.Valid {
		var rating music.Rating
		if err := json.Unmarshal([]byte(ratingJSON.String), &rating); err != nil {
			return nil, payloadError{fmt.Errorf("parse rating: %w", err)}
		}
		recording.Rating = &rating
	}
	if err := json.Unmarshal([]byte(creditsJSON), &recording.ArtistCredits); err != nil {
		return nil, payloadError{fmt.Errorf("parse artist credits: %w", err)}
	}
	if err := json.Unmarshal([]byte(releasesJSON), &recording.Releases); err != nil {
		return nil, payloadError{fmt.Errorf("parse releases: %w", err)}
	}
	recording = normalizeRecording(recording)

	return &RecordingResult{Recording: recording, CachedAt: cachedAt}, nil
}

// normalizeRecording replaces nil collections with empty ones, at every
// nesting level, so both the stored JSON and the value handed to callers are
// arrays rather than nulls.
func normalizeRecording(recording music.Recording) music.Recording {
	if recording.Artists == nil {
		recording.Artists = []string{}
	}
	if recording.ISRCs == nil {
		recording.ISRCs = []string{}
	}
	if recording.ArtistCredits == nil {
		recording.ArtistCredits = []music.ArtistCredit{}
	}
	if recording.Releases == nil {
		recording.Releases = []music.Release{}
	}
	releases := make([]music.Release, len(recording.Releases))
	for i, release := range recording.Releases {
		if release.Media == nil {
			release.Media = []music.Medium{}
		}
		media := make([]music.Medium, len(release.Media))
		for j, medium := range release.Media {
			if medium.Tracks == nil {
				medium.Tracks = []music.Track{}
			}
			media[j] = medium
		}
		release.Media = media
		releases[i] = release
	}
	recording.Releases = releases
	return recording
}
