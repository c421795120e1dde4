package musiccache

import (
	"time"

	"cadence/internal/music"
)

// FingerprintResult is a cached fingerprint identification: the candidate
// recordings the identification service returned for one (fingerprint,
// duration) observation. Candidates keep service order; ranking them is a
// presentation concern.
type FingerprintResult struct {
	Fingerprint string
	Duration    int
	Candidates  []music.Candidate
	CachedAt    time.Time
}

// RecordingResult is a cached recording-metadata lookup.
type RecordingResult struct {
	Recording music.Recording
	CachedAt  time.Time
}

// Stats summarizes cache contents for diagnostics.
type Stats struct {
	Fingerprints      int64
	StaleFingerprints int64
	Recordings        int64
	StaleRecordings   int64
}

// RecordingSummary is one row of `cadence cache list` output.
type RecordingSummary struct {
	RecordingID string
	Title       string
	Artist      string
	Album       string
	CachedAt    time.Time
}
