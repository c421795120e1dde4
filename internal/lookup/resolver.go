package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cadence/internal/logging"
	"cadence/internal/music"
	"cadence/internal/musiccache"
)

// FingerprintClient identifies an audio fingerprint, returning candidate
// recordings with match scores.
type FingerprintClient interface {
	Identify(ctx context.Context, fingerprint string, duration int) ([]music.Candidate, error)
}

// RecordingClient fetches full metadata for one recording ID.
type RecordingClient interface {
	RecordingByID(ctx context.Context, id string) (*music.Recording, error)
}

// ErrNoMatch is returned when identification produces no candidate at or
// above the requested score.
var ErrNoMatch = errors.New("no matching recording")

// Resolver answers fingerprint and recording lookups cache-first.
type Resolver struct {
	store        *musiccache.Store
	fingerprints FingerprintClient
	recordings   RecordingClient
	logger       *slog.Logger
}

// NewResolver wires a resolver over the cache store and the two services.
func NewResolver(store *musiccache.Store, fingerprints FingerprintClient, recordings RecordingClient, logger *slog.Logger) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("resolver requires a cache store")
	}
	if fingerprints == nil || recordings == nil {
		return nil, errors.New("resolver requires fingerprint and recording clients")
	}
	return &Resolver{
		store:        store,
		fingerprints: fingerprints,
		recordings:   recordings,
		logger:       logging.NewComponentLogger(logger, "lookup"),
	}, nil
}

// IdentifyFingerprint returns the candidate recordings for one fingerprint
// observation, from cache when fresh, otherwise from the identification
// service.
func (r *Resolver) IdentifyFingerprint(ctx context.Context, fingerprint string, duration int) ([]music.Candidate, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, errors.New("fingerprint is empty")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", duration)
	}

	if cached, ok := r.store.LookupFingerprint(ctx, fingerprint, duration); ok {
		r.logger.Debug("fingerprint cache hit",
			logging.String("fingerprint", fingerprint),
			logging.Int("duration", duration),
			logging.Int("candidates", len(cached.Candidates)))
		return cached.Candidates, nil
	}

	candidates, err := r.fingerprints.Identify(ctx, fingerprint, duration)
	if err != nil {
		return nil, fmt.Errorf("identify fingerprint: %w", err)
	}
	r.store.StoreFingerprint(ctx, fingerprint, duration, candidates)
	return candidates, nil
}

// Recording returns the metadata for one recording ID, from cache when
// fresh, otherwise from the metadata service.
func (r *Resolver) Recording(ctx context.Context, rawID string) (*music.Recording, error) {
	id, err := music.CanonicalRecordingID(rawID)
	if err != nil {
		return nil, err
	}

	if cached, ok := r.store.LookupRecording(ctx, id); ok {
		r.logger.Debug("recording cache hit", logging.String("recording_id", id))
		recording := cached.Recording
		return &recording, nil
	}

	recording, err := r.recordings.RecordingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch recording %s: %w", id, err)
	}
	if recording == nil {
		return nil, fmt.Errorf("fetch recording %s: service returned nothing", id)
	}
	r.store.StoreRecording(ctx, recording)
	return recording, nil
}

// BestRecording identifies a fingerprint and resolves the highest-scoring
// candidate at or above minScore. Candidate order in the cache is service
// order; ranking happens here.
func (r *Resolver) BestRecording(ctx context.Context, fingerprint string, duration int, minScore float64) (*music.Recording, error) {
	candidates, err := r.IdentifyFingerprint(ctx, fingerprint, duration)
	if err != nil {
		return nil, err
	}

	best := -1
	for i, candidate := range candidates {
		if candidate.Score < minScore {
			continue
		}
		if best < 0 || candidate.Score > candidates[best].Score {
			best = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("%w: %d candidates below score %.2f", ErrNoMatch, len(candidates), minScore)
	}

	return r.Recording(ctx, candidates[best].RecordingID)
}
