package lookup_test

import (
	"context"
	"errors"
	"testing"

	"cadence/internal/logging"
	"cadence/internal/lookup"
	"cadence/internal/music"
	"cadence/internal/testsupport"
)

const (
	resolverRecordingID = "5a7bf7ad-07d2-46b6-9e8f-3f52e52234d5"
	weakRecordingID     = "0e7f24d4-8b48-4a62-9a24-ab1b6b2dbd28"
)

type fakeFingerprintClient struct {
	calls      int
	candidates []music.Candidate
	err        error
}

func (f *fakeFingerprintClient) Identify(_ context.Context, _ string, _ int) ([]music.Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

type fakeRecordingClient struct {
	calls      int
	recordings map[string]*music.Recording
	err        error
}

func (f *fakeRecordingClient) RecordingByID(_ context.Context, id string) (*music.Recording, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.recordings[id], nil
}

func newResolver(t *testing.T, fp *fakeFingerprintClient, rec *fakeRecordingClient) *lookup.Resolver {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	resolver, err := lookup.NewResolver(store, fp, rec, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func TestIdentifyFingerprintCallsServiceOnce(t *testing.T) {
	fp := &fakeFingerprintClient{candidates: []music.Candidate{{RecordingID: resolverRecordingID, Score: 0.95}}}
	resolver := newResolver(t, fp, &fakeRecordingClient{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		candidates, err := resolver.IdentifyFingerprint(ctx, "AB12", 180)
		if err != nil {
			t.Fatalf("IdentifyFingerprint: %v", err)
		}
		if len(candidates) != 1 || candidates[0].Score != 0.95 {
			t.Fatalf("unexpected candidates: %+v", candidates)
		}
	}
	if fp.calls != 1 {
		t.Fatalf("expected one service call across repeated lookups, got %d", fp.calls)
	}
}

func TestIdentifyFingerprintPropagatesServiceError(t *testing.T) {
	wantErr := errors.New("rate limited")
	fp := &fakeFingerprintClient{err: wantErr}
	resolver := newResolver(t, fp, &fakeRecordingClient{})

	if _, err := resolver.IdentifyFingerprint(context.Background(), "AB12", 180); !errors.Is(err, wantErr) {
		t.Fatalf("expected service error to propagate, got %v", err)
	}
}

func TestRecordingCachesAcrossCalls(t *testing.T) {
	rec := &fakeRecordingClient{recordings: map[string]*music.Recording{
		resolverRecordingID: {ID: resolverRecordingID, Title: "Song", Artist: "Artist"},
	}}
	resolver := newResolver(t, &fakeFingerprintClient{}, rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		recording, err := resolver.Recording(ctx, resolverRecordingID)
		if err != nil {
			t.Fatalf("Recording: %v", err)
		}
		if recording.Title != "Song" {
			t.Fatalf("unexpected recording: %+v", recording)
		}
	}
	if rec.calls != 1 {
		t.Fatalf("expected one service call across repeated lookups, got %d", rec.calls)
	}
}

func TestRecordingRejectsMalformedID(t *testing.T) {
	rec := &fakeRecordingClient{}
	resolver := newResolver(t, &fakeFingerprintClient{}, rec)

	if _, err := resolver.Recording(context.Background(), "not-a-valid-id"); err == nil {
		t.Fatal("expected error for malformed recording id")
	}
	if rec.calls != 0 {
		t.Fatalf("malformed id must not reach the service, got %d calls", rec.calls)
	}
}

func TestBestRecordingPicksHighestScore(t *testing.T) {
	fp := &fakeFingerprintClient{candidates: []music.Candidate{
		{RecordingID: weakRecordingID, Score: 0.40},
		{RecordingID: resolverRecordingID, Score: 0.95},
	}}
	rec := &fakeRecordingClient{recordings: map[string]*music.Recording{
		resolverRecordingID: {ID: resolverRecordingID, Title: "Strong Match", Artist: "Artist"},
		weakRecordingID:     {ID: weakRecordingID, Title: "Weak Match", Artist: "Artist"},
	}}
	resolver := newResolver(t, fp, rec)

	recording, err := resolver.BestRecording(context.Background(), "AB12", 180, 0.5)
	if err != nil {
		t.Fatalf("BestRecording: %v", err)
	}
	if recording.Title != "Strong Match" {
		t.Fatalf("expected highest-scoring candidate, got %+v", recording)
	}
}

func TestBestRecordingNoMatch(t *testing.T) {
	fp := &fakeFingerprintClient{candidates: []music.Candidate{
		{RecordingID: weakRecordingID, Score: 0.40},
	}}
	resolver := newResolver(t, fp, &fakeRecordingClient{})

	_, err := resolver.BestRecording(context.Background(), "AB12", 180, 0.9)
	if !errors.Is(err, lookup.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}
