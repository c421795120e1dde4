package music

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Candidate is one recording suggested by the fingerprint identification
// service, with its match score in [0, 1].
type Candidate struct {
	RecordingID string  `json:"recording_id"`
	Score       float64 `json:"score"`
}

// ArtistCredit is one element of a recording's artist credit. JoinPhrase is
// the connective text that follows the name ("feat.", " & ", "") when
// rendering the full credit.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"join_phrase"`
}

// Rating is a user rating aggregated by the metadata service.
type Rating struct {
	Value float64 `json:"value"`
	Votes int     `json:"votes"`
}

// Track is one track on a release medium.
type Track struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Number       string `json:"number"`
	LengthMillis int64  `json:"length_millis"`
	RecordingID  string `json:"recording_id"`
}

// Medium is one disc or side within a release.
type Medium struct {
	Format     string  `json:"format"`
	TrackCount int     `json:"track_count"`
	Tracks     []Track `json:"tracks"`
}

// Release is one published release containing the recording.
type Release struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	Status      string   `json:"status"`
	Barcode     string   `json:"barcode"`
	CountryCode string   `json:"country_code"`
	Media       []Medium `json:"media"`
}

// Recording is the full metadata for one recording as returned by the
// metadata service. Optional scalar fields are pointers so that "known
// absent" survives a cache round trip distinct from "never looked up".
type Recording struct {
	ID             string
	Title          string
	Artist         string
	Artists        []string
	Album          *string
	ReleaseDate    *string
	Disambiguation *string
	ISRCs          []string
	Rating         *Rating
	ArtistCredits  []ArtistCredit
	Releases       []Release
}

// CanonicalRecordingID normalizes a raw recording identifier to its canonical
// textual form: the lowercase dashed UUID rendering. It rejects anything that
// does not parse as a UUID.
func CanonicalRecordingID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("recording id is empty")
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse recording id %q: %w", trimmed, err)
	}
	return id.String(), nil
}

// CreditString renders an artist credit list as display text, honoring each
// element's join phrase.
func CreditString(credits []ArtistCredit) string {
	var b strings.Builder
	for _, credit := range credits {
		b.WriteString(credit.Name)
		b.WriteString(credit.JoinPhrase)
	}
	return b.String()
}
