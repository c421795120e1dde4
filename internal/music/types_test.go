package music_test

import (
	"testing"

	"cadence/internal/music"
)

func TestCanonicalRecordingID(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase passthrough", "b1a9c0e9-d987-4042-ae91-78d6a3267d69", "b1a9c0e9-d987-4042-ae91-78d6a3267d69", false},
		{"uppercase normalized", "B1A9C0E9-D987-4042-AE91-78D6A3267D69", "b1a9c0e9-d987-4042-ae91-78d6a3267d69", false},
		{"surrounding whitespace", "  b1a9c0e9-d987-4042-ae91-78d6a3267d69\n", "b1a9c0e9-d987-4042-ae91-78d6a3267d69", false},
		{"empty", "", "", true},
		{"garbage", "not-a-valid-id", "", true},
		{"truncated", "b1a9c0e9-d987-4042", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := music.CanonicalRecordingID(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalRecordingID(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCreditString(t *testing.T) {
	credits := []music.ArtistCredit{
		{Name: "First Artist", JoinPhrase: " feat. "},
		{Name: "Second Artist", JoinPhrase: " & "},
		{Name: "Third Artist"},
	}
	if got := music.CreditString(credits); got != "First Artist feat. Second Artist & Third Artist" {
		t.Fatalf("unexpected credit string: %q", got)
	}
	if got := music.CreditString(nil); got != "" {
		t.Fatalf("expected empty credit string, got %q", got)
	}
}
