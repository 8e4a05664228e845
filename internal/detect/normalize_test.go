package detect_test

import (
	"testing"

	"github.com/finboard/recurring-go/internal/detect"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "SPOTIFY USA", "spotify usa"},
		{"strips noise tokens", "NETFLIX.COM Recurring Payment", "netflix com"},
		{"strips punctuation and digits", "AMZN*PRIME 4099-XK21", "amzn prime xk"},
		{"collapses whitespace", "  gym   membership  ", "gym membership"},
		{"noise tokens are whole words only", "creditor services", "creditor services"},
		{"all noise becomes empty", "POS DEBIT CARD PAYMENT", ""},
		{"empty input", "", ""},
		{"only punctuation", "***1234***", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := detect.Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	if got := detect.TitleCase("spotify usa"); got != "Spotify Usa" {
		t.Errorf("expected 'Spotify Usa', got %q", got)
	}
	if got := detect.TitleCase(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
