package uploads

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"song.mp3":            "song.mp3",
		"my song (final).wav": "my_song__final_.wav",
		"../../etc/passwd":    ".._.._etc_passwd",
		"träck.flac":          "tr_ck.flac",
		"UPPER-case.Mp3":      "UPPER-case.Mp3",
	}

	for input, want := range cases {
		if got := SanitizeFilename(input); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildPath(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	got := BuildPath("user-1", "my track.mp3", now)
	want := "tracks/user-1/1700000000000_my_track.mp3"
	if got != want {
		t.Fatalf("BuildPath = %q, want %q", got, want)
	}
}
