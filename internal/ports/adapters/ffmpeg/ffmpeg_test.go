package ffmpeg

import (
	"strings"
	"testing"
	"time"
)

func TestConcatList(t *testing.T) {
	t.Parallel()

	got := ConcatList([]string{"/tmp/a/part-001.mp4", "/tmp/a/part-002.mp4"})
	want := "file '/tmp/a/part-001.mp4'\nfile '/tmp/a/part-002.mp4'\n"
	if got != want {
		t.Fatalf("ConcatList = %q, want %q", got, want)
	}
}

func TestConcatList_EscapesSingleQuotes(t *testing.T) {
	t.Parallel()

	got := ConcatList([]string{"/tmp/it's here/part-001.mp4"})
	if strings.Contains(got, "it's") {
		t.Fatalf("expected quote to be escaped, got %q", got)
	}
	if !strings.Contains(got, `it'\''s`) {
		t.Fatalf("unexpected escaping: %q", got)
	}
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	tests := map[time.Duration]string{
		0:                       "0.000",
		1500 * time.Millisecond: "1.500",
		time.Minute + 240*time.Millisecond: "60.240",
	}
	for in, want := range tests {
		if got := fmtSeconds(in); got != want {
			t.Fatalf("fmtSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPartExt(t *testing.T) {
	t.Parallel()

	if got := partExt(true); got != ".mp4" {
		t.Fatalf("video part ext = %q", got)
	}
	if got := partExt(false); got != ".m4a" {
		t.Fatalf("audio part ext = %q", got)
	}
}
