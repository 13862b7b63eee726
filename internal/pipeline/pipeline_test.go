package pipeline

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

func TestOutputName(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := OutputName(filepath.Join("/tmp", "My Cool.Video.mp4"), now)
	if !strings.HasPrefix(got, "my-cool-video-edited-20260212-103045Z-") {
		t.Fatalf("unexpected output name format: %s", got)
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Fatalf("expected mp4 extension: %s", got)
	}
}

func TestOutputExt(t *testing.T) {
	tests := map[string]string{
		"talk.mp4": ".mp4",
		"talk.MOV": ".mp4",
		"talk.mp3": ".m4a",
		"talk.WAV": ".m4a",
		"talk":     ".mp4",
	}
	for in, want := range tests {
		if got := outputExt(in); got != want {
			t.Fatalf("outputExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestParseCategories(t *testing.T) {
	got, err := ParseCategories(" filler, Silence ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != types.CutFiller || got[1] != types.CutSilence {
		t.Fatalf("unexpected categories: %v", got)
	}

	if out, err := ParseCategories(""); err != nil || out != nil {
		t.Fatalf("empty list should mean all categories, got %v, %v", out, err)
	}

	if _, err := ParseCategories("filler,bogus"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		DeepgramAPIKey:  "dg",
		AnthropicAPIKey: "ant",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noDG := base
	noDG.DeepgramAPIKey = ""
	if err := noDG.Validate(); err == nil {
		t.Fatalf("expected error for missing deepgram key")
	}

	badURL := base
	badURL.AnthropicBaseURL = "http://api.anthropic.com"
	if err := badURL.Validate(); err == nil {
		t.Fatalf("expected error for plain-http base URL")
	}
}
