package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResponse = `{
	"metadata": {"duration": 4.2},
	"results": {"channels": [{"alternatives": [{
		"transcript": "Hello um this is a test.",
		"words": [
			{"word": "hello", "start": 0.1, "end": 0.5, "confidence": 0.99},
			{"word": "um", "start": 0.6, "end": 0.8, "confidence": 0.91},
			{"word": "this", "start": 0.75, "end": 1.1, "confidence": 0.98},
			{"word": "is", "start": 1.2, "end": 1.3, "confidence": 0.97},
			{"word": "a", "start": 1.4, "end": 1.4, "confidence": 0.8},
			{"word": "test.", "start": 1.5, "end": 2.0, "confidence": 0.96}
		]
	}]}]}
}`

func writeTempAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(p, []byte("not-really-audio"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return p
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	a := New("dg-secret", "", srv.URL)
	tr, err := a.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if gotAuth != "Token dg-secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotContentType != "audio/mpeg" {
		t.Fatalf("unexpected content type: %q", gotContentType)
	}
	for _, param := range []string{"model=nova-2", "filler_words=true", "smart_format=true"} {
		if !strings.Contains(gotQuery, param) {
			t.Fatalf("query %q missing %q", gotQuery, param)
		}
	}

	if tr.Duration != dur(4.2) {
		t.Fatalf("duration = %v, want 4.2s", tr.Duration)
	}
	// "a" has zero length and is skipped.
	if len(tr.Words) != 5 {
		t.Fatalf("expected 5 words, got %d: %v", len(tr.Words), tr.Words)
	}
	if !tr.Words[1].Filler {
		t.Fatalf("expected %q to be flagged as filler", tr.Words[1].Text)
	}
	if tr.Words[0].Filler {
		t.Fatalf("did not expect %q to be flagged as filler", tr.Words[0].Text)
	}
	for i := 1; i < len(tr.Words); i++ {
		if tr.Words[i-1].End > tr.Words[i].Start {
			t.Fatalf("words %d and %d overlap: %v %v", i-1, i, tr.Words[i-1], tr.Words[i])
		}
	}
}

func TestTranscribe_ErrorStatusRedactsKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"bad key dg-secret"}`))
	}))
	defer srv.Close()

	a := New("dg-secret", "", srv.URL)
	_, err := a.Transcribe(context.Background(), writeTempAudio(t))
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "dg-secret") {
		t.Fatalf("api key leaked into error: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got: %v", err)
	}
}

func TestTranscribe_EmptyAlternatives(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	a := New("k", "", srv.URL)
	if _, err := a.Transcribe(context.Background(), writeTempAudio(t)); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestToTranscript_DurationFallsBackToLastWord(t *testing.T) {
	t.Parallel()

	var raw listenResponse
	payload := `{"results":{"channels":[{"alternatives":[{"words":[
		{"word":"hi","start":0.2,"end":0.9,"confidence":0.9}
	]}]}]}}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	tr, err := toTranscript(raw)
	if err != nil {
		t.Fatalf("toTranscript: %v", err)
	}
	if tr.Duration != dur(0.9) {
		t.Fatalf("duration = %v, want last word end", tr.Duration)
	}
}

func TestIsFiller(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"um":     true,
		"Um,":    true,
		"uh-huh": true,
		"hello":  false,
		"drum":   false,
	}
	for in, want := range tests {
		if got := isFiller(in); got != want {
			t.Fatalf("isFiller(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.mp3":  "audio/mpeg",
		"b.WAV":  "audio/wav",
		"c.mp4":  "video/mp4",
		"d.mkv":  "application/octet-stream",
		"noext":  "application/octet-stream",
	}
	for in, want := range tests {
		if got := contentType(in); got != want {
			t.Fatalf("contentType(%q) = %q, want %q", in, got, want)
		}
	}
}
