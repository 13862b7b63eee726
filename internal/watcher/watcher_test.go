package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsMediaFile(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.mp4":     true,
		"b.MOV":     true,
		"c.wav":     true,
		"d.txt":     false,
		"e.mp4.tmp": false,
		"noext":     false,
	}
	for in, want := range tests {
		if got := IsMediaFile(in); got != want {
			t.Fatalf("IsMediaFile(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWatcher_HandlesNewMediaFile(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []string
	w, err := New(dir, 2, nil, func(_ context.Context, path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	w.settleDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write non-media: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("handler was not invoked for new media file")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected stop error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher did not stop on cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected exactly the media file, got %v", seen)
	}
	if filepath.Base(seen[0]) != "clip.mp4" {
		t.Fatalf("unexpected file handled: %v", seen)
	}
}
