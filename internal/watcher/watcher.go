package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/forPelevin/cleancut/internal/logger"
)

// Handler processes one newly arrived media file.
type Handler func(ctx context.Context, path string)

// Watcher monitors a directory and feeds new media files to the handler,
// bounded by a concurrency limit so a batch drop does not start an ffmpeg
// process per file at once.
type Watcher struct {
	inputDir string
	handler  Handler
	log      logger.Logger
	fs       *fsnotify.Watcher
	sem      chan struct{}
	wg       sync.WaitGroup

	// settleDelay gives the writer time to finish before the file is read.
	settleDelay time.Duration
}

func New(inputDir string, maxConcurrent int, log logger.Logger, handler Handler) (*Watcher, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(inputDir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", inputDir, err)
	}
	return &Watcher{
		inputDir:    inputDir,
		handler:     handler,
		log:         log,
		fs:          fs,
		sem:         make(chan struct{}, maxConcurrent),
		settleDelay: 500 * time.Millisecond,
	}, nil
}

// Start blocks until the context is cancelled, draining in-flight work
// before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info(ctx, "watching %s (max concurrent: %d)", w.inputDir, cap(w.sem))

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "waiting for in-flight files to finish")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create || !IsMediaFile(event.Name) {
				continue
			}
			w.log.Info(ctx, "new media file: %s", event.Name)
			time.Sleep(w.settleDelay)

			select {
			case w.sem <- struct{}{}:
				w.wg.Add(1)
				go func(path string) {
					defer w.wg.Done()
					defer func() { <-w.sem }()
					w.handler(ctx, path)
				}(event.Name)
			case <-ctx.Done():
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Error(ctx, "watch error: %v", err)
		}
	}
}

func (w *Watcher) Close() error { return w.fs.Close() }

var mediaExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {}, ".m4v": {},
	".mp3": {}, ".wav": {}, ".m4a": {}, ".aac": {}, ".flac": {}, ".ogg": {},
}

func IsMediaFile(name string) bool {
	_, ok := mediaExts[strings.ToLower(filepath.Ext(name))]
	return ok
}
