package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher re-ingests posts as they change on disk. Events are debounced per
// file so editors that write in bursts trigger a single ingest.
type Watcher struct {
	pipeline *Pipeline
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	debounceMap map[string]*time.Timer
}

// NewWatcher creates a watcher that feeds changed markdown files into the
// ingestion pipeline.
func NewWatcher(pipeline *Pipeline, root string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pipeline:    pipeline,
		root:        root,
		debounce:    defaultDebounce,
		logger:      logger,
		debounceMap: make(map[string]*time.Timer),
	}
}

// Run watches the content tree until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("watching content directory", "dir", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			if err := addTree(watcher, ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
			}
			return
		}
		if isMarkdown(ev.Name) {
			w.debounceIngest(ctx, ev.Name)
		}
	}
}

// debounceIngest schedules an ingest of path after the debounce window,
// resetting the timer if the file keeps changing.
func (w *Watcher) debounceIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		if err := w.pipeline.ProcessPath(ctx, path); err != nil {
			w.logger.Error("failed to ingest changed post", "file", path, "error", err)
			return
		}
		w.logger.Info("ingested changed post", "file", path)
	})
}

// addTree registers a directory and all its subdirectories with the watcher.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
