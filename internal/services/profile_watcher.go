package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
)

// ProfileWatcher reloads rule profiles when their file changes on disk.
// A file that fails to load or validate is logged and the active profiles
// are kept.
type ProfileWatcher struct {
	path           string
	classification ClassificationService
	logger         logger.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// NewProfileWatcher watches path for changes. The containing directory is
// watched so editors that replace the file by rename are picked up.
func NewProfileWatcher(path string, classification ClassificationService, log logger.Logger) (*ProfileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create profile watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &ProfileWatcher{
		path:           abs,
		classification: classification,
		logger:         log,
		watcher:        watcher,
		done:           make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is cancelled or Close is called
func (w *ProfileWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.Reload(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Profile watcher error", err, "path", w.path)
		}
	}
}

// Reload loads the file once and activates it when valid
func (w *ProfileWatcher) Reload(ctx context.Context) error {
	profiles, err := scoring.LoadProfiles(w.path)
	if err != nil {
		w.logger.Error("Keeping previous rule profiles", err, "path", w.path)
		return err
	}
	if err := w.classification.ReloadProfiles(ctx, profiles); err != nil {
		w.logger.Error("Keeping previous rule profiles", err, "path", w.path)
		return err
	}
	return nil
}

// Close stops the watcher
func (w *ProfileWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
