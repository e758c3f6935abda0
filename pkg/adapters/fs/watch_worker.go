package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/fabianshop/storefront/pkg/core"
)

// debounceWindow coalesces the burst of events a single write produces.
const debounceWindow = 50 * time.Millisecond

type watchWorker struct {
	repo    *Repository
	file    string
	events  chan<- core.Event
	watcher *fsnotify.Watcher
}

// Watch emits an event whenever the catalog file changes outside this
// process. Writes made through CommitCatalog are not reported.
// The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// The directory is watched because atomic writes replace the file inode.
	if err := watcher.Add(filepath.Dir(r.File())); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.config.File, err)
	}

	events := make(chan core.Event, 8)
	w := &watchWorker{
		repo:    r,
		file:    filepath.Clean(r.File()),
		events:  events,
		watcher: watcher,
	}
	r.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(fmt.Errorf("watcher: %w", err))
			return
		}
		r.config.Logger.Error("watcher stopped", "error", err)
	}))

	return events, nil
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			}
		}
	}()
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.file || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if e, ok := w.settle(); ok {
				select {
				case w.events <- e:
				case <-ctx.Done():
					return nil
				}
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(wErr)
			}
		}
	}
}

// settle inspects the file once the burst is over and maps it to an event.
func (w *watchWorker) settle() (core.Event, bool) {
	now := time.Now().Unix()
	content, err := w.repo.read()
	if errors.Is(err, core.ErrCatalogNotFound) {
		return core.Event{Type: core.EventDelete, Path: w.repo.config.File, Timestamp: now}, true
	}
	if err != nil {
		w.repo.config.Logger.Warn("failed to read catalog after change", "error", err)
		return core.Event{}, false
	}
	if w.repo.ownWrite(core.VersionOf(content)) {
		return core.Event{}, false
	}
	return core.Event{Type: core.EventModify, Path: w.repo.config.File, Timestamp: now}, true
}
