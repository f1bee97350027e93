// Package watch re-runs a callback when case files change on disk.
//
// It backs "bodhi complete --watch": the command re-reads its --file inputs
// and issues a fresh completion each time one of them is saved.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// ErrNoPaths is returned when there is nothing to watch.
var ErrNoPaths = errors.New("watch: no paths given")

// Options configures the watcher behavior.
type Options struct {
	Paths    []string                        // Files to watch
	Debounce time.Duration                   // Quiet period before OnChange fires
	OnChange func(ctx context.Context) error // Called once per settled change
	Logger   *slog.Logger
}

// Watcher watches a set of files and calls OnChange after they settle.
type Watcher struct {
	opts    Options
	files   map[string]bool
	dirs    []string
	watcher *fsnotify.Watcher
	ready   chan struct{}
}

// New validates opts and resolves the watched paths.
func New(opts Options) (*Watcher, error) {
	if len(opts.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		opts:  opts,
		files: make(map[string]bool, len(opts.Paths)),
		ready: make(chan struct{}),
	}

	seenDirs := make(map[string]bool)
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		w.files[abs] = true

		// Directories are watched instead of files so that editors which
		// save by rename keep triggering events.
		dir := filepath.Dir(abs)
		if !seenDirs[dir] {
			seenDirs[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	return w, nil
}

// Run watches until ctx is cancelled. Errors from OnChange are logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer w.watcher.Close()

	close(w.ready)
	return w.watch(ctx)
}

// setupWatcher initializes the fsnotify watcher.
func (w *Watcher) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
	}

	return nil
}

// watch monitors the directories and fires OnChange after each quiet period.
func (w *Watcher) watch(ctx context.Context) error {
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			if w.relevant(event) {
				w.opts.Logger.Debug("case file changed", "path", event.Name, "op", event.Op.String())
				timer.Reset(w.opts.Debounce)
			}

		case <-timer.C:
			if err := w.opts.OnChange(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.opts.Logger.Warn("change handler failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// relevant reports whether event touches a watched file with a content change.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !w.files[filepath.Clean(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
