// Package watcher provides fsnotify-based watching of the scenario seed file.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// SeedWatcher watches the scenario seed file and invokes a callback after
// changes settle. The parent directory is watched rather than the file
// itself, since editors commonly replace files via rename.
type SeedWatcher struct {
	seedPath string
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a SeedWatcher.
type Option func(*SeedWatcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *SeedWatcher) { w.logger = l }
}

// WithDebounce overrides the settle window before onChange fires.
func WithDebounce(d time.Duration) Option {
	return func(w *SeedWatcher) { w.debounce = d }
}

// NewSeedWatcher creates a watcher for seedPath. onChange receives the seed
// path after a change settles.
func NewSeedWatcher(seedPath string, onChange func(path string), opts ...Option) *SeedWatcher {
	w := &SeedWatcher{
		seedPath: filepath.Clean(seedPath),
		onChange: onChange,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *SeedWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.seedPath)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("seed watcher starting", zap.String("seed_path", w.seedPath))
	go w.run(ctx)
	return nil
}

func (w *SeedWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("seed watcher error", zap.Error(err))
			}
		}
	}
}

func (w *SeedWatcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.seedPath {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("seed watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.scheduleChange()
}

// scheduleChange resets the settle timer so a burst of writes produces a
// single callback.
func (w *SeedWatcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Debug("seed file changed (debounced)", zap.String("path", w.seedPath))
		if w.onChange != nil {
			w.onChange(w.seedPath)
		}
	})
}

// Stop stops the watcher and releases resources.
func (w *SeedWatcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
