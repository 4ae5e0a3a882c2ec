package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls back when watched files change. It watches the parent
// directories so files replaced by rename are still seen. Callbacks run
// on a timer goroutine.
type Watcher struct {
	logger *zap.Logger
	fs     *fsnotify.Watcher
	delay  time.Duration

	mu     sync.Mutex
	files  map[string]func()
	dirs   map[string]bool
	timers map[string]*time.Timer

	stopCh chan struct{}
	done   chan struct{}
	once   sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a callback fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.delay = d }
}

// NewWatcher starts an idle watcher.
func NewWatcher(logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		logger: logger,
		fs:     fsw,
		delay:  DefaultDebounce,
		files:  make(map[string]func()),
		dirs:   make(map[string]bool),
		timers: make(map[string]*time.Timer),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Watch registers onChange for path, replacing any earlier callback.
func (w *Watcher) Watch(path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = onChange
	w.logger.Debug("Watching file", zap.String("path", abs))
	return nil
}

// WatchConfig reloads the config at path on every change and hands valid
// results to apply. Invalid files are logged and skipped.
func (w *Watcher) WatchConfig(path string, apply func(Config)) error {
	return w.Watch(path, func() {
		cfg, err := Load(path)
		if err != nil {
			w.logger.Error("Invalid configuration after reload", zap.String("file", path), zap.Error(err))
			return
		}
		w.logger.Info("Configuration reloaded", zap.String("file", path))
		apply(cfg)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(filepath.Clean(event.Name), event.Op)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) schedule(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fn, ok := w.files[path]
	if !ok {
		return
	}
	w.logger.Debug("File changed", zap.String("file", path), zap.String("operation", op.String()))

	if t := w.timers[path]; t != nil {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.delay, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		fn()
	})
}

// Stop ends the watch loop and cancels pending callbacks.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.fs.Close()
		<-w.done

		w.mu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.mu.Unlock()
	})
}
