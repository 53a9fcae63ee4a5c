package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called with the freshly loaded configuration whenever the
// watched file changes and parses cleanly. A returned error keeps the
// previous configuration active.
type ReloadFunc func(cfg *Config) error

// Watcher monitors the configuration file and triggers reloads on change.
// Writes are debounced so editors that truncate-then-write do not cause a
// reload storm, and a file that fails to parse or validate leaves the
// last-known-good configuration in place.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for the configuration file at path. A zero
// debounce defaults to 200ms.
func NewWatcher(path string, debounce time.Duration, reload ReloadFunc) *Watcher {
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		reload:   reload,
		stopCh:   make(chan struct{}),
	}
}

// Watch blocks processing file events until the context is cancelled or
// Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("config watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory rather than the file itself so atomic
	// rename-into-place saves are observed.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.stopCh:
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.tryReload()

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Watch errors are transient; the loop keeps going.
			_ = err
		}
	}
}

// Stop terminates a running Watch. The stop channel is closed exactly once
// and never replaced, so the signal cannot be lost between select
// iterations. A stopped watcher stays stopped; create a new one to watch
// again.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// tryReload loads the file and hands it to the callback; any failure keeps
// the previous configuration.
func (w *Watcher) tryReload() {
	cfg, err := LoadConfigWithEnvOverrides(w.path)
	if err != nil {
		return
	}
	_ = w.reload(cfg)
}
