package confloader

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// Watcher watches configuration files for changes.
type Watcher struct {
	watcher   *fsnotify.Watcher
	files     map[string]struct{}
	callbacks []func(string)
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
	logger    logger.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		files:   make(map[string]struct{}),
		done:    make(chan struct{}),
		logger:  logger.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch adds a file to watch.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	// Watch the directory, not the file, to catch editors that replace the
	// file by renaming a temporary one over it.
	dir := filepath.Dir(path)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error("config_watch_failed", "path", dir, "error", err.Error())
		return err
	}

	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("config_watch_started", "path", dir, "file", filepath.Base(path))
	return nil
}

// OnChange registers a callback to be called when a watched file changes.
// The callback receives the path of the changed file.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start starts watching for changes.
// This function blocks until Stop() is called.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.watching(event.Name) {
				continue
			}
			w.logger.Debug("config_file_changed", "file", event.Name, "op", event.Op.String())
			w.notifyCallbacks(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config_watcher_error", "error", err.Error())
		case <-w.done:
			return
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watching(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[filepath.Clean(name)]
	return ok
}

// notifyCallbacks calls all registered callbacks.
func (w *Watcher) notifyCallbacks(path string) {
	w.mu.RLock()
	callbacks := append([]func(string){}, w.callbacks...)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(path)
	}
}
