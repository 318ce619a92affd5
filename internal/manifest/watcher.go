package manifest

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-discovers widgets when manifests change on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	dir     string

	mu       sync.Mutex
	onChange func([]Manifest)
	done     chan struct{}
	running  bool
}

// NewWatcher creates a watcher over the widgets directory.
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		logger:  logger,
		dir:     dir,
		done:    make(chan struct{}),
	}, nil
}

// SetChangeCallback sets the callback invoked with the freshly discovered
// manifest set after any manifest change.
func (w *Watcher) SetChangeCallback(fn func([]Manifest)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching the widgets directory and every widget directory
// inside it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	// Manifest writes land inside widget subdirectories.
	if entries, err := os.ReadDir(w.dir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				_ = w.watcher.Add(filepath.Join(w.dir, entry.Name()))
			}
		}
	}

	go w.watch()
	w.logger.Debug("manifest watcher started", "dir", w.dir)
	return nil
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && filepath.Base(event.Name) != FileName {
				// A new widget directory appeared; follow it.
				_ = w.watcher.Add(event.Name)
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			w.rediscover()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("manifest watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) rediscover() {
	manifests, err := Discover(w.dir, w.logger)
	if err != nil {
		w.logger.Warn("widget rediscovery failed", "error", err)
		return
	}

	w.mu.Lock()
	onChange := w.onChange
	w.mu.Unlock()

	w.logger.Info("widgets rediscovered", "count", len(manifests))
	if onChange != nil {
		onChange(manifests)
	}
}

// Stop halts the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}
