package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	serviceName = "watcher"

	// DefaultDebounce is how long the directory must stay quiet before a refresh.
	DefaultDebounce = 2 * time.Second
)

// RefreshFunc is called after the watched directory settles.
type RefreshFunc func() error

// Watcher watches one directory and calls a RefreshFunc after changes to
// package or preview files.
type Watcher struct {
	dir      string
	refresh  RefreshFunc
	debounce time.Duration
	exts     []string
	log      *slog.Logger

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	stopErr  error
	wg       sync.WaitGroup
}

// New creates a new Watcher instance.
func New(dir string, refresh RefreshFunc, log *slog.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if refresh == nil {
		return nil, fmt.Errorf("refresh func cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		dir:      dir,
		refresh:  refresh,
		debounce: DefaultDebounce,
		exts:     []string{".vpk", ".jpg"},
		log:      log.With(slog.String("service", serviceName)),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start subscribes to the directory and begins processing events.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}

	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.run()

	w.log.Info("Watching workshop directory", slog.String("dir", w.dir))
	return nil
}

// Stop halts the watcher. A pending refresh is dropped. Calling Stop again
// returns the result of the first call.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()

		if w.fsw != nil {
			w.stopErr = w.fsw.Close()
		}
	})
	return w.stopErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("Workshop change", slog.String("file", filepath.Base(ev.Name)), slog.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Filesystem watch error", slog.Any("error", err))

		case <-timer.C:
			if err := w.refresh(); err != nil {
				w.log.Error("Refresh after workshop change failed", slog.Any("error", err))
			}

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := strings.ToLower(ev.Name)
	for _, ext := range w.exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
