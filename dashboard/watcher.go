package dashboard

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for more changes.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a rebuild function after changes under a data directory
// settle for the debounce delay.
type Watcher struct {
	dir      string
	debounce time.Duration
	rebuild  func(context.Context) error
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// NewWatcher watches dir and every directory below it, skipping hidden ones.
func NewWatcher(dir string, debounce time.Duration, rebuild func(context.Context) error, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{dir: dir, debounce: debounce, rebuild: rebuild, watcher: fsw, logger: logger}
	if err := w.addWatchesRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
			return nil
		}
		w.logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// Run processes events until ctx is canceled, then releases the watcher.
// Rebuild failures are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer  *time.Timer
		settle <-chan time.Time
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
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("data change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settle = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-settle:
			settle = nil
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("rebuild after change failed", zap.Error(err))
				continue
			}
			w.logger.Info("dashboard rebuilt after data change")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if event.Has(fsnotify.Create) {
		if err := w.addWatchesRecursive(event.Name); err != nil {
			w.logger.Debug("could not watch new path", zap.String("path", event.Name), zap.Error(err))
		}
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
