package artifacts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher rebuilds the whole bundle when one of the configured files
// changes. A failed rebuild keeps the previous bundle.
type Watcher struct {
	cfg      Config
	logger   *zap.Logger
	debounce time.Duration

	// OnReload receives each successfully rebuilt bundle.
	OnReload func(*Bundle)
	// OnError receives rebuild failures.
	OnError func(error)
}

// NewWatcher creates a watcher for cfg's files.
func NewWatcher(cfg Config, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{cfg: cfg, logger: logger, debounce: 500 * time.Millisecond}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Editors and export scripts replace files, so watch the directories.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range w.cfg.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	w.logger.Info("watching artifacts", zap.Int("files", len(watched)), zap.Int("dirs", len(dirs)))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !watched[ev.Name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug("artifact changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	b, err := Load(w.cfg)
	if err != nil {
		w.logger.Error("artifact reload failed, keeping current bundle", zap.Error(err))
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}
	w.logger.Info("artifacts reloaded")
	if w.OnReload != nil {
		w.OnReload(b)
	}
}
