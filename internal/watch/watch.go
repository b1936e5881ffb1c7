package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/source"
)

const defaultDebounce = 500 * time.Millisecond

// Handler is called once per settled capture file, never concurrently.
type Handler func(ctx context.Context, path string)

type Watcher struct {
	dir      string
	handler  Handler
	logger   *zap.Logger
	debounce time.Duration
	tick     time.Duration
}

func New(dir string, handler Handler, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		handler:  handler,
		logger:   logger.Named("watch"),
		debounce: defaultDebounce,
		tick:     100 * time.Millisecond,
	}
}

// WithDebounce sets how long a file must stay quiet before it is handled.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	if d/5 < w.tick {
		w.tick = max(d/5, time.Millisecond)
	}
	return w
}

// Run blocks until ctx is done. ready, when non-nil, is closed once the
// directory is being watched.
func (w *Watcher) Run(ctx context.Context, ready chan<- struct{}) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching", zap.String("dir", w.dir))
	if ready != nil {
		close(ready)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !source.IsCapture(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.logger.Debug("event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pending[filepath.Clean(event.Name)] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			var due []string
			for path, at := range pending {
				if now.Sub(at) >= w.debounce {
					due = append(due, path)
				}
			}
			sort.Strings(due)
			for _, path := range due {
				delete(pending, path)
				w.handler(ctx, path)
			}
		}
	}
}
