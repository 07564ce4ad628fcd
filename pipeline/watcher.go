package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"newsletter-agent/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange after the content file is written. Rapid saves are
// collapsed into one call.
type Watcher struct {
	ContentPath string
	Debounce    time.Duration
	OnChange    func(ctx context.Context) error
	Logger      *zap.Logger
}

// Watch blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.OnChange == nil {
		return fmt.Errorf("watcher has no change handler")
	}
	log := logging.OrNop(w.Logger)
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	target := filepath.Clean(w.ContentPath)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors often replace the file rather than write it.
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info("watching content file", zap.String("path", target))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("content file changed", zap.String("op", event.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", zap.Error(err))

		case <-timer.C:
			if err := w.OnChange(ctx); err != nil {
				log.Error("design run failed", zap.Error(err))
			}
		}
	}
}
