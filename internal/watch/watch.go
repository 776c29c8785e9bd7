// Package watch retrains-on-change for `bpegpu watch` (SPEC_FULL.md §5),
// grounded on the teacher pack's internal/watcher package: fsnotify plus a
// per-path debounce timer so rapid saves trigger one retrain, not many.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay absorbs editors that write a file in several small bursts.
const debounceDelay = 300 * time.Millisecond

// Watcher watches a single file for writes.
type Watcher struct {
	fw *fsnotify.Watcher
}

// New creates a Watcher.
func New() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: fsnotify: %w", err)
	}
	return &Watcher{fw: fw}, nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fw.Close() }

// Watch blocks, calling onChange once (debounced) per burst of writes to
// path, until ctx is cancelled or an unrecoverable watcher error occurs.
func (w *Watcher) Watch(ctx context.Context, path string, onChange func()) error {
	if err := w.fw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, onChange)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
