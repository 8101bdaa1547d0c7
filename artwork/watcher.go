package artwork

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aouyang1/iotacanvas/util"
)

const watchDebounce = 2 * time.Second

// Watcher signals Updated when artwork files appear in or leave a directory.
// Bursts of events, such as a sync downloading many files, produce a single
// signal.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher

	Updated chan bool
}

func NewWatcher(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artwork directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:     dir,
		watcher: w,
		Updated: make(chan bool, 1),
	}, nil
}

func relevant(ev fsnotify.Event) bool {
	if !util.IsArtwork(ev.Name) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Write)
}

// Run forwards debounced changes until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			slog.Debug("artwork directory changed", "name", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("artwork watcher error", "dir", w.dir, "error", err)
		case <-fire:
			fire = nil
			select {
			case w.Updated <- true:
			default:
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
