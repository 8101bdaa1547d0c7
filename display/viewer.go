package display

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/aouyang1/iotacanvas/artwork"
	"github.com/aouyang1/iotacanvas/settings"
	"github.com/aouyang1/iotacanvas/store"
)

const (
	DefaultImvPath = "/usr/bin/imv-wayland"

	defaultSlideInterval = 15 * time.Second
	maxSlideInterval     = 24 * time.Hour
)

// ArtSource is what the viewer reads to decide what to show.
type ArtSource interface {
	GetSettings(ctx context.Context) (*settings.Record, error)
	GetArtState(ctx context.Context) (*store.ArtState, error)
}

// Viewer owns the full screen imv-wayland process showing the artwork
// directory, current artwork first.
type Viewer struct {
	imvPath string
	dir     string
	src     ArtSource

	// only one goroutine can restart the viewer at a time
	mu   sync.Mutex
	proc *exec.Cmd
}

func NewViewer(imvPath, dir string, src ArtSource) *Viewer {
	if imvPath == "" {
		imvPath = DefaultImvPath
	}
	return &Viewer{imvPath: imvPath, dir: dir, src: src}
}

// imvArgs builds the imv-wayland arguments for a full screen slideshow of
// paths beginning at current.
func imvArgs(paths []string, current string, interval time.Duration) []string {
	if interval <= 0 {
		interval = defaultSlideInterval
	}
	interval = min(interval, maxSlideInterval)

	args := []string{"-f", "-s", "full", "-t", strconv.Itoa(int(interval.Seconds()))}

	ordered := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.Base(p) == current {
			ordered = append(ordered, p)
		}
	}
	for _, p := range paths {
		if filepath.Base(p) != current {
			ordered = append(ordered, p)
		}
	}
	return append(args, ordered...)
}

// Restart stops the running viewer and starts a new one for the current
// artwork state.
func (v *Viewer) Restart(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	paths, err := artwork.Paths(v.dir)
	if err != nil {
		return err
	}
	state, err := v.src.GetArtState(ctx)
	if err != nil {
		return err
	}
	rec, err := v.src.GetSettings(ctx)
	if err != nil {
		return err
	}
	interval, err := rec.RefreshPeriod()
	if err != nil {
		slog.Warn("invalid refresh period, using default slide interval", "error", err)
		interval = defaultSlideInterval
	}

	v.stop()
	if len(paths) == 0 {
		slog.Info("no artwork to show", "dir", v.dir)
		return nil
	}

	if err := v.start(imvArgs(paths, state.CurrentArtwork, interval)); err != nil {
		return err
	}
	slog.Info("started imv-wayland", "current", state.CurrentArtwork, "count", len(paths))
	return nil
}

// imageArgs shows a single image full screen with no slideshow.
func imageArgs(path string) []string {
	return []string{"-f", "-s", "full", path}
}

// ShowImage replaces the slideshow with the image at path until the next
// restart.
func (v *Viewer) ShowImage(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return err
	}
	v.stop()
	if err := v.start(imageArgs(path)); err != nil {
		return err
	}
	slog.Info("showing image", "path", path)
	return nil
}

// ShowOn shows the image at path each time alerts fires, until ctx is done.
// It is used to put the receive address qr code on screen when the wallet
// runs low.
func (v *Viewer) ShowOn(ctx context.Context, alerts <-chan bool, path string) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-alerts:
			if !ok {
				return
			}
			if err := v.ShowImage(path); err != nil {
				slog.Warn("unable to show image", "path", path, "error", err)
			}
		}
	}
}

// start must be called with mu held.
func (v *Viewer) start(args []string) error {
	cmd := exec.Command(v.imvPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start imv-wayland: %w", err)
	}
	v.proc = cmd
	go cmd.Wait()
	return nil
}

func (v *Viewer) stop() {
	if v.proc == nil {
		// a viewer may survive from a previous run of the daemon
		if err := exec.Command("pkill", "-f", filepath.Base(v.imvPath)).Run(); err != nil {
			slog.Debug("imv-wayland not running", "error", err)
		}
		return
	}
	if err := v.proc.Process.Kill(); err != nil {
		slog.Debug("imv-wayland already exited", "error", err)
	}
	v.proc = nil
}

// Run restarts the viewer once and then whenever any of updates fires, until
// ctx is done.
func (v *Viewer) Run(ctx context.Context, updates ...<-chan bool) {
	merged := make(chan struct{}, 1)
	for _, ch := range updates {
		go func(ch <-chan bool) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- struct{}{}:
					default:
					}
				}
			}
		}(ch)
	}

	if err := v.Restart(ctx); err != nil {
		slog.Error("error while starting viewer", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			v.mu.Lock()
			if v.proc != nil {
				v.stop()
			}
			v.mu.Unlock()
			return
		case <-merged:
			slog.Info("found new updates, restarting viewer")
			if err := v.Restart(ctx); err != nil {
				slog.Error("error while restarting viewer from update", "error", err)
			}
		}
	}
}
