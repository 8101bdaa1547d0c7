package artwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aouyang1/iotacanvas/metrics"
	"github.com/aouyang1/iotacanvas/settings"
	"github.com/aouyang1/iotacanvas/store"
)

const (
	checkInterval   = 5 * time.Minute
	refreshCooldown = 4 * time.Minute
	syncTimeout     = 30 * time.Minute
)

// Store is the part of the database the manager reads and updates.
type Store interface {
	GetSettings(ctx context.Context) (*settings.Record, error)
	GetArtState(ctx context.Context) (*store.ArtState, error)
	SetCurrentArtwork(ctx context.Context, name string) error
	SetLastRefresh(ctx context.Context, t time.Time) error
}

// RemoteManager refreshes the displayed artwork when the refresh period has
// passed. With a marketplace configured each refresh commissions a new piece.
// Otherwise, with a bucket configured the artwork directory is first synced
// with it; without one the manager only rotates through the local files.
type RemoteManager struct {
	db     Store
	bucket Bucket
	market *Marketplace
	dir    string

	now func() time.Time

	mu          sync.Mutex
	refreshing  bool
	lastAttempt time.Time

	trigger chan struct{}
	Updated chan bool
	// LowBalance fires when a commission is refused for lack of funds.
	LowBalance chan bool
}

func NewRemoteManager(db Store, bucket Bucket, dir string) *RemoteManager {
	return &RemoteManager{
		db:         db,
		bucket:     bucket,
		dir:        dir,
		now:        time.Now,
		trigger:    make(chan struct{}, 1),
		Updated:    make(chan bool, 1),
		LowBalance: make(chan bool, 1),
	}
}

// UseMarketplace makes every refresh commission artwork from the marketplace
// named in the settings. The bucket is no longer synced.
func (r *RemoteManager) UseMarketplace(m *Marketplace) {
	r.market = m
}

// Dir is the local artwork directory.
func (r *RemoteManager) Dir() string {
	return r.dir
}

// RequestRefresh asks Run to refresh now regardless of the schedule. It
// reports false if a request is already queued.
func (r *RemoteManager) RequestRefresh() bool {
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// IsRefreshDue reports whether the artwork should be refreshed now.
func (r *RemoteManager) IsRefreshDue(ctx context.Context) (bool, error) {
	rec, err := r.db.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if !rec.ArtRefreshEnabled {
		return false, nil
	}

	now := r.now()
	r.mu.Lock()
	lastAttempt := r.lastAttempt
	r.mu.Unlock()
	if !lastAttempt.IsZero() && lastAttempt.Add(refreshCooldown).After(now) {
		return false, nil
	}

	state, err := r.db.GetArtState(ctx)
	if err != nil {
		return false, err
	}
	if state.LastRefreshTime == nil {
		return true, nil
	}

	names, err := List(r.dir)
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return true, nil
	}

	period, err := rec.RefreshPeriod()
	if err != nil {
		return false, err
	}
	return !state.LastRefreshTime.Add(period).After(now), nil
}

// Refresh syncs the artwork directory and picks a new current artwork. Only
// one refresh runs at a time; a concurrent call returns immediately.
func (r *RemoteManager) Refresh(ctx context.Context) error {
	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		slog.Debug("artwork refresh already running")
		return nil
	}
	r.refreshing = true
	r.lastAttempt = r.now()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.refreshing = false
		r.mu.Unlock()
	}()

	err := r.refresh(ctx)
	metrics.RecordArtworkSync(err)
	return err
}

func (r *RemoteManager) refresh(ctx context.Context) error {
	if r.market != nil {
		return r.commission(ctx)
	}

	changed := false
	if r.bucket != nil {
		var err error
		changed, err = r.SyncFolder(ctx)
		if err != nil {
			return err
		}
	}

	names, err := List(r.dir)
	if err != nil {
		return err
	}
	state, err := r.db.GetArtState(ctx)
	if err != nil {
		return err
	}

	next := Pick(names, state.CurrentArtwork)
	if next == "" {
		slog.Info("no artwork available", "dir", r.dir)
		return nil
	}
	if err := r.db.SetCurrentArtwork(ctx, next); err != nil {
		return err
	}
	if err := r.db.SetLastRefresh(ctx, r.now()); err != nil {
		return err
	}
	slog.Info("artwork refreshed", "current", next, "synced_changes", changed)

	r.signal()
	return nil
}

func (r *RemoteManager) commission(ctx context.Context) error {
	rec, err := r.db.GetSettings(ctx)
	if err != nil {
		return err
	}

	name, err := r.market.Commission(ctx, rec.AIMarketplaceURL, r.dir)
	if errors.Is(err, ErrLowBalance) {
		slog.Warn("balance too low for new artwork", "error", err)
		select {
		case r.LowBalance <- true:
		default:
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := r.db.SetCurrentArtwork(ctx, name); err != nil {
		return err
	}
	if err := r.db.SetLastRefresh(ctx, r.now()); err != nil {
		return err
	}
	slog.Info("new artwork received", "current", name)

	r.signal()
	return nil
}

// SyncFolder mirrors the bucket into the artwork directory and reports
// whether any file was added or removed.
func (r *RemoteManager) SyncFolder(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create artwork directory: %w", err)
	}

	localFiles, err := localFiles(r.dir)
	if err != nil {
		return false, err
	}

	remoteNames, err := r.bucket.List(ctx)
	if err != nil {
		return false, err
	}
	remoteFiles := mapset.NewSet(remoteNames...)
	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote files found")
	}

	toDelete := localFiles.Difference(remoteFiles).ToSlice()
	toDownload := remoteFiles.Difference(localFiles).ToSlice()
	if len(toDelete) > 0 {
		slog.Info("deleting local files", "count", len(toDelete), "names", toDelete)
		for name := range slices.Values(toDelete) {
			if err := os.Remove(filepath.Join(r.dir, name)); err != nil {
				slog.Warn("unable to remove local file", "error", err)
			}
		}
	}

	downloaded := 0
	if len(toDownload) > 0 {
		slog.Info("adding files", "count", len(toDownload), "names", toDownload)
		for name := range slices.Values(toDownload) {
			if err := r.download(ctx, name); err != nil {
				slog.Warn("error while downloading s3 object", "name", name, "error", err)
				continue
			}
			downloaded++
		}
	}

	return len(toDelete) > 0 || downloaded > 0, nil
}

func (r *RemoteManager) download(ctx context.Context, name string) error {
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", name, err)
	}
	err = r.bucket.Download(ctx, name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (r *RemoteManager) signal() {
	select {
	case r.Updated <- true:
	default:
	}
}

// Run checks whether a refresh is due every few minutes and whenever a
// refresh is requested, until ctx is done.
func (r *RemoteManager) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	r.check(ctx, false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.check(ctx, false)
		case <-r.trigger:
			r.check(ctx, true)
		}
	}
}

func (r *RemoteManager) check(ctx context.Context, force bool) {
	if !force {
		due, err := r.IsRefreshDue(ctx)
		if err != nil {
			slog.Warn("error while checking artwork refresh", "error", err)
			return
		}
		if !due {
			return
		}
	}

	go func() {
		syncCtx, cancel := context.WithTimeout(ctx, syncTimeout)
		defer cancel()
		if err := r.Refresh(syncCtx); err != nil {
			slog.Warn("error while refreshing artwork", "error", err)
		}
	}()
}
