package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"beamer/internal/api"
	"beamer/internal/assetstore"
	"beamer/internal/config"
	"beamer/internal/logging"
	"beamer/internal/logs"
	"beamer/internal/mapping"
	"beamer/internal/relay"
	"beamer/internal/scene"
)

var (
	errNotRunning   = errors.New("daemon is not running")
	errNoAssetStore = errors.New("asset store is not configured")
)

// Daemon owns the engine goroutine and the daemon's transports.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	stage   *scene.Stage
	manager *mapping.Manager
	assets  *assetstore.Store
	relay   *relay.Client

	lockPath string
	lock     *flock.Flock

	commands chan func()
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Options configures daemon construction. Config is required. A nil Stage
// gets a fresh stage with one game world, the seam where an engine
// integration plugs in.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Stage  *scene.Stage
}

// Status reports daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	LockPath      string
	SocketPath    string
	CachePath     string
	AssetCacheDir string
	RelayEnabled  bool
	RelayURL      string
	Engine        api.EngineStatus
}

// New constructs a daemon with its engine, asset store, and relay client.
// Start must be called before any engine operation.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stage := opts.Stage
	if stage == nil {
		stage = scene.NewStage()
		stage.AddWorld(scene.WorldGame)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "beamerd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		stage:    stage,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		commands: make(chan func(), 64),
	}

	var emitter mapping.Emitter
	if cfg.Relay.Enabled {
		client, err := relay.New(relay.Options{
			URL:       cfg.Relay.URL,
			ServiceID: cfg.Relay.ServiceID,
			Reconnect: time.Duration(cfg.Relay.ReconnectSeconds) * time.Second,
			Handler:   d,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure relay: %w", err)
		}
		d.relay = client
		emitter = client
	}

	var fetcher mapping.AssetFetcher
	if cfg.AssetStore.URL != "" {
		store, err := assetstore.Open(assetstore.Options{
			BaseURL:        cfg.AssetStore.URL,
			CacheDir:       cfg.Paths.AssetCacheDir,
			RequestTimeout: time.Duration(cfg.AssetStore.RequestTimeout) * time.Second,
			Logger:         logger,
			OnReady: func(assetID, path string) {
				d.dispatch(func() { d.manager.HandleAssetReady(assetID, path) })
			},
			OnFailed: func(assetID, message string) {
				d.dispatch(func() { d.manager.HandleAssetFailed(assetID, message) })
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open asset store: %w", err)
		}
		d.assets = store
		fetcher = store
	}

	d.manager = mapping.New(mapping.Options{
		Query:         stage,
		Assets:        fetcher,
		Emitter:       emitter,
		Logger:        logger,
		DefaultWidth:  cfg.Mapping.DefaultWidth,
		DefaultHeight: cfg.Mapping.DefaultHeight,
		CachePath:     cfg.CachePath(),
	})
	return d, nil
}

// Stage returns the scene boundary the engine reconciles against.
func (d *Daemon) Stage() *scene.Stage { return d.stage }

// Start acquires the instance lock, loads the persisted cache, and launches
// the engine loop plus the relay connection.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another beamer daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if err := d.manager.LoadCache(); err != nil {
		d.logger.Warn("content-mapping cache not loaded", logging.Error(err))
	}

	d.running.Store(true)
	d.wg.Add(1)
	go d.loop()
	if d.relay != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.relay.Run(d.ctx)
		}()
	}
	d.logger.Info("beamer daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the engine loop, flushes the cache, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.cancel()
	d.wg.Wait()
	d.running.Store(false)
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("beamer daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.assets != nil {
		return d.assets.Close()
	}
	return nil
}

// Running reports whether the engine loop is active.
func (d *Daemon) Running() bool { return d.running.Load() }

func (d *Daemon) loop() {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Mapping.TickIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			d.manager.Shutdown()
			return
		case fn := <-d.commands:
			fn()
		case <-ticker.C:
			d.manager.Tick()
		}
	}
}

// dispatch queues fn for the engine goroutine, reporting false once the
// daemon is shutting down.
func (d *Daemon) dispatch(fn func()) bool {
	if !d.running.Load() {
		return false
	}
	select {
	case d.commands <- fn:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// call runs fn on the engine goroutine and waits for it to finish.
func (d *Daemon) call(fn func()) bool {
	done := make(chan struct{})
	if !d.dispatch(func() {
		fn()
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// DispatchEntityEvent routes one relay entity change into the engine.
func (d *Daemon) DispatchEntityEvent(kind mapping.EntityKind, item map[string]any, isDelete bool) {
	d.dispatch(func() {
		switch kind {
		case mapping.KindContext:
			d.manager.ProcessRenderContextEvent(item, isDelete)
		case mapping.KindSurface:
			d.manager.ProcessMappingSurfaceEvent(item, isDelete)
		case mapping.KindMapping:
			d.manager.ProcessMappingEvent(item, isDelete)
		}
	})
}

// DispatchAction routes one remote action invocation into the engine and
// reports whether it was handled.
func (d *Daemon) DispatchAction(targetPath, action string, payload map[string]any) bool {
	handled := false
	if !d.call(func() {
		handled = d.manager.HandleAction(targetPath, action, payload)
	}) {
		return false
	}
	return handled
}

// DispatchConnected re-registers every target and re-publishes entity state
// after a relay (re)connect.
func (d *Daemon) DispatchConnected() {
	d.dispatch(func() {
		d.manager.RegisterTargets()
		d.manager.EmitAll()
	})
}

// CreateEntity creates one entity and returns its id.
func (d *Daemon) CreateEntity(kind mapping.EntityKind, payload map[string]any) (string, error) {
	var id string
	ok := d.call(func() {
		switch kind {
		case mapping.KindContext:
			id = d.manager.CreateRenderContext(payload)
		case mapping.KindSurface:
			id = d.manager.CreateMappingSurface(payload)
		case mapping.KindMapping:
			id = d.manager.CreateContentMapping(payload)
		}
	})
	if !ok {
		return "", errNotRunning
	}
	if id == "" {
		return "", fmt.Errorf("create %s rejected", kind)
	}
	return id, nil
}

// UpdateEntity merges a partial payload into one entity.
func (d *Daemon) UpdateEntity(kind mapping.EntityKind, id string, payload map[string]any) (bool, error) {
	var updated bool
	ok := d.call(func() {
		switch kind {
		case mapping.KindContext:
			updated = d.manager.UpdateRenderContext(id, payload)
		case mapping.KindSurface:
			updated = d.manager.UpdateMappingSurface(id, payload)
		case mapping.KindMapping:
			updated = d.manager.UpdateContentMapping(id, payload)
		}
	})
	if !ok {
		return false, errNotRunning
	}
	return updated, nil
}

// DeleteEntity removes one entity, rolling back its scene side effects.
func (d *Daemon) DeleteEntity(kind mapping.EntityKind, id string) (bool, error) {
	var deleted bool
	ok := d.call(func() {
		switch kind {
		case mapping.KindContext:
			deleted = d.manager.DeleteRenderContext(id)
		case mapping.KindSurface:
			deleted = d.manager.DeleteMappingSurface(id)
		case mapping.KindMapping:
			deleted = d.manager.DeleteContentMapping(id)
		}
	})
	if !ok {
		return false, errNotRunning
	}
	return deleted, nil
}

// InvokeAction routes an action invocation by target path.
func (d *Daemon) InvokeAction(targetPath, action string, payload map[string]any) (bool, error) {
	var handled bool
	if !d.call(func() {
		handled = d.manager.HandleAction(targetPath, action, payload)
	}) {
		return false, errNotRunning
	}
	return handled, nil
}

// Snapshot captures every entity the engine holds.
func (d *Daemon) Snapshot() (api.Snapshot, error) {
	var snap api.Snapshot
	if !d.call(func() { snap = api.SnapshotOf(d.manager) }) {
		return api.Snapshot{}, errNotRunning
	}
	return snap, nil
}

// SetCoveragePreview toggles the engine's coverage-debug parameter.
func (d *Daemon) SetCoveragePreview(enabled bool) error {
	if !d.call(func() { d.manager.SetCoveragePreview(enabled) }) {
		return errNotRunning
	}
	return nil
}

// Replay feeds a recorded event file through the upsert path.
func (d *Daemon) Replay(path string) error {
	if !d.running.Load() {
		return errNotRunning
	}
	return relay.ReplayFile(path, d)
}

// Status assembles daemon and engine status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LockPath:      d.lockPath,
		SocketPath:    d.cfg.Paths.SocketPath,
		CachePath:     d.cfg.CachePath(),
		AssetCacheDir: d.cfg.Paths.AssetCacheDir,
		RelayEnabled:  d.cfg.Relay.Enabled,
		RelayURL:      d.cfg.Relay.URL,
	}
	if status.Running {
		d.call(func() { status.Engine = d.manager.Status() })
	}
	return status
}

// AssetEntries lists the cached assets, newest first.
func (d *Daemon) AssetEntries() ([]assetstore.Entry, error) {
	if d.assets == nil {
		return nil, errNoAssetStore
	}
	return d.assets.List()
}

// RemoveAsset drops one asset from the cache.
func (d *Daemon) RemoveAsset(assetID string) error {
	if d.assets == nil {
		return errNoAssetStore
	}
	return d.assets.Remove(assetID)
}

// ClearAssets empties the asset cache.
func (d *Daemon) ClearAssets() error {
	if d.assets == nil {
		return errNoAssetStore
	}
	return d.assets.Clear()
}

// TailLogs reads lines from the daemon log file. A negative offset tails
// the end of the file.
func (d *Daemon) TailLogs(ctx context.Context, opts logs.TailOptions) (logs.TailResult, error) {
	path := filepath.Join(d.cfg.Paths.LogDir, "beamerd.log")
	return logs.Tail(ctx, path, opts)
}
