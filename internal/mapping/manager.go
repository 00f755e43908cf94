package mapping

import (
	"log/slog"
	"maps"
	"slices"

	"beamer/internal/logging"
	"beamer/internal/scene"
)

// Emitter publishes entity snapshots, status updates, and lifecycle notices
// downstream. The relay transport implements it; tests substitute recorders.
type Emitter interface {
	EmitState(kind EntityKind, state map[string]any)
	EmitStatus(kind EntityKind, id string, status map[string]any)
	EmitDeleted(kind EntityKind, id string)
	RegisterTarget(kind EntityKind, id string)
}

// AssetFetcher is the asset-store boundary: a disk-cache lookup plus a
// fire-and-forget download request. Completion arrives later through
// HandleAssetReady / HandleAssetFailed on the manager's goroutine.
type AssetFetcher interface {
	CachedPath(assetID string) (string, bool)
	Fetch(assetID string)
}

type nopEmitter struct{}

func (nopEmitter) EmitState(EntityKind, map[string]any)          {}
func (nopEmitter) EmitStatus(EntityKind, string, map[string]any) {}
func (nopEmitter) EmitDeleted(EntityKind, string)                {}
func (nopEmitter) RegisterTarget(EntityKind, string)             {}

type nopFetcher struct{}

func (nopFetcher) CachedPath(string) (string, bool) { return "", false }
func (nopFetcher) Fetch(string)                     {}

// Options configures a Manager.
type Options struct {
	Query   scene.Query
	Assets  AssetFetcher
	Emitter Emitter
	Logger  *slog.Logger

	// DefaultWidth/DefaultHeight size capture proxies for contexts that do
	// not declare a resolution. Zero values fall back to 1920x1080.
	DefaultWidth  int
	DefaultHeight int

	// CachePath enables debounced JSON persistence when non-empty.
	CachePath string
}

// Manager owns the three entity stores and drives reconciliation. It is
// single-writer: CRUD, events, asset callbacks, and Tick must all run on the
// same goroutine.
type Manager struct {
	query  scene.Query
	assets AssetFetcher
	emit   Emitter
	logger *slog.Logger

	defaultWidth  int
	defaultHeight int
	cachePath     string

	contexts map[string]*RenderContext
	surfaces map[string]*MappingSurface
	mappings map[string]*ContentMapping

	// Tombstones guard against out-of-order delete/upsert delivery: once an
	// id is deleted, stale upserts for it are dropped. No TTL; ids are UUIDs
	// and reuse is not expected.
	deletedContexts map[string]struct{}
	deletedSurfaces map[string]struct{}
	deletedMappings map[string]struct{}

	pendingAssets map[string]struct{}
	textureCache  map[string]*scene.Texture

	defaultTexture *scene.Texture

	// surfacesWithTexture tracks surfaces already driven by a textured
	// context within the current pass, so a later textureless mapping does
	// not overwrite a good frame with a placeholder.
	surfacesWithTexture map[string]struct{}

	dirty           bool
	worldRetry      bool
	cacheDirty      bool
	coveragePreview bool
}

// New constructs a Manager. Query is required; nil Assets, Emitter, and
// Logger degrade to no-ops.
func New(opts Options) *Manager {
	if opts.Assets == nil {
		opts.Assets = nopFetcher{}
	}
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = 1920
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 1080
	}
	return &Manager{
		query:           opts.Query,
		assets:          opts.Assets,
		emit:            opts.Emitter,
		logger:          logging.NewComponentLogger(opts.Logger, "mapping"),
		defaultWidth:    opts.DefaultWidth,
		defaultHeight:   opts.DefaultHeight,
		cachePath:       opts.CachePath,
		contexts:        map[string]*RenderContext{},
		surfaces:        map[string]*MappingSurface{},
		mappings:        map[string]*ContentMapping{},
		deletedContexts: map[string]struct{}{},
		deletedSurfaces: map[string]struct{}{},
		deletedMappings: map[string]struct{}{},
		pendingAssets:   map[string]struct{}{},
		textureCache:    map[string]*scene.Texture{},
		defaultTexture:  &scene.Texture{Name: "preview-default", Width: 2, Height: 2},
	}
}

// MarkDirty schedules a full reconciliation on the next tick.
func (m *Manager) MarkDirty() { m.dirty = true }

// Dirty reports whether a reconciliation is pending.
func (m *Manager) Dirty() bool { return m.dirty }

// SetCoveragePreview toggles the global coverage-debug parameter.
func (m *Manager) SetCoveragePreview(enabled bool) {
	if m.coveragePreview != enabled {
		m.coveragePreview = enabled
		m.dirty = true
	}
}

// Tick runs one engine step: keep capture proxies glued to their source
// cameras, reconcile if dirty, and flush the cache debounce.
func (m *Manager) Tick() {
	for _, id := range slices.Sorted(maps.Keys(m.contexts)) {
		c := m.contexts[id]
		if c.Enabled && c.SourceType != SourceAssetStore {
			m.syncProxy(c)
		}
	}

	if m.dirty {
		m.rebuild()
	}

	m.flushCache()
}

// Shutdown flushes pending persistence. Call once when the daemon stops.
func (m *Manager) Shutdown() {
	m.cacheDirty = true
	m.flushCache()
}

func (m *Manager) relevantWorlds() []scene.World {
	if m.query == nil {
		return nil
	}
	var out []scene.World
	for _, world := range m.query.Worlds() {
		if world.Kind().Relevant() {
			out = append(out, world)
		}
	}
	return out
}

// rebuild is the reconciliation pass: roll back and re-resolve every surface,
// re-resolve every context, then re-apply every mapping, recomputing error
// state from scratch. A pass that could not find a world leaves the dirty
// flag set so the next tick retries.
func (m *Manager) rebuild() {
	m.worldRetry = false

	for _, id := range slices.Sorted(maps.Keys(m.surfaces)) {
		s := m.surfaces[id]
		prev := s.lastError
		rollbackSurface(s)
		s.lastError = ""
		if s.Enabled {
			m.resolveSurface(s)
		}
		if s.lastError != prev {
			m.emitStatus(KindSurface, id)
		}
	}

	for _, id := range slices.Sorted(maps.Keys(m.contexts)) {
		c := m.contexts[id]
		prevErr, prevTex := c.lastError, c.texture
		m.resolveContext(c)
		if c.lastError != prevErr || (c.texture == nil) != (prevTex == nil) {
			m.emitStatus(KindContext, id)
		}
	}

	m.surfacesWithTexture = map[string]struct{}{}
	for _, id := range slices.Sorted(maps.Keys(m.mappings)) {
		mp := m.mappings[id]
		prev := mp.lastError
		m.reconcileMapping(mp)
		if mp.lastError != prev {
			m.emitStatus(KindMapping, id)
		}
	}

	if m.worldRetry {
		// Sticky retry: the scene was not ready, keep reconciling.
		m.dirty = true
		return
	}
	m.dirty = false
}

func (m *Manager) reconcileMapping(mp *ContentMapping) {
	mp.lastError = ""

	if mp.Type == "" {
		mp.Type = TypeSurfaceUV
	}

	// Ergonomic defaults for single-target setups: a mapping left unbound
	// adopts the sole context and sole surface.
	if mp.ContextID == "" && len(m.contexts) == 1 {
		for id := range m.contexts {
			mp.ContextID = id
		}
		m.cacheDirty = true
	}
	if len(mp.SurfaceIDs) == 0 && len(m.surfaces) == 1 {
		for id := range m.surfaces {
			mp.SurfaceIDs = []string{id}
		}
		m.cacheDirty = true
	}

	// A disabled mapping applies nothing; the rollback phase has already
	// restored its surfaces.
	if !mp.Enabled {
		return
	}

	var ctx *RenderContext
	switch {
	case mp.ContextID == "":
		mp.lastError = "Render context not set"
	default:
		found, ok := m.contexts[mp.ContextID]
		if !ok {
			mp.lastError = "Render context not found"
			break
		}
		ctx = found
		if ctx.texture == nil {
			if ctx.lastError != "" {
				mp.lastError = ctx.lastError
			} else {
				mp.lastError = "Render context has no texture"
			}
		}
	}

	if len(mp.SurfaceIDs) == 0 {
		if mp.lastError == "" {
			mp.lastError = "No mapping surfaces assigned"
		}
		return
	}

	// Validation is first-error-wins: a context problem recorded above is
	// not displaced by a missing surface below.
	hasTexture := ctx != nil && ctx.texture != nil
	for _, sid := range mp.SurfaceIDs {
		if !hasTexture {
			if _, driven := m.surfacesWithTexture[sid]; driven {
				continue
			}
		}
		s, ok := m.surfaces[sid]
		if !ok || !s.Enabled {
			if mp.lastError == "" {
				mp.lastError = "Mapping surface not found"
			}
			continue
		}
		m.applyMapping(mp, s, ctx)
		if hasTexture {
			m.surfacesWithTexture[sid] = struct{}{}
		}
	}
}

// RenderContexts returns the stored contexts sorted by id.
func (m *Manager) RenderContexts() []*RenderContext {
	out := make([]*RenderContext, 0, len(m.contexts))
	for _, id := range slices.Sorted(maps.Keys(m.contexts)) {
		out = append(out, m.contexts[id])
	}
	return out
}

// MappingSurfaces returns the stored surfaces sorted by id.
func (m *Manager) MappingSurfaces() []*MappingSurface {
	out := make([]*MappingSurface, 0, len(m.surfaces))
	for _, id := range slices.Sorted(maps.Keys(m.surfaces)) {
		out = append(out, m.surfaces[id])
	}
	return out
}

// Mappings returns the stored mappings sorted by id.
func (m *Manager) Mappings() []*ContentMapping {
	out := make([]*ContentMapping, 0, len(m.mappings))
	for _, id := range slices.Sorted(maps.Keys(m.mappings)) {
		out = append(out, m.mappings[id])
	}
	return out
}

// RegisterTargets announces every entity's action target downstream. The
// relay calls this on every (re)connect.
func (m *Manager) RegisterTargets() {
	for _, id := range slices.Sorted(maps.Keys(m.contexts)) {
		m.emit.RegisterTarget(KindContext, id)
	}
	for _, id := range slices.Sorted(maps.Keys(m.surfaces)) {
		m.emit.RegisterTarget(KindSurface, id)
	}
	for _, id := range slices.Sorted(maps.Keys(m.mappings)) {
		m.emit.RegisterTarget(KindMapping, id)
	}
}

// EmitAll re-publishes every entity's state snapshot. The relay calls this
// after a reconnect so the upstream store converges without waiting for the
// next change.
func (m *Manager) EmitAll() {
	for _, id := range slices.Sorted(maps.Keys(m.contexts)) {
		m.emitState(KindContext, id)
	}
	for _, id := range slices.Sorted(maps.Keys(m.surfaces)) {
		m.emitState(KindSurface, id)
	}
	for _, id := range slices.Sorted(maps.Keys(m.mappings)) {
		m.emitState(KindMapping, id)
	}
}

// StatusSummary aggregates engine health for the IPC status surface.
type StatusSummary struct {
	Contexts         int    `json:"contexts"`
	Surfaces         int    `json:"surfaces"`
	Mappings         int    `json:"mappings"`
	ContextErrors    int    `json:"contextErrors"`
	SurfaceErrors    int    `json:"surfaceErrors"`
	MappingErrors    int    `json:"mappingErrors"`
	FirstContextErr  string `json:"firstContextError,omitempty"`
	FirstSurfaceErr  string `json:"firstSurfaceError,omitempty"`
	FirstMappingErr  string `json:"firstMappingError,omitempty"`
	PendingDownloads int    `json:"pendingDownloads"`
	Dirty            bool   `json:"dirty"`
}

// Status summarizes the stores and their error state.
func (m *Manager) Status() StatusSummary {
	summary := StatusSummary{
		Contexts:         len(m.contexts),
		Surfaces:         len(m.surfaces),
		Mappings:         len(m.mappings),
		PendingDownloads: len(m.pendingAssets),
		Dirty:            m.dirty,
	}
	for _, c := range m.RenderContexts() {
		if c.lastError != "" {
			summary.ContextErrors++
			if summary.FirstContextErr == "" {
				summary.FirstContextErr = c.lastError
			}
		}
	}
	for _, s := range m.MappingSurfaces() {
		if s.lastError != "" {
			summary.SurfaceErrors++
			if summary.FirstSurfaceErr == "" {
				summary.FirstSurfaceErr = s.lastError
			}
		}
	}
	for _, mp := range m.Mappings() {
		if mp.lastError != "" {
			summary.MappingErrors++
			if summary.FirstMappingErr == "" {
				summary.FirstMappingErr = mp.lastError
			}
		}
	}
	return summary
}
