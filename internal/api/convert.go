package api

import (
	"time"

	"beamer/internal/assetstore"
	"beamer/internal/mapping"
)

// FromRenderContext flattens a render context into its view.
func FromRenderContext(c *mapping.RenderContext) RenderContextView {
	return RenderContextView{
		ID:          c.ID,
		Name:        c.Name,
		ProjectID:   c.ProjectID,
		SourceType:  c.SourceType,
		CameraID:    c.CameraID,
		AssetID:     c.AssetID,
		Width:       c.Width,
		Height:      c.Height,
		CaptureMode: c.CaptureMode,
		Enabled:     c.Enabled,
		HasTexture:  c.Texture() != nil,
		LastError:   c.LastError(),
	}
}

// FromMappingSurface flattens a mapping surface into its view.
func FromMappingSurface(s *mapping.MappingSurface) MappingSurfaceView {
	view := MappingSurfaceView{
		ID:                s.ID,
		Name:              s.Name,
		ProjectID:         s.ProjectID,
		TargetID:          s.TargetID,
		MeshComponentName: s.MeshComponentName,
		UVChannel:         s.UVChannel,
		Enabled:           s.Enabled,
		Resolved:          s.Mesh() != nil,
		LastError:         s.LastError(),
	}
	if len(s.MaterialSlots) > 0 {
		view.MaterialSlots = append([]int(nil), s.MaterialSlots...)
	}
	return view
}

// FromContentMapping flattens a content mapping into its view.
func FromContentMapping(m *mapping.ContentMapping) ContentMappingView {
	view := ContentMappingView{
		ID:        m.ID,
		Name:      m.Name,
		ProjectID: m.ProjectID,
		Type:      m.Type,
		ContextID: m.ContextID,
		Opacity:   m.Opacity,
		Enabled:   m.Enabled,
		Config:    m.Config,
		LastError: m.LastError(),
	}
	if len(m.SurfaceIDs) > 0 {
		view.SurfaceIDs = append([]string(nil), m.SurfaceIDs...)
	}
	return view
}

// SnapshotOf captures every entity held by the manager. Must run on the
// engine goroutine.
func SnapshotOf(m *mapping.Manager) Snapshot {
	snap := Snapshot{
		Contexts: make([]RenderContextView, 0, len(m.RenderContexts())),
		Surfaces: make([]MappingSurfaceView, 0, len(m.MappingSurfaces())),
		Mappings: make([]ContentMappingView, 0, len(m.Mappings())),
	}
	for _, c := range m.RenderContexts() {
		snap.Contexts = append(snap.Contexts, FromRenderContext(c))
	}
	for _, s := range m.MappingSurfaces() {
		snap.Surfaces = append(snap.Surfaces, FromMappingSurface(s))
	}
	for _, mp := range m.Mappings() {
		snap.Mappings = append(snap.Mappings, FromContentMapping(mp))
	}
	return snap
}

// FromAssetEntry flattens one asset cache entry.
func FromAssetEntry(e assetstore.Entry) AssetView {
	return AssetView{
		ID:          e.ID,
		Path:        e.Path,
		SizeBytes:   e.SizeBytes,
		ContentType: e.ContentType,
		FetchedAt:   e.FetchedAt.UTC().Format(time.RFC3339),
	}
}
