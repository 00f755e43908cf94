package mapping

import (
	"github.com/google/uuid"

	"beamer/internal/logging"
)

// Inbound upsert/delete processing. One call per entity per event, idempotent:
// an upsert equivalent to stored state is a no-op, a delete of an absent id is
// a no-op, and an upsert arriving after a delete of the same id is dropped
// (tombstone guard against out-of-order delivery).

// ProcessRenderContextEvent ingests one render-context event.
func (m *Manager) ProcessRenderContextEvent(payload map[string]any, isDelete bool) {
	id := blobString(payload, "id", "")
	if id == "" {
		return
	}
	if isDelete {
		if _, ok := m.contexts[id]; !ok {
			return
		}
		m.removeContext(id)
		return
	}
	if _, deleted := m.deletedContexts[id]; deleted {
		m.logger.Debug("dropping stale upsert for deleted context", logging.String(logging.FieldContextID, id))
		return
	}
	candidate := contextFromPayload(id, payload)
	if existing, ok := m.contexts[id]; ok {
		if contextEquivalent(existing, candidate) {
			return
		}
		// Keep runtime state so an unrelated field change does not orphan
		// the owned proxy.
		candidate.proxy = existing.proxy
		candidate.sourceCamera = existing.sourceCamera
	}
	m.contexts[id] = candidate
	m.afterUpsert(KindContext, id)
}

// ProcessMappingSurfaceEvent ingests one mapping-surface event.
func (m *Manager) ProcessMappingSurfaceEvent(payload map[string]any, isDelete bool) {
	id := blobString(payload, "id", "")
	if id == "" {
		return
	}
	if isDelete {
		if _, ok := m.surfaces[id]; !ok {
			return
		}
		m.removeSurface(id)
		return
	}
	if _, deleted := m.deletedSurfaces[id]; deleted {
		m.logger.Debug("dropping stale upsert for deleted surface", logging.String(logging.FieldSurfaceID, id))
		return
	}
	candidate := surfaceFromPayload(id, payload)
	if existing, ok := m.surfaces[id]; ok {
		if surfaceEquivalent(existing, candidate) {
			return
		}
		rollbackSurface(existing)
	}
	m.surfaces[id] = candidate
	m.afterUpsert(KindSurface, id)
}

// ProcessMappingEvent ingests one content-mapping event. An unrecognized type
// is treated as a deletion: the forward-compatible reading of an unknown
// future type is "no longer ours to render".
func (m *Manager) ProcessMappingEvent(payload map[string]any, isDelete bool) {
	id := blobString(payload, "id", "")
	if id == "" {
		return
	}
	if isDelete {
		if _, ok := m.mappings[id]; !ok {
			return
		}
		m.removeMapping(id)
		return
	}
	if _, deleted := m.deletedMappings[id]; deleted {
		m.logger.Debug("dropping stale upsert for deleted mapping", logging.String(logging.FieldMappingID, id))
		return
	}
	candidate, unknownType := mappingFromPayload(id, payload)
	if unknownType {
		if _, ok := m.mappings[id]; ok {
			m.removeMapping(id)
		}
		return
	}
	if existing, ok := m.mappings[id]; ok && mappingEquivalent(existing, candidate) {
		return
	}
	m.mappings[id] = candidate
	m.afterUpsert(KindMapping, id)
}

func (m *Manager) afterUpsert(kind EntityKind, id string) {
	m.dirty = true
	m.cacheDirty = true
	m.emitState(kind, id)
	m.emitStatus(kind, id)
	m.emit.RegisterTarget(kind, id)
}

// CRUD surface. Create assigns a UUID when the payload carries no id and
// clears any tombstone for an explicitly re-created id; Update fails on
// unknown ids; Delete rolls back side effects and emits a deletion notice.

// CreateRenderContext creates a context and returns its id.
func (m *Manager) CreateRenderContext(payload map[string]any) string {
	id := blobString(payload, "id", "")
	if id == "" {
		id = uuid.NewString()
	}
	delete(m.deletedContexts, id)
	m.contexts[id] = contextFromPayload(id, payload)
	m.afterUpsert(KindContext, id)
	return id
}

// UpdateRenderContext overlays payload fields onto an existing context.
func (m *Manager) UpdateRenderContext(id string, payload map[string]any) bool {
	existing, ok := m.contexts[id]
	if !ok {
		return false
	}
	mergeContextPayload(existing, payload)
	m.afterUpsert(KindContext, id)
	return true
}

// DeleteRenderContext removes a context, destroying its capture proxy.
func (m *Manager) DeleteRenderContext(id string) bool {
	if _, ok := m.contexts[id]; !ok {
		return false
	}
	m.removeContext(id)
	return true
}

// CreateMappingSurface creates a surface and returns its id.
func (m *Manager) CreateMappingSurface(payload map[string]any) string {
	id := blobString(payload, "id", "")
	if id == "" {
		id = uuid.NewString()
	}
	delete(m.deletedSurfaces, id)
	m.surfaces[id] = surfaceFromPayload(id, payload)
	m.afterUpsert(KindSurface, id)
	return id
}

// UpdateMappingSurface overlays payload fields onto an existing surface.
func (m *Manager) UpdateMappingSurface(id string, payload map[string]any) bool {
	existing, ok := m.surfaces[id]
	if !ok {
		return false
	}
	rollbackSurface(existing)
	mergeSurfacePayload(existing, payload)
	m.afterUpsert(KindSurface, id)
	return true
}

// DeleteMappingSurface removes a surface, restoring its original materials.
func (m *Manager) DeleteMappingSurface(id string) bool {
	if _, ok := m.surfaces[id]; !ok {
		return false
	}
	m.removeSurface(id)
	return true
}

// CreateContentMapping creates a mapping and returns its id. An unrecognized
// type yields no entity and an empty id.
func (m *Manager) CreateContentMapping(payload map[string]any) string {
	id := blobString(payload, "id", "")
	if id == "" {
		id = uuid.NewString()
	}
	candidate, unknownType := mappingFromPayload(id, payload)
	if unknownType {
		return ""
	}
	delete(m.deletedMappings, id)
	m.mappings[id] = candidate
	m.afterUpsert(KindMapping, id)
	return id
}

// UpdateContentMapping overlays payload fields onto an existing mapping.
func (m *Manager) UpdateContentMapping(id string, payload map[string]any) bool {
	existing, ok := m.mappings[id]
	if !ok {
		return false
	}
	if !mergeMappingPayload(existing, payload) {
		m.removeMapping(id)
		return true
	}
	m.afterUpsert(KindMapping, id)
	return true
}

// DeleteContentMapping removes a mapping.
func (m *Manager) DeleteContentMapping(id string) bool {
	if _, ok := m.mappings[id]; !ok {
		return false
	}
	m.removeMapping(id)
	return true
}

func (m *Manager) removeContext(id string) {
	c := m.contexts[id]
	if c.proxy != nil && c.proxy.Valid() {
		c.proxy.Destroy()
	}
	delete(m.contexts, id)
	m.deletedContexts[id] = struct{}{}
	m.dirty = true
	m.cacheDirty = true
	m.emit.EmitDeleted(KindContext, id)
}

func (m *Manager) removeSurface(id string) {
	rollbackSurface(m.surfaces[id])
	delete(m.surfaces, id)
	m.deletedSurfaces[id] = struct{}{}
	m.dirty = true
	m.cacheDirty = true
	m.emit.EmitDeleted(KindSurface, id)
}

func (m *Manager) removeMapping(id string) {
	delete(m.mappings, id)
	m.deletedMappings[id] = struct{}{}
	m.dirty = true
	m.cacheDirty = true
	m.emit.EmitDeleted(KindMapping, id)
}

// Partial-update merges used by Update and the action surface. Only keys
// present in the payload are applied.

func mergeContextPayload(c *RenderContext, payload map[string]any) {
	if v, ok := payload["name"].(string); ok {
		c.Name = v
	}
	if v, ok := payload["projectId"].(string); ok {
		c.ProjectID = v
	}
	if v, ok := payload["sourceType"].(string); ok {
		c.SourceType = v
	}
	if v, ok := payload["cameraId"].(string); ok {
		c.CameraID = v
	}
	if v, ok := payload["assetId"].(string); ok {
		c.AssetID = v
	}
	if _, ok := payload["width"]; ok {
		c.Width = blobInt(payload, "width", c.Width)
	}
	if _, ok := payload["height"]; ok {
		c.Height = blobInt(payload, "height", c.Height)
	}
	if v, ok := payload["captureMode"].(string); ok {
		c.CaptureMode = v
	}
	if _, ok := payload["enabled"]; ok {
		c.Enabled = blobFlag(payload, "enabled", c.Enabled)
	}
}

func mergeSurfacePayload(s *MappingSurface, payload map[string]any) {
	if v, ok := payload["name"].(string); ok {
		s.Name = v
	}
	if v, ok := payload["projectId"].(string); ok {
		s.ProjectID = v
	}
	if v, ok := payload["targetId"].(string); ok {
		s.TargetID = v
	}
	if _, ok := payload["uvChannel"]; ok {
		s.UVChannel = blobInt(payload, "uvChannel", s.UVChannel)
	}
	if _, ok := payload["materialSlots"]; ok {
		s.MaterialSlots = intSlice(payload, "materialSlots")
	}
	if v, ok := payload["meshComponentName"].(string); ok {
		s.MeshComponentName = v
	}
	if _, ok := payload["enabled"]; ok {
		s.Enabled = blobFlag(payload, "enabled", s.Enabled)
	}
}

// mergeMappingPayload reports false when a type update normalizes to an
// unrecognized value, which callers treat as a deletion.
func mergeMappingPayload(mp *ContentMapping, payload map[string]any) bool {
	if v, ok := payload["name"].(string); ok {
		mp.Name = v
	}
	if v, ok := payload["projectId"].(string); ok {
		mp.ProjectID = v
	}
	if v, ok := payload["contextId"].(string); ok {
		mp.ContextID = v
	}
	if _, ok := payload["surfaceIds"]; ok {
		mp.SurfaceIDs = stringSlice(payload, "surfaceIds")
	}
	if _, ok := payload["opacity"]; ok {
		mp.Opacity = clamp01(blobFloat(payload, "opacity", mp.Opacity))
	}
	if _, ok := payload["enabled"]; ok {
		mp.Enabled = blobFlag(payload, "enabled", mp.Enabled)
	}
	if _, ok := payload["config"]; ok {
		mp.Config = configBlob(payload, "config")
	}
	if v, ok := payload["type"].(string); ok {
		if applyTypeNormalization(mp, v) {
			return false
		}
	}
	mp.refreshParams()
	return true
}

// Outbound serialization. Every state emission carries a freshly generated
// opaque hash: a change token, not a content digest.

func (m *Manager) contextState(c *RenderContext) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"projectId":   c.ProjectID,
		"sourceType":  c.SourceType,
		"cameraId":    c.CameraID,
		"assetId":     c.AssetID,
		"width":       c.Width,
		"height":      c.Height,
		"captureMode": c.CaptureMode,
		"enabled":     c.Enabled,
		"hash":        uuid.NewString(),
	}
}

func (m *Manager) surfaceState(s *MappingSurface) map[string]any {
	slots := make([]any, len(s.MaterialSlots))
	for i, slot := range s.MaterialSlots {
		slots[i] = slot
	}
	return map[string]any{
		"id":                s.ID,
		"name":              s.Name,
		"projectId":         s.ProjectID,
		"targetId":          s.TargetID,
		"uvChannel":         s.UVChannel,
		"materialSlots":     slots,
		"meshComponentName": s.MeshComponentName,
		"enabled":           s.Enabled,
		"hash":              uuid.NewString(),
	}
}

func (m *Manager) mappingState(mp *ContentMapping) map[string]any {
	ids := make([]any, len(mp.SurfaceIDs))
	for i, id := range mp.SurfaceIDs {
		ids[i] = id
	}
	state := map[string]any{
		"id":         mp.ID,
		"name":       mp.Name,
		"projectId":  mp.ProjectID,
		"type":       displayType(mp),
		"contextId":  mp.ContextID,
		"surfaceIds": ids,
		"opacity":    mp.Opacity,
		"enabled":    mp.Enabled,
		"hash":       uuid.NewString(),
	}
	if mp.Config != nil {
		state["config"] = mp.Config
	}
	return state
}

func (m *Manager) emitState(kind EntityKind, id string) {
	switch kind {
	case KindContext:
		if c, ok := m.contexts[id]; ok {
			m.emit.EmitState(kind, m.contextState(c))
		}
	case KindSurface:
		if s, ok := m.surfaces[id]; ok {
			m.emit.EmitState(kind, m.surfaceState(s))
		}
	case KindMapping:
		if mp, ok := m.mappings[id]; ok {
			m.emit.EmitState(kind, m.mappingState(mp))
		}
	}
}

func (m *Manager) emitStatus(kind EntityKind, id string) {
	status := func(enabled bool, lastError string) map[string]any {
		out := map[string]any{"status": "disabled"}
		if enabled {
			out["status"] = "enabled"
		}
		if lastError != "" {
			out["lastError"] = lastError
		}
		return out
	}
	switch kind {
	case KindContext:
		if c, ok := m.contexts[id]; ok {
			payload := status(c.Enabled, c.lastError)
			payload["hasTexture"] = c.texture != nil
			m.emit.EmitStatus(kind, id, payload)
		}
	case KindSurface:
		if s, ok := m.surfaces[id]; ok {
			m.emit.EmitStatus(kind, id, status(s.Enabled, s.lastError))
		}
	case KindMapping:
		if mp, ok := m.mappings[id]; ok {
			m.emit.EmitStatus(kind, id, status(mp.Enabled, mp.lastError))
		}
	}
}
