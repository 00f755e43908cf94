package mapping

import "strings"

// Action target paths follow /content-mapping/{kind}/{id}. Recognized actions
// perform a partial-field update followed by a full re-resolve and re-emit;
// unrecognized actions and malformed paths report not-handled with no side
// effects.

const targetPathPrefix = "/content-mapping/"

// TargetPath builds the action target path for an entity.
func TargetPath(kind EntityKind, id string) string {
	return targetPathPrefix + string(kind) + "/" + id
}

// HandleAction routes one action invocation. It reports whether the action
// was recognized and applied.
func (m *Manager) HandleAction(targetPath, action string, payload map[string]any) bool {
	rest, ok := strings.CutPrefix(targetPath, targetPathPrefix)
	if !ok {
		return false
	}
	kind, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return false
	}

	switch EntityKind(kind) {
	case KindContext:
		return m.contextAction(id, action, payload)
	case KindSurface:
		return m.surfaceAction(id, action, payload)
	case KindMapping:
		return m.mappingAction(id, action, payload)
	default:
		return false
	}
}

func (m *Manager) contextAction(id, action string, payload map[string]any) bool {
	c, ok := m.contexts[id]
	if !ok {
		return false
	}
	switch action {
	case "setEnabled":
		c.Enabled = blobFlag(payload, "enabled", c.Enabled)
	case "setCameraId":
		c.CameraID = blobString(payload, "cameraId", "")
	case "setAssetId":
		c.AssetID = blobString(payload, "assetId", "")
	case "setResolution":
		c.Width = blobInt(payload, "width", c.Width)
		c.Height = blobInt(payload, "height", c.Height)
	case "setCaptureMode":
		c.CaptureMode = blobString(payload, "captureMode", c.CaptureMode)
	default:
		return false
	}
	m.afterUpsert(KindContext, id)
	return true
}

func (m *Manager) surfaceAction(id, action string, payload map[string]any) bool {
	s, ok := m.surfaces[id]
	if !ok {
		return false
	}
	switch action {
	case "setEnabled":
		s.Enabled = blobFlag(payload, "enabled", s.Enabled)
	case "setTargetId":
		s.TargetID = blobString(payload, "targetId", "")
	case "setUvChannel":
		s.UVChannel = blobInt(payload, "uvChannel", s.UVChannel)
	case "setMaterialSlots":
		s.MaterialSlots = intSlice(payload, "materialSlots")
	case "setMeshComponentName":
		s.MeshComponentName = blobString(payload, "meshComponentName", "")
	default:
		return false
	}
	rollbackSurface(s)
	m.afterUpsert(KindSurface, id)
	return true
}

func (m *Manager) mappingAction(id, action string, payload map[string]any) bool {
	mp, ok := m.mappings[id]
	if !ok {
		return false
	}
	switch action {
	case "setEnabled":
		mp.Enabled = blobFlag(payload, "enabled", mp.Enabled)
	case "setOpacity":
		mp.Opacity = clamp01(blobFloat(payload, "opacity", mp.Opacity))
	case "setContextId":
		mp.ContextID = blobString(payload, "contextId", "")
	case "setSurfaceIds":
		mp.SurfaceIDs = stringSlice(payload, "surfaceIds")
	case "setProjection":
		// Projection tweaks merge into the config blob so unrelated keys
		// survive.
		if mp.Config == nil {
			mp.Config = map[string]any{}
		}
		for key, value := range payload {
			mp.Config[key] = value
		}
		mp.refreshParams()
	case "setUVTransform":
		if mp.Config == nil {
			mp.Config = map[string]any{}
		}
		uv := blobSubMap(mp.Config, "uvTransform")
		if uv == nil {
			uv = map[string]any{}
		}
		for key, value := range payload {
			uv[key] = value
		}
		mp.Config["uvTransform"] = uv
		mp.refreshParams()
	default:
		return false
	}
	m.afterUpsert(KindMapping, id)
	return true
}
