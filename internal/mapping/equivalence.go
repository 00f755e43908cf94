package mapping

import (
	"sort"
)

// Upsert payloads are full-entity JSON objects. Each kind parses into a fresh
// candidate entity with the same defaults the CRUD surface applies, then the
// candidate is compared field-wise against the stored entity; an equivalent
// upsert is a no-op producing no emission and no rebuild. Array fields compare
// as sorted sets and config blobs compare by canonical serialization.

func contextFromPayload(id string, payload map[string]any) *RenderContext {
	return &RenderContext{
		ID:          id,
		Name:        blobString(payload, "name", ""),
		ProjectID:   blobString(payload, "projectId", ""),
		SourceType:  blobString(payload, "sourceType", ""),
		CameraID:    blobString(payload, "cameraId", ""),
		AssetID:     blobString(payload, "assetId", ""),
		Width:       blobInt(payload, "width", 0),
		Height:      blobInt(payload, "height", 0),
		CaptureMode: blobString(payload, "captureMode", ""),
		Enabled:     blobFlag(payload, "enabled", true),
	}
}

func surfaceFromPayload(id string, payload map[string]any) *MappingSurface {
	return &MappingSurface{
		ID:                id,
		Name:              blobString(payload, "name", ""),
		ProjectID:         blobString(payload, "projectId", ""),
		TargetID:          blobString(payload, "targetId", ""),
		UVChannel:         blobInt(payload, "uvChannel", 0),
		MaterialSlots:     intSlice(payload, "materialSlots"),
		MeshComponentName: blobString(payload, "meshComponentName", ""),
		Enabled:           blobFlag(payload, "enabled", true),
	}
}

// mappingFromPayload parses a mapping payload, normalizing its type. The
// second return is true when the raw type is unrecognized, which callers must
// treat as a deletion.
func mappingFromPayload(id string, payload map[string]any) (*ContentMapping, bool) {
	m := &ContentMapping{
		ID:         id,
		Name:       blobString(payload, "name", ""),
		ProjectID:  blobString(payload, "projectId", ""),
		ContextID:  blobString(payload, "contextId", ""),
		SurfaceIDs: stringSlice(payload, "surfaceIds"),
		Opacity:    clamp01(blobFloat(payload, "opacity", 1)),
		Enabled:    blobFlag(payload, "enabled", true),
		Config:     configBlob(payload, "config"),
	}
	if applyTypeNormalization(m, blobString(payload, "type", "")) {
		return nil, true
	}
	m.refreshParams()
	return m, false
}

// configBlob accepts either an inline JSON object or a serialized JSON string.
func configBlob(payload map[string]any, key string) map[string]any {
	if payload == nil {
		return nil
	}
	switch v := payload[key].(type) {
	case map[string]any:
		return v
	case string:
		parsed, err := parseJSONValue(v)
		if err != nil {
			return nil
		}
		return blobMap(parsed)
	default:
		return nil
	}
}

func intSlice(payload map[string]any, key string) []int {
	if payload == nil {
		return nil
	}
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		out = append(out, int(anyFloat(v, 0)))
	}
	return out
}

func stringSlice(payload map[string]any, key string) []string {
	if payload == nil {
		return nil
	}
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intSetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func contextEquivalent(a, b *RenderContext) bool {
	return a.Name == b.Name &&
		a.ProjectID == b.ProjectID &&
		a.SourceType == b.SourceType &&
		a.CameraID == b.CameraID &&
		a.AssetID == b.AssetID &&
		a.Width == b.Width &&
		a.Height == b.Height &&
		a.CaptureMode == b.CaptureMode &&
		a.Enabled == b.Enabled
}

func surfaceEquivalent(a, b *MappingSurface) bool {
	return a.Name == b.Name &&
		a.ProjectID == b.ProjectID &&
		a.TargetID == b.TargetID &&
		a.UVChannel == b.UVChannel &&
		a.MeshComponentName == b.MeshComponentName &&
		a.Enabled == b.Enabled &&
		intSetEqual(a.MaterialSlots, b.MaterialSlots)
}

func mappingEquivalent(a, b *ContentMapping) bool {
	return a.Name == b.Name &&
		a.ProjectID == b.ProjectID &&
		a.Type == b.Type &&
		a.ContextID == b.ContextID &&
		a.Opacity == b.Opacity &&
		a.Enabled == b.Enabled &&
		stringSetEqual(a.SurfaceIDs, b.SurfaceIDs) &&
		canonicalJSON(a.Config) == canonicalJSON(b.Config)
}
