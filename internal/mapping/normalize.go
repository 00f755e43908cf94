package mapping

import "strings"

// Legacy mapping types normalize into the two canonical types plus a derived
// mode string stored into the config blob. An unrecognized type is treated as
// a deletion: consumers may introduce future types, and the forward-compatible
// reading of such an event is "this entity is no longer ours to render".

type normalizedType struct {
	canonical string
	// mode lands in config.uvMode (surface-uv) or config.projectionType
	// (surface-projection) when the blob does not already carry one.
	mode    string
	deleted bool
}

func normalizeMappingType(raw string) normalizedType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", TypeSurfaceUV:
		return normalizedType{canonical: TypeSurfaceUV}
	case TypeSurfaceProjection:
		return normalizedType{canonical: TypeSurfaceProjection}
	case "direct":
		return normalizedType{canonical: TypeSurfaceUV, mode: "direct"}
	case "feed", "surface-feed":
		return normalizedType{canonical: TypeSurfaceUV, mode: "feed"}
	case "perspective", "cylindrical", "spherical", "parallel", "radial", "mesh", "fisheye":
		return normalizedType{canonical: TypeSurfaceProjection, mode: strings.ToLower(strings.TrimSpace(raw))}
	case "custom-matrix", "custom matrix", "matrix":
		return normalizedType{canonical: TypeSurfaceProjection, mode: "custom-matrix"}
	case "camera-plate", "camera plate", "cameraplate":
		return normalizedType{canonical: TypeSurfaceProjection, mode: "camera-plate"}
	case "spatial":
		return normalizedType{canonical: TypeSurfaceProjection, mode: "spatial"}
	case "depth-map", "depth map", "depthmap":
		return normalizedType{canonical: TypeSurfaceProjection, mode: "depth-map"}
	default:
		return normalizedType{deleted: true}
	}
}

// applyTypeNormalization rewrites a mapping's type to its canonical form and
// records the derived mode in the config blob unless one is already present.
// It reports whether the raw type was unrecognized.
func applyTypeNormalization(m *ContentMapping, raw string) (deleted bool) {
	n := normalizeMappingType(raw)
	if n.deleted {
		return true
	}
	m.Type = n.canonical
	if n.mode == "" {
		return false
	}
	if m.Config == nil {
		m.Config = map[string]any{}
	}
	switch n.canonical {
	case TypeSurfaceUV:
		if _, ok := m.Config["uvMode"]; !ok {
			m.Config["uvMode"] = n.mode
		}
	case TypeSurfaceProjection:
		if _, ok := m.Config["projectionType"]; !ok {
			m.Config["projectionType"] = n.mode
		}
	}
	return false
}

// displayType derives the outbound type string. Mappings normalized from the
// legacy "feed" alias serialize back out as "feed" so feed-oriented consumers
// round-trip cleanly; everything else reports its canonical type.
func displayType(m *ContentMapping) string {
	if m.Type == TypeSurfaceUV && blobString(m.Config, "uvMode", "") == "feed" {
		return "feed"
	}
	if m.Type == "" {
		return TypeSurfaceUV
	}
	return m.Type
}

// projectionTypeIndex maps a derived projection mode to the index consumed by
// the shader. Camera-plate, spatial, and depth-map do not have dedicated
// handling yet and alias to perspective; a known gap, not a bug.
func projectionTypeIndex(mode string) int {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "cylindrical":
		return 1
	case "planar":
		return 2
	case "spherical":
		return 3
	case "parallel":
		return 4
	case "radial":
		return 5
	case "mesh":
		return 6
	case "fisheye":
		return 7
	case "custom-matrix":
		return 8
	default:
		return 0
	}
}
