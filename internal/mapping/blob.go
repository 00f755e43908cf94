package mapping

import (
	"github.com/ohler55/ojg/oj"

	"beamer/internal/scene"
)

// Config blobs arrive as arbitrary JSON objects. They are parsed once (by the
// event layer or ojg on cache load) into map[string]any and read through the
// typed accessors below, which apply per-field defaults.

// canonicalJSON serializes a parsed JSON value with sorted keys, so two blobs
// with equal content compare equal as strings.
func canonicalJSON(value any) string {
	if value == nil {
		return ""
	}
	return oj.JSON(value, &oj.Options{Sort: true})
}

// parseJSONValue parses a JSON document into the generic form the blob
// accessors operate on.
func parseJSONValue(data string) (any, error) {
	return oj.ParseString(data)
}

func blobMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func blobSubMap(blob map[string]any, key string) map[string]any {
	if blob == nil {
		return nil
	}
	return blobMap(blob[key])
}

func blobFloat(blob map[string]any, key string, fallback float64) float64 {
	if blob == nil {
		return fallback
	}
	switch v := blob[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func blobInt(blob map[string]any, key string, fallback int) int {
	if blob == nil {
		return fallback
	}
	switch v := blob[key].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func blobString(blob map[string]any, key, fallback string) string {
	if blob == nil {
		return fallback
	}
	if s, ok := blob[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// blobFlag reads a boolean that consumers are allowed to express as either a
// JSON bool or a number (non-zero = true).
func blobFlag(blob map[string]any, key string, fallback bool) bool {
	if blob == nil {
		return fallback
	}
	switch v := blob[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		return fallback
	}
}

// blobVec3 reads a vector expressed either as {x,y,z} or as a 3-element array.
func blobVec3(blob map[string]any, key string, fallback scene.Vec3) scene.Vec3 {
	if blob == nil {
		return fallback
	}
	switch v := blob[key].(type) {
	case map[string]any:
		return scene.Vec3{
			X: blobFloat(v, "x", fallback.X),
			Y: blobFloat(v, "y", fallback.Y),
			Z: blobFloat(v, "z", fallback.Z),
		}
	case []any:
		out := fallback
		if len(v) > 0 {
			out.X = anyFloat(v[0], fallback.X)
		}
		if len(v) > 1 {
			out.Y = anyFloat(v[1], fallback.Y)
		}
		if len(v) > 2 {
			out.Z = anyFloat(v[2], fallback.Z)
		}
		return out
	default:
		return fallback
	}
}

// blobRotator reads {pitch,yaw,roll}, defaulting missing components to zero.
func blobRotator(blob map[string]any, key string) scene.Rotator {
	sub := blobSubMap(blob, key)
	if sub == nil {
		return scene.Rotator{}
	}
	return scene.Rotator{
		Pitch: blobFloat(sub, "pitch", 0),
		Yaw:   blobFloat(sub, "yaw", 0),
		Roll:  blobFloat(sub, "roll", 0),
	}
}

func anyFloat(value any, fallback float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return fallback
	}
}
