package mapping

import (
	"beamer/internal/scene"
)

// EntityKind identifies one of the three entity stores.
type EntityKind string

const (
	KindContext EntityKind = "context"
	KindSurface EntityKind = "surface"
	KindMapping EntityKind = "mapping"
)

// Source types accepted by render contexts.
const (
	SourceCamera     = "camera"
	SourceAssetStore = "asset-store"
)

// Canonical mapping types. Legacy aliases normalize into one of these two.
const (
	TypeSurfaceUV         = "surface-uv"
	TypeSurfaceProjection = "surface-projection"
)

// RenderContext is a named, enableable source of pixels.
type RenderContext struct {
	ID          string
	Name        string
	ProjectID   string
	SourceType  string
	CameraID    string
	AssetID     string
	Width       int
	Height      int
	CaptureMode string
	Enabled     bool

	// Runtime state, rebuilt by resolution.
	proxy        scene.Camera
	sourceCamera scene.Camera
	texture      *scene.Texture
	lastError    string
}

// Texture returns the currently resolved texture, nil when unresolved.
func (c *RenderContext) Texture() *scene.Texture { return c.texture }

// LastError returns the most recent resolution error, empty when healthy.
func (c *RenderContext) LastError() string { return c.lastError }

// MappingSurface binds an abstract target reference to a concrete mesh.
type MappingSurface struct {
	ID                string
	Name              string
	ProjectID         string
	TargetID          string
	UVChannel         int
	MaterialSlots     []int
	MeshComponentName string
	Enabled           bool

	// Runtime state.
	mesh      scene.MeshComponent
	originals map[int]scene.Material
	dynamics  map[int]scene.DynamicMaterial
	lastError string
}

// Mesh returns the resolved mesh component, nil when unresolved.
func (s *MappingSurface) Mesh() scene.MeshComponent { return s.mesh }

// LastError returns the most recent resolution error, empty when healthy.
func (s *MappingSurface) LastError() string { return s.lastError }

// DynamicMaterial returns the dynamic instance created for a slot, if any.
func (s *MappingSurface) DynamicMaterial(slot int) scene.DynamicMaterial {
	return s.dynamics[slot]
}

// ContentMapping is the declarative link: project context X onto surfaces
// [Y, Z] using projection rule R at opacity O.
type ContentMapping struct {
	ID         string
	Name       string
	ProjectID  string
	Type       string
	ContextID  string
	SurfaceIDs []string
	Opacity    float64
	Enabled    bool
	Config     map[string]any

	params    mappingParams
	lastError string
}

// LastError returns the most recent validation error, empty when healthy.
func (m *ContentMapping) LastError() string { return m.lastError }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
