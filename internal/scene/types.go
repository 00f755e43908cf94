package scene

// Vec3 is a position or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec4 is a generic four-component parameter value (vectors, colors, matrix rows).
type Vec4 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Rotator is an orientation in degrees.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Transform is a world-space placement.
type Transform struct {
	Position Vec3    `json:"position"`
	Rotation Rotator `json:"rotation"`
}

// WorldKind distinguishes the runtime worlds a scene may host.
type WorldKind int

const (
	WorldEditor WorldKind = iota
	WorldEditorPreview
	WorldPlayInEditor
	WorldGame
	WorldInactive
)

// Relevant reports whether entities in a world of this kind should be
// considered by resolution passes.
func (k WorldKind) Relevant() bool {
	switch k {
	case WorldEditor, WorldEditorPreview, WorldPlayInEditor, WorldGame:
		return true
	default:
		return false
	}
}

func (k WorldKind) String() string {
	switch k {
	case WorldEditor:
		return "editor"
	case WorldEditorPreview:
		return "editor-preview"
	case WorldPlayInEditor:
		return "play-in-editor"
	case WorldGame:
		return "game"
	default:
		return "inactive"
	}
}

// CaptureMode selects what a capture proxy renders into its target.
type CaptureMode int

const (
	CaptureFinalColor CaptureMode = iota
	CaptureSceneColorHDR
)

// Texture is an opaque pixel-source handle. Pointer identity matters: two
// distinct *Texture values are two distinct textures even with equal fields.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Path is set for textures decoded from downloaded asset files.
	Path string
}
