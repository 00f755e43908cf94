package mapping

import (
	"strings"

	"beamer/internal/scene"
)

// The config blob is parsed exactly once, whenever the blob or the mapping
// type mutates, into a tagged variant: shared placement fields plus one typed
// payload per projection family. The parameter engine reads only this parsed
// form; the raw maps are never consulted at apply time.

// UVTransformParams is the surface-uv placement: scale, offset, and a
// rotation around the declared pivot.
type UVTransformParams struct {
	ScaleU, ScaleV   float64
	OffsetU, OffsetV float64
	RotationDeg      float64
	PivotU, PivotV   float64
}

// PerspectiveParams feed the base frustum. AspectRatio zero means "resolve
// from the context's resolution at apply time".
type PerspectiveParams struct {
	FOV         float64
	AspectRatio float64
}

// CylindricalParams cover both the cylindrical and radial families; Radial
// distinguishes them for the shader.
type CylindricalParams struct {
	Axis       scene.Vec3
	Radius     float64
	Height     float64
	ArcStart   float64
	ArcEnd     float64
	EmitInward bool
	Radial     bool
}

// SphericalParams describe the projection sphere. A nil Center means the
// projector position.
type SphericalParams struct {
	Center        *scene.Vec3
	Radius        float64
	HorizontalArc float64
	VerticalArc   float64
}

// ParallelParams size the orthographic frustum.
type ParallelParams struct {
	SizeW, SizeH float64
}

// MeshParams carry the viewer eyepoint; nil means the projector position.
type MeshParams struct {
	Eyepoint *scene.Vec3
}

// FisheyeParams select the lens model and its field of view.
type FisheyeParams struct {
	FOV       float64
	LensModel int
}

// CustomMatrixParams hold a caller-supplied projection matrix verbatim.
type CustomMatrixParams struct {
	Matrix Mat4
}

// projectionParams is the parsed projection side of a mapping config. Index
// tags the family; at most one family pointer is non-nil, and Perspective
// backs the frustum for every family that lacks its own matrix.
type projectionParams struct {
	Index     int
	Projector scene.Transform
	Near, Far float64

	Perspective PerspectiveParams
	Cylindrical *CylindricalParams
	Spherical   *SphericalParams
	Parallel    *ParallelParams
	Mesh        *MeshParams
	Fisheye     *FisheyeParams
	Custom      *CustomMatrixParams

	MaskStart, MaskEnd float64
	ClipOutside        bool
	BorderExpansion    float64
}

// mappingParams is the fully parsed form of one mapping's config blob.
type mappingParams struct {
	ContentMode float64
	UV          UVTransformParams
	FeedMode    bool
	FeedRects   map[string]uvRect
	FeedRect    *uvRect
	Projection  projectionParams
}

// refreshParams reparses the config blob into the typed form. Every mutation
// of Config or Type must call it.
func (m *ContentMapping) refreshParams() {
	m.params = parseMappingParams(m.Config)
}

func parseMappingParams(cfg map[string]any) mappingParams {
	p := mappingParams{
		ContentMode: contentModeIndex(blobString(cfg, "contentMode", "stretch")),
		UV:          parseUVTransform(blobSubMap(cfg, "uvTransform")),
		FeedMode:    blobString(cfg, "uvMode", "") == "feed",
		Projection:  parseProjection(cfg),
	}
	if cfg == nil {
		return p
	}
	switch v := cfg["feedRects"].(type) {
	case map[string]any:
		p.FeedRects = map[string]uvRect{}
		for sid, raw := range v {
			if entry := blobMap(raw); entry != nil {
				p.FeedRects[sid] = rectFromBlob(entry)
			}
		}
	case []any:
		p.FeedRects = map[string]uvRect{}
		for _, raw := range v {
			entry := blobMap(raw)
			if entry == nil {
				continue
			}
			if sid := blobString(entry, "surfaceId", ""); sid != "" {
				p.FeedRects[sid] = rectFromBlob(entry)
			}
		}
	}
	if entry := blobSubMap(cfg, "feedRect"); entry != nil {
		rect := rectFromBlob(entry)
		p.FeedRect = &rect
	}
	return p
}

func parseUVTransform(uv map[string]any) UVTransformParams {
	return UVTransformParams{
		ScaleU:      blobFloat(uv, "scaleU", 1),
		ScaleV:      blobFloat(uv, "scaleV", 1),
		OffsetU:     blobFloat(uv, "offsetU", 0),
		OffsetV:     blobFloat(uv, "offsetV", 0),
		RotationDeg: blobFloat(uv, "rotationDeg", 0),
		PivotU:      blobFloat(uv, "pivotU", 0.5),
		PivotV:      blobFloat(uv, "pivotV", 0.5),
	}
}

func parseProjection(cfg map[string]any) projectionParams {
	index := projectionTypeIndex(blobString(cfg, "projectionType", "perspective"))
	p := projectionParams{
		Index: index,
		Projector: scene.Transform{
			Position: blobVec3(cfg, "projectorPosition", scene.Vec3{}),
			Rotation: blobRotator(cfg, "projectorRotation"),
		},
		Near: blobFloat(cfg, "near", 10),
		Far:  blobFloat(cfg, "far", 10000),
		Perspective: PerspectiveParams{
			FOV:         blobFloat(cfg, "fov", 60),
			AspectRatio: blobFloat(cfg, "aspectRatio", 0),
		},
		MaskStart:       blobFloat(cfg, "angleMaskStart", 0),
		MaskEnd:         blobFloat(cfg, "angleMaskEnd", 360),
		ClipOutside:     blobFlag(cfg, "clipOutsideRegion", false),
		BorderExpansion: blobFloat(cfg, "borderExpansion", 0),
	}

	switch index {
	case 1, 5:
		p.Cylindrical = parseCylindrical(cfg, index == 5)
	case 3:
		sph := SphericalParams{
			Radius:        blobFloat(cfg, "sphereRadius", 500),
			HorizontalArc: blobFloat(cfg, "horizontalArc", 360),
			VerticalArc:   blobFloat(cfg, "verticalArc", 180),
		}
		if cfg != nil {
			if _, ok := cfg["center"]; ok {
				center := blobVec3(cfg, "center", p.Projector.Position)
				sph.Center = &center
			}
		}
		p.Spherical = &sph
	case 4:
		p.Parallel = &ParallelParams{
			SizeW: blobFloat(cfg, "sizeW", 1000),
			SizeH: blobFloat(cfg, "sizeH", 1000),
		}
	case 6:
		mesh := MeshParams{}
		if cfg != nil {
			if _, ok := cfg["eyepoint"]; ok {
				ep := blobVec3(cfg, "eyepoint", p.Projector.Position)
				mesh.Eyepoint = &ep
			}
		}
		p.Mesh = &mesh
	case 7:
		p.Fisheye = &FisheyeParams{
			FOV:       blobFloat(cfg, "fisheyeFov", 180),
			LensModel: lensModelIndex(blobString(cfg, "lensType", "equidistant")),
		}
	case 8:
		matrix := blobSubMap(cfg, "customProjectionMatrix")
		if matrix == nil {
			matrix = blobSubMap(cfg, "matrix")
		}
		p.Custom = &CustomMatrixParams{Matrix: customMat4(matrix)}
	}
	return p
}

// parseCylindrical reads the nested cylindrical object first, then flat
// overrides. Editor payloads nest the shape; scripted payloads flatten it.
func parseCylindrical(cfg map[string]any, radial bool) *CylindricalParams {
	axis := "z"
	emit := "outward"
	out := CylindricalParams{Radius: 500, Height: 1000, ArcStart: 0, ArcEnd: 360, Radial: radial}
	if cyl := blobSubMap(cfg, "cylindrical"); cyl != nil {
		axis = blobString(cyl, "axis", axis)
		out.Radius = blobFloat(cyl, "radius", out.Radius)
		out.Height = blobFloat(cyl, "height", out.Height)
		out.ArcStart = blobFloat(cyl, "startAngle", out.ArcStart)
		out.ArcEnd = blobFloat(cyl, "endAngle", out.ArcEnd)
		emit = blobString(cyl, "emitDirection", emit)
	}
	axis = blobString(cfg, "axis", axis)
	emit = blobString(cfg, "emitDirection", emit)
	out.Radius = blobFloat(cfg, "cylinderRadius", blobFloat(cfg, "radius", out.Radius))
	out.Height = blobFloat(cfg, "cylinderHeight", blobFloat(cfg, "height", out.Height))
	out.ArcStart = blobFloat(cfg, "arcStart", blobFloat(cfg, "startAngle", out.ArcStart))
	out.ArcEnd = blobFloat(cfg, "arcEnd", blobFloat(cfg, "endAngle", out.ArcEnd))
	out.Axis = axisVector(axis)
	out.EmitInward = strings.EqualFold(emit, "inward")
	return &out
}

// feedRect returns the UV sub-window for one surface. A per-surface entry
// wins over the shared rect; feed mode without any rect means the full frame.
func (p *mappingParams) feedRect(surfaceID string) (uvRect, bool) {
	if rect, ok := p.FeedRects[surfaceID]; ok {
		return rect, true
	}
	if p.FeedRect != nil {
		return *p.FeedRect, true
	}
	if p.FeedMode {
		return uvRect{u: 0, v: 0, width: 1, height: 1}, true
	}
	return uvRect{}, false
}
