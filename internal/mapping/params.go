package mapping

import (
	"math"

	"beamer/internal/scene"
)

// Shader parameter names written by the projection parameter engine. The
// shader consuming them is an external collaborator; this engine only
// computes and delivers values.
const (
	ParamOpacity        = "Opacity"
	ParamPreviewTint    = "PreviewTint"
	ParamUVChannel      = "UVChannel"
	ParamCoverageDebug  = "CoverageDebug"
	ParamContentTexture = "ContentTexture"
	ParamContentMode    = "ContentMode"
	ParamMappingMode    = "MappingMode"

	ParamUVTransform = "UVTransform"
	ParamUVRotation  = "UVRotation"
	ParamUVScaleU    = "UVScaleU"
	ParamUVScaleV    = "UVScaleV"
	ParamUVOffsetU   = "UVOffsetU"
	ParamUVOffsetV   = "UVOffsetV"

	ParamProjectionType = "ProjectionType"
	ParamVPRow0         = "VPRow0"
	ParamVPRow1         = "VPRow1"
	ParamVPRow2         = "VPRow2"
	ParamVPRow3         = "VPRow3"
	ParamParallelSize   = "ParallelSize"

	ParamProjectionAxis  = "ProjectionAxis"
	ParamCylinderRadius  = "CylinderRadius"
	ParamCylinderHeight  = "CylinderHeight"
	ParamArcStart        = "ArcStart"
	ParamArcEnd          = "ArcEnd"
	ParamEmitInward      = "EmitInward"
	ParamRadialMode      = "RadialMode"
	ParamSphereCenter    = "SphereCenter"
	ParamSphereRadius    = "SphereRadius"
	ParamHorizontalArc   = "HorizontalArc"
	ParamVerticalArc     = "VerticalArc"
	ParamEyepoint        = "Eyepoint"
	ParamFisheyeFOV      = "FisheyeFOV"
	ParamLensModel       = "LensModel"
	ParamAngleMaskStart  = "AngleMaskStart"
	ParamAngleMaskEnd    = "AngleMaskEnd"
	ParamClipOutside     = "ClipOutside"
	ParamBorderExpansion = "BorderExpansion"
)

// Preview tints signal readiness: white when fully wired, cyan while no
// context has resolved, amber when the context exists but has no texture yet.
var (
	tintReady     = scene.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	tintNoContext = scene.Vec4{X: 0, Y: 1, Z: 1, W: 1}
	tintNoTexture = scene.Vec4{X: 1, Y: 0.75, Z: 0, W: 1}
)

// applyMapping writes the full parameter set for one (mapping, surface,
// context) triple into a dynamic material instance per declared slot. ctx may
// be nil when the mapping's context is missing; placeholder visuals are
// written so the surface shows a "not ready" cue instead of stale content.
func (m *Manager) applyMapping(mp *ContentMapping, s *MappingSurface, ctx *RenderContext) {
	mesh := s.mesh
	if mesh == nil || !mesh.Valid() {
		s.lastError = "Mesh component not resolved"
		return
	}
	if mesh.MaterialSlotCount() == 0 {
		s.lastError = "Mesh has no material slots"
		return
	}

	slots := s.MaterialSlots
	if len(slots) == 0 {
		slots = allSlots(mesh.MaterialSlotCount())
	}

	for _, slot := range slots {
		if slot < 0 || slot >= mesh.MaterialSlotCount() {
			// A bad slot never blocks the remaining valid slots.
			s.lastError = "Invalid material slot"
			continue
		}
		dyn := s.dynamics[slot]
		if dyn == nil {
			original := mesh.Material(slot)
			if s.originals == nil {
				s.originals = map[int]scene.Material{}
			}
			if s.dynamics == nil {
				s.dynamics = map[int]scene.DynamicMaterial{}
			}
			s.originals[slot] = original
			dyn = m.query.NewDynamicMaterial(original)
			s.dynamics[slot] = dyn
			mesh.SetMaterial(slot, dyn)
		}
		m.writeParams(dyn, mp, s, ctx)
	}
}

func (m *Manager) writeParams(dyn scene.DynamicMaterial, mp *ContentMapping, s *MappingSurface, ctx *RenderContext) {
	opacity := 0.0
	if mp.Enabled {
		opacity = clamp01(mp.Opacity)
	}
	dyn.SetScalar(ParamOpacity, opacity)

	switch {
	case ctx == nil:
		dyn.SetVector(ParamPreviewTint, tintNoContext)
	case ctx.texture == nil:
		dyn.SetVector(ParamPreviewTint, tintNoTexture)
	default:
		dyn.SetVector(ParamPreviewTint, tintReady)
	}

	dyn.SetScalar(ParamUVChannel, float64(s.UVChannel))

	coverage := 0.0
	if m.coveragePreview {
		coverage = 1
	}
	dyn.SetScalar(ParamCoverageDebug, coverage)

	if ctx != nil && ctx.texture != nil {
		dyn.SetTexture(ParamContentTexture, ctx.texture)
	} else {
		dyn.SetTexture(ParamContentTexture, m.defaultTexture)
	}

	dyn.SetScalar(ParamContentMode, mp.params.ContentMode)

	switch mp.Type {
	case TypeSurfaceProjection:
		dyn.SetScalar(ParamMappingMode, 1)
		m.writeProjectionParams(dyn, mp, ctx)
	default:
		dyn.SetScalar(ParamMappingMode, 0)
		writeUVParams(dyn, mp, s)
	}
}

func contentModeIndex(mode string) float64 {
	switch mode {
	case "crop":
		return 1
	case "fit":
		return 2
	case "pixel-perfect":
		return 3
	default:
		return 0
	}
}

// writeUVParams emits the surface-uv placement: an optional feed-rect
// sub-window, explicit scale/offset, and a pivot recentring of the offset
// (offset - pivot + 0.5) so rotation pivots land where declared.
func writeUVParams(dyn scene.DynamicMaterial, mp *ContentMapping, s *MappingSurface) {
	uv := mp.params.UV
	scaleU := uv.ScaleU
	scaleV := uv.ScaleV
	offsetU := uv.OffsetU
	offsetV := uv.OffsetV

	if rect, ok := mp.params.feedRect(s.ID); ok {
		rectW := math.Max(1e-4, rect.width)
		rectH := math.Max(1e-4, rect.height)
		offsetU = rect.u + offsetU*rectW
		offsetV = rect.v + offsetV*rectH
		scaleU *= rectW
		scaleV *= rectH
	}

	offsetU = offsetU - uv.PivotU + 0.5
	offsetV = offsetV - uv.PivotV + 0.5

	dyn.SetVector(ParamUVTransform, scene.Vec4{X: scaleU, Y: scaleV, Z: offsetU, W: offsetV})
	dyn.SetScalar(ParamUVRotation, uv.RotationDeg)
	dyn.SetScalar(ParamUVScaleU, scaleU)
	dyn.SetScalar(ParamUVScaleV, scaleV)
	dyn.SetScalar(ParamUVOffsetU, offsetU)
	dyn.SetScalar(ParamUVOffsetV, offsetV)
}

type uvRect struct {
	u, v, width, height float64
}

func rectFromBlob(blob map[string]any) uvRect {
	return uvRect{
		u:      blobFloat(blob, "u", 0),
		v:      blobFloat(blob, "v", 0),
		width:  blobFloat(blob, "width", 1),
		height: blobFloat(blob, "height", 1),
	}
}

func (m *Manager) writeProjectionParams(dyn scene.DynamicMaterial, mp *ContentMapping, ctx *RenderContext) {
	p := &mp.params.Projection
	dyn.SetScalar(ParamProjectionType, float64(p.Index))

	view := viewMat4(p.Projector)

	var projection Mat4
	switch {
	case p.Parallel != nil:
		projection = orthographicMat4(p.Parallel.SizeW, p.Parallel.SizeH, p.Near, p.Far)
		dyn.SetVector(ParamParallelSize, scene.Vec4{X: p.Parallel.SizeW, Y: p.Parallel.SizeH})
	case p.Custom != nil:
		projection = p.Custom.Matrix
	default:
		aspect := projectionAspect(p.Perspective.AspectRatio, ctx)
		projection = perspectiveMat4(p.Perspective.FOV, aspect, p.Near, p.Far)
	}

	vp := view.mul(projection)
	dyn.SetVector(ParamVPRow0, vp.row(0))
	dyn.SetVector(ParamVPRow1, vp.row(1))
	dyn.SetVector(ParamVPRow2, vp.row(2))
	dyn.SetVector(ParamVPRow3, vp.row(3))

	switch {
	case p.Cylindrical != nil:
		cyl := p.Cylindrical
		dyn.SetVector(ParamProjectionAxis, scene.Vec4{X: cyl.Axis.X, Y: cyl.Axis.Y, Z: cyl.Axis.Z})
		dyn.SetScalar(ParamCylinderRadius, cyl.Radius)
		dyn.SetScalar(ParamCylinderHeight, cyl.Height)
		dyn.SetScalar(ParamArcStart, cyl.ArcStart)
		dyn.SetScalar(ParamArcEnd, cyl.ArcEnd)
		dyn.SetScalar(ParamEmitInward, boolScalar(cyl.EmitInward))
		dyn.SetScalar(ParamRadialMode, boolScalar(cyl.Radial))
	case p.Spherical != nil:
		center := p.Projector.Position
		if p.Spherical.Center != nil {
			center = *p.Spherical.Center
		}
		dyn.SetVector(ParamSphereCenter, scene.Vec4{X: center.X, Y: center.Y, Z: center.Z})
		dyn.SetScalar(ParamSphereRadius, p.Spherical.Radius)
		dyn.SetScalar(ParamHorizontalArc, p.Spherical.HorizontalArc)
		dyn.SetScalar(ParamVerticalArc, p.Spherical.VerticalArc)
	case p.Mesh != nil:
		eyepoint := p.Projector.Position
		if p.Mesh.Eyepoint != nil {
			eyepoint = *p.Mesh.Eyepoint
		}
		dyn.SetVector(ParamEyepoint, scene.Vec4{X: eyepoint.X, Y: eyepoint.Y, Z: eyepoint.Z})
	case p.Fisheye != nil:
		dyn.SetScalar(ParamFisheyeFOV, p.Fisheye.FOV)
		dyn.SetScalar(ParamLensModel, float64(p.Fisheye.LensModel))
	}

	dyn.SetScalar(ParamAngleMaskStart, p.MaskStart)
	dyn.SetScalar(ParamAngleMaskEnd, p.MaskEnd)
	dyn.SetScalar(ParamClipOutside, boolScalar(p.ClipOutside))
	dyn.SetScalar(ParamBorderExpansion, p.BorderExpansion)
}

func boolScalar(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// projectionAspect resolves the aspect ratio: explicit config value first,
// the context's declared resolution second, 16:9 as the final fallback.
func projectionAspect(declared float64, ctx *RenderContext) float64 {
	if declared > 0 {
		return declared
	}
	if ctx != nil && ctx.Width > 0 && ctx.Height > 0 {
		return float64(ctx.Width) / float64(ctx.Height)
	}
	return 16.0 / 9.0
}

func lensModelIndex(lens string) int {
	switch lens {
	case "equisolid":
		return 1
	case "stereographic":
		return 2
	default:
		return 0
	}
}
