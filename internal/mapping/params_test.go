package mapping_test

import (
	"math"
	"testing"

	"beamer/internal/mapping"
	"beamer/internal/scene"
)

// drive builds the standard fixture, creates one context, one surface, and
// one mapping from the given payload fragment, ticks once, and returns the
// driven dynamic material for slot 0.
func drive(t *testing.T, mappingPayload map[string]any) (*fixture, scene.DynamicMaterial) {
	t.Helper()
	f := newFixture(t)
	ctxID := f.createContext(t, map[string]any{"cameraId": "cam-1", "width": 1280, "height": 720})
	surfID := f.createSurface(t, map[string]any{"targetId": "ScreenMesh", "uvChannel": 1})

	payload := map[string]any{"contextId": ctxID, "surfaceIds": []any{surfID}}
	for k, v := range mappingPayload {
		payload[k] = v
	}
	f.createMapping(t, payload)
	f.mgr.Tick()

	dyn := f.surface(t, surfID).DynamicMaterial(0)
	if dyn == nil {
		t.Fatal("surface was not driven")
	}
	return f, dyn
}

func scalar(t *testing.T, dyn scene.DynamicMaterial, name string) float64 {
	t.Helper()
	v, ok := dyn.Scalar(name)
	if !ok {
		t.Fatalf("scalar %s not written", name)
	}
	return v
}

func vector(t *testing.T, dyn scene.DynamicMaterial, name string) scene.Vec4 {
	t.Helper()
	v, ok := dyn.Vector(name)
	if !ok {
		t.Fatalf("vector %s not written", name)
	}
	return v
}

func near(t *testing.T, got, want float64, label string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", label, got, want)
	}
}

func TestUVDefaults(t *testing.T) {
	_, dyn := drive(t, map[string]any{"type": "surface-uv"})

	uv := vector(t, dyn, mapping.ParamUVTransform)
	// Default pivot (0.5, 0.5) recentres the zero offset to zero.
	if uv != (scene.Vec4{X: 1, Y: 1, Z: 0, W: 0}) {
		t.Fatalf("uv transform = %v", uv)
	}
	near(t, scalar(t, dyn, mapping.ParamUVRotation), 0, "rotation")
	near(t, scalar(t, dyn, mapping.ParamUVChannel), 1, "uv channel")
	near(t, scalar(t, dyn, mapping.ParamMappingMode), 0, "mapping mode")
}

func TestUVScaleOffsetPivot(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "surface-uv",
		"config": map[string]any{
			"uvTransform": map[string]any{
				"scaleU":      2,
				"offsetU":     0.5,
				"rotationDeg": 90,
				"pivotU":      0.25,
				"pivotV":      0.5,
			},
		},
	})

	uv := vector(t, dyn, mapping.ParamUVTransform)
	near(t, uv.X, 2, "scaleU")
	near(t, uv.Y, 1, "scaleV")
	// offsetU - pivotU + 0.5 = 0.5 - 0.25 + 0.5
	near(t, uv.Z, 0.75, "offsetU")
	near(t, uv.W, 0, "offsetV")
	near(t, scalar(t, dyn, mapping.ParamUVRotation), 90, "rotation")
	near(t, scalar(t, dyn, mapping.ParamUVScaleU), 2, "scaleU scalar")
	near(t, scalar(t, dyn, mapping.ParamUVOffsetU), 0.75, "offsetU scalar")
}

func TestFeedModeDefaultsToUnitRect(t *testing.T) {
	_, dyn := drive(t, map[string]any{"type": "feed"})

	uv := vector(t, dyn, mapping.ParamUVTransform)
	if uv != (scene.Vec4{X: 1, Y: 1, Z: 0, W: 0}) {
		t.Fatalf("uv transform = %v, want identity placement", uv)
	}
}

func TestFeedRectSubWindow(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "feed",
		"config": map[string]any{
			"feedRect": map[string]any{"u": 0.25, "v": 0, "width": 0.5, "height": 1},
		},
	})

	uv := vector(t, dyn, mapping.ParamUVTransform)
	near(t, uv.X, 0.5, "scaleU")
	near(t, uv.Y, 1, "scaleV")
	// rect.u recentred: 0.25 - 0.5 + 0.5
	near(t, uv.Z, 0.25, "offsetU")
	near(t, uv.W, 0, "offsetV")
}

func TestPerSurfaceFeedRectWins(t *testing.T) {
	f := newFixture(t)
	ctxID := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	surfID := f.createSurface(t, map[string]any{"targetId": "ScreenMesh"})
	f.createMapping(t, map[string]any{
		"type":       "feed",
		"contextId":  ctxID,
		"surfaceIds": []any{surfID},
		"config": map[string]any{
			"feedRect": map[string]any{"u": 0.9, "width": 0.1},
			"feedRects": map[string]any{
				surfID: map[string]any{"u": 0, "v": 0.5, "width": 1, "height": 0.5},
			},
		},
	})
	f.mgr.Tick()

	dyn := f.surface(t, surfID).DynamicMaterial(0)
	uv := vector(t, dyn, mapping.ParamUVTransform)
	near(t, uv.X, 1, "scaleU from the per-surface rect")
	near(t, uv.Y, 0.5, "scaleV from the per-surface rect")
	near(t, uv.W, 0.5, "offsetV from the per-surface rect")
}

func TestContentModeIndices(t *testing.T) {
	cases := map[string]float64{
		"stretch":       0,
		"crop":          1,
		"fit":           2,
		"pixel-perfect": 3,
		"nonsense":      0,
	}
	for mode, want := range cases {
		_, dyn := drive(t, map[string]any{
			"type":   "surface-uv",
			"config": map[string]any{"contentMode": mode},
		})
		near(t, scalar(t, dyn, mapping.ParamContentMode), want, "content mode "+mode)
	}
}

func TestPerspectiveProjectionParams(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "perspective",
		"config": map[string]any{
			"fov":  90,
			"near": 10,
			"far":  1000,
		},
	})

	near(t, scalar(t, dyn, mapping.ParamMappingMode), 1, "mapping mode")
	near(t, scalar(t, dyn, mapping.ParamProjectionType), 0, "projection type")

	// Projector at the origin with no rotation: the view matrix is identity
	// and the VP rows are the bare projection.
	tanHalf := math.Tan(90 * math.Pi / 360)
	aspect := 1280.0 / 720.0
	row0 := vector(t, dyn, mapping.ParamVPRow0)
	near(t, row0.X, 1/(tanHalf*aspect), "m00")
	row1 := vector(t, dyn, mapping.ParamVPRow1)
	near(t, row1.Y, 1/tanHalf, "m11")
	row2 := vector(t, dyn, mapping.ParamVPRow2)
	near(t, row2.Z, 1000.0/990.0, "m22")
	near(t, row2.W, 1, "m23")
	row3 := vector(t, dyn, mapping.ParamVPRow3)
	near(t, row3.Z, -10*1000.0/990.0, "m32")
	near(t, row3.W, 0, "m33")

	// Masking defaults are always written for projection mappings.
	near(t, scalar(t, dyn, mapping.ParamAngleMaskStart), 0, "mask start")
	near(t, scalar(t, dyn, mapping.ParamAngleMaskEnd), 360, "mask end")
	near(t, scalar(t, dyn, mapping.ParamClipOutside), 0, "clip outside")
}

func TestPerspectiveAspectFallsBackToContext(t *testing.T) {
	_, dyn := drive(t, map[string]any{"type": "perspective"})

	tanHalf := math.Tan(60 * math.Pi / 360)
	row0 := vector(t, dyn, mapping.ParamVPRow0)
	near(t, row0.X, 1/(tanHalf*(1280.0/720.0)), "m00 from context resolution")
}

func TestParallelProjectionParams(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "parallel",
		"config": map[string]any{
			"sizeW": 2000,
			"sizeH": 1000,
			"near":  0,
			"far":   500,
		},
	})

	near(t, scalar(t, dyn, mapping.ParamProjectionType), 4, "projection type")
	size := vector(t, dyn, mapping.ParamParallelSize)
	near(t, size.X, 2000, "parallel width")
	near(t, size.Y, 1000, "parallel height")
	row0 := vector(t, dyn, mapping.ParamVPRow0)
	near(t, row0.X, 1.0/1000, "m00 = 1/halfW")
	row1 := vector(t, dyn, mapping.ParamVPRow1)
	near(t, row1.Y, 1.0/500, "m11 = 1/halfH")
}

func TestCylindricalProjectionParams(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "cylindrical",
		"config": map[string]any{
			"axis":           "y",
			"cylinderRadius": 250,
			"arcStart":       45,
			"arcEnd":         270,
			"emitDirection":  "inward",
		},
	})

	near(t, scalar(t, dyn, mapping.ParamProjectionType), 1, "projection type")
	axis := vector(t, dyn, mapping.ParamProjectionAxis)
	if axis != (scene.Vec4{Y: 1}) {
		t.Fatalf("axis = %v", axis)
	}
	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 250, "radius")
	near(t, scalar(t, dyn, mapping.ParamCylinderHeight), 1000, "default height")
	near(t, scalar(t, dyn, mapping.ParamArcStart), 45, "arc start")
	near(t, scalar(t, dyn, mapping.ParamArcEnd), 270, "arc end")
	near(t, scalar(t, dyn, mapping.ParamEmitInward), 1, "emit inward")
	near(t, scalar(t, dyn, mapping.ParamRadialMode), 0, "radial mode")
}

func TestCylindricalNestedConfig(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "cylindrical",
		"config": map[string]any{
			"cylindrical": map[string]any{
				"radius":        123,
				"startAngle":    45,
				"emitDirection": "inward",
			},
		},
	})

	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 123, "nested radius")
	near(t, scalar(t, dyn, mapping.ParamArcStart), 45, "nested arc start")
	near(t, scalar(t, dyn, mapping.ParamArcEnd), 360, "default arc end")
	near(t, scalar(t, dyn, mapping.ParamEmitInward), 1, "nested emit inward")
}

func TestCylindricalFlatOverridesNested(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "cylindrical",
		"config": map[string]any{
			"cylindrical":    map[string]any{"radius": 123, "height": 800},
			"cylinderRadius": 777,
		},
	})

	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 777, "flat radius wins")
	near(t, scalar(t, dyn, mapping.ParamCylinderHeight), 800, "nested height kept")
}

func TestConfigParsedOncePerMutation(t *testing.T) {
	f, dyn := drive(t, map[string]any{
		"type":   "cylindrical",
		"config": map[string]any{"cylinderRadius": 250},
	})
	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 250, "initial radius")

	// Editing the blob behind the manager's back is invisible until an
	// update reparses it.
	var id string
	for _, mp := range f.mgr.Mappings() {
		id = mp.ID
		mp.Config["cylinderRadius"] = 999
	}
	f.mgr.MarkDirty()
	f.mgr.Tick()
	dyn = f.mgr.MappingSurfaces()[0].DynamicMaterial(0)
	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 250, "stale blob ignored")

	if !f.mgr.UpdateContentMapping(id, map[string]any{
		"config": map[string]any{"projectionType": "cylindrical", "cylinderRadius": 640},
	}) {
		t.Fatal("update failed")
	}
	f.mgr.Tick()
	dyn = f.mgr.MappingSurfaces()[0].DynamicMaterial(0)
	near(t, scalar(t, dyn, mapping.ParamCylinderRadius), 640, "updated radius")
}

func TestRadialProjectionSetsRadialMode(t *testing.T) {
	_, dyn := drive(t, map[string]any{"type": "radial"})
	near(t, scalar(t, dyn, mapping.ParamProjectionType), 5, "projection type")
	near(t, scalar(t, dyn, mapping.ParamRadialMode), 1, "radial mode")
}

func TestSphericalProjectionParams(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "spherical",
		"config": map[string]any{
			"projectorPosition": map[string]any{"x": 1, "y": 2, "z": 3},
			"sphereRadius":      42,
		},
	})

	near(t, scalar(t, dyn, mapping.ParamProjectionType), 3, "projection type")
	center := vector(t, dyn, mapping.ParamSphereCenter)
	// Center defaults to the projector position.
	if center != (scene.Vec4{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("sphere center = %v", center)
	}
	near(t, scalar(t, dyn, mapping.ParamSphereRadius), 42, "radius")
	near(t, scalar(t, dyn, mapping.ParamHorizontalArc), 360, "horizontal arc")
	near(t, scalar(t, dyn, mapping.ParamVerticalArc), 180, "vertical arc")
}

func TestFisheyeProjectionParams(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "fisheye",
		"config": map[string]any{
			"fisheyeFov": 220,
			"lensType":   "stereographic",
		},
	})

	near(t, scalar(t, dyn, mapping.ParamProjectionType), 7, "projection type")
	near(t, scalar(t, dyn, mapping.ParamFisheyeFOV), 220, "fisheye fov")
	near(t, scalar(t, dyn, mapping.ParamLensModel), 2, "lens model")
}

func TestCustomMatrixProjection(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "custom-matrix",
		"config": map[string]any{
			"customProjectionMatrix": map[string]any{"m00": 3, "m11": 2},
		},
	})

	near(t, scalar(t, dyn, mapping.ParamProjectionType), 8, "projection type")
	row0 := vector(t, dyn, mapping.ParamVPRow0)
	near(t, row0.X, 3, "m00")
	row1 := vector(t, dyn, mapping.ParamVPRow1)
	near(t, row1.Y, 2, "m11")
}

func TestCameraPlateAliasesPerspective(t *testing.T) {
	_, dyn := drive(t, map[string]any{"type": "camera-plate"})
	near(t, scalar(t, dyn, mapping.ParamProjectionType), 0, "projection type")
	near(t, scalar(t, dyn, mapping.ParamMappingMode), 1, "mapping mode")
}

func TestProjectorPlacementShiftsVP(t *testing.T) {
	_, dyn := drive(t, map[string]any{
		"type": "perspective",
		"config": map[string]any{
			"projectorPosition": map[string]any{"x": 0, "y": 0, "z": 100},
		},
	})

	// A translated projector folds -position into the last VP row.
	row3 := vector(t, dyn, mapping.ParamVPRow3)
	row2 := vector(t, dyn, mapping.ParamVPRow2)
	near(t, row3.X, 0, "m30")
	// Row3 = (-100 * row2) + untranslated row3; check the depth column moved.
	wantZ := -100*row2.Z + -10*10000.0/9990.0
	near(t, row3.Z, wantZ, "m32 carries the translation")
}
