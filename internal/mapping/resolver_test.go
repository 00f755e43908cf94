package mapping_test

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"beamer/internal/mapping"
	"beamer/internal/scene"
)

func TestSurfaceResolutionPrefersMeshHint(t *testing.T) {
	f := newFixture(t)
	// A second actor whose mesh name collides with the surface name; the
	// explicit meshComponentName hint must outrank it.
	decoy := f.world.AddActor("DecoyActor", "Side Panel")
	decoy.AddMesh("SidePanelMesh", 1)

	id := f.createSurface(t, map[string]any{
		"name":              "SidePanelMesh",
		"meshComponentName": "ScreenMesh",
	})
	f.mgr.Tick()

	s := f.surface(t, id)
	if s.Mesh() == nil || s.Mesh().Name() != "ScreenMesh" {
		t.Fatalf("resolved %v, want the hinted ScreenMesh", s.Mesh())
	}
}

func TestActorNameAndLabelScoreAdditively(t *testing.T) {
	f := newFixture(t)
	// Added first so a tie would leave it selected; the actor matching on
	// both name and label must outrank a single match.
	f.world.AddActor("Panel", "Sidewall").AddMesh("SidewallMesh", 1)
	f.world.AddActor("Panel", "panel").AddMesh("BannerMesh", 1)

	id := f.createSurface(t, map[string]any{"name": "panel"})
	f.mgr.Tick()

	s := f.surface(t, id)
	if s.Mesh() == nil || s.Mesh().Name() != "BannerMesh" {
		t.Fatalf("resolved %v, want the double-signal actor's mesh", s.Mesh())
	}
}

func TestSurfaceResolutionByTargetToken(t *testing.T) {
	f := newFixture(t)
	id := f.createSurface(t, map[string]any{"targetId": "screens:main:ScreenMesh"})
	f.mgr.Tick()

	s := f.surface(t, id)
	if s.Mesh() == nil || s.Mesh().Name() != "ScreenMesh" {
		t.Fatal("target token after the last ':' did not match the mesh")
	}
}

func TestSurfaceResolutionIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	id := f.createSurface(t, map[string]any{"targetId": "SCREENMESH"})
	f.mgr.Tick()

	if s := f.surface(t, id); s.Mesh() == nil || s.Mesh().Name() != "ScreenMesh" {
		t.Fatal("case-folded match failed")
	}
}

func TestSurfaceAdoptsResolvedBinding(t *testing.T) {
	f := newFixture(t)
	id := f.createSurface(t, map[string]any{"name": "screen"})
	f.mgr.Tick()

	s := f.surface(t, id)
	if s.MeshComponentName != "ScreenMesh" {
		t.Fatalf("meshComponentName = %q, want adopted ScreenMesh", s.MeshComponentName)
	}
	if s.TargetID != "Main Screen" {
		t.Fatalf("targetId = %q, want the actor label", s.TargetID)
	}
	if len(s.MaterialSlots) != 2 {
		t.Fatalf("materialSlots = %v, want all slots", s.MaterialSlots)
	}
}

func TestSurfaceSlotSanitization(t *testing.T) {
	f := newFixture(t)
	// Slot 7 is out of range for the two-slot mesh; slot 1 survives.
	partial := f.createSurface(t, map[string]any{
		"targetId":      "ScreenMesh",
		"materialSlots": []any{1, 7},
	})
	// Entirely out-of-range declarations fall back to every slot.
	hopeless := f.createSurface(t, map[string]any{
		"targetId":      "ScreenMesh",
		"materialSlots": []any{7, 8},
	})
	f.mgr.Tick()

	if got := f.surface(t, partial).MaterialSlots; len(got) != 1 || got[0] != 1 {
		t.Fatalf("partial slots = %v, want [1]", got)
	}
	if got := f.surface(t, hopeless).MaterialSlots; len(got) != 2 {
		t.Fatalf("hopeless slots = %v, want all slots", got)
	}
}

func TestSurfaceNoMeshFound(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldGame)
	world.AddCamera("CameraActor", "Cam", "cam-1")
	mgr := mapping.New(mapping.Options{Query: stage, Emitter: &recorder{}})

	mgr.CreateMappingSurface(map[string]any{"id": "s-1", "targetId": "anything"})
	mgr.Tick()

	var found *mapping.MappingSurface
	for _, s := range mgr.MappingSurfaces() {
		if s.ID == "s-1" {
			found = s
		}
	}
	if found == nil || found.LastError() != "No mesh component found" {
		t.Fatalf("surface error = %v", found)
	}
	if !mgr.Dirty() {
		t.Fatal("mesh-less world must keep the retry flag set")
	}
}

func TestSurfaceRollbackOnReassignment(t *testing.T) {
	f := newFixture(t)
	ctxID := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	surfID := f.createSurface(t, map[string]any{"targetId": "ScreenMesh"})
	f.createMapping(t, map[string]any{"contextId": ctxID, "surfaceIds": []any{surfID}})
	f.mgr.Tick()

	s := f.surface(t, surfID)
	mesh := s.Mesh()
	if mesh == nil || s.DynamicMaterial(0) == nil {
		t.Fatal("surface was not driven")
	}
	if mesh.Material(0).MaterialName() != "ScreenMesh-mat-0-dynamic" {
		t.Fatalf("slot 0 material = %q, want the dynamic instance", mesh.Material(0).MaterialName())
	}

	other := f.world.AddActor("OtherActor", "Other Panel")
	other.AddMesh("OtherMesh", 1)
	if !f.mgr.UpdateMappingSurface(surfID, map[string]any{
		"targetId":          "OtherMesh",
		"meshComponentName": "OtherMesh",
	}) {
		t.Fatal("update failed")
	}

	// The original material must be back before the next resolve touches it.
	if mesh.Material(0).MaterialName() != "ScreenMesh-mat-0" {
		t.Fatalf("slot 0 material = %q, want the original restored", mesh.Material(0).MaterialName())
	}

	f.mgr.Tick()
	s = f.surface(t, surfID)
	if s.Mesh() == nil || s.Mesh().Name() != "OtherMesh" {
		t.Fatal("surface did not rebind to the new mesh")
	}
}

func TestDeleteSurfaceRestoresMaterials(t *testing.T) {
	f := newFixture(t)
	ctxID := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	surfID := f.createSurface(t, map[string]any{"targetId": "ScreenMesh"})
	f.createMapping(t, map[string]any{"contextId": ctxID, "surfaceIds": []any{surfID}})
	f.mgr.Tick()

	mesh := f.surface(t, surfID).Mesh()
	if !f.mgr.DeleteMappingSurface(surfID) {
		t.Fatal("delete failed")
	}
	if mesh.Material(0).MaterialName() != "ScreenMesh-mat-0" {
		t.Fatalf("slot 0 material = %q after delete", mesh.Material(0).MaterialName())
	}
}

func TestCameraAdoption(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{"name": "feed"})
	f.mgr.Tick()

	c := f.context(t, id)
	if c.CameraID != "cam-1" {
		t.Fatalf("cameraId = %q, want adopted provider id", c.CameraID)
	}
	if c.Texture() == nil {
		t.Fatal("adopted camera produced no texture")
	}
}

func TestCameraMissingStillSpawnsProxy(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldGame)
	world.AddActor("ScreenActor", "Screen").AddMesh("ScreenMesh", 1)
	mgr := mapping.New(mapping.Options{Query: stage, Emitter: &recorder{}})

	// The declared camera does not exist yet. The proxy spawns anyway and
	// its render target is exposed, so content appears once the camera does.
	mgr.CreateRenderContext(map[string]any{"id": "c-1", "cameraId": "cam-1"})
	mgr.Tick()

	for _, c := range mgr.RenderContexts() {
		if c.LastError() != "" {
			t.Fatalf("context error = %q, want none", c.LastError())
		}
		if c.Texture() == nil {
			t.Fatal("proxy render target not exposed")
		}
	}
}

func TestCameraIDNotSetWithoutCameras(t *testing.T) {
	stage := scene.NewStage()
	stage.AddWorld(scene.WorldGame)
	mgr := mapping.New(mapping.Options{Query: stage, Emitter: &recorder{}})

	mgr.CreateRenderContext(map[string]any{"id": "c-1"})
	mgr.Tick()

	for _, c := range mgr.RenderContexts() {
		if c.LastError() != "CameraId not set" {
			t.Fatalf("context error = %q", c.LastError())
		}
	}
}

func TestCameraSpawnFailure(t *testing.T) {
	f := newFixture(t)
	f.world.FailSpawn = true
	id := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	f.mgr.Tick()

	if got := f.context(t, id).LastError(); got != "Failed to spawn camera actor" {
		t.Fatalf("context error = %q", got)
	}
}

func TestCameraCaptureMissing(t *testing.T) {
	f := newFixture(t)
	f.world.SpawnWithoutCapture = true
	id := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	f.mgr.Tick()

	if got := f.context(t, id).LastError(); got != "Camera capture component missing" {
		t.Fatalf("context error = %q", got)
	}
}

func findProxy(t *testing.T, world *scene.StageWorld) scene.Camera {
	t.Helper()
	for _, cam := range world.Cameras() {
		if cam.IsCaptureProxy() {
			return cam
		}
	}
	t.Fatal("no capture proxy spawned")
	return nil
}

func TestProxyTracksSourceCamera(t *testing.T) {
	f := newFixture(t)
	var source scene.Camera
	for _, cam := range f.world.Cameras() {
		source = cam
	}
	id := f.createContext(t, map[string]any{"name": "feed", "cameraId": "cam-1"})
	f.mgr.Tick()

	proxy := findProxy(t, f.world)
	if proxy.Label() != "feed-capture" {
		t.Fatalf("proxy label = %q", proxy.Label())
	}

	moved := scene.Transform{
		Position: scene.Vec3{X: 10, Y: 20, Z: 30},
		Rotation: scene.Rotator{Pitch: 5, Yaw: 90, Roll: 0},
	}
	source.SetTransform(moved)
	source.SetFOV(45)
	f.mgr.Tick()

	if proxy.Transform() != moved {
		t.Fatalf("proxy transform = %+v, want source placement", proxy.Transform())
	}
	if proxy.FOV() != 45 {
		t.Fatalf("proxy fov = %v, want 45", proxy.FOV())
	}
	if !proxy.Capture().Capturing() {
		t.Fatal("proxy capture not running")
	}

	c := f.context(t, id)
	if c.Width != 1280 || c.Height != 720 {
		t.Fatalf("context did not adopt default resolution: %dx%d", c.Width, c.Height)
	}
	if w, h := proxy.Capture().Size(); w != 1280 || h != 720 {
		t.Fatalf("capture size = %dx%d", w, h)
	}
}

func TestExplicitResolutionAndCaptureMode(t *testing.T) {
	f := newFixture(t)
	f.createContext(t, map[string]any{
		"id":          "c-1",
		"cameraId":    "cam-1",
		"width":       640,
		"height":      480,
		"captureMode": "SceneColorHDR",
	})
	f.mgr.Tick()

	proxy := findProxy(t, f.world)
	if w, h := proxy.Capture().Size(); w != 640 || h != 480 {
		t.Fatalf("capture size = %dx%d, want declared 640x480", w, h)
	}
	if proxy.Capture().Mode() != scene.CaptureSceneColorHDR {
		t.Fatal("capture mode not applied")
	}
}

func TestDisabledContextPausesCapture(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	f.mgr.Tick()
	proxy := findProxy(t, f.world)

	if !f.mgr.UpdateRenderContext(id, map[string]any{"enabled": false}) {
		t.Fatal("update failed")
	}
	f.mgr.Tick()

	c := f.context(t, id)
	if c.Texture() != nil {
		t.Fatal("disabled context kept its texture")
	}
	if !proxy.Valid() {
		t.Fatal("disable destroyed the proxy; it should stay for re-enable")
	}
	if proxy.Capture().Capturing() {
		t.Fatal("disabled context left capture running")
	}
}

func TestDeleteContextDestroysProxy(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{"cameraId": "cam-1"})
	f.mgr.Tick()
	proxy := findProxy(t, f.world)

	if !f.mgr.DeleteRenderContext(id) {
		t.Fatal("delete failed")
	}
	if proxy.Valid() {
		t.Fatal("deleted context left its proxy alive")
	}
}

func TestUnsupportedSourceType(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{"sourceType": "carrier-pigeon"})
	f.mgr.Tick()

	if got := f.context(t, id).LastError(); got != "Unsupported sourceType" {
		t.Fatalf("context error = %q", got)
	}
}

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asset.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func TestAssetContextDownloadFlow(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{
		"sourceType": "asset-store",
		"assetId":    "asset-42",
	})
	f.mgr.Tick()

	c := f.context(t, id)
	if c.LastError() != "Asset downloading" {
		t.Fatalf("context error = %q", c.LastError())
	}
	if len(f.assets.fetched) != 1 || f.assets.fetched[0] != "asset-42" {
		t.Fatalf("fetches = %v", f.assets.fetched)
	}

	// A second reconciliation must not issue a duplicate download.
	f.mgr.MarkDirty()
	f.mgr.Tick()
	if len(f.assets.fetched) != 1 {
		t.Fatalf("duplicate fetch issued: %v", f.assets.fetched)
	}

	path := writeTestPNG(t, 320, 200)
	f.mgr.HandleAssetReady("asset-42", path)
	if !f.mgr.Dirty() {
		t.Fatal("asset arrival did not schedule a rebuild")
	}
	f.mgr.Tick()

	c = f.context(t, id)
	if c.LastError() != "" {
		t.Fatalf("context error after download = %q", c.LastError())
	}
	tex := c.Texture()
	if tex == nil || tex.Width != 320 || tex.Height != 200 {
		t.Fatalf("texture = %+v, want 320x200", tex)
	}
}

func TestAssetCachedOnDisk(t *testing.T) {
	f := newFixture(t)
	f.assets.cached["asset-7"] = writeTestPNG(t, 64, 64)
	id := f.createContext(t, map[string]any{
		"sourceType": "asset-store",
		"assetId":    "asset-7",
	})
	f.mgr.Tick()

	c := f.context(t, id)
	if c.LastError() != "" || c.Texture() == nil {
		t.Fatalf("cached asset did not resolve: err=%q", c.LastError())
	}
	if len(f.assets.fetched) != 0 {
		t.Fatalf("cached asset was fetched anyway: %v", f.assets.fetched)
	}
}

func TestAssetDownloadFailure(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{
		"sourceType": "asset-store",
		"assetId":    "asset-13",
	})
	f.mgr.Tick()

	f.mgr.HandleAssetFailed("asset-13", "asset not found")
	// The failure must not schedule a rebuild: re-entering asset resolution
	// would re-issue the download and replace the error with a pending state.
	if f.mgr.Dirty() {
		t.Fatal("failure scheduled a rebuild")
	}
	f.mgr.Tick()

	if got := f.context(t, id).LastError(); got != "asset not found" {
		t.Fatalf("context error = %q", got)
	}
	if len(f.assets.fetched) != 1 {
		t.Fatalf("failed asset fetched again: %v", f.assets.fetched)
	}
	status := f.emit.lastStatus(t, id)
	if status["lastError"] != "asset not found" {
		t.Fatalf("status = %v", status)
	}
}

func TestAssetIDNotSet(t *testing.T) {
	f := newFixture(t)
	id := f.createContext(t, map[string]any{"sourceType": "asset-store"})
	f.mgr.Tick()

	if got := f.context(t, id).LastError(); got != "AssetId not set" {
		t.Fatalf("context error = %q", got)
	}
}
