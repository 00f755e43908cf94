package mapping_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beamer/internal/mapping"
	"beamer/internal/scene"
)

func newCachedManager(t *testing.T, path string) (*mapping.Manager, *recorder) {
	t.Helper()
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldGame)
	world.AddActor("ScreenActor", "Main Screen").AddMesh("ScreenMesh", 2)
	world.AddCamera("CameraActor", "Stage Cam", "cam-1")
	emit := &recorder{}
	return mapping.New(mapping.Options{Query: stage, Emitter: emit, CachePath: path}), emit
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content-mapping.json")
	mgr, _ := newCachedManager(t, path)

	mgr.CreateRenderContext(map[string]any{
		"id":       "ctx-1",
		"name":     "stage-feed",
		"cameraId": "cam-1",
		"width":    1920,
		"height":   1080,
	})
	mgr.CreateMappingSurface(map[string]any{
		"id":            "surf-1",
		"targetId":      "ScreenMesh",
		"materialSlots": []any{0},
	})
	mgr.CreateContentMapping(map[string]any{
		"id":         "map-1",
		"type":       "feed",
		"contextId":  "ctx-1",
		"surfaceIds": []any{"surf-1"},
		"opacity":    0.5,
	})
	mgr.Tick()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	fresh, _ := newCachedManager(t, path)
	if err := fresh.LoadCache(); err != nil {
		t.Fatalf("load cache: %v", err)
	}

	contexts := fresh.RenderContexts()
	if len(contexts) != 1 || contexts[0].ID != "ctx-1" || contexts[0].CameraID != "cam-1" {
		t.Fatalf("contexts = %+v", contexts)
	}
	if contexts[0].Width != 1920 || contexts[0].Height != 1080 {
		t.Fatalf("resolution lost: %dx%d", contexts[0].Width, contexts[0].Height)
	}
	surfaces := fresh.MappingSurfaces()
	if len(surfaces) != 1 || surfaces[0].TargetID != "ScreenMesh" {
		t.Fatalf("surfaces = %+v", surfaces)
	}
	if len(surfaces[0].MaterialSlots) != 1 || surfaces[0].MaterialSlots[0] != 0 {
		t.Fatalf("materialSlots = %v", surfaces[0].MaterialSlots)
	}
	mappings := fresh.Mappings()
	if len(mappings) != 1 || mappings[0].Opacity != 0.5 {
		t.Fatalf("mappings = %+v", mappings)
	}
	// The feed alias survives a save/load cycle: canonical storage, feed
	// mode in the config blob.
	if mappings[0].Type != "surface-uv" {
		t.Fatalf("type = %q", mappings[0].Type)
	}
	if mode, _ := mappings[0].Config["uvMode"].(string); mode != "feed" {
		t.Fatalf("uvMode = %q", mode)
	}

	if !fresh.Dirty() {
		t.Fatal("replay must schedule a reconciliation")
	}
	fresh.Tick()
	for _, mp := range fresh.Mappings() {
		if mp.LastError() != "" {
			t.Fatalf("replayed mapping failed to reconcile: %q", mp.LastError())
		}
	}
}

func TestCacheAdoptedBindingsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content-mapping.json")
	mgr, _ := newCachedManager(t, path)

	mgr.CreateRenderContext(map[string]any{"id": "ctx-1"})
	mgr.CreateMappingSurface(map[string]any{"id": "surf-1"})
	mgr.Tick()

	// Resolution adopted a camera and a mesh; the adopted values must be in
	// the file so a restart does not re-run discovery from scratch.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "cam-1") {
		t.Fatalf("adopted camera not persisted:\n%s", body)
	}
	if !strings.Contains(body, "ScreenMesh") {
		t.Fatalf("adopted mesh not persisted:\n%s", body)
	}
}

func TestLoadCacheMissingFile(t *testing.T) {
	mgr, _ := newCachedManager(t, filepath.Join(t.TempDir(), "absent.json"))
	if err := mgr.LoadCache(); err != nil {
		t.Fatalf("missing cache file must not error: %v", err)
	}
	if len(mgr.RenderContexts()) != 0 {
		t.Fatal("entities appeared from nowhere")
	}
}

func TestLoadCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr, _ := newCachedManager(t, path)
	if err := mgr.LoadCache(); err == nil {
		t.Fatal("corrupt cache file must error")
	}
}

func TestLoadCacheNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.json")
	if err := os.WriteFile(path, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr, _ := newCachedManager(t, path)
	if err := mgr.LoadCache(); err == nil {
		t.Fatal("non-object cache file must error")
	}
}

func TestShutdownFlushesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content-mapping.json")
	mgr, _ := newCachedManager(t, path)
	mgr.CreateRenderContext(map[string]any{"id": "ctx-1", "cameraId": "cam-1"})
	// No tick; shutdown alone must leave the file behind.
	mgr.Shutdown()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written on shutdown: %v", err)
	}
}
