package scene_test

import (
	"testing"

	"beamer/internal/scene"
)

func TestStageWorldsAndActors(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldEditor)
	actor := world.AddActor("wall_01", "Back Wall")
	actor.AddMesh("wall_mesh", 2)
	world.AddCamera("cam_main", "Main Camera", "prov-1")

	worlds := stage.Worlds()
	if len(worlds) != 1 {
		t.Fatalf("expected 1 world, got %d", len(worlds))
	}
	if !worlds[0].Kind().Relevant() {
		t.Fatal("expected editor world to be relevant")
	}

	actors := worlds[0].Actors()
	if len(actors) != 2 {
		t.Fatalf("expected actor plus camera actor, got %d", len(actors))
	}
	var meshCount, cameraCount int
	for _, a := range actors {
		if a.IsCamera() {
			cameraCount++
			continue
		}
		meshCount += len(a.MeshComponents())
	}
	if cameraCount != 1 || meshCount != 1 {
		t.Fatalf("unexpected actor composition: cameras=%d meshes=%d", cameraCount, meshCount)
	}
}

func TestStageSpawnCameraCreatesProxyWithCapture(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldGame)

	cam, err := world.SpawnCamera("ctx-proxy")
	if err != nil {
		t.Fatalf("SpawnCamera failed: %v", err)
	}
	if !cam.IsCaptureProxy() {
		t.Fatal("spawned camera should be a capture proxy")
	}
	capture := cam.Capture()
	if capture == nil {
		t.Fatal("spawned proxy should carry a capture component")
	}
	capture.SetSize(640, 360)
	tex := capture.Target()
	if tex.Width != 640 || tex.Height != 360 {
		t.Fatalf("unexpected target size %dx%d", tex.Width, tex.Height)
	}
	capture.SetSize(1920, 1080)
	if tex.Width != 1920 || tex.Height != 1080 {
		t.Fatal("resizing the capture should resize its existing target")
	}
}

func TestStageSpawnFailure(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldGame)
	world.FailSpawn = true
	if _, err := world.SpawnCamera("ctx-proxy"); err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestStageRemoveActorInvalidatesHandles(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldPlayInEditor)
	actor := world.AddActor("screen", "Screen")
	mesh := actor.AddMesh("screen_mesh", 1)

	if !actor.Valid() || !mesh.Valid() {
		t.Fatal("expected fresh handles to be valid")
	}
	actor.Remove()
	if actor.Valid() || mesh.Valid() {
		t.Fatal("expected removed actor and its mesh to be invalid")
	}
}

func TestStageDynamicMaterialRecordsWrites(t *testing.T) {
	stage := scene.NewStage()
	world := stage.AddWorld(scene.WorldEditor)
	mesh := world.AddActor("a", "A").AddMesh("m", 1)

	dyn := stage.NewDynamicMaterial(mesh.Material(0))
	dyn.SetScalar("opacity", 0.5)
	dyn.SetVector("tint", scene.Vec4{X: 1, Y: 1, Z: 1, W: 1})
	tex := &scene.Texture{Name: "t"}
	dyn.SetTexture("content", tex)

	if v, ok := dyn.Scalar("opacity"); !ok || v != 0.5 {
		t.Fatalf("unexpected scalar: %v %v", v, ok)
	}
	if v, ok := dyn.Vector("tint"); !ok || v.W != 1 {
		t.Fatalf("unexpected vector: %v %v", v, ok)
	}
	if got, ok := dyn.Texture("content"); !ok || got != tex {
		t.Fatal("expected texture handle identity to round-trip")
	}
}
