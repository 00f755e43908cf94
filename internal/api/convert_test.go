package api_test

import (
	"testing"
	"time"

	"beamer/internal/api"
	"beamer/internal/assetstore"
	"beamer/internal/mapping"
	"beamer/internal/scene"
)

func newManager(t *testing.T) *mapping.Manager {
	t.Helper()
	stage := scene.NewStage()
	stage.AddWorld(scene.WorldGame)
	return mapping.New(mapping.Options{Query: stage})
}

func TestSnapshotOfListsEntities(t *testing.T) {
	mgr := newManager(t)
	ctxID := mgr.CreateRenderContext(map[string]any{
		"name":       "booth feed",
		"sourceType": "camera",
		"cameraId":   "cam-1",
		"enabled":    true,
	})
	surfID := mgr.CreateMappingSurface(map[string]any{
		"targetId":  "Main Screen",
		"uvChannel": 1,
		"enabled":   true,
	})
	mapID := mgr.CreateContentMapping(map[string]any{
		"type":       "surface-uv",
		"contextId":  ctxID,
		"surfaceIds": []any{surfID},
		"opacity":    0.75,
		"enabled":    true,
	})

	snap := api.SnapshotOf(mgr)
	if len(snap.Contexts) != 1 || len(snap.Surfaces) != 1 || len(snap.Mappings) != 1 {
		t.Fatalf("snapshot sizes = %d/%d/%d, want 1/1/1",
			len(snap.Contexts), len(snap.Surfaces), len(snap.Mappings))
	}

	ctx := snap.Contexts[0]
	if ctx.ID != ctxID || ctx.Name != "booth feed" || ctx.CameraID != "cam-1" {
		t.Fatalf("context view = %+v", ctx)
	}
	if ctx.HasTexture {
		t.Fatal("context should have no texture before reconciliation")
	}

	surf := snap.Surfaces[0]
	if surf.ID != surfID || surf.TargetID != "Main Screen" || surf.UVChannel != 1 {
		t.Fatalf("surface view = %+v", surf)
	}
	if surf.Resolved {
		t.Fatal("surface should be unresolved before reconciliation")
	}

	mp := snap.Mappings[0]
	if mp.ID != mapID || mp.Type != "surface-uv" || mp.ContextID != ctxID {
		t.Fatalf("mapping view = %+v", mp)
	}
	if mp.Opacity != 0.75 || len(mp.SurfaceIDs) != 1 || mp.SurfaceIDs[0] != surfID {
		t.Fatalf("mapping view = %+v", mp)
	}
}

func TestViewSlicesAreCopies(t *testing.T) {
	mgr := newManager(t)
	surfID := mgr.CreateMappingSurface(map[string]any{
		"targetId":      "Wall",
		"materialSlots": []any{0, 1},
	})

	snap := api.SnapshotOf(mgr)
	snap.Surfaces[0].MaterialSlots[0] = 99

	for _, s := range mgr.MappingSurfaces() {
		if s.ID == surfID && s.MaterialSlots[0] == 99 {
			t.Fatal("mutating the view must not reach the stored surface")
		}
	}
}

func TestFromAssetEntryFormatsTimestamps(t *testing.T) {
	fetched := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	view := api.FromAssetEntry(assetstore.Entry{
		ID:          "asset-1",
		Path:        "/tmp/asset-1.png",
		SizeBytes:   1024,
		ContentType: "image/png",
		FetchedAt:   fetched,
	})
	if view.FetchedAt != "2026-03-14T09:26:53Z" {
		t.Fatalf("FetchedAt = %q", view.FetchedAt)
	}
	if view.SizeBytes != 1024 || view.ContentType != "image/png" {
		t.Fatalf("view = %+v", view)
	}
}
