package mapping

import (
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"beamer/internal/scene"
)

// resolveContext rebinds a context to a live texture. Camera contexts track a
// source camera through an owned capture proxy; asset contexts resolve
// through the memory cache, the disk cache, then an async download.
func (m *Manager) resolveContext(c *RenderContext) {
	if !c.Enabled {
		// Disable pauses capture and drops the texture but keeps the proxy
		// around for cheap re-enable.
		if c.proxy != nil && c.proxy.Valid() {
			if capture := c.proxy.Capture(); capture != nil {
				capture.SetCaptureEveryFrame(false)
			}
		}
		c.texture = nil
		c.lastError = ""
		return
	}

	sourceType := c.SourceType
	if sourceType == "" {
		sourceType = SourceCamera
	}

	switch sourceType {
	case SourceCamera:
		m.resolveCameraContext(c)
	case SourceAssetStore:
		m.resolveAssetContext(c)
	default:
		c.texture = nil
		c.lastError = "Unsupported sourceType"
	}
}

func (m *Manager) resolveCameraContext(c *RenderContext) {
	worlds := m.relevantWorlds()
	if len(worlds) == 0 {
		// No error string: a missing world is a startup ordering issue, not
		// a configuration problem. Retry next tick.
		m.worldRetry = true
		c.texture = nil
		return
	}

	if c.CameraID == "" {
		if adopted := firstSceneCamera(worlds); adopted != nil {
			c.CameraID = cameraIdentifier(adopted)
			m.cacheDirty = true
		}
	}
	if c.CameraID == "" {
		c.texture = nil
		c.lastError = "CameraId not set"
		return
	}

	// A missing source camera is not fatal: the proxy still spawns and its
	// render target is exposed, so content appears the moment a camera does.
	c.sourceCamera = locateCamera(worlds, c.CameraID)

	if c.proxy == nil || !c.proxy.Valid() {
		proxyName := c.Name
		if proxyName == "" {
			proxyName = c.ID
		}
		proxy, err := worlds[0].SpawnCamera(proxyName + "-capture")
		if err != nil {
			c.texture = nil
			c.lastError = "Failed to spawn camera actor"
			return
		}
		c.proxy = proxy
	}

	capture := c.proxy.Capture()
	if capture == nil {
		c.texture = nil
		c.lastError = "Camera capture component missing"
		return
	}

	width, height := c.Width, c.Height
	if width <= 0 || height <= 0 {
		width, height = m.defaultWidth, m.defaultHeight
	}
	capture.SetSize(width, height)
	if c.Width != width || c.Height != height {
		c.Width, c.Height = width, height
		m.cacheDirty = true
	}
	capture.SetMode(captureMode(c.CaptureMode))

	m.syncProxy(c)

	c.texture = capture.Target()
	c.lastError = ""
}

// syncProxy copies the source camera's placement and field of view onto the
// owned proxy and keeps continuous capture forced on. Runs every tick for
// enabled camera contexts so the texture tracks the live camera.
func (m *Manager) syncProxy(c *RenderContext) {
	if c.proxy == nil || !c.proxy.Valid() {
		return
	}
	if c.sourceCamera != nil && c.sourceCamera.Valid() {
		c.proxy.SetTransform(c.sourceCamera.Transform())
		c.proxy.SetFOV(c.sourceCamera.FOV())
	}
	if capture := c.proxy.Capture(); capture != nil {
		capture.SetCaptureEveryFrame(true)
		capture.SetCaptureOnMovement(true)
	}
}

func (m *Manager) resolveAssetContext(c *RenderContext) {
	if c.AssetID == "" {
		c.texture = nil
		c.lastError = "AssetId not set"
		return
	}

	if tex, ok := m.textureCache[c.AssetID]; ok {
		c.texture = tex
		c.lastError = ""
		return
	}

	if path, ok := m.assets.CachedPath(c.AssetID); ok {
		tex, err := loadTexture(c.AssetID, path)
		if err == nil {
			m.textureCache[c.AssetID] = tex
			c.texture = tex
			c.lastError = ""
			return
		}
		c.texture = nil
		c.lastError = err.Error()
		return
	}

	if _, pending := m.pendingAssets[c.AssetID]; !pending {
		m.pendingAssets[c.AssetID] = struct{}{}
		m.assets.Fetch(c.AssetID)
	}
	c.texture = nil
	c.lastError = "Asset downloading"
}

// HandleAssetReady ingests a completed download. The caller must deliver it
// on the manager's goroutine.
func (m *Manager) HandleAssetReady(assetID, path string) {
	delete(m.pendingAssets, assetID)
	tex, err := loadTexture(assetID, path)
	if err != nil {
		m.failAssetContexts(assetID, err.Error())
		return
	}
	m.textureCache[assetID] = tex
	m.dirty = true
}

// HandleAssetFailed records a download failure on every context sharing the
// asset id.
func (m *Manager) HandleAssetFailed(assetID, message string) {
	delete(m.pendingAssets, assetID)
	m.failAssetContexts(assetID, message)
}

// failAssetContexts records the error without marking the stores dirty: a
// rebuild would re-enter asset resolution, re-issue the download, and
// overwrite the failure with "Asset downloading". The error sticks until
// another mutation schedules a rebuild.
func (m *Manager) failAssetContexts(assetID, message string) {
	for _, c := range m.contexts {
		if c.AssetID != assetID {
			continue
		}
		c.texture = nil
		c.lastError = message
		m.emitStatus(KindContext, c.ID)
	}
}

func loadTexture(assetID, path string) (*scene.Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", assetID, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", assetID, err)
	}
	return &scene.Texture{Name: assetID, Width: cfg.Width, Height: cfg.Height, Path: path}, nil
}

func captureMode(mode string) scene.CaptureMode {
	switch mode {
	case "SceneColorHDR", "RawSceneColor":
		return scene.CaptureSceneColorHDR
	default:
		return scene.CaptureFinalColor
	}
}

func cameraIdentifier(cam scene.Camera) string {
	if id := cam.ProviderID(); id != "" {
		return id
	}
	return cam.Name()
}

// firstSceneCamera returns the first authored (non-proxy) camera across the
// relevant worlds.
func firstSceneCamera(worlds []scene.World) scene.Camera {
	for _, world := range worlds {
		for _, cam := range world.Cameras() {
			if cam.Valid() && !cam.IsCaptureProxy() {
				return cam
			}
		}
	}
	return nil
}

// locateCamera finds the source camera for an id: exact name or label match
// first, then provider id, then the first camera found.
func locateCamera(worlds []scene.World, cameraID string) scene.Camera {
	for _, world := range worlds {
		for _, cam := range world.Cameras() {
			if !cam.Valid() || cam.IsCaptureProxy() {
				continue
			}
			if cam.Name() == cameraID || cam.Label() == cameraID {
				return cam
			}
		}
	}
	for _, world := range worlds {
		for _, cam := range world.Cameras() {
			if !cam.Valid() || cam.IsCaptureProxy() {
				continue
			}
			if cam.ProviderID() == cameraID {
				return cam
			}
		}
	}
	return firstSceneCamera(worlds)
}
