package scene

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Stage is the in-memory Query implementation. It is a plain data model: the
// daemon mirrors remote scene state into it and tests construct fixtures with
// the Add helpers. Stage is not safe for concurrent use; the engine owns it
// from a single goroutine, matching the single-writer model of the manager.
type Stage struct {
	worlds []*StageWorld
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{}
}

// AddWorld adds a world of the given kind.
func (s *Stage) AddWorld(kind WorldKind) *StageWorld {
	w := &StageWorld{kind: kind}
	s.worlds = append(s.worlds, w)
	return w
}

// RemoveWorld detaches a world, invalidating everything inside it.
func (s *Stage) RemoveWorld(w *StageWorld) {
	for i, candidate := range s.worlds {
		if candidate == w {
			s.worlds = append(s.worlds[:i], s.worlds[i+1:]...)
			break
		}
	}
	for _, actor := range w.actors {
		actor.Remove()
	}
	for _, cam := range w.cameras {
		cam.Remove()
	}
}

func (s *Stage) Worlds() []World {
	out := make([]World, len(s.worlds))
	for i, w := range s.worlds {
		out[i] = w
	}
	return out
}

func (s *Stage) NewDynamicMaterial(parent Material) DynamicMaterial {
	name := "dynamic"
	if parent != nil {
		name = parent.MaterialName() + "-dynamic"
	}
	return &StageDynamicMaterial{
		name:    name,
		Parent:  parent,
		scalars: map[string]float64{},
		vectors: map[string]Vec4{},
		texs:    map[string]*Texture{},
	}
}

// StageWorld implements World.
type StageWorld struct {
	kind    WorldKind
	actors  []*StageActor
	cameras []*StageCamera

	// FailSpawn forces SpawnCamera to error, for exercising spawn failures.
	FailSpawn bool
	// SpawnWithoutCapture spawns proxy cameras lacking a capture component.
	SpawnWithoutCapture bool

	spawnSeq atomic.Int64
}

func (w *StageWorld) Kind() WorldKind { return w.kind }

// AddActor adds an authored actor.
func (w *StageWorld) AddActor(name, label string) *StageActor {
	a := &StageActor{name: name, label: label, valid: true}
	w.actors = append(w.actors, a)
	return a
}

// AddCamera adds an authored (non-proxy) camera.
func (w *StageWorld) AddCamera(name, label, providerID string) *StageCamera {
	c := &StageCamera{name: name, label: label, providerID: providerID, fov: 90, valid: true}
	w.cameras = append(w.cameras, c)
	return c
}

func (w *StageWorld) Actors() []Actor {
	out := make([]Actor, 0, len(w.actors)+len(w.cameras))
	for _, a := range w.actors {
		out = append(out, a)
	}
	for _, c := range w.cameras {
		out = append(out, cameraActor{c})
	}
	return out
}

func (w *StageWorld) Cameras() []Camera {
	out := make([]Camera, len(w.cameras))
	for i, c := range w.cameras {
		out[i] = c
	}
	return out
}

func (w *StageWorld) SpawnCamera(name string) (Camera, error) {
	if w.FailSpawn {
		return nil, errors.New("spawn rejected")
	}
	seq := w.spawnSeq.Add(1)
	c := &StageCamera{
		name:  fmt.Sprintf("%s-%d", name, seq),
		label: name,
		fov:   90,
		proxy: true,
		valid: true,
	}
	if !w.SpawnWithoutCapture {
		c.capture = &StageCapture{mode: CaptureFinalColor}
	}
	w.cameras = append(w.cameras, c)
	return c, nil
}

// StageActor implements Actor.
type StageActor struct {
	name   string
	label  string
	meshes []*StageMesh
	valid  bool
}

func (a *StageActor) Name() string   { return a.name }
func (a *StageActor) Label() string  { return a.label }
func (a *StageActor) IsCamera() bool { return false }
func (a *StageActor) Valid() bool    { return a.valid }

// Remove invalidates the actor and its components.
func (a *StageActor) Remove() {
	a.valid = false
	for _, m := range a.meshes {
		m.valid = false
	}
}

// AddMesh adds a mesh component with the given number of material slots, each
// pre-assigned a plain material.
func (a *StageActor) AddMesh(name string, slots int) *StageMesh {
	m := &StageMesh{name: name, static: true, valid: true}
	for i := 0; i < slots; i++ {
		m.materials = append(m.materials, &StageMaterial{Name: fmt.Sprintf("%s-mat-%d", name, i)})
	}
	a.meshes = append(a.meshes, m)
	return m
}

func (a *StageActor) MeshComponents() []MeshComponent {
	out := make([]MeshComponent, len(a.meshes))
	for i, m := range a.meshes {
		out[i] = m
	}
	return out
}

// cameraActor exposes a camera through the Actor interface so resolver passes
// can recognize and skip camera-owning entities.
type cameraActor struct {
	cam *StageCamera
}

func (c cameraActor) Name() string                    { return c.cam.name }
func (c cameraActor) Label() string                   { return c.cam.label }
func (c cameraActor) IsCamera() bool                  { return true }
func (c cameraActor) MeshComponents() []MeshComponent { return nil }
func (c cameraActor) Valid() bool                     { return c.cam.valid }

// StageMesh implements MeshComponent.
type StageMesh struct {
	name      string
	static    bool
	materials []Material
	valid     bool
}

func (m *StageMesh) Name() string           { return m.name }
func (m *StageMesh) StaticMesh() bool       { return m.static }
func (m *StageMesh) Valid() bool            { return m.valid }
func (m *StageMesh) MaterialSlotCount() int { return len(m.materials) }

// SetStatic marks the mesh static or skeletal.
func (m *StageMesh) SetStatic(static bool) { m.static = static }

func (m *StageMesh) HasAssignedMaterials() bool {
	for _, mat := range m.materials {
		if mat != nil {
			return true
		}
	}
	return false
}

func (m *StageMesh) Material(slot int) Material {
	if slot < 0 || slot >= len(m.materials) {
		return nil
	}
	return m.materials[slot]
}

func (m *StageMesh) SetMaterial(slot int, mat Material) {
	if slot < 0 || slot >= len(m.materials) {
		return
	}
	m.materials[slot] = mat
}

// StageMaterial is a plain named material.
type StageMaterial struct {
	Name string
}

func (m *StageMaterial) MaterialName() string { return m.Name }

// StageDynamicMaterial implements DynamicMaterial, recording every parameter
// write so tests can assert on emitted values.
type StageDynamicMaterial struct {
	name    string
	Parent  Material
	scalars map[string]float64
	vectors map[string]Vec4
	texs    map[string]*Texture
}

func (d *StageDynamicMaterial) MaterialName() string { return d.name }

func (d *StageDynamicMaterial) SetScalar(name string, value float64) { d.scalars[name] = value }
func (d *StageDynamicMaterial) SetVector(name string, value Vec4)    { d.vectors[name] = value }
func (d *StageDynamicMaterial) SetTexture(name string, tex *Texture) { d.texs[name] = tex }

func (d *StageDynamicMaterial) Scalar(name string) (float64, bool) {
	v, ok := d.scalars[name]
	return v, ok
}

func (d *StageDynamicMaterial) Vector(name string) (Vec4, bool) {
	v, ok := d.vectors[name]
	return v, ok
}

func (d *StageDynamicMaterial) Texture(name string) (*Texture, bool) {
	t, ok := d.texs[name]
	return t, ok
}

// StageCamera implements Camera.
type StageCamera struct {
	name       string
	label      string
	providerID string
	transform  Transform
	fov        float64
	capture    *StageCapture
	proxy      bool
	valid      bool
}

func (c *StageCamera) Name() string             { return c.name }
func (c *StageCamera) Label() string            { return c.label }
func (c *StageCamera) ProviderID() string       { return c.providerID }
func (c *StageCamera) Transform() Transform     { return c.transform }
func (c *StageCamera) SetTransform(t Transform) { c.transform = t }
func (c *StageCamera) FOV() float64             { return c.fov }
func (c *StageCamera) SetFOV(fov float64)       { c.fov = fov }
func (c *StageCamera) IsCaptureProxy() bool     { return c.proxy }
func (c *StageCamera) Valid() bool              { return c.valid }

func (c *StageCamera) Capture() CaptureComponent {
	if c.capture == nil {
		return nil
	}
	return c.capture
}

// Remove invalidates the camera handle.
func (c *StageCamera) Remove() { c.valid = false }

// Destroy implements Camera.
func (c *StageCamera) Destroy() { c.valid = false }

// StageCapture implements CaptureComponent with a lazily allocated target.
type StageCapture struct {
	width      int
	height     int
	mode       CaptureMode
	everyFrame bool
	onMovement bool
	target     *Texture
}

func (c *StageCapture) SetSize(width, height int) {
	c.width, c.height = width, height
	if c.target != nil {
		c.target.Width, c.target.Height = width, height
	}
}

func (c *StageCapture) Size() (int, int) { return c.width, c.height }

func (c *StageCapture) SetMode(mode CaptureMode) { c.mode = mode }
func (c *StageCapture) Mode() CaptureMode        { return c.mode }

func (c *StageCapture) SetCaptureEveryFrame(enabled bool) { c.everyFrame = enabled }
func (c *StageCapture) SetCaptureOnMovement(enabled bool) { c.onMovement = enabled }
func (c *StageCapture) Capturing() bool                   { return c.everyFrame }

func (c *StageCapture) Target() *Texture {
	if c.target == nil {
		c.target = &Texture{Name: "capture-target", Width: c.width, Height: c.height}
	}
	return c.target
}
