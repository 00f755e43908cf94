package scene

// Query is the injected boundary the mapping engine enumerates the live scene
// through. Implementations must be safe to call repeatedly; all returned
// handles are weak and may become invalid between calls.
type Query interface {
	// Worlds returns every world currently hosted, relevant or not.
	Worlds() []World
	// NewDynamicMaterial creates a runtime-mutable parameter block derived
	// from a parent material.
	NewDynamicMaterial(parent Material) DynamicMaterial
}

// World is one running world instance.
type World interface {
	Kind() WorldKind
	Actors() []Actor
	Cameras() []Camera
	// SpawnCamera creates a new camera actor owned by this world.
	SpawnCamera(name string) (Camera, error)
}

// Actor is an actor-like entity owning components.
type Actor interface {
	Name() string
	Label() string
	IsCamera() bool
	MeshComponents() []MeshComponent
	// Valid reports whether the underlying entity still exists.
	Valid() bool
}

// MeshComponent is a renderable component with material slots.
type MeshComponent interface {
	Name() string
	// StaticMesh reports whether the component renders a static mesh, as
	// opposed to skeletal or procedural geometry.
	StaticMesh() bool
	MaterialSlotCount() int
	// HasAssignedMaterials reports whether any slot carries a material.
	HasAssignedMaterials() bool
	Material(slot int) Material
	SetMaterial(slot int, m Material)
	Valid() bool
}

// Material is an opaque material handle.
type Material interface {
	MaterialName() string
}

// DynamicMaterial is a per-slot runtime parameter block consumed by the
// rendering shader.
type DynamicMaterial interface {
	Material
	SetScalar(name string, value float64)
	SetVector(name string, value Vec4)
	SetTexture(name string, tex *Texture)
	Scalar(name string) (float64, bool)
	Vector(name string) (Vec4, bool)
	Texture(name string) (*Texture, bool)
}

// Camera is a camera actor.
type Camera interface {
	Name() string
	Label() string
	// ProviderID is the identifier the camera was registered with upstream.
	ProviderID() string
	Transform() Transform
	SetTransform(Transform)
	FOV() float64
	SetFOV(fov float64)
	// Capture returns the camera's capture component, or nil if it has none.
	Capture() CaptureComponent
	// IsCaptureProxy reports whether this camera was spawned as an owned
	// capture proxy rather than authored scene content.
	IsCaptureProxy() bool
	// Destroy removes the camera from its world; the handle is invalid
	// afterwards. Only meaningful for spawned proxies.
	Destroy()
	Valid() bool
}

// CaptureComponent renders a camera's view into a render target.
type CaptureComponent interface {
	SetSize(width, height int)
	Size() (width, height int)
	SetMode(mode CaptureMode)
	Mode() CaptureMode
	SetCaptureEveryFrame(enabled bool)
	SetCaptureOnMovement(enabled bool)
	Capturing() bool
	// Target returns the render target texture, sized per SetSize.
	Target() *Texture
}
