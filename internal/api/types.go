package api

import "beamer/internal/mapping"

// RenderContextView is the external representation of a render context.
type RenderContextView struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	SourceType  string `json:"sourceType"`
	CameraID    string `json:"cameraId,omitempty"`
	AssetID     string `json:"assetId,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CaptureMode string `json:"captureMode,omitempty"`
	Enabled     bool   `json:"enabled"`
	HasTexture  bool   `json:"hasTexture"`
	LastError   string `json:"lastError,omitempty"`
}

// MappingSurfaceView is the external representation of a mapping surface.
type MappingSurfaceView struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	ProjectID         string `json:"projectId,omitempty"`
	TargetID          string `json:"targetId,omitempty"`
	MeshComponentName string `json:"meshComponentName,omitempty"`
	UVChannel         int    `json:"uvChannel"`
	MaterialSlots     []int  `json:"materialSlots,omitempty"`
	Enabled           bool   `json:"enabled"`
	Resolved          bool   `json:"resolved"`
	LastError         string `json:"lastError,omitempty"`
}

// ContentMappingView is the external representation of a content mapping.
type ContentMappingView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	ProjectID  string         `json:"projectId,omitempty"`
	Type       string         `json:"type"`
	ContextID  string         `json:"contextId,omitempty"`
	SurfaceIDs []string       `json:"surfaceIds,omitempty"`
	Opacity    float64        `json:"opacity"`
	Enabled    bool           `json:"enabled"`
	Config     map[string]any `json:"config,omitempty"`
	LastError  string         `json:"lastError,omitempty"`
}

// Snapshot lists every entity the engine currently holds.
type Snapshot struct {
	Contexts []RenderContextView  `json:"contexts"`
	Surfaces []MappingSurfaceView `json:"surfaces"`
	Mappings []ContentMappingView `json:"mappings"`
}

// EngineStatus mirrors the engine's status summary.
type EngineStatus = mapping.StatusSummary

// AssetView describes one cached asset.
type AssetView struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	SizeBytes   int64  `json:"sizeBytes"`
	ContentType string `json:"contentType,omitempty"`
	FetchedAt   string `json:"fetchedAt"`
}
