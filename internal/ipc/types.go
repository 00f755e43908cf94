package ipc

import "beamer/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse reports daemon and engine health.
type StatusResponse struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	LockPath      string           `json:"lock_path"`
	SocketPath    string           `json:"socket_path"`
	CachePath     string           `json:"cache_path"`
	AssetCacheDir string           `json:"asset_cache_dir"`
	RelayEnabled  bool             `json:"relay_enabled"`
	RelayURL      string           `json:"relay_url"`
	Engine        api.EngineStatus `json:"engine"`
}

// ListRequest fetches the entity snapshot.
type ListRequest struct{}

// ListResponse carries the entity snapshot.
type ListResponse struct {
	Snapshot api.Snapshot `json:"snapshot"`
}

// CreateRequest creates one entity of the given kind.
type CreateRequest struct {
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// CreateResponse reports the created entity's id.
type CreateResponse struct {
	ID string `json:"id"`
}

// UpdateRequest merges a partial payload into one entity.
type UpdateRequest struct {
	Kind    string         `json:"kind"`
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`
}

// UpdateResponse reports whether the entity existed.
type UpdateResponse struct {
	Updated bool `json:"updated"`
}

// DeleteRequest removes one entity.
type DeleteRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// DeleteResponse reports whether the entity existed.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ActionRequest invokes a registered action on an entity target.
type ActionRequest struct {
	Target  string         `json:"target"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}

// ActionResponse reports whether the action was recognized and applied.
type ActionResponse struct {
	Handled bool `json:"handled"`
}

// CoverageRequest toggles the coverage-debug preview.
type CoverageRequest struct {
	Enabled bool `json:"enabled"`
}

// CoverageResponse acknowledges the toggle.
type CoverageResponse struct{}

// ReplayRequest feeds a recorded event file into the engine.
type ReplayRequest struct {
	Path string `json:"path"`
}

// ReplayResponse acknowledges the replay.
type ReplayResponse struct{}

// AssetListRequest lists cached assets.
type AssetListRequest struct{}

// AssetListResponse carries the cached assets, newest first.
type AssetListResponse struct {
	Assets []api.AssetView `json:"assets"`
}

// AssetRemoveRequest drops one asset from the cache.
type AssetRemoveRequest struct {
	ID string `json:"id"`
}

// AssetRemoveResponse acknowledges the removal.
type AssetRemoveResponse struct{}

// AssetClearRequest empties the asset cache.
type AssetClearRequest struct{}

// AssetClearResponse acknowledges the clear.
type AssetClearResponse struct{}

// LogTailRequest reads lines from the daemon log file.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
