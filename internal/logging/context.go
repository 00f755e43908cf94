package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldContextID is the standardized structured logging key for render context identifiers.
	FieldContextID = "context_id"
	// FieldSurfaceID is the standardized structured logging key for mapping surface identifiers.
	FieldSurfaceID = "surface_id"
	// FieldMappingID is the standardized structured logging key for content mapping identifiers.
	FieldMappingID = "mapping_id"
	// FieldAssetID is the standardized structured logging key for asset identifiers.
	FieldAssetID = "asset_id"
)
