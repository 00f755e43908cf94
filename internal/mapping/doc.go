// Package mapping implements the content-mapping engine: three declarative
// entity stores (render contexts, mapping surfaces, content mappings), the
// resolvers that bind them to a live scene, the projection parameter engine
// that derives per-material-slot shader parameters, and the tick-driven
// reconciliation manager tying it all together.
//
// The Manager is single-writer: CRUD calls, inbound events, asset callbacks,
// and the tick all run on one goroutine. Failures are recorded as per-entity
// lastError strings and never abort a reconciliation pass.
package mapping
