// Package scene models the engine boundary the content-mapping core runs
// against: worlds, actors, mesh components with material slots, cameras, and
// capture proxies.
//
// The mapping engine only consumes the interfaces declared here. A real
// renderer would satisfy them with live engine objects; this repository ships
// Stage, an in-memory implementation the daemon mirrors remote scene state
// into and tests drive directly.
package scene
