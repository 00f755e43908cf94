// Package config loads, normalizes, and validates beamer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BEAMER_RELAY_URL. The Config type centralizes every knob the daemon and CLI
// need, allowing state directories, relay endpoints, and engine timings to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
