// Package api defines the view types shared between the daemon, the IPC
// surface, and the CLI. Views are flat JSON-friendly snapshots of the
// engine's entities; conversion never exposes engine internals.
package api
