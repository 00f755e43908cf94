// Package daemon wires the content-mapping engine to its transports and
// enforces single-instance execution with a file lock.
//
// The engine is single-writer: one goroutine owns the manager and runs the
// tick loop. Everything else (relay traffic, IPC requests, asset download
// callbacks) is marshaled onto that goroutine through a command mailbox.
package daemon
